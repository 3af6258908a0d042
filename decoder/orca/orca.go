// Package orca decodes ORCA cards (Puget Sound, Washington).
package orca

import (
	"context"
	"errors"
	"strconv"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/internal/logging"
	"github.com/theoremus-urban-solutions/farecard-decoder/reconstruct"
	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

const (
	Family   = "orca"
	CardName = "ORCA"
	Currency = "USD"
)

// Decoder decodes ORCA DESFire dumps.
type Decoder struct {
	stations stations.Provider
}

// New returns an ORCA decoder. provider may be nil.
func New(provider stations.Provider) *Decoder {
	if provider == nil {
		provider = stations.NoProvider{}
	}
	return &Decoder{stations: provider}
}

func (d *Decoder) Name() string { return Family }

// Check reports whether the dump carries the ORCA application.
func (d *Decoder) Check(dump *card.Dump) bool {
	return dump.Kind == card.KindDESFire && dump.HasApp(appID)
}

func (d *Decoder) Identify(dump *card.Dump) (transit.Identity, error) {
	serial, err := readSerial(dump)
	if err != nil {
		return transit.Identity{}, err
	}
	return transit.Identity{Family: Family, Name: CardName, Serial: serial}, nil
}

func (d *Decoder) Decode(ctx context.Context, dump *card.Dump) (*transit.Ledger, error) {
	b := transit.NewBuilder(ctx, Family, CardName, Currency).SetScannedAt(dump.ScannedAt)
	b.Serial(func() (string, error) { return readSerial(dump) })
	b.Balance(func() (int64, error) { return readBalance(dump) })
	b.Trips(func() ([]transit.Trip, error) { return d.readTrips(ctx, dump) })
	return b.Build(), nil
}

func readSerial(dump *card.Dump) (string, error) {
	data, err := dump.ReadFile(masterAppID, fileSerial)
	if err != nil {
		return "", err
	}
	v, err := bitfield.ReadUint(data, 4, 4, bitfield.BigEndian)
	if err != nil {
		return "", card.Wrap(masterAppID, fileSerial, "serial", err)
	}
	return strconv.FormatUint(v, 10), nil
}

func readBalance(dump *card.Dump) (int64, error) {
	data, err := dump.ReadFile(appID, fileBalance)
	if err != nil {
		return 0, err
	}
	v, err := bitfield.ReadUint(data, balanceOffset, 2, bitfield.BigEndian)
	if err != nil {
		return 0, card.Wrap(appID, fileBalance, "balance", err)
	}
	return int64(v), nil
}

func (d *Decoder) readTrips(ctx context.Context, dump *card.Dump) ([]transit.Trip, error) {
	log := logging.FromContext(ctx)

	txns, err := readTransactions(ctx, dump, fileTrips, false)
	if err != nil {
		return nil, err
	}
	topups, err := readTransactions(ctx, dump, fileTopups, true)
	if err != nil {
		if !errors.Is(err, card.ErrNotPresent) {
			return nil, err
		}
		log.Debug().Err(err).Msg("orca: no top-up file")
	}
	txns = append(txns, topups...)

	segments := reconstruct.Pair(txns, Transaction.Time, sameTrip)
	trips := make([]transit.Trip, 0, len(segments))
	for _, seg := range segments {
		trip, err := d.buildTrip(ctx, seg)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

func readTransactions(ctx context.Context, dump *card.Dump, file int, topup bool) ([]Transaction, error) {
	records, err := dump.ReadRecords(appID, file, recordSize)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(records))
	for i, rec := range records {
		t, err := ParseTransaction(rec, topup)
		if errors.Is(err, transit.ErrMalformedRecord) {
			logging.FromContext(ctx).Debug().Int("file", file).Int("record", i).Msg("orca: skipping blank record")
			continue
		}
		if err != nil {
			return nil, card.Wrap(appID, file, "record "+strconv.Itoa(i), err)
		}
		out = append(out, t)
	}
	return out, nil
}

// sameTrip pairs a tap-in with the following tap-out or cancel of the same
// agency.
func sameTrip(start, end Transaction) bool {
	return start.isTapIn() && (end.isTapOut() || end.isCancel()) && start.Agency == end.Agency
}

func (d *Decoder) buildTrip(ctx context.Context, seg reconstruct.Segment[Transaction]) (transit.Trip, error) {
	start := seg.Start
	agency, short := start.AgencyNames()
	trip := transit.Trip{
		Start:        start.Time(),
		Mode:         start.Mode(),
		Agency:       agency,
		ShortAgency:  short,
		Route:        start.Route(),
		Vehicle:      start.Vehicle(),
		Fare:         transit.Amount(start.SignedFare()),
		BalanceAfter: transit.Amount(start.NewBalance),
	}
	if start.Topup {
		trip.Machine = strconv.Itoa(start.Coach)
	}
	st, err := start.Station(ctx, d.stations)
	if err != nil {
		return transit.Trip{}, err
	}
	trip.StartStation = st
	if !seg.Paired {
		return trip, nil
	}

	end := seg.End
	trip.End = end.Time()
	trip.BalanceAfter = transit.Amount(end.NewBalance)
	if end.isCancel() {
		trip.Fare = transit.Amount(start.Fare)
		trip.Cancelled = true
	} else {
		trip.Fare = transit.Amount(start.SignedFare() + end.SignedFare())
	}
	endStation, err := end.Station(ctx, d.stations)
	if err != nil {
		return transit.Trip{}, err
	}
	trip.EndStation = endStation
	return trip, nil
}

func isNotFound(err error) bool { return errors.Is(err, stations.ErrNotFound) }
