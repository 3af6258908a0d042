// Package clipper decodes Clipper cards (San Francisco Bay Area).
package clipper

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/internal/logging"
	"github.com/theoremus-urban-solutions/farecard-decoder/reconstruct"
	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

const (
	Family   = "clipper"
	CardName = "Clipper"
	Currency = "USD"
)

// Decoder decodes Clipper DESFire dumps.
type Decoder struct {
	stations stations.Provider
}

// New returns a Clipper decoder. provider may be nil.
func New(provider stations.Provider) *Decoder {
	if provider == nil {
		provider = stations.NoProvider{}
	}
	return &Decoder{stations: provider}
}

func (d *Decoder) Name() string { return Family }

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

// Decode builds the ledger. Trip balances are reconstructed from the current
// balance and the refill history, so they are left empty when either the
// balance or the refill file cannot be read.
func (d *Decoder) Decode(ctx context.Context, dump *card.Dump) (*transit.Ledger, error) {
	b := transit.NewBuilder(ctx, Family, CardName, Currency).SetScannedAt(dump.ScannedAt)
	b.Serial(func() (string, error) { return readSerial(dump) })
	b.Balance(func() (int64, error) { return readBalance(dump) })

	var refills []RefillRecord
	b.Refills(func() ([]transit.Refill, error) {
		recs, err := readRefills(ctx, dump)
		if err != nil {
			return nil, err
		}
		refills = recs
		out := make([]transit.Refill, len(recs))
		for i, r := range recs {
			out[i] = r.Refill()
		}
		return out, nil
	})
	b.Trips(func() ([]transit.Trip, error) {
		balance, ok := b.CurrentBalance()
		if b.Failed(transit.SubsystemRefills) {
			ok = false
		}
		return d.readTrips(ctx, dump, refills, balance, ok)
	})
	b.Info(func() ([]transit.InfoItem, error) { return readInfo(ctx, dump), nil })
	return b.Build(), nil
}

func readSerial(dump *card.Dump) (string, error) {
	data, err := dump.ReadFile(appID, fileSerial)
	if err != nil {
		return "", err
	}
	v, err := serialField.Read(data)
	if err != nil {
		return "", card.Wrap(appID, fileSerial, "serial", err)
	}
	return strconv.FormatUint(v, 10), nil
}

func readBalance(dump *card.Dump) (int64, error) {
	data, err := dump.ReadFile(appID, fileBalance)
	if err != nil {
		return 0, err
	}
	v, err := balanceField.Int(data)
	if err != nil {
		return 0, card.Wrap(appID, fileBalance, "balance", err)
	}
	return v, nil
}

// readRefills scans the refill file backward. A missing file means the card
// was never loaded; an unreadable one is an error.
func readRefills(ctx context.Context, dump *card.Dump) ([]RefillRecord, error) {
	data, err := dump.ReadFile(appID, fileRefills)
	if errors.Is(err, card.ErrNotPresent) {
		logging.FromContext(ctx).Debug().Err(err).Msg("clipper: no refill file")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []RefillRecord
	for off, rec := range bitfield.Backward(data, recordSize) {
		r, err := ParseRefill(rec)
		if errors.Is(err, transit.ErrMalformedRecord) {
			continue
		}
		if err != nil {
			return nil, card.Wrap(appID, fileRefills, "offset "+strconv.Itoa(off), err)
		}
		out = append(out, r)
	}
	return out, nil
}

func readRecords(dump *card.Dump) ([]Record, error) {
	data, err := dump.ReadFile(appID, fileTrips)
	if err != nil {
		return nil, err
	}
	var out []Record
	for off, rec := range bitfield.Backward(data, recordSize) {
		r, err := ParseRecord(rec)
		if errors.Is(err, transit.ErrMalformedRecord) {
			continue
		}
		if err != nil {
			return nil, card.Wrap(appID, fileTrips, "offset "+strconv.Itoa(off), err)
		}
		out = append(out, r)
	}
	// Some transactions are written twice with the same start time. The copy
	// carrying an exit time is the complete one.
	return reconstruct.DedupBy(out, func(r Record) int64 { return r.Timestamp }, Record.HasExit), nil
}

func (d *Decoder) readTrips(ctx context.Context, dump *card.Dump, refills []RefillRecord, balance int64, haveBalance bool) ([]transit.Trip, error) {
	records, err := readRecords(dump)
	if err != nil {
		return nil, err
	}

	var balances []int64
	if haveBalance {
		balances = reconstruct.ThreadBalances(balance,
			records, Record.Start, func(r Record) int64 { return r.Fare },
			refills, RefillRecord.Time, func(r RefillRecord) int64 { return r.Amount })
	}

	trips := make([]transit.Trip, 0, len(records))
	for i, r := range records {
		trip, err := d.buildTrip(ctx, r)
		if err != nil {
			return nil, err
		}
		if balances != nil {
			trip = trip.WithBalance(balances[i])
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

func (d *Decoder) buildTrip(ctx context.Context, r Record) (transit.Trip, error) {
	agency, short := agencyNames(r.Agency)
	trip := transit.Trip{
		Start:       r.Start(),
		End:         r.End(),
		Fare:        transit.Amount(r.Fare),
		Mode:        r.Mode(),
		Agency:      agency,
		ShortAgency: short,
		Route:       r.RouteName(),
		Vehicle:     r.VehicleID(),
	}
	var err error
	if trip.StartStation, err = resolveStation(ctx, d.stations, r.Agency, r.From, false); err != nil {
		return transit.Trip{}, err
	}
	if trip.EndStation, err = resolveStation(ctx, d.stations, r.Agency, r.To, true); err != nil {
		return transit.Trip{}, err
	}
	return trip, nil
}

// readInfo reports the card expiry, stored as days since 1900. Cards
// without the file simply have no info.
func readInfo(ctx context.Context, dump *card.Dump) []transit.InfoItem {
	data, err := dump.ReadFile(appID, fileExpiry)
	if err != nil {
		logging.FromContext(ctx).Debug().Err(err).Msg("clipper: no expiry file")
		return nil
	}
	days, err := expiryField.Read(data)
	if err != nil || days == 0 {
		return nil
	}
	expiry := clipperTime(int64(days) * secondsPerDay)
	return []transit.InfoItem{{Label: "Expiry", Value: expiry.Format(time.DateOnly)}}
}
