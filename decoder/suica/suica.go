// Package suica decodes Suica and the other Japanese transit IC cards
// (PASMO, ICOCA, TOICA, manaca, PiTaPa, Kitaca, SUGOCA, nimoca, Hayakaken).
// They share one FeliCa system and history format; the issuer is told apart
// by the service codes the card advertises.
//
// The cards store no readable serial number and no per-record fare. Fares
// are the difference between successive balances, so the oldest record has
// no fare.
package suica

import (
	"context"
	"errors"
	"slices"
	"strconv"

	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/internal/logging"
	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

const (
	Family   = "suica"
	Currency = "JPY"
)

// Decoder decodes Japan IC FeliCa dumps.
type Decoder struct {
	stations stations.Provider
}

// New returns a Suica decoder. provider may be nil.
func New(provider stations.Provider) *Decoder {
	if provider == nil {
		provider = stations.NoProvider{}
	}
	return &Decoder{stations: provider}
}

func (d *Decoder) Name() string { return Family }

func (d *Decoder) Check(dump *card.Dump) bool {
	if dump.Kind != card.KindFeliCa {
		return false
	}
	_, ok := dump.System(systemCode)
	return ok
}

func (d *Decoder) Identify(dump *card.Dump) (transit.Identity, error) {
	return transit.Identity{Family: Family, Name: cardName(dump)}, nil
}

func (d *Decoder) Decode(ctx context.Context, dump *card.Dump) (*transit.Ledger, error) {
	b := transit.NewBuilder(ctx, Family, cardName(dump), Currency).SetScannedAt(dump.ScannedAt)

	var records []Record
	b.Trips(func() ([]transit.Trip, error) {
		var err error
		records, err = readHistory(ctx, dump)
		if err != nil {
			return nil, err
		}
		return d.buildTrips(ctx, records)
	})
	b.Balance(func() (int64, error) {
		if len(records) == 0 {
			return 0, card.Errorf(systemCode, serviceHistory, "no history to read a balance from")
		}
		return records[0].Balance, nil
	})
	return b.Build(), nil
}

func cardName(dump *card.Dump) string {
	sys, ok := dump.System(systemCode)
	if !ok {
		return DefaultCardName
	}
	return CardName(sys.AllServiceCodes())
}

// readHistory returns history records newest first, with fares and gate
// times filled in.
func readHistory(ctx context.Context, dump *card.Dump) ([]Record, error) {
	log := logging.FromContext(ctx)

	blocks, err := dump.ReadBlocks(systemCode, serviceHistory)
	if err != nil {
		return nil, err
	}
	taps, err := readTaps(dump)
	if err != nil {
		log.Debug().Err(err).Msg("suica: no gate history")
	}
	used := make([]bool, len(taps))

	// Walk oldest to newest so each fare can be taken from the older balance.
	records := make([]Record, 0, len(blocks))
	var prev int64
	havePrev := false
	for i := len(blocks) - 1; i >= 0; i-- {
		r, err := ParseRecord(blocks[i])
		if errors.Is(err, transit.ErrMalformedRecord) {
			continue
		}
		if err != nil {
			return nil, card.Wrap(systemCode, serviceHistory, "block "+strconv.Itoa(i), err)
		}
		if havePrev {
			r.Fare, r.HasFare = prev-r.Balance, true
		}
		prev, havePrev = r.Balance, true
		if r.Console == consoleTurnstile && len(taps) > 0 {
			matchTaps(&r, taps, used)
		}
		records = append(records, r)
	}
	slices.Reverse(records)
	return records, nil
}

func readTaps(dump *card.Dump) ([]Tap, error) {
	blocks, err := dump.ReadBlocks(systemCode, serviceInOut)
	if err != nil {
		return nil, err
	}
	taps := make([]Tap, 0, len(blocks))
	for i, b := range blocks {
		t, err := ParseTap(b)
		if err != nil {
			return nil, card.Wrap(systemCode, serviceInOut, "block "+strconv.Itoa(i), err)
		}
		taps = append(taps, t)
	}
	return taps, nil
}

func (d *Decoder) buildTrips(ctx context.Context, records []Record) ([]transit.Trip, error) {
	trips := make([]transit.Trip, 0, len(records))
	for _, r := range records {
		start, end, err := r.Stations(ctx, d.stations)
		if err != nil {
			return nil, err
		}
		trip := transit.Trip{
			Start:        r.Start,
			End:          r.End,
			StartStation: start,
			EndStation:   end,
			Mode:         r.Mode(),
			Route:        r.Route(start != nil),
			BalanceAfter: transit.Amount(r.Balance),
		}
		if r.HasFare {
			trip.Fare = transit.Amount(r.Fare)
		}
		if start != nil {
			trip.Agency = start.Company
		}
		trips = append(trips, trip)
	}
	return trips, nil
}
