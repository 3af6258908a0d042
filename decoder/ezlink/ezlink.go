// Package ezlink decodes CEPAS stored value cards from Singapore: EZ-Link,
// NETS FlashPay and other issuers sharing the CEPAS purse format.
//
// The purse holds the balance and the card application number (CAN), whose
// first digits name the issuer. The history file is a log of 16 byte
// records; each MRT record carries both stations as "AAA-BBB" user data, so
// no tap pairing is needed.
package ezlink

import (
	"context"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/internal/logging"
	"github.com/theoremus-urban-solutions/farecard-decoder/reconstruct"
	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

const (
	Family   = "ezlink"
	CardName = "EZ-Link"
	Currency = "SGD"
)

// Decoder decodes CEPAS dumps.
type Decoder struct {
	stations stations.Provider
}

// New returns a CEPAS decoder. Stations from provider's "ezlink" namespace
// take precedence over the built-in MRT table. provider may be nil.
func New(provider stations.Provider) *Decoder {
	if provider == nil {
		provider = stations.NoProvider{}
	}
	return &Decoder{stations: provider}
}

func (d *Decoder) Name() string { return Family }

func (d *Decoder) Check(dump *card.Dump) bool {
	if dump.Kind != card.KindCEPAS {
		return false
	}
	_, err := dump.Purse(purseID)
	return err == nil
}

func (d *Decoder) Identify(dump *card.Dump) (transit.Identity, error) {
	p, err := readPurse(dump)
	if err != nil {
		return transit.Identity{}, err
	}
	return transit.Identity{Family: Family, Name: p.Issuer(), Serial: p.CAN}, nil
}

func (d *Decoder) Decode(ctx context.Context, dump *card.Dump) (*transit.Ledger, error) {
	b := transit.NewBuilder(ctx, Family, CardName, Currency).SetScannedAt(dump.ScannedAt)
	p, err := readPurse(dump)
	if err != nil {
		b.Fail(transit.SubsystemSerial, err).Fail(transit.SubsystemBalance, err)
	} else {
		b.SetName(p.Issuer())
		b.Serial(func() (string, error) { return p.CAN, nil })
		b.Balance(func() (int64, error) { return p.Balance, nil })
		b.Info(func() ([]transit.InfoItem, error) { return p.Info(), nil })
	}
	issuer := defaultIssuer
	if err == nil {
		issuer = p.Issuer()
	}
	b.Trips(func() ([]transit.Trip, error) {
		balance, ok := b.CurrentBalance()
		return d.readTrips(ctx, dump, issuer, balance, ok)
	})
	return b.Build(), nil
}

// Purse is the decoded CEPAS purse.
type Purse struct {
	Version    int
	Status     int
	Balance    int64
	AutoLoad   int64
	CAN        string
	CSN        string
	Expiry     time.Time
	Created    time.Time
	LogRecords int
}

func readPurse(dump *card.Dump) (Purse, error) {
	data, err := dump.Purse(purseID)
	if err != nil {
		return Purse{}, err
	}
	v, err := purseLayout.Decode(data)
	if err != nil {
		return Purse{}, card.Wrap(purseID, 0, "purse", err)
	}
	return Purse{
		Version:    v.Int("version"),
		Status:     v.Int("status"),
		Balance:    v.Get("balance"),
		AutoLoad:   v.Get("autoload"),
		CAN:        hex.EncodeToString(data[canOffset : canOffset+idSize]),
		CSN:        strings.ToUpper(hex.EncodeToString(data[csnOffset : csnOffset+idSize])),
		Expiry:     cardDay(v.Int("expiry_day")),
		Created:    cardDay(v.Int("creation_day")),
		LogRecords: v.Int("log_records"),
	}, nil
}

// Issuer names the card issuer from the CAN prefix.
func (p Purse) Issuer() string {
	if len(p.CAN) >= 3 {
		if name, ok := issuers[p.CAN[:3]]; ok {
			return name
		}
	}
	return defaultIssuer
}

func (p Purse) Info() []transit.InfoItem {
	return []transit.InfoItem{
		{Label: "Issuer", Value: p.Issuer()},
		{Label: "Card Application Number", Value: p.CAN},
		{Label: "Card Serial Number", Value: p.CSN},
		{Label: "Issue Date", Value: p.Created.Format(time.DateOnly)},
		{Label: "Expiry Date", Value: p.Expiry.Format(time.DateOnly)},
		{Label: "Auto-load Amount", Value: transit.FormatAmount(p.AutoLoad, Currency)},
		{Label: "CEPAS Version", Value: strconv.Itoa(p.Version)},
		{Label: "Purse Status", Value: "0x" + strconv.FormatInt(int64(p.Status), 16)},
		{Label: "Log Records", Value: strconv.Itoa(p.LogRecords)},
	}
}

func readTransactions(ctx context.Context, dump *card.Dump) ([]Transaction, error) {
	data, err := dump.History(historyID)
	if err != nil {
		return nil, err
	}
	var out []Transaction
	for off, rec := range bitfield.Forward(data, historyRecordSize) {
		slot := off / historyRecordSize
		t, err := ParseTransaction(slot, rec)
		if errors.Is(err, transit.ErrMalformedRecord) {
			continue
		}
		if err != nil {
			return nil, card.Wrap(historyID, slot, "history", err)
		}
		out = append(out, t)
	}
	logging.FromContext(ctx).Debug().Int("records", len(out)).Msg("ezlink: read history")
	return out, nil
}

func (d *Decoder) readTrips(ctx context.Context, dump *card.Dump, issuer string, balance int64, haveBalance bool) ([]transit.Trip, error) {
	txns, err := readTransactions(ctx, dump)
	if err != nil {
		return nil, err
	}
	var balances []int64
	if haveBalance {
		fare := func(t Transaction) int64 { return -t.Amount }
		balances = reconstruct.ThreadBalances(balance,
			txns, func(t Transaction) time.Time { return t.Time }, fare,
			[]Transaction(nil), func(t Transaction) time.Time { return t.Time }, fare)
	}

	resolver := stations.Chain(d.stations.For(namespace), builtin)
	trips := make([]transit.Trip, 0, len(txns))
	for i, t := range txns {
		trip := transit.Trip{
			Start:       t.Time,
			Mode:        t.Mode(),
			Agency:      t.Agency(issuer, false),
			ShortAgency: t.Agency(issuer, true),
			Route:       t.Route(),
		}
		if fare, ok := t.Fare(); ok {
			trip.Fare = transit.Amount(fare)
		}
		if err := resolveStations(ctx, resolver, t, &trip); err != nil {
			return nil, err
		}
		if balances != nil {
			trip = trip.WithBalance(balances[i])
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

func resolveStations(ctx context.Context, r stations.Resolver, t Transaction, trip *transit.Trip) error {
	if _, ok := t.busRoute(); ok {
		return nil
	}
	if t.Type != typeCreation && t.Type != typeRetail {
		if from, to, ok := t.stationPair(); ok {
			start, err := station(ctx, r, from)
			if err != nil {
				return err
			}
			end, err := station(ctx, r, to)
			if err != nil {
				return err
			}
			trip.StartStation, trip.EndStation = &start, &end
			return nil
		}
	}
	// Other records name a place, sometimes a known station code.
	if name := strings.TrimSpace(t.UserData); name != "" {
		s, err := station(ctx, r, name)
		if err != nil {
			return err
		}
		if s.Unknown {
			s = transit.Station{ID: name, Name: name}
		}
		trip.StartStation = &s
	}
	return nil
}

// station resolves a three letter code. Unknown codes are shown as-is.
func station(ctx context.Context, r stations.Resolver, code string) (transit.Station, error) {
	s, err := r.ResolveStation(ctx, 0, stations.CodeFromString(code))
	if errors.Is(err, stations.ErrNotFound) {
		return transit.Station{ID: code, Name: code, ShortName: code, Unknown: true}, nil
	}
	if err != nil {
		return transit.Station{}, err
	}
	s.ID = code
	return s, nil
}
