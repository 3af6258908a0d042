// Package edy decodes Rakuten Edy electronic money cards. Edy is not a
// transit card, but it shares the FeliCa common area with many transit
// cards and its history reads like one: purchases, charges and gifts.
package edy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

const (
	Family   = "edy"
	CardName = "Edy"
	Currency = "JPY"
)

// Transaction is one history block.
type Transaction struct {
	Type     int
	Sequence int
	Time     time.Time
	Amount   int64
	Balance  int64
}

// ParseTransaction decodes a history block. Empty blocks fail with
// transit.ErrMalformedRecord.
func ParseTransaction(data []byte) (Transaction, error) {
	v, err := historyLayout.Decode(data)
	if err != nil {
		return Transaction{}, err
	}
	if v.Int("type") == 0 && v.Int("sequence") == 0 && v.Get("days") == 0 && v.Get("seconds") == 0 {
		return Transaction{}, transit.Malformed(Family, -1, "empty history block")
	}
	return Transaction{
		Type:     v.Int("type"),
		Sequence: v.Int("sequence"),
		Time:     epoch.AddDate(0, 0, v.Int("days")).Add(time.Duration(v.Get("seconds")) * time.Second),
		Amount:   v.Get("amount"),
		Balance:  v.Get("balance"),
	}, nil
}

func (t Transaction) Mode() transit.Mode {
	switch t.Type {
	case typeDebit:
		return transit.ModePOS
	case typeCharge:
		return transit.ModeTicketMachine
	case typeGift:
		return transit.ModeVendingMachine
	}
	return transit.ModeOther
}

// SignedFare returns the amount as a fare: purchases are debits, charges
// and gifts credits.
func (t Transaction) SignedFare() int64 {
	if t.Type == typeDebit {
		return t.Amount
	}
	return -t.Amount
}

// Label names the transaction with its sequence number.
func (t Transaction) Label() string {
	kind := "Charge"
	switch t.Type {
	case typeDebit:
		kind = "Merchandise Purchase"
	case typeGift:
		kind = "Gift"
	}
	return fmt.Sprintf("%s #%08d", kind, t.Sequence)
}

// Decoder decodes Edy dumps.
type Decoder struct{}

func New() *Decoder { return &Decoder{} }

func (d *Decoder) Name() string { return Family }

func (d *Decoder) Check(dump *card.Dump) bool {
	if dump.Kind != card.KindFeliCa {
		return false
	}
	sys, ok := dump.System(systemCode)
	if !ok {
		return false
	}
	_, ok = sys.Service(serviceHistory)
	return ok
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
	b.Trips(func() ([]transit.Trip, error) { return readTrips(dump) })
	return b.Build(), nil
}

func firstBlock(dump *card.Dump, service int) ([]byte, error) {
	blocks, err := dump.ReadBlocks(systemCode, service)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, card.Errorf(systemCode, service, "no blocks")
	}
	return blocks[0], nil
}

// readSerial formats the 8 byte card id as four groups of four hex digits.
func readSerial(dump *card.Dump) (string, error) {
	data, err := firstBlock(dump, serviceID)
	if err != nil {
		return "", err
	}
	v, err := serialField.Read(data)
	if err != nil {
		return "", card.Wrap(systemCode, serviceID, "serial", err)
	}
	s := fmt.Sprintf("%016X", v)
	return s[0:4] + " " + s[4:8] + " " + s[8:12] + " " + s[12:16], nil
}

func readBalance(dump *card.Dump) (int64, error) {
	data, err := firstBlock(dump, serviceBalance)
	if err != nil {
		return 0, err
	}
	v, err := balanceField.Read(data)
	if err != nil {
		return 0, card.Wrap(systemCode, serviceBalance, "balance", err)
	}
	return int64(v), nil
}

func readTrips(dump *card.Dump) ([]transit.Trip, error) {
	blocks, err := dump.ReadBlocks(systemCode, serviceHistory)
	if err != nil {
		return nil, err
	}
	trips := make([]transit.Trip, 0, len(blocks))
	for i, block := range blocks {
		t, err := ParseTransaction(block)
		if errors.Is(err, transit.ErrMalformedRecord) {
			continue
		}
		if err != nil {
			return nil, card.Wrap(systemCode, serviceHistory, "block "+strconv.Itoa(i), err)
		}
		label := t.Label()
		trips = append(trips, transit.Trip{
			Start:        t.Time,
			Fare:         transit.Amount(t.SignedFare()),
			Mode:         t.Mode(),
			Agency:       label,
			ShortAgency:  label,
			BalanceAfter: transit.Amount(t.Balance),
		})
	}
	return trips, nil
}
