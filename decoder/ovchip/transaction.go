package ovchip

import (
	"fmt"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
	"github.com/theoremus-urban-solutions/farecard-decoder/reconstruct"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// Transaction is one transaction slot.
type Transaction struct {
	Slot         int
	Date         int // days since 1997-01-01
	Minute       int
	Transfer     int
	Company      int
	ID           int
	Station      int
	Machine      int
	Vehicle      int
	Product      int
	Amount       int64
	Subscription int
}

// ParseTransaction decodes a 32 byte transaction slot. Empty slots and
// records using fields never seen in practice fail with
// transit.ErrMalformedRecord.
func ParseTransaction(slot int, rec []byte) (Transaction, error) {
	mask, err := bitfield.ReadBits(rec, 0, fieldMaskWidth)
	if err != nil {
		return Transaction{}, err
	}
	if mask == 0 {
		return Transaction{}, transit.Malformed(Family, slot, "empty slot")
	}

	c := bitfield.NewCursor(rec, fieldMaskWidth)
	t := Transaction{
		Slot:         slot,
		Date:         c.ReadInt(dateWidth),
		Minute:       c.ReadInt(timeWidth),
		Transfer:     processNoData,
		Subscription: -1,
	}
	for _, f := range transactionFields {
		if mask>>f.Flag&1 == 0 {
			continue
		}
		if f.Name == "never" {
			return Transaction{}, transit.Malformed(Family, slot, fmt.Sprintf("unknown field flag %d", f.Flag))
		}
		v := c.ReadInt(f.Width)
		switch f.Name {
		case "transfer":
			t.Transfer = v
		case "company":
			t.Company = v
		case "id":
			t.ID = v
		case "station":
			t.Station = v
		case "machine":
			t.Machine = v
		case "vehicle":
			t.Vehicle = v
		case "product":
			t.Product = v
		case "amount":
			t.Amount = int64(v)
		case "subscription":
			t.Subscription = v
		}
	}
	if err := c.Err(); err != nil {
		return Transaction{}, fmt.Errorf("slot %d: %w", slot, err)
	}
	return t, nil
}

func (t Transaction) Time() time.Time { return cardDate(t.Date, t.Minute) }

func (t Transaction) IsCheckin() bool  { return t.Transfer == processCheckin }
func (t Transaction) IsCheckout() bool { return t.Transfer == processCheckout }

// IsCharge reports a balance reload. Reloads are numbered separately and
// may share an ID with a journey.
func (t Transaction) IsCharge() bool {
	return t.Transfer == processCredit || t.Transfer == processTransfer
}

func (t Transaction) IsPurchase() bool {
	return t.Transfer == processPurchase || t.Transfer == processNoData
}

// Fare is the amount as a fare; reloads are credits.
func (t Transaction) Fare() int64 {
	if t.IsCharge() {
		return -t.Amount
	}
	return t.Amount
}

// Mode classifies by process type, then by company and station range.
func (t Transaction) Mode() transit.Mode {
	switch {
	case t.Transfer == processBanned:
		return transit.ModeBanned
	case t.IsCharge():
		return transit.ModeTicketMachine
	case t.IsPurchase():
		return transit.ModeVendingMachine
	}
	switch t.Company {
	case agencyNS:
		return transit.ModeTrain
	case agencyTLS, agencyDUO, agencyStore:
		return transit.ModeOther
	case agencyGVB, agencyRET:
		if t.Station < 3000 {
			return transit.ModeMetro
		}
	case agencyArriva:
		switch {
		case t.Station <= 800:
			return transit.ModeTrain
		case t.Station > 4600 && t.Station < 4700:
			return transit.ModeFerry
		}
	}
	return transit.ModeBus
}

// sameTrip reports whether end closes the journey opened by start.
// Check-outs after midnight count for the same journey, except on NS after
// 04:00.
func sameTrip(start, end Transaction) bool {
	if start.Company != end.Company || !start.IsCheckin() || !end.IsCheckout() {
		return false
	}
	return reconstruct.SameServiceDay(start.Date, end.Date, end.Minute, nsCutoffMinute, start.Company == agencyNS)
}

func agencyName(company int) string {
	if name, ok := agencyNames[company]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%x)", company)
}

func shortAgencyName(company int) string {
	if name, ok := shortAgencyNames[company]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%x)", company)
}
