package ovchip

import (
	"fmt"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// Subscription is a product record referenced from the subscription index.
type Subscription struct {
	ID        int
	Company   int
	Product   int
	ValidFrom time.Time
	ValidTo   time.Time
	Machine   int

	// From the index entry.
	Active bool
	Used   bool
}

// Field mask bits of a subscription record.
const (
	subCompany   = 0x0000200
	subProduct   = 0x0000400
	subID        = 0x0000800
	subUnknown1  = 0x0002000
	subValidity  = 0x0200000
	subMachine   = 0x0800000
	subFromDate  = 0x01
	subFromTime  = 0x02
	subToDate    = 0x04
	subToTime    = 0x08
	subUnknown2  = 0x10
	subMaskWidth = 28
)

// ParseSubscription decodes a three block subscription record.
func ParseSubscription(slot int, data []byte, active, used bool) (Subscription, error) {
	c := bitfield.NewCursor(data, 0)
	mask := c.ReadInt(subMaskWidth)
	if mask == 0 {
		return Subscription{}, transit.Malformed(Family, slot, "empty subscription")
	}
	s := Subscription{Active: active, Used: used}
	s.Company = c.ReadIf(mask&subCompany != 0, 8, 0)
	if mask&subProduct != 0 {
		s.Product = c.ReadInt(16)
		// The product is followed by 8 unused bits.
		c.Skip(8)
	}
	s.ID = c.ReadIf(mask&subID != 0, 24, 0)
	c.ReadIf(mask&subUnknown1 != 0, 10, 0)

	sub := c.ReadIf(mask&subValidity != 0, 9, 0)
	fromDate := c.ReadIf(sub&subFromDate != 0, 14, 0)
	fromTime := c.ReadIf(sub&subFromTime != 0, 11, 0)
	toDate := c.ReadIf(sub&subToDate != 0, 14, 0)
	toTime := c.ReadIf(sub&subToTime != 0, 11, 0)
	if sub&subUnknown2 != 0 {
		c.Skip(53)
	}
	s.Machine = c.ReadIf(mask&subMachine != 0, 24, 0)
	if err := c.Err(); err != nil {
		return Subscription{}, fmt.Errorf("subscription %d: %w", slot, err)
	}

	if sub&subFromDate != 0 {
		s.ValidFrom = cardDate(fromDate, fromTime)
	}
	if sub&subToDate != 0 {
		s.ValidTo = cardDate(toDate, toTime)
	}
	return s, nil
}

// Name returns the product name.
func (s Subscription) Name() string {
	if name, ok := subscriptionNames[s.Product]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Subscription (0x%x)", s.Product)
}

// Status describes the activation state stored in the index.
func (s Subscription) Status() string {
	switch {
	case !s.Active:
		return "Deactivated"
	case s.Used:
		return "Activated and used"
	}
	return "Activated but not used"
}

func (s Subscription) Subscription() transit.Subscription {
	out := transit.Subscription{
		ID:          s.ID,
		Name:        s.Name(),
		Agency:      shortAgencyName(s.Company),
		ValidFrom:   s.ValidFrom,
		ValidTo:     s.ValidTo,
		Description: s.Status(),
	}
	if s.Machine != 0 {
		out.Machine = fmt.Sprintf("%d", s.Machine)
	}
	return out
}
