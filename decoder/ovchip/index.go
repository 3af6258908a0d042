package ovchip

import (
	"fmt"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
)

// Index tells which copy of each double-buffered area is current. Slots
// are byte pointers into the card memory.
type Index struct {
	TransactionSlot   int
	InfoSlot          int
	SubscriptionSlot  int
	TravelHistorySlot int
	CreditSlot        int
	// Subscriptions maps index entry ids 1-12 to record pointers.
	Subscriptions [12]int
}

// ParseIndex decodes sector 39 blocks 11-14: two 32 byte copies of the
// index, the one with the higher sequence number wins.
func ParseIndex(data []byte) (Index, error) {
	if len(data) != 64 {
		return Index{}, fmt.Errorf("index is %d bytes, want 64", len(data))
	}
	first, second := data[:32], data[32:]
	seqA, err := bitfield.ReadBits(first, 10, 16)
	if err != nil {
		return Index{}, err
	}
	seqB, err := bitfield.ReadBits(second, 10, 16)
	if err != nil {
		return Index{}, err
	}

	var idx Index
	buf := first
	idx.TransactionSlot = 0xfd0
	if seqB > seqA {
		buf = second
		idx.TransactionSlot = 0xfb0
	}

	c := bitfield.NewCursor(buf, 26)
	idx.InfoSlot = 0x580
	if c.ReadInt(1) == 1 {
		idx.InfoSlot = 0x5c0
	}

	c.Seek(108)
	for i := range idx.Subscriptions {
		n := c.ReadInt(4)
		switch {
		case n < 5:
			idx.Subscriptions[i] = 0x800 + n*0x30
		case n > 9:
			idx.Subscriptions[i] = 0xa00 + (n-10)*0x30
		default:
			idx.Subscriptions[i] = 0x900 + (n-5)*0x30
		}
	}

	c.Seek(248)
	flags := c.ReadInt(3)
	idx.SubscriptionSlot = pick(flags&0x4, 0xf10, 0xf30)
	idx.TravelHistorySlot = pick(flags&0x2, 0xf50, 0xf70)
	idx.CreditSlot = pick(flags&0x1, 0xf90, 0xfa0)
	return idx, c.Err()
}

func pick(flag, unset, set int) int {
	if flag == 0 {
		return unset
	}
	return set
}
