// Package ovchip decodes OV-chipkaart cards (Netherlands), MIFARE Classic
// 4K cards with bit-packed, double-buffered records.
//
// The index in sector 39 selects the current copy of the info, credit and
// subscription areas. Transactions are 28 two-block slots in sectors 35-38
// whose fields are present only when flagged in a leading bit mask.
// Check-in and check-out slots are paired into journeys.
package ovchip

import (
	"cmp"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
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
	Family   = "ovchip"
	CardName = "OV-chipkaart"
	Currency = "EUR"

	namespace = "ovc"
)

// Decoder decodes OV-chipkaart Classic dumps.
type Decoder struct {
	stations stations.Provider
}

// New returns an OV-chipkaart decoder. provider may be nil.
func New(provider stations.Provider) *Decoder {
	if provider == nil {
		provider = stations.NoProvider{}
	}
	return &Decoder{stations: provider}
}

func (d *Decoder) Name() string { return Family }

// Check requires a 4K Classic dump with the OV-chipkaart header.
func (d *Decoder) Check(dump *card.Dump) bool {
	if dump.Kind != card.KindClassic || len(dump.Sectors) != sectorCount {
		return false
	}
	block, err := dump.ReadBlock(0, 1)
	return err == nil && hasHeader(block)
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
	b.Balance(func() (int64, error) {
		c, err := readCredit(dump)
		return c.Credit, err
	})
	b.Trips(func() ([]transit.Trip, error) { return d.readTrips(ctx, dump) })
	b.Subscriptions(func() ([]transit.Subscription, error) { return readSubscriptions(ctx, dump) })
	b.Info(func() ([]transit.InfoItem, error) { return readInfo(dump) })
	return b.Build(), nil
}

// readSerial returns the first four bytes of the manufacturer block.
func readSerial(dump *card.Dump) (string, error) {
	block, err := dump.ReadBlock(0, 0)
	if err != nil {
		return "", err
	}
	if len(block) < 4 {
		return "", card.Errorf(0, 0, "manufacturer block is %d bytes", len(block))
	}
	return strings.ToUpper(hex.EncodeToString(block[:4])), nil
}

func readIndex(dump *card.Dump) (Index, error) {
	data, err := dump.ReadSectorBlocks(indexSector, indexBlock, 4)
	if err != nil {
		return Index{}, err
	}
	idx, err := ParseIndex(data)
	if err != nil {
		return Index{}, card.Wrap(indexSector, indexBlock, "index", err)
	}
	return idx, nil
}

// Credit is the current credit slot.
type Credit struct {
	Banned   bool
	SlotID   int
	CreditID int
	Credit   int64
}

func readCredit(dump *card.Dump) (Credit, error) {
	idx, err := readIndex(dump)
	if err != nil {
		return Credit{}, err
	}
	sector, block := blockAt(idx.CreditSlot)
	data, err := dump.ReadBlock(sector, block)
	if err != nil {
		return Credit{}, err
	}
	v, err := creditLayout.Decode(data)
	if err != nil {
		return Credit{}, card.Wrap(uint32(sector), block, "credit", err)
	}
	return Credit{
		Banned:   v.Int("banbits")&0xc0 == 0xc0,
		SlotID:   v.Int("slot_id"),
		CreditID: v.Int("credit_id"),
		Credit:   v.Get("credit") - creditBias,
	}, nil
}

func readTransactions(ctx context.Context, dump *card.Dump) ([]Transaction, error) {
	log := logging.FromContext(ctx)
	var out []Transaction
	for slot := 0; slot < transactionSlots; slot++ {
		sector := firstTransactionSector + slot/slotsPerSector
		block := slot % slotsPerSector * 2
		rec, err := dump.ReadSectorBlocks(sector, block, 2)
		if err != nil {
			return nil, err
		}
		t, err := ParseTransaction(slot, rec)
		if errors.Is(err, transit.ErrMalformedRecord) {
			if !bitfield.IsZero(rec) {
				log.Debug().Int("slot", slot).Err(err).Msg("ovchip: skipping transaction slot")
			}
			continue
		}
		if err != nil {
			return nil, card.Wrap(uint32(sector), block, "transaction", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// journeys orders transactions by id, drops duplicated check-ins and
// check-outs, and pairs the rest. Segments are returned newest first.
func journeys(txns []Transaction) []reconstruct.Segment[Transaction] {
	byID := func(a, b Transaction) int { return cmp.Compare(a.ID, b.ID) }
	sorted := slices.Clone(txns)
	slices.SortStableFunc(sorted, byID)

	var taps, charges []Transaction
	for _, t := range sorted {
		if t.IsCharge() {
			charges = append(charges, t)
		} else {
			taps = append(taps, t)
		}
	}
	// A repeated check-in keeps the later copy, a repeated check-out the
	// earlier one.
	taps = reconstruct.DedupBy(taps, func(t Transaction) int { return t.ID }, Transaction.IsCheckout)

	ordered := append(taps, charges...)
	slices.SortStableFunc(ordered, func(a, b Transaction) int { return byID(b, a) })
	return reconstruct.PairOrdered(ordered, sameTrip)
}

func (d *Decoder) readTrips(ctx context.Context, dump *card.Dump) ([]transit.Trip, error) {
	txns, err := readTransactions(ctx, dump)
	if err != nil {
		return nil, err
	}
	resolver := d.stations.For(namespace)
	segments := journeys(txns)
	trips := make([]transit.Trip, 0, len(segments))
	for _, seg := range segments {
		in := seg.Start
		trip := transit.Trip{
			Start:       in.Time(),
			Fare:        transit.Amount(in.Fare()),
			Mode:        in.Mode(),
			Agency:      agencyName(in.Company),
			ShortAgency: shortAgencyName(in.Company),
		}
		if in.Machine != 0 {
			trip.Machine = strconv.Itoa(in.Machine)
		}
		if in.Vehicle != 0 {
			trip.Vehicle = strconv.Itoa(in.Vehicle)
		}
		if in.Station != 0 {
			s, err := stations.Lookup(ctx, resolver, in.Company, in.Station, strconv.Itoa(in.Station))
			if err != nil {
				return nil, err
			}
			trip.StartStation = &s
		}
		if seg.Paired {
			out := seg.End
			trip.End = out.Time()
			trip.Fare = transit.Amount(out.Fare())
			s, err := stations.Lookup(ctx, resolver, in.Company, out.Station, strconv.Itoa(out.Station))
			if err != nil {
				return nil, err
			}
			trip.EndStation = &s
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

func readSubscriptions(ctx context.Context, dump *card.Dump) ([]transit.Subscription, error) {
	idx, err := readIndex(dump)
	if err != nil {
		return nil, err
	}
	sector, block := blockAt(idx.SubscriptionSlot)
	data, err := dump.ReadSectorBlocks(sector, block, 2)
	if err != nil {
		return nil, err
	}

	c := bitfield.NewCursor(data, 0)
	count := c.ReadInt(4)
	var subs []Subscription
	for i := 0; i < count; i++ {
		entry := c.ReadInt(21)
		active := entry>>13&0xff != 0
		used := entry>>6&1 == 1
		ref := entry & 0xf
		if ref < 1 || ref > len(idx.Subscriptions) {
			return nil, card.Errorf(uint32(sector), block, "subscription entry %d points to %d", i, ref)
		}
		ss, sb := blockAt(idx.Subscriptions[ref-1])
		rec, err := dump.ReadSectorBlocks(ss, sb, 3)
		if err != nil {
			return nil, err
		}
		s, err := ParseSubscription(i, rec, active, used)
		if errors.Is(err, transit.ErrMalformedRecord) {
			logging.FromContext(ctx).Debug().Int("entry", i).Msg("ovchip: empty subscription record")
			continue
		}
		if err != nil {
			return nil, card.Wrap(uint32(ss), sb, "subscription", err)
		}
		subs = append(subs, s)
	}
	if err := c.Err(); err != nil {
		return nil, card.Wrap(uint32(sector), block, "subscription index", err)
	}

	slices.SortStableFunc(subs, func(a, b Subscription) int { return cmp.Compare(a.ID, b.ID) })
	out := make([]transit.Subscription, len(subs))
	for i, s := range subs {
		out[i] = s.Subscription()
	}
	return out, nil
}

func readInfo(dump *card.Dump) ([]transit.InfoItem, error) {
	preamble, err := dump.ReadSectorBlocks(0, 0, 3)
	if err != nil {
		return nil, err
	}
	p, err := preambleLayout.Decode(preamble)
	if err != nil {
		return nil, card.Wrap(0, 0, "preamble", err)
	}
	hexPreamble := strings.ToUpper(hex.EncodeToString(preamble))
	personal := p.Int("type") == 2

	idx, err := readIndex(dump)
	if err != nil {
		return nil, err
	}
	sector := 22
	if idx.InfoSlot == 0x5c0 {
		sector = 23
	}
	infoData, err := dump.ReadSectorBlocks(sector, 0, 3)
	if err != nil {
		return nil, err
	}
	info, err := infoLayout.Decode(infoData)
	if err != nil {
		return nil, card.Wrap(uint32(sector), 0, "card info", err)
	}
	credit, err := readCredit(dump)
	if err != nil {
		return nil, err
	}

	cardType := "Anonymous"
	if personal {
		cardType = "Personal"
	}
	items := []transit.InfoItem{
		{Label: "Hardware Information", Header: true},
		{Label: "Manufacturer ID", Value: hexPreamble[10:20]},
		{Label: "Publisher ID", Value: hexPreamble[20:32]},
		{Label: "General Information", Header: true},
		{Label: "Serial Number", Value: hexPreamble[:8]},
		{Label: "Expiration Date", Value: cardDate(p.Int("expiry"), 0).Format(time.DateOnly)},
		{Label: "Card Type", Value: cardType},
		{Label: "Issuer", Value: shortAgencyName(info.Int("company"))},
		{Label: "Banned", Value: yesNo(credit.Banned)},
	}
	if personal && info.Int("personal") == 1 {
		if birth, ok := birthdate(infoData); ok {
			items = append(items,
				transit.InfoItem{Label: "Personal Information", Header: true},
				transit.InfoItem{Label: "Birthdate", Value: birth.Format(time.DateOnly)},
			)
		}
	}
	items = append(items,
		transit.InfoItem{Label: "Credit Information", Header: true},
		transit.InfoItem{Label: "Credit Slot ID", Value: strconv.Itoa(credit.SlotID)},
		transit.InfoItem{Label: "Last Credit ID", Value: strconv.Itoa(credit.CreditID)},
		transit.InfoItem{Label: "Credit", Value: transit.FormatAmount(credit.Credit, Currency)},
		transit.InfoItem{Label: "Autocharge", Value: yesNo(info.Int("autocharge_active") == 0x05)},
		transit.InfoItem{Label: "Autocharge Limit", Value: transit.FormatAmount(info.Get("autocharge_limit"), Currency)},
		transit.InfoItem{Label: "Autocharge Charge", Value: transit.FormatAmount(info.Get("autocharge_charge"), Currency)},
		transit.InfoItem{Label: "Recent Slots", Header: true},
		transit.InfoItem{Label: "Transaction Slot", Value: fmt.Sprintf("0x%x", idx.TransactionSlot)},
		transit.InfoItem{Label: "Info Slot", Value: fmt.Sprintf("0x%x", idx.InfoSlot)},
		transit.InfoItem{Label: "Subscription Slot", Value: fmt.Sprintf("0x%x", idx.SubscriptionSlot)},
		transit.InfoItem{Label: "Travelhistory Slot", Value: fmt.Sprintf("0x%x", idx.TravelHistorySlot)},
		transit.InfoItem{Label: "Credit Slot", Value: fmt.Sprintf("0x%x", idx.CreditSlot)},
	)
	return items, nil
}

// birthdate reads the BCD date of birth stored on personal cards.
func birthdate(info []byte) (time.Time, bool) {
	if len(info) < 18 {
		return time.Time{}, false
	}
	year := fromBCD(info[14])*100 + fromBCD(info[15])
	month := fromBCD(info[16])
	day := fromBCD(info[17])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, amsterdam), true
}

func fromBCD(b byte) int { return int(b>>4)*10 + int(b&0x0f) }

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
