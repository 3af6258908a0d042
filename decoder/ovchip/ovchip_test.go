package ovchip

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

type bitWriter struct {
	t   *testing.T
	buf []byte
	pos int
}

func (w *bitWriter) put(width int, v uint64) {
	w.t.Helper()
	if err := bitfield.WriteBits(w.buf, w.pos, width, v); err != nil {
		w.t.Fatalf("write at %d: %v", w.pos, err)
	}
	w.pos += width
}

// txn builds a 32 byte transaction slot. fields maps mask flags to values.
func txn(t *testing.T, day, minute int, fields map[int]uint64) []byte {
	t.Helper()
	w := &bitWriter{t: t, buf: make([]byte, 32)}
	var mask uint64
	for flag := range fields {
		mask |= 1 << flag
	}
	w.put(fieldMaskWidth, mask)
	w.put(dateWidth, uint64(day))
	w.put(timeWidth, uint64(minute))
	for _, f := range transactionFields {
		if v, ok := fields[f.Flag]; ok {
			w.put(f.Width, v)
		}
	}
	return w.buf
}

func blankDump() *card.Dump {
	d := &card.Dump{Kind: card.KindClassic}
	for i := 0; i < sectorCount; i++ {
		n := 4
		if i >= 32 {
			n = 16
		}
		s := card.Sector{Index: i}
		for j := 0; j < n; j++ {
			s.Blocks = append(s.Blocks, make([]byte, blockSize))
		}
		d.Sectors = append(d.Sectors, s)
	}
	return d
}

// writeArea lets fn edit count consecutive blocks as one buffer.
func writeArea(t *testing.T, d *card.Dump, sector, block, count int, fn func(buf []byte)) {
	t.Helper()
	buf, err := d.ReadSectorBlocks(sector, block, count)
	if err != nil {
		t.Fatalf("read %d/%d: %v", sector, block, err)
	}
	fn(buf)
	s, _ := d.Sector(sector)
	for i := 0; i < count; i++ {
		s.Blocks[block+i] = append(card.HexBytes(nil), buf[i*blockSize:(i+1)*blockSize]...)
	}
}

func writeLayout(t *testing.T, buf []byte, layout bitfield.Layout, values map[string]uint64) {
	t.Helper()
	for name, v := range values {
		f, ok := layout.Field(name)
		if !ok {
			t.Fatalf("unknown field %s", name)
		}
		if err := bitfield.WriteBits(buf, f.Start, f.Width, v); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func putSlot(t *testing.T, d *card.Dump, slot int, rec []byte) {
	t.Helper()
	writeArea(t, d, firstTransactionSector+slot/slotsPerSector, slot%slotsPerSector*2, 2, func(buf []byte) {
		copy(buf, rec)
	})
}

func demoDump(t *testing.T) *card.Dump {
	t.Helper()
	d := blankDump()

	writeArea(t, d, 0, 0, 3, func(buf []byte) {
		copy(buf, card.MustHex("1234abcd000102030405060708090a0b"))
		copy(buf[16:], header)
		writeLayout(t, buf, preambleLayout, map[string]uint64{"expiry": 10500, "type": 2})
	})

	// Second index copy is newer.
	writeArea(t, d, indexSector, indexBlock, 4, func(buf []byte) {
		w := &bitWriter{t: t, buf: buf}
		w.pos = 10
		w.put(16, 1)
		w.pos = 256 + 10
		w.put(16, 2)
		w.pos = 256 + 26
		w.put(1, 1)
		w.pos = 256 + 108
		w.put(4, 3)
		w.pos = 256 + 248
		w.put(3, 0b101)
	})

	writeArea(t, d, 39, 10, 1, func(buf []byte) {
		writeLayout(t, buf, creditLayout, map[string]uint64{
			"slot_id": 5, "credit_id": 7, "credit": creditBias + 1250,
		})
	})

	writeArea(t, d, 23, 0, 3, func(buf []byte) {
		writeLayout(t, buf, infoLayout, map[string]uint64{
			"company": agencyNS, "personal": 1, "autocharge_active": 5,
			"autocharge_limit": 1000, "autocharge_charge": 2000,
		})
		copy(buf[14:], []byte{0x19, 0x85, 0x06, 0x15})
	})

	// Subscription index: one active, used entry pointing at index id 1.
	writeArea(t, d, 39, 3, 2, func(buf []byte) {
		w := &bitWriter{t: t, buf: buf}
		w.put(4, 1)
		w.put(21, 1<<13|1<<6|1)
	})
	writeArea(t, d, 32, 9, 3, func(buf []byte) {
		w := &bitWriter{t: t, buf: buf}
		w.put(subMaskWidth, subCompany|subProduct|subID|subValidity)
		w.put(8, agencyNS)
		w.put(16, 0x0005)
		w.put(8, 0)
		w.put(24, 42)
		w.put(9, subFromDate|subToDate)
		w.put(14, 9990)
		w.put(14, 10355)
	})

	putSlot(t, d, 0, txn(t, 10000, 600, map[int]uint64{2: processCheckin, 4: agencyNS, 6: 1, 8: 100}))
	putSlot(t, d, 1, txn(t, 10000, 660, map[int]uint64{2: processCheckout, 4: agencyNS, 6: 2, 8: 200, 23: 450}))
	putSlot(t, d, 2, txn(t, 10000, 661, map[int]uint64{2: processCheckout, 4: agencyNS, 6: 2, 8: 300, 23: 999}))
	putSlot(t, d, 3, txn(t, 10000, 700, map[int]uint64{2: processTransfer, 4: agencyStore, 6: 3, 10: 777, 23: 2000}))
	putSlot(t, d, 4, txn(t, 10001, 480, map[int]uint64{2: processCheckin, 4: agencyGVB, 6: 4, 8: 50, 14: 12}))
	return d
}

func demoStations() stations.Provider {
	return stations.Tables{namespace: stations.NewTable(
		stations.Entry{Agency: agencyNS, Code: 100, Name: "Amsterdam Centraal"},
		stations.Entry{Agency: agencyNS, Code: 200, Name: "Utrecht Centraal"},
	)}
}

func TestBlockAt(t *testing.T) {
	tests := []struct {
		ptr           int
		sector, block int
	}{
		{0x580, 22, 0},
		{0x5c0, 23, 0},
		{0x890, 32, 9},
		{0xf30, 39, 3},
		{0xfa0, 39, 10},
		{0xfb0, 39, 11},
	}
	for _, tt := range tests {
		sector, block := blockAt(tt.ptr)
		if sector != tt.sector || block != tt.block {
			t.Errorf("blockAt(%#x): expected %d/%d, got %d/%d", tt.ptr, tt.sector, tt.block, sector, block)
		}
	}
}

func TestCheck(t *testing.T) {
	d := New(nil)
	dump := demoDump(t)
	if !d.Check(dump) {
		t.Fatal("expected demo dump to be accepted")
	}

	short := blankDump()
	short.Sectors = short.Sectors[:16]
	if d.Check(short) {
		t.Error("expected 1K dump to be rejected")
	}

	noHeader := blankDump()
	if d.Check(noHeader) {
		t.Error("expected dump without header to be rejected")
	}

	if d.Check(&card.Dump{Kind: card.KindDESFire}) {
		t.Error("expected DESFire dump to be rejected")
	}
}

func TestParseIndex(t *testing.T) {
	dump := demoDump(t)
	idx, err := readIndex(dump)
	if err != nil {
		t.Fatalf("readIndex: %v", err)
	}
	want := Index{
		TransactionSlot:   0xfb0,
		InfoSlot:          0x5c0,
		SubscriptionSlot:  0xf30,
		TravelHistorySlot: 0xf50,
		CreditSlot:        0xfa0,
	}
	want.Subscriptions[0] = 0x890
	for i := 1; i < len(want.Subscriptions); i++ {
		want.Subscriptions[i] = 0x800
	}
	if diff := cmp.Diff(want, idx); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseIndex(make([]byte, 32)); err == nil {
		t.Error("expected error for short index")
	}
}

func TestParseTransaction(t *testing.T) {
	rec := txn(t, 10000, 660, map[int]uint64{2: processCheckout, 4: agencyNS, 6: 2, 8: 200, 14: 9, 23: 450})
	got, err := ParseTransaction(1, rec)
	if err != nil {
		t.Fatalf("ParseTransaction: %v", err)
	}
	want := Transaction{
		Slot: 1, Date: 10000, Minute: 660, Transfer: processCheckout, Company: agencyNS,
		ID: 2, Station: 200, Vehicle: 9, Amount: 450, Subscription: -1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("transaction mismatch (-want +got):\n%s", diff)
	}
	if !got.IsCheckout() || got.IsCheckin() {
		t.Error("expected a checkout")
	}
	t.Logf("✓ %s at %s", agencyName(got.Company), got.Time())
}

func TestParseTransactionRejects(t *testing.T) {
	tests := []struct {
		name string
		rec  []byte
	}{
		{"empty", make([]byte, 32)},
		{"never field", txn(t, 10000, 600, map[int]uint64{0: 1, 2: processCheckin})},
		{"late never field", txn(t, 10000, 600, map[int]uint64{2: processCheckin, 21: 1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTransaction(0, tt.rec)
			if !errors.Is(err, transit.ErrMalformedRecord) {
				t.Errorf("expected ErrMalformedRecord, got %v", err)
			}
		})
	}
}

func TestMode(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want transit.Mode
	}{
		{"banned", Transaction{Transfer: processBanned, Company: agencyNS}, transit.ModeBanned},
		{"reload", Transaction{Transfer: processTransfer}, transit.ModeTicketMachine},
		{"purchase", Transaction{Transfer: processPurchase}, transit.ModeVendingMachine},
		{"ns", Transaction{Transfer: processCheckin, Company: agencyNS}, transit.ModeTrain},
		{"gvb metro", Transaction{Transfer: processCheckin, Company: agencyGVB, Station: 50}, transit.ModeMetro},
		{"gvb tram", Transaction{Transfer: processCheckin, Company: agencyGVB, Station: 3500}, transit.ModeBus},
		{"arriva train", Transaction{Transfer: processCheckin, Company: agencyArriva, Station: 700}, transit.ModeTrain},
		{"arriva ferry", Transaction{Transfer: processCheckin, Company: agencyArriva, Station: 4650}, transit.ModeFerry},
		{"tls", Transaction{Transfer: processCheckin, Company: agencyTLS}, transit.ModeOther},
		{"qbuzz", Transaction{Transfer: processCheckin, Company: agencyQbuzz}, transit.ModeBus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tx.Mode(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSameTrip(t *testing.T) {
	in := func(company, day int) Transaction {
		return Transaction{Transfer: processCheckin, Company: company, Date: day}
	}
	out := func(company, day, minute int) Transaction {
		return Transaction{Transfer: processCheckout, Company: company, Date: day, Minute: minute}
	}
	tests := []struct {
		name       string
		start, end Transaction
		want       bool
	}{
		{"same day", in(agencyNS, 1), out(agencyNS, 1, 900), true},
		{"ns after midnight", in(agencyNS, 1), out(agencyNS, 2, 30), true},
		{"ns after reset", in(agencyNS, 1), out(agencyNS, 2, 300), false},
		{"gvb next morning", in(agencyGVB, 1), out(agencyGVB, 2, 300), true},
		{"two days", in(agencyGVB, 1), out(agencyGVB, 3, 0), false},
		{"other company", in(agencyNS, 1), out(agencyGVB, 1, 900), false},
		{"two checkins", in(agencyNS, 1), in(agencyNS, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameTrip(tt.start, tt.end); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestJourneysDedup(t *testing.T) {
	txns := []Transaction{
		{ID: 7, Transfer: processCheckin, Company: agencyRET, Date: 5, Minute: 100, Station: 1},
		{ID: 7, Transfer: processCheckin, Company: agencyRET, Date: 5, Minute: 101, Station: 2},
		{ID: 8, Transfer: processCheckout, Company: agencyRET, Date: 5, Minute: 130, Station: 3},
		{ID: 8, Transfer: processCheckout, Company: agencyRET, Date: 5, Minute: 131, Station: 4},
		{ID: 9, Transfer: processTransfer, Company: agencyStore, Date: 5, Minute: 200, Amount: 1000},
	}
	segs := journeys(txns)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].Paired || !segs[0].Start.IsCharge() {
		t.Errorf("expected the reload first and unpaired, got %+v", segs[0])
	}
	if !segs[1].Paired {
		t.Fatalf("expected a paired journey, got %+v", segs[1])
	}
	if segs[1].Start.Station != 2 {
		t.Errorf("expected the later check-in (station 2), got %d", segs[1].Start.Station)
	}
	if segs[1].End.Station != 3 {
		t.Errorf("expected the first check-out (station 3), got %d", segs[1].End.Station)
	}
}

func TestJourneysLeavesInputUntouched(t *testing.T) {
	txns := []Transaction{
		{ID: 12, Transfer: processCheckout, Company: agencyRET, Date: 5, Minute: 130, Station: 3},
		{ID: 9, Transfer: processTransfer, Company: agencyStore, Date: 5, Minute: 90, Amount: 1000},
		{ID: 11, Transfer: processCheckin, Company: agencyRET, Date: 5, Minute: 100, Station: 1},
	}
	before := slices.Clone(txns)

	segs := journeys(txns)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if diff := cmp.Diff(before, txns); diff != "" {
		t.Errorf("input reordered (-want +got):\n%s", diff)
	}
}

func TestDecode(t *testing.T) {
	dump := demoDump(t)
	ledger, err := New(demoStations()).Decode(context.Background(), dump)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ledger.Partial() {
		t.Fatalf("unexpected failures: %v", ledger.Failures)
	}
	if ledger.Serial != "1234ABCD" {
		t.Errorf("expected serial 1234ABCD, got %q", ledger.Serial)
	}
	if ledger.Balance == nil || *ledger.Balance != 1250 {
		t.Errorf("expected balance 1250, got %v", ledger.Balance)
	}

	if len(ledger.Trips) != 3 {
		t.Fatalf("expected 3 trips, got %d", len(ledger.Trips))
	}
	gvb, reload, ns := ledger.Trips[0], ledger.Trips[1], ledger.Trips[2]

	if gvb.Mode != transit.ModeMetro || gvb.ShortAgency != "GVB" || gvb.Vehicle != "12" {
		t.Errorf("unexpected GVB trip: %+v", gvb)
	}
	if gvb.StartStation == nil || !gvb.StartStation.Unknown {
		t.Errorf("expected an unknown GVB station, got %+v", gvb.StartStation)
	}
	if !gvb.End.IsZero() {
		t.Errorf("expected open GVB journey, got end %v", gvb.End)
	}

	if reload.Mode != transit.ModeTicketMachine || reload.FareValue() != -2000 || reload.Machine != "777" {
		t.Errorf("unexpected reload: %+v", reload)
	}

	if ns.Mode != transit.ModeTrain || ns.FareValue() != 450 {
		t.Errorf("unexpected NS trip: %+v", ns)
	}
	if !ns.Start.Equal(cardDate(10000, 600)) || !ns.End.Equal(cardDate(10000, 660)) {
		t.Errorf("unexpected NS times %v - %v", ns.Start, ns.End)
	}
	if ns.StartStation == nil || ns.StartStation.Name != "Amsterdam Centraal" {
		t.Errorf("unexpected start station %+v", ns.StartStation)
	}
	if ns.EndStation == nil || ns.EndStation.Name != "Utrecht Centraal" {
		t.Errorf("unexpected end station %+v", ns.EndStation)
	}

	if len(ledger.Subscriptions) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(ledger.Subscriptions))
	}
	sub := ledger.Subscriptions[0]
	if sub.ID != 42 || sub.Name != "OV-jaarkaart" || sub.Agency != "NS" || sub.Description != "Activated and used" {
		t.Errorf("unexpected subscription %+v", sub)
	}
	if !sub.ValidFrom.Equal(cardDate(9990, 0)) || !sub.ValidTo.Equal(cardDate(10355, 0)) {
		t.Errorf("unexpected validity %v - %v", sub.ValidFrom, sub.ValidTo)
	}
	t.Logf("✓ %d trips, balance %s", len(ledger.Trips), transit.FormatAmount(*ledger.Balance, Currency))
}

func TestInfo(t *testing.T) {
	items, err := readInfo(demoDump(t))
	if err != nil {
		t.Fatalf("readInfo: %v", err)
	}
	got := map[string]string{}
	for _, it := range items {
		if !it.Header {
			got[it.Label] = it.Value
		}
	}
	want := map[string]string{
		"Manufacturer ID":   "0102030405",
		"Publisher ID":      "060708090A0B",
		"Serial Number":     "1234ABCD",
		"Expiration Date":   cardDate(10500, 0).Format("2006-01-02"),
		"Card Type":         "Personal",
		"Issuer":            "NS",
		"Banned":            "No",
		"Birthdate":         "1985-06-15",
		"Credit Slot ID":    "5",
		"Last Credit ID":    "7",
		"Credit":            "€12.50",
		"Autocharge":        "Yes",
		"Autocharge Limit":  "€10.00",
		"Autocharge Charge": "€20.00",
		"Credit Slot":       "0xfa0",
	}
	for label, value := range want {
		if got[label] != value {
			t.Errorf("%s: expected %q, got %q", label, value, got[label])
		}
	}
}

func TestIdentify(t *testing.T) {
	id, err := New(nil).Identify(demoDump(t))
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	want := transit.Identity{Family: Family, Name: CardName, Serial: "1234ABCD"}
	if diff := cmp.Diff(want, id); diff != "" {
		t.Errorf("identity mismatch (-want +got):\n%s", diff)
	}
}

func TestUnreadableTransactionSector(t *testing.T) {
	dump := demoDump(t)
	s, _ := dump.Sector(36)
	s.Error = "authentication failed"
	ledger, err := New(nil).Decode(context.Background(), dump)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !ledger.Failed(transit.SubsystemTrips) {
		t.Error("expected trips to fail")
	}
	if ledger.Balance == nil {
		t.Error("expected balance despite trip failure")
	}
}
