package hsl

import (
	"context"
	"testing"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// pack builds a record of size bytes from a layout and field values.
func pack(t *testing.T, layout bitfield.Layout, size int, values map[string]uint64) card.HexBytes {
	t.Helper()
	buf := make([]byte, size)
	for name, v := range values {
		f, ok := layout.Field(name)
		if !ok {
			t.Fatalf("unknown field %s", name)
		}
		if err := bitfield.WriteBits(buf, f.Start, f.Width, v); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return buf
}

func demoDump(t *testing.T) *card.Dump {
	t.Helper()
	appInfo := card.MustHex("12924620001122334455b0")
	balance := pack(t, balanceLayout, 9, map[string]uint64{
		"balance": 1230, "refill_day": 10000, "refill_minute": 600, "refill_amount": 2000,
	})
	valueUse := pack(t, historyLayout, historyRecordSize, map[string]uint64{
		"arvo": 1, "day": 10000, "minute": 615, "expire_day": 10000, "expire_minute": 695,
		"fare": 280, "pax": 1, "balance": 1230,
	})
	passUse := pack(t, historyLayout, historyRecordSize, map[string]uint64{
		"day": 9999, "minute": 480, "expire_day": 9999, "expire_minute": 480, "pax": 1, "balance": 1510,
	})
	arvo := pack(t, valueTicketLayout, 26, map[string]uint64{
		"duration": 80, "region": 1, "price": 280, "purchase_day": 10000, "purchase_minute": 615,
		"expire_day": 10000, "expire_minute": 695, "pax": 1, "vehicle": 123, "line": 1300,
	})
	kausi := pack(t, seasonPassLayout, 32, map[string]uint64{
		"start_day": 9990, "end_day": 10019, "prev_start_day": 9960, "prev_end_day": 9989,
		"purchase_day": 9990, "purchase_minute": 500, "price": 5300, "vehicle": 55, "line": 1019,
	})
	return &card.Dump{
		Kind:      card.KindDESFire,
		ScannedAt: cardTime(10001, 0),
		Apps: []card.Application{{ID: appIDv1, Files: []card.File{
			{ID: fileSeasonPass, Data: kausi},
			{ID: fileBalance, Data: balance},
			{ID: fileValueTicket, Data: arvo},
			{ID: fileHistory, Records: []card.HexBytes{valueUse, make([]byte, historyRecordSize), passUse}},
			{ID: fileAppInfo, Data: appInfo},
		}}},
	}
}

func TestCardTime(t *testing.T) {
	got := cardTime(10000, 615)
	if got.Unix() != 1716102900 {
		t.Errorf("expected 1716102900, got %d", got.Unix())
	}
	if cardTime(0, 0).Unix() != epoch {
		t.Errorf("expected epoch at day 0, got %d", cardTime(0, 0).Unix())
	}
}

func TestCheck(t *testing.T) {
	d := New()
	if !d.Check(demoDump(t)) {
		t.Error("expected v1 application to be accepted")
	}
	v2 := &card.Dump{Kind: card.KindDESFire, Apps: []card.Application{{ID: appIDv2}}}
	if !d.Check(v2) {
		t.Error("expected v2 application to be accepted")
	}
	if d.Check(&card.Dump{Kind: card.KindDESFire, Apps: []card.Application{{ID: 0x9011f2}}}) {
		t.Error("expected Clipper application to be rejected")
	}
}

func TestIdentify(t *testing.T) {
	id, err := New().Identify(demoDump(t))
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if id.Serial != "924620 0011 2233 4455" {
		t.Errorf("expected serial 924620 0011 2233 4455, got %q", id.Serial)
	}
	if id.Name != CardName {
		t.Errorf("expected name %s, got %s", CardName, id.Name)
	}
}

func TestLineMode(t *testing.T) {
	tests := []struct {
		line int
		want transit.Mode
	}{
		{0, transit.ModeBus},
		{1300, transit.ModeMetro},
		{1019, transit.ModeFerry},
		{1004, transit.ModeTram},
		{1010, transit.ModeTram},
		{3001, transit.ModeTrain},
		{2550, transit.ModeBus},
	}
	for _, tt := range tests {
		if got := lineMode(tt.line); got != tt.want {
			t.Errorf("line %d: expected %v, got %v", tt.line, tt.want, got)
		}
	}
}

func TestParseUseBlankSlot(t *testing.T) {
	_, err := ParseUse(3, make([]byte, historyRecordSize))
	if err == nil {
		t.Fatal("expected blank slot to be rejected")
	}
}

func TestParseSeasonPassSwapsPeriods(t *testing.T) {
	data := pack(t, seasonPassLayout, 32, map[string]uint64{
		"start_day": 9000, "end_day": 9029, "prev_start_day": 9100, "prev_end_day": 9129,
	})
	p, err := ParseSeasonPass(data)
	if err != nil {
		t.Fatalf("ParseSeasonPass: %v", err)
	}
	if !p.Start.Equal(cardTime(9100, 0)) || !p.PrevStart.Equal(cardTime(9000, 0)) {
		t.Errorf("expected newer period first, got start %v prev %v", p.Start, p.PrevStart)
	}
	if !p.Valid(cardTime(9129, 1200)) {
		t.Error("expected last day to be inclusive")
	}
	if p.Valid(cardTime(9130, 0)) {
		t.Error("expected day after end to be invalid")
	}
}

func TestDecode(t *testing.T) {
	ledger, err := New().Decode(context.Background(), demoDump(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ledger.Partial() {
		t.Fatalf("expected complete ledger, got failures %v", ledger.Failures)
	}
	if ledger.Balance == nil || *ledger.Balance != 1230 {
		t.Errorf("expected balance 1230, got %v", ledger.Balance)
	}
	if len(ledger.Refills) != 1 || ledger.Refills[0].Amount != 2000 {
		t.Fatalf("expected one refill of 2000, got %+v", ledger.Refills)
	}
	if !ledger.Refills[0].Time.Equal(cardTime(10000, 600)) {
		t.Errorf("expected refill time %v, got %v", cardTime(10000, 600), ledger.Refills[0].Time)
	}

	if len(ledger.Trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(ledger.Trips))
	}
	value := ledger.Trips[0]
	if value.Start.Unix() != 1716102900 {
		t.Errorf("expected value ticket use at 1716102900, got %d", value.Start.Unix())
	}
	if value.Mode != transit.ModeMetro {
		t.Errorf("expected METRO, got %v", value.Mode)
	}
	if value.Route != "Line 300, Vehicle 123" {
		t.Errorf("expected route Line 300, Vehicle 123, got %q", value.Route)
	}
	if value.Agency != "Value ticket, 1 pax, 80 min" {
		t.Errorf("unexpected agency %q", value.Agency)
	}
	if value.FareValue() != 280 || value.BalanceAfter == nil || *value.BalanceAfter != 1230 {
		t.Errorf("expected fare 280 balance 1230, got %d %v", value.FareValue(), value.BalanceAfter)
	}

	pass := ledger.Trips[1]
	if pass.Start.Unix() != 1716008400 {
		t.Errorf("expected season pass use at 1716008400, got %d", pass.Start.Unix())
	}
	if pass.Mode != transit.ModeFerry || pass.Vehicle != "55" {
		t.Errorf("expected ferry vehicle 55, got %v %q", pass.Mode, pass.Vehicle)
	}
	if pass.Agency != "Season pass, 1 pax" {
		t.Errorf("unexpected agency %q", pass.Agency)
	}

	if len(ledger.Subscriptions) != 2 {
		t.Fatalf("expected current and previous pass, got %d", len(ledger.Subscriptions))
	}
	sub := ledger.Subscriptions[0]
	if !sub.ValidFrom.Equal(cardTime(9990, 0)) || sub.Price == nil || *sub.Price != 5300 {
		t.Errorf("unexpected subscription %+v", sub)
	}
	if !sub.Active(ledger.ScannedAt) {
		t.Error("expected pass to be active at scan time")
	}
	t.Logf("✓ %d trips, %d subscriptions", len(ledger.Trips), len(ledger.Subscriptions))
}

func TestSyntheticTicketUses(t *testing.T) {
	dump := demoDump(t)
	dump.Apps[0].Files[3].Records = []card.HexBytes{make([]byte, historyRecordSize)}

	ledger, err := New().Decode(context.Background(), dump)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(ledger.Trips) != 2 {
		t.Fatalf("expected value ticket and pass purchase as trips, got %d", len(ledger.Trips))
	}
	for _, trip := range ledger.Trips {
		if trip.BalanceAfter != nil {
			t.Errorf("expected no balance on synthetic entry at %v", trip.Start)
		}
	}
	if ledger.Trips[0].FareValue() != 280 {
		t.Errorf("expected value ticket price 280, got %d", ledger.Trips[0].FareValue())
	}
	if ledger.Trips[1].FareValue() != 5300 || ledger.Trips[1].Passengers != 1 {
		t.Errorf("expected pass purchase 5300 for one, got %d %d", ledger.Trips[1].FareValue(), ledger.Trips[1].Passengers)
	}
}

func TestInfo(t *testing.T) {
	ledger, err := New().Decode(context.Background(), demoDump(t))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := map[string]string{
		"Application version":     "1",
		"Application key version": "2",
		"Platform type":           "5",
		"Security level":          "1",
		"Valid":                   "Yes",
		"Region":                  "Helsinki",
		"Duration":                "80 min",
	}
	got := map[string]string{}
	for _, item := range ledger.Info {
		if _, seen := got[item.Label]; !seen {
			got[item.Label] = item.Value
		}
	}
	for label, value := range want {
		if got[label] != value {
			t.Errorf("%s: expected %q, got %q", label, value, got[label])
		}
	}
}

func TestMissingTicketFiles(t *testing.T) {
	dump := demoDump(t)
	files := dump.Apps[0].Files
	dump.Apps[0].Files = []card.File{files[1], files[3], files[4]}

	ledger, err := New().Decode(context.Background(), dump)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ledger.Partial() {
		t.Errorf("expected missing ticket files to be tolerated, got %v", ledger.Failures)
	}
	if len(ledger.Subscriptions) != 0 {
		t.Errorf("expected no subscriptions, got %d", len(ledger.Subscriptions))
	}
	if ledger.Trips[0].Route != "" {
		t.Errorf("expected no route without ticket files, got %q", ledger.Trips[0].Route)
	}
	if ledger.ScannedAt.Before(time.Unix(epoch, 0)) {
		t.Errorf("unexpected scan time %v", ledger.ScannedAt)
	}
}
