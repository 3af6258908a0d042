package orca

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

const (
	record0 = "00000025a4aadc6800076260000000042c00000000000000000000000000" + "000000000000000000000000000000000000"
	record1 = "000000f5a4aacc6800076360000000024200000000000000000000000000" + "000000000000000000000000000000000000"
	record2 = "00000075a4aabc6fb00338d0000000016600000000000000000000000000" + "000000000000000000000000000000000000"
	record3 = "00000075a4aaac6090000030000000016400000000000000000000000000" + "000000000000000000000000000000000000"
	record4 = "00000085a4aa9c6080027750000000016200000000000000000000000000" + "000000000000000000000000000000000000"

	balanceFile = "000000000000000000000000000000000000000000000000000000000000" +
		"0000000000000000000000" + "5b88" + "000000000000000000000000000000000000000000"
	serialFile = "0000000000b792a100"

	baseTime = 1514843334
)

func demoDump(records ...string) *card.Dump {
	var recs []card.HexBytes
	for _, r := range records {
		recs = append(recs, card.MustHex(r))
	}
	return &card.Dump{
		Kind: card.KindDESFire,
		Apps: []card.Application{
			{ID: appID, Files: []card.File{
				{ID: fileTrips, Records: recs},
				{ID: fileBalance, Data: card.MustHex(balanceFile)},
			}},
			{ID: masterAppID, Files: []card.File{{ID: fileSerial, Data: card.MustHex(serialFile)}}},
		},
	}
}

func TestParseTransaction(t *testing.T) {
	txn, err := ParseTransaction(card.MustHex(record0), false)
	if err != nil {
		t.Fatalf("ParseTransaction: %v", err)
	}
	if txn.Agency != agencyCT {
		t.Errorf("expected agency CT, got %d", txn.Agency)
	}
	if txn.Timestamp != baseTime+256 {
		t.Errorf("expected timestamp %d, got %d", baseTime+256, txn.Timestamp)
	}
	if txn.FtpType != ftpBus {
		t.Errorf("expected ftp bus, got %#x", txn.FtpType)
	}
	if txn.Coach != 30246 {
		t.Errorf("expected coach 30246, got %d", txn.Coach)
	}
	if txn.Fare != 534 {
		t.Errorf("expected fare 534, got %d", txn.Fare)
	}
	if txn.Mode() != transit.ModeBus {
		t.Errorf("expected BUS, got %v", txn.Mode())
	}
}

func TestParseTransactionDeterministic(t *testing.T) {
	a, _ := ParseTransaction(card.MustHex(record2), false)
	b, _ := ParseTransaction(card.MustHex(record2), false)
	if a != b {
		t.Errorf("expected identical transactions, got %+v and %+v", a, b)
	}
}

func TestFareSentinel(t *testing.T) {
	for _, sentinel := range []byte{0xff, 0x00} {
		data := card.MustHex(record0)
		data[15] = sentinel
		data[16] = 0x02
		data[17] = transTapIn
		txn, err := ParseTransaction(data, false)
		if err != nil {
			t.Fatalf("ParseTransaction: %v", err)
		}
		if txn.Fare != 0 {
			t.Errorf("sentinel %#x: expected fare 0, got %d", sentinel, txn.Fare)
		}
	}
}

func TestPassUseReclassifiedAsTapOut(t *testing.T) {
	data := card.MustHex(record0)
	data[17] = transPassUse
	data[18] = passUseTapOut
	txn, err := ParseTransaction(data, false)
	if err != nil {
		t.Fatalf("ParseTransaction: %v", err)
	}
	if !txn.isTapOut() {
		t.Errorf("expected pass-use to become a tap-out, got type %#x", txn.Type)
	}
	if txn.SignedFare() != -534 {
		t.Errorf("expected refund sign, got %d", txn.SignedFare())
	}

	data[18] = 0x00
	txn, _ = ParseTransaction(data, false)
	if txn.Type != transPassUse {
		t.Errorf("expected pass-use to stay, got type %#x", txn.Type)
	}
}

func TestBlankRecord(t *testing.T) {
	_, err := ParseTransaction(make([]byte, recordSize), false)
	if !errors.Is(err, transit.ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestDemoCard(t *testing.T) {
	dump := demoDump(record0, record1, record2, record3, record4)
	dec := New(nil)
	if !dec.Check(dump) {
		t.Fatalf("Check must accept ORCA dump")
	}

	id, err := dec.Identify(dump)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if id.Name != "ORCA" || id.Serial != "12030625" {
		t.Errorf("unexpected identity %+v", id)
	}

	ledger, err := dec.Decode(context.Background(), dump)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ledger.Partial() {
		t.Fatalf("unexpected failures: %v", ledger.Failures)
	}
	if ledger.Serial != "12030625" {
		t.Errorf("expected serial 12030625, got %s", ledger.Serial)
	}
	if ledger.Balance == nil || *ledger.Balance != 23432 {
		t.Errorf("expected balance 23432, got %v", ledger.Balance)
	}
	trips := ledger.Trips
	if len(trips) != 5 {
		t.Fatalf("expected 5 trips, got %d", len(trips))
	}

	expect := []struct {
		agency  string
		short   string
		offset  int64
		fare    int64
		mode    transit.Mode
		vehicle string
		station string
		route   string
	}{
		{"Community Transit", "CT", 256, 534, transit.ModeBus, "30246", "", ""},
		{"Unknown Agency: 15", "Unknown", 0, 289, transit.ModeBus, "30262", "", ""},
		{"Sound Transit", "ST", -256, 179, transit.ModeMetro, "", "Stadium", "Link Light Rail"},
		{"Sound Transit", "ST", -512, 178, transit.ModeTrain, "", "King Street", "Sounder Train"},
		{"Washington State Ferries", "WSF", -768, 177, transit.ModeFerry, "", "Seattle", ""},
	}
	for i, want := range expect {
		got := trips[i]
		if got.Agency != want.agency || got.ShortAgency != want.short {
			t.Errorf("trip %d: expected agency %s/%s, got %s/%s", i, want.agency, want.short, got.Agency, got.ShortAgency)
		}
		if got.Start.Unix() != baseTime+want.offset {
			t.Errorf("trip %d: expected start %d, got %d", i, baseTime+want.offset, got.Start.Unix())
		}
		if got.FareValue() != want.fare {
			t.Errorf("trip %d: expected fare %d, got %d", i, want.fare, got.FareValue())
		}
		if got.Mode != want.mode {
			t.Errorf("trip %d: expected mode %v, got %v", i, want.mode, got.Mode)
		}
		if got.Vehicle != want.vehicle {
			t.Errorf("trip %d: expected vehicle %q, got %q", i, want.vehicle, got.Vehicle)
		}
		if got.Route != want.route {
			t.Errorf("trip %d: expected route %q, got %q", i, want.route, got.Route)
		}
		if want.station == "" {
			if got.StartStation != nil {
				t.Errorf("trip %d: expected no station, got %+v", i, got.StartStation)
			}
		} else if got.StartStation == nil || got.StartStation.DisplayName() != want.station {
			t.Errorf("trip %d: expected station %s, got %+v", i, want.station, got.StartStation)
		}
		if got.EndStation != nil {
			t.Errorf("trip %d: expected no end station", i)
		}
	}
	if s := trips[2].StartStation; s == nil || s.Latitude != 47.5918121 || s.Longitude != -122.327354 {
		t.Errorf("expected Stadium coordinates, got %+v", s)
	}
	t.Logf("✓ decoded %d ORCA trips", len(trips))
}

// tapRecord builds a record for agency with the given type, timestamp and fare.
func tapRecord(agency, transType int, ts uint32, fare int) []byte {
	data := make([]byte, recordSize)
	data[3] = byte(agency<<4) | byte(ts>>28)
	data[4] = byte(ts >> 20)
	data[5] = byte(ts >> 12)
	data[6] = byte(ts >> 4)
	data[7] = byte(ts<<4) | 0x8
	data[15] = byte(fare >> 7)
	data[16] = byte(fare << 1)
	data[17] = byte(transType)
	return data
}

func TestTapPairing(t *testing.T) {
	tests := []struct {
		name          string
		outAgency     int
		outType       int
		expectedTrips int
		cancelled     bool
		fare          int64
	}{
		{"same agency merges", agencyKCM, transTapOut, 1, false, 300 - 200},
		{"different agency stays apart", agencyPT, transTapOut, 2, false, 0},
		{"cancel keeps original fare", agencyKCM, transCancelTrip, 1, true, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tapRecord(agencyKCM, transTapIn, 1000100, 300)
			out := tapRecord(tt.outAgency, tt.outType, 1000400, 200)
			dump := demoDump()
			dump.Apps[0].Files[0].Records = []card.HexBytes{out, in}

			ledger, err := New(nil).Decode(context.Background(), dump)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(ledger.Trips) != tt.expectedTrips {
				t.Fatalf("expected %d trips, got %d", tt.expectedTrips, len(ledger.Trips))
			}
			if tt.expectedTrips != 1 {
				return
			}
			trip := ledger.Trips[0]
			if trip.Start.Unix() != 1000100 || trip.End.Unix() != 1000400 {
				t.Errorf("expected start=1000100 end=1000400, got %d/%d", trip.Start.Unix(), trip.End.Unix())
			}
			if trip.Cancelled != tt.cancelled {
				t.Errorf("expected cancelled=%v", tt.cancelled)
			}
			if trip.FareValue() != tt.fare {
				t.Errorf("expected fare %d, got %d", tt.fare, trip.FareValue())
			}
		})
	}
}

func TestTopupsAndStationDatabase(t *testing.T) {
	topup := tapRecord(agencyKCM, 0x00, 1000500, 2000)
	dump := demoDump(record0)
	dump.Apps[0].Files = append(dump.Apps[0].Files, card.File{ID: fileTopups, Records: []card.HexBytes{topup}})

	db := stations.Tables{namespace: stations.NewTable(stations.Entry{Agency: agencyST, Code: 0x338d, Name: "Stadium (db)"})}
	dumpLink := demoDump(record2)

	ledger, err := New(db).Decode(context.Background(), dump)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var found bool
	for _, trip := range ledger.Trips {
		if trip.Mode == transit.ModeTicketMachine {
			found = true
			if trip.FareValue() != -2000 || trip.Route != "Top-up" {
				t.Errorf("unexpected top-up trip %+v", trip)
			}
		}
	}
	if !found {
		t.Errorf("expected a top-up trip")
	}

	ledger, err = New(db).Decode(context.Background(), dumpLink)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s := ledger.Trips[0].StartStation; s == nil || s.Name != "Stadium (db)" {
		t.Errorf("expected station database to take precedence, got %+v", s)
	}
}

func TestUnreadableTopupFile(t *testing.T) {
	dump := demoDump(record0)
	dump.Apps[0].Files = append(dump.Apps[0].Files, card.File{ID: fileTopups, Error: "authentication error"})

	ledger, err := New(nil).Decode(context.Background(), dump)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	f, ok := ledger.Failure(transit.SubsystemTrips)
	if !ok || !errors.Is(f, card.ErrFormat) {
		t.Fatalf("expected trips failure, got %v", ledger.Failures)
	}
	if !strings.Contains(f.Message, "authentication error") {
		t.Errorf("expected failure to carry the reader error, got %s", f.Message)
	}
	if ledger.Failed(transit.SubsystemBalance) {
		t.Error("expected balance to survive")
	}
}

func TestMissingBalanceIsPartial(t *testing.T) {
	dump := demoDump(record0)
	dump.Apps[0].Files = dump.Apps[0].Files[:1]
	ledger, err := New(nil).Decode(context.Background(), dump)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	f, ok := ledger.Failure(transit.SubsystemBalance)
	if !ok || !errors.Is(f, card.ErrFormat) {
		t.Fatalf("expected balance failure, got %v", ledger.Failures)
	}
	if !strings.Contains(f.Message, "0x3010f2") {
		t.Errorf("expected failure to name the application, got %s", f.Message)
	}
	if len(ledger.Trips) != 1 {
		t.Errorf("trips must still decode, got %d", len(ledger.Trips))
	}
	if ledger.Trips[0].Start.Before(time.Unix(0, 0)) {
		t.Errorf("unexpected trip time")
	}
}
