package archive

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ledger(serial string, at time.Time, balance int64) *transit.Ledger {
	station := transit.Station{ID: "100", Name: "Amsterdam Centraal"}
	return &transit.Ledger{
		ScanID:    uuid.New(),
		ScannedAt: at,
		Family:    "ovchip",
		Name:      "OV-chipkaart",
		Serial:    serial,
		Balance:   transit.Amount(balance),
		Currency:  "EUR",
		Trips: []transit.Trip{{
			Start:        at.Add(-time.Hour),
			StartStation: &station,
			Fare:         transit.Amount(450),
			Mode:         transit.ModeTrain,
			Agency:       "NS",
		}},
		Failures: []transit.SubsystemFailure{
			{Subsystem: transit.SubsystemInfo, Err: errors.New("sector 22 unreadable"), Message: "sector 22 unreadable"},
		},
	}
}

var ignoreErr = cmpopts.IgnoreFields(transit.SubsystemFailure{}, "Err")

func TestPutGet(t *testing.T) {
	s := openStore(t)
	want := ledger("1234ABCD", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), 1250)
	if err := s.Put(want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(want.ScanID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(want, got, ignoreErr); diff != "" {
		t.Errorf("ledger mismatch (-want +got):\n%s", diff)
	}
	if got.Trips[0].Mode != transit.ModeTrain {
		t.Errorf("expected TRAIN, got %v", got.Trips[0].Mode)
	}
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)
	if _, err := s.Get(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPutWithoutScanID(t *testing.T) {
	s := openStore(t)
	l := ledger("1234ABCD", time.Now(), 0)
	l.ScanID = uuid.Nil
	if err := s.Put(l); !errors.Is(err, ErrNoScanID) {
		t.Errorf("expected ErrNoScanID, got %v", err)
	}
}

func TestListAndHistory(t *testing.T) {
	s := openStore(t)
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	first := ledger("1234ABCD", base, 1250)
	second := ledger("1234ABCD", base.Add(24*time.Hour), 800)
	other := ledger("99990000", base.Add(time.Hour), 50)
	for _, l := range []*transit.Ledger{second, other, first} {
		if err := s.Put(l); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []uuid.UUID
	for _, sum := range list {
		ids = append(ids, sum.ScanID)
	}
	if diff := cmp.Diff([]uuid.UUID{second.ScanID, other.ScanID, first.ScanID}, ids); diff != "" {
		t.Errorf("list order mismatch (-want +got):\n%s", diff)
	}
	if list[0].Trips != 1 || !list[0].Partial || *list[0].Balance != 800 {
		t.Errorf("unexpected summary %+v", list[0])
	}

	history, err := s.History("ovchip", "1234ABCD")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 || history[0].ScanID != first.ScanID || history[1].ScanID != second.ScanID {
		t.Fatalf("unexpected history %v", history)
	}

	// Re-storing a scan with a new timestamp must not duplicate it.
	first.ScannedAt = base.Add(48 * time.Hour)
	if err := s.Put(first); err != nil {
		t.Fatalf("Put: %v", err)
	}
	history, err = s.History("ovchip", "1234ABCD")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 || history[1].ScanID != first.ScanID {
		t.Errorf("expected re-stored scan last, got %d entries", len(history))
	}

	if err := s.Delete(second.ScanID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	history, err = s.History("ovchip", "1234ABCD")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected 1 scan after delete, got %d", len(history))
	}
	t.Logf("✓ archive holds %d scans", len(list)-1)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l := ledger("1234ABCD", time.Now().UTC(), 10)
	if err := s.Put(l); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Get(l.ScanID); err != nil {
		t.Errorf("expected scan to survive reopen: %v", err)
	}
}
