package card

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const yamlDump = `
kind: desfire
uid: 04a1b2c3d4e5f6
applications:
  - id: 0x3010f2
    files:
      - id: 2
        records:
          - "00112233"
          - "44556677"
      - id: 4
        data: "deadbeef"
      - id: 5
        error: "permission denied"
`

func TestParseYAML(t *testing.T) {
	d, err := Parse(strings.NewReader(yamlDump))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if d.Kind != KindDESFire {
		t.Errorf("expected kind desfire, got %s", d.Kind)
	}
	data, err := d.ReadFile(0x3010f2, 4)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Errorf("expected deadbeef, got %x", data)
	}
	recs, err := d.ReadRecords(0x3010f2, 2, 4)
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if diff := cmp.Diff([][]byte{{0x00, 0x11, 0x22, 0x33}, {0x44, 0x55, 0x66, 0x77}}, recs); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFileErrors(t *testing.T) {
	d, err := Parse(strings.NewReader(yamlDump))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tests := []struct {
		name    string
		app     uint32
		file    int
		missing bool
	}{
		{"missing app", 0x9011f2, 2, true},
		{"missing file", 0x3010f2, 9, true},
		{"unreadable file", 0x3010f2, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.ReadFile(tt.app, tt.file)
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FormatError, got %T", err)
			}
			if fe.App != tt.app || fe.File != tt.file {
				t.Errorf("expected app %#x file %#x, got app %#x file %#x", tt.app, tt.file, fe.App, fe.File)
			}
			if got := errors.Is(err, ErrNotPresent); got != tt.missing {
				t.Errorf("expected ErrNotPresent=%v, got %v", tt.missing, got)
			}
		})
	}
}

func TestReadRecordsSplitsStandardFile(t *testing.T) {
	d := &Dump{Kind: KindDESFire, Apps: []Application{{ID: 1, Files: []File{{ID: 1, Data: make([]byte, 96)}}}}}
	recs, err := d.ReadRecords(1, 1, 48)
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 records, got %d", len(recs))
	}
	if _, err := d.ReadRecords(1, 1, 50); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat for uneven split, got %v", err)
	}
}

func TestJSONRoundTripFile(t *testing.T) {
	d := &Dump{
		Kind: KindFeliCa,
		UID:  HexBytes{0x01, 0x02},
		Systems: []System{{
			Code:         3,
			ServiceCodes: []int{0x090f, 0x108f},
			Services:     []Service{{Code: 0x090f, Blocks: []HexBytes{make([]byte, 16)}}},
		}},
	}
	path := filepath.Join(t.TempDir(), "dump.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := d.WriteJSON(f); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	f.Close()

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), `"uid": "0102"`) {
		t.Errorf("expected hex uid in JSON, got %s", raw)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if diff := cmp.Diff(d, got); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
	blocks, err := got.ReadBlocks(3, 0x090f)
	if err != nil || len(blocks) != 1 {
		t.Errorf("expected one block, got %d (%v)", len(blocks), err)
	}
	if _, err := got.ReadBlocks(3, 0x1234); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat for missing service, got %v", err)
	}
}

func TestClassicBlocks(t *testing.T) {
	d := &Dump{Kind: KindClassic, Sectors: []Sector{
		{Index: 0, Blocks: []HexBytes{{1}, {2}, {3}, {4}}},
		{Index: 1, Error: "auth failed"},
	}}
	b, err := d.ReadSectorBlocks(0, 1, 2)
	if err != nil {
		t.Fatalf("ReadSectorBlocks: %v", err)
	}
	if !bytes.Equal(b, []byte{2, 3}) {
		t.Errorf("expected [2 3], got %v", b)
	}
	if _, err := d.ReadBlock(0, 4); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat for block 4, got %v", err)
	}
	if _, err := d.ReadBlock(1, 0); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat for unreadable sector, got %v", err)
	}
}

func TestParseHex(t *testing.T) {
	b, err := ParseHex("0x01 02:0A")
	if err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	if !bytes.Equal(b, []byte{1, 2, 10}) {
		t.Errorf("expected [1 2 10], got %v", b)
	}
	if _, err := ParseHex("zz"); err == nil {
		t.Errorf("expected error for invalid hex")
	}
}

func TestParseRejectsMissingKind(t *testing.T) {
	if _, err := Parse(strings.NewReader(`{"uid":"01"}`)); err == nil {
		t.Errorf("expected error for dump without kind")
	}
}
