package bitfield

import (
	"errors"
	"math"
	"testing"
)

func TestReadUint(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0xFF, 0xFE}

	tests := []struct {
		name     string
		off      int
		n        int
		order    Endian
		expected uint64
	}{
		{"big 2", 0, 2, BigEndian, 0x0102},
		{"little 2", 0, 2, LittleEndian, 0x0201},
		{"big 4", 0, 4, BigEndian, 0x01020304},
		{"little 4", 0, 4, LittleEndian, 0x04030201},
		{"single byte", 4, 1, BigEndian, 0xFF},
		{"big 3 at end", 3, 3, BigEndian, 0x04FFFE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadUint(buf, tt.off, tt.n, tt.order)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %#x, got %#x", tt.expected, got)
			}
		})
	}
}

func TestReadInt(t *testing.T) {
	buf := []byte{0xFF, 0xFE, 0x00, 0x80}
	got, err := ReadInt(buf, 0, 2, BigEndian)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -2 {
		t.Errorf("expected -2, got %d", got)
	}
	got, _ = ReadInt(buf, 2, 2, LittleEndian)
	if got != -32768 {
		t.Errorf("expected -32768, got %d", got)
	}
	got, _ = ReadInt(buf, 2, 2, BigEndian)
	if got != 128 {
		t.Errorf("expected 128, got %d", got)
	}
}

func TestReadUintOutOfRange(t *testing.T) {
	buf := make([]byte, 4)
	if _, err := ReadUint(buf, 3, 2, BigEndian); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := ReadUint(buf, 0, 9, BigEndian); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for width 9, got %v", err)
	}
	if _, err := Slice(buf, 2, 3); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange from Slice, got %v", err)
	}
}

func TestHugeOffsetsDoNotPanic(t *testing.T) {
	buf := make([]byte, 4)
	tests := []struct {
		name string
		off  int
		n    int
	}{
		{"max offset", math.MaxInt, 2},
		{"max offset minus one", math.MaxInt - 1, 8},
		{"max length", 1, math.MaxInt},
		{"offset past end", 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.n >= 1 && tt.n <= 8 {
				if _, err := ReadUint(buf, tt.off, tt.n, LittleEndian); !errors.Is(err, ErrOutOfRange) {
					t.Errorf("ReadUint: expected ErrOutOfRange, got %v", err)
				}
			}
			if _, err := Slice(buf, tt.off, tt.n); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Slice: expected ErrOutOfRange, got %v", err)
			}
		})
	}
}

func TestSliceCopies(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	s, err := Slice(buf, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s[0] = 99
	if buf[1] != 2 {
		t.Errorf("Slice must not alias the source buffer")
	}
}

func TestBackward(t *testing.T) {
	buf := make([]byte, 100)
	for i := range buf {
		buf[i] = byte(i)
	}
	var offsets []int
	for off, rec := range Backward(buf, 32) {
		if rec[0] != byte(off) {
			t.Errorf("record at %d starts with %d", off, rec[0])
		}
		offsets = append(offsets, off)
	}
	expected := []int{68, 36, 4}
	if len(offsets) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, offsets)
	}
	for i := range expected {
		if offsets[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, offsets)
		}
	}

	count := 0
	for range Backward(make([]byte, 64), 32) {
		count++
	}
	if count != 2 {
		t.Errorf("expected 2 records, got %d", count)
	}
	for range Backward(make([]byte, 10), 32) {
		t.Errorf("short buffer must yield nothing")
	}
}

func TestForwardStops(t *testing.T) {
	seen := 0
	for off := range Forward(make([]byte, 64), 16) {
		seen++
		if off == 16 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("expected 2 iterations before break, got %d", seen)
	}
}
