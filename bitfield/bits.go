package bitfield

import "fmt"

// MaxWidth is the widest field a single read can return.
const MaxWidth = 64

// ReadBits returns length bits of buf starting at bit start, most
// significant bit first. Bit 0 is the high bit of buf[0].
func ReadBits(buf []byte, start, length int) (uint64, error) {
	if length > MaxWidth {
		return 0, fmt.Errorf("bit width %d: %w", length, ErrOutOfRange)
	}
	if err := bitRange(buf, start, length); err != nil {
		return 0, err
	}
	var v uint64
	pos := start
	remaining := length
	for remaining > 0 {
		b := buf[pos/8]
		used := pos % 8
		take := 8 - used
		if take > remaining {
			take = remaining
		}
		chunk := (uint64(b) >> (8 - used - take)) & (1<<take - 1)
		v = v<<take | chunk
		pos += take
		remaining -= take
	}
	return v, nil
}

// ReadBitsSigned reads a two's complement field of the given width.
func ReadBitsSigned(buf []byte, start, length int) (int64, error) {
	v, err := ReadBits(buf, start, length)
	if err != nil {
		return 0, err
	}
	return signExtend(v, length), nil
}

// WriteBits stores the low length bits of v at bit start, most significant
// bit first. Bits outside the field are left untouched.
func WriteBits(buf []byte, start, length int, v uint64) error {
	if length > MaxWidth {
		return fmt.Errorf("bit width %d: %w", length, ErrOutOfRange)
	}
	if err := bitRange(buf, start, length); err != nil {
		return err
	}
	for i := 0; i < length; i++ {
		bit := (v >> (length - 1 - i)) & 1
		pos := start + i
		mask := byte(0x80) >> (pos % 8)
		if bit == 1 {
			buf[pos/8] |= mask
		} else {
			buf[pos/8] &^= mask
		}
	}
	return nil
}

// Bit reports whether bit n (MSB-first numbering) is set.
func Bit(buf []byte, n int) (bool, error) {
	v, err := ReadBits(buf, n, 1)
	return v == 1, err
}

func signExtend(v uint64, width int) int64 {
	if width <= 0 || width >= 64 {
		return int64(v)
	}
	shift := 64 - width
	return int64(v<<shift) >> shift
}
