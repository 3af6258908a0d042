package bitfield

import (
	"fmt"
	"iter"
)

// Endian selects the byte order of a multi-byte field.
type Endian int

const (
	BigEndian Endian = iota
	LittleEndian
)

func (e Endian) String() string {
	if e == LittleEndian {
		return "little"
	}
	return "big"
}

// ReadUint reads an n byte unsigned integer (1 <= n <= 8) at off.
func ReadUint(buf []byte, off, n int, order Endian) (uint64, error) {
	if n < 1 || n > 8 {
		return 0, fmt.Errorf("byte width %d: %w", n, ErrOutOfRange)
	}
	if err := byteRange(buf, off, n); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < n; i++ {
		idx := off + i
		if order == LittleEndian {
			idx = off + n - 1 - i
		}
		v = v<<8 | uint64(buf[idx])
	}
	return v, nil
}

// ReadInt reads an n byte two's complement integer at off.
func ReadInt(buf []byte, off, n int, order Endian) (int64, error) {
	v, err := ReadUint(buf, off, n, order)
	if err != nil {
		return 0, err
	}
	return signExtend(v, n*8), nil
}

// Slice returns a copy of n bytes at off.
func Slice(buf []byte, off, n int) ([]byte, error) {
	if err := byteRange(buf, off, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, buf[off:off+n])
	return out, nil
}

// IsZero reports whether every byte of buf is zero.
func IsZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

// Backward yields fixed-size records of buf from the last full stride down to
// offset 0. The yielded slices alias buf.
//
// Example:
//
//	for off, rec := range bitfield.Backward(file, 32) {
//		...
//	}
func Backward(buf []byte, stride int) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		if stride <= 0 {
			return
		}
		for off := len(buf) - stride; off >= 0; off -= stride {
			if !yield(off, buf[off:off+stride]) {
				return
			}
		}
	}
}

// Forward yields fixed-size records of buf from offset 0. A trailing partial
// record is ignored.
func Forward(buf []byte, stride int) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		if stride <= 0 {
			return
		}
		for off := 0; off+stride <= len(buf); off += stride {
			if !yield(off, buf[off:off+stride]) {
				return
			}
		}
	}
}
