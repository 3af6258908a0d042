package bitfield

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a read exceeds the buffer.
var ErrOutOfRange = errors.New("read out of range")

// OutOfRangeError describes a rejected read.
type OutOfRangeError struct {
	Offset int
	Length int
	Size   int
	Unit   string // "bit" or "byte"
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s read [%d,+%d) exceeds %d %ss", e.Unit, e.Offset, e.Length, e.Size, e.Unit)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

func bitRange(buf []byte, start, length int) error {
	size := len(buf) * 8
	if start < 0 || length < 0 || start > size || length > size-start {
		return &OutOfRangeError{Offset: start, Length: length, Size: size, Unit: "bit"}
	}
	return nil
}

func byteRange(buf []byte, off, n int) error {
	if off < 0 || n < 0 || off > len(buf) || n > len(buf)-off {
		return &OutOfRangeError{Offset: off, Length: n, Size: len(buf), Unit: "byte"}
	}
	return nil
}
