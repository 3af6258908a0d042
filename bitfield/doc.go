// Package bitfield extracts integer fields from fixed-length card records.
//
// Card formats fall into two groups. Byte-aligned formats (ORCA, Clipper,
// Suica, Edy, CEPAS) store big or little endian integers at fixed byte
// offsets and are read with ReadUint, ReadInt and Slice. Bit-packed formats
// (OV-chipkaart, HSL) store fields of arbitrary width at arbitrary bit
// offsets, most significant bit first, and are read with ReadBits or a
// Cursor when the offsets depend on presence flags inside the record.
//
// # Layouts
//
// A Layout is a declarative table of named fields. Decoders keep one Layout
// per record type so the reverse-engineered offsets can be read and tested
// field by field:
//
//	var tripLayout = bitfield.Layout{
//		{Name: "agency", Start: 24, Width: 4},
//		{Name: "timestamp", Start: 28, Width: 32},
//	}
//	values, err := tripLayout.Decode(record)
//
// # Errors
//
// Every read that would go past the end of the buffer fails with an
// *OutOfRangeError wrapping ErrOutOfRange. Nothing in this package panics on
// short input.
//
// # Thread Safety
//
// All functions are pure. A Cursor is not safe for concurrent use.
package bitfield
