package bitfield

import "fmt"

// Field is one entry of a record layout. Start and Width are in bits.
// Little endian fields must be byte aligned.
type Field struct {
	Name   string
	Start  int
	Width  int
	Order  Endian
	Signed bool
}

// Bytes describes a byte-aligned field at offset off of n bytes.
func Bytes(name string, off, n int, order Endian) Field {
	return Field{Name: name, Start: off * 8, Width: n * 8, Order: order}
}

// Read extracts the field from buf.
func (f Field) Read(buf []byte) (uint64, error) {
	if f.Order == LittleEndian {
		if f.Start%8 != 0 || f.Width%8 != 0 {
			return 0, fmt.Errorf("field %s: little endian field is not byte aligned", f.Name)
		}
		return ReadUint(buf, f.Start/8, f.Width/8, LittleEndian)
	}
	return ReadBits(buf, f.Start, f.Width)
}

// Int extracts the field and applies sign extension when Signed is set.
func (f Field) Int(buf []byte) (int64, error) {
	v, err := f.Read(buf)
	if err != nil {
		return 0, err
	}
	if f.Signed {
		return signExtend(v, f.Width), nil
	}
	return int64(v), nil
}

// Layout is an ordered field table for one record type.
type Layout []Field

// Values holds decoded fields by name.
type Values map[string]int64

// Get returns the named value, 0 when absent.
func (v Values) Get(name string) int64 { return v[name] }

// Int returns the named value as an int.
func (v Values) Int(name string) int { return int(v[name]) }

// Decode reads every field of the layout from buf.
func (l Layout) Decode(buf []byte) (Values, error) {
	out := make(Values, len(l))
	for _, f := range l {
		v, err := f.Int(buf)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out[f.Name] = v
	}
	return out, nil
}

// Field returns the named field.
func (l Layout) Field(name string) (Field, bool) {
	for _, f := range l {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MinSize returns the smallest buffer length in bytes that holds every field.
func (l Layout) MinSize() int {
	end := 0
	for _, f := range l {
		if e := f.Start + f.Width; e > end {
			end = e
		}
	}
	return (end + 7) / 8
}
