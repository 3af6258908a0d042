package bitfield

// Cursor reads consecutive bit fields whose positions depend on earlier
// values, such as OV-chipkaart records where each field is present only when
// its flag is set. The first failed read is kept and later reads return 0.
type Cursor struct {
	buf []byte
	pos int
	err error
}

// NewCursor starts reading buf at bit offset start.
func NewCursor(buf []byte, start int) *Cursor {
	return &Cursor{buf: buf, pos: start}
}

// Read consumes width bits.
func (c *Cursor) Read(width int) uint64 {
	if c.err != nil {
		return 0
	}
	v, err := ReadBits(c.buf, c.pos, width)
	if err != nil {
		c.err = err
		return 0
	}
	c.pos += width
	return v
}

// ReadInt consumes width bits as an int.
func (c *Cursor) ReadInt(width int) int {
	return int(c.Read(width))
}

// ReadIf consumes width bits only when present is true.
func (c *Cursor) ReadIf(present bool, width int, def int) int {
	if !present {
		return def
	}
	return c.ReadInt(width)
}

// Skip advances the cursor without reading.
func (c *Cursor) Skip(width int) {
	if c.err == nil {
		c.pos += width
	}
}

// Seek moves the cursor to an absolute bit offset.
func (c *Cursor) Seek(pos int) { c.pos = pos }

// Pos returns the current bit offset.
func (c *Cursor) Pos() int { return c.pos }

// Err returns the first read error.
func (c *Cursor) Err() error { return c.err }
