package suica

import (
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
)

const (
	systemCode     = 0x0003
	serviceHistory = 0x090f
	serviceInOut   = 0x108f

	blockSize = 16
)

// Console types.
const (
	consoleBus       = 0x05
	consoleTurnstile = 0x16
	consolePOS       = 0xc7
	consoleVending   = 0xc8
)

// Process types.
const (
	processCharge = 0x02
)

// Console types of ticket vending and fare adjustment machines.
var tvmConsoles = map[int]bool{
	0x03: true, 0x07: true, 0x08: true, 0x12: true, 0x13: true, 0x14: true, 0x15: true,
}

// jst is the card's clock. Japan has no daylight saving time.
var jst = time.FixedZone("JST", 9*60*60)

// historyLayout is the layout of a 16 byte history block. Station fields
// overlap: rail records store line/station pairs at 6..9, bus records a
// line code at 6..7 and a stop code at 8..9, and product sales a time at
// 6..7.
var historyLayout = bitfield.Layout{
	bitfield.Bytes("console", 0, 1, bitfield.BigEndian),
	bitfield.Bytes("process", 1, 1, bitfield.BigEndian),
	bitfield.Bytes("date", 4, 2, bitfield.BigEndian),
	bitfield.Bytes("in", 6, 2, bitfield.BigEndian),
	bitfield.Bytes("out", 8, 2, bitfield.BigEndian),
	bitfield.Bytes("balance", 10, 2, bitfield.LittleEndian),
	bitfield.Bytes("region", 15, 1, bitfield.BigEndian),
}

// tapLayout is the layout of a 16 byte gate tap block from the in/out
// service. Bit 7 of byte 0 is set on entry. Hour and minute are BCD.
var tapLayout = bitfield.Layout{
	{Name: "entry", Start: 0, Width: 1},
	bitfield.Bytes("station", 2, 2, bitfield.BigEndian),
	bitfield.Bytes("date", 6, 2, bitfield.BigEndian),
	bitfield.Bytes("hour", 8, 1, bitfield.BigEndian),
	bitfield.Bytes("minute", 9, 1, bitfield.BigEndian),
	bitfield.Bytes("fare", 10, 2, bitfield.LittleEndian),
}
