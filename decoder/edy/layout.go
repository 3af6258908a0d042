package edy

import (
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
)

const (
	systemCode     = 0xfe00
	serviceID      = 0x110b
	serviceBalance = 0x1317
	serviceHistory = 0x170f
)

// Transaction types.
const (
	typeDebit  = 0x20
	typeCharge = 0x02
	typeGift   = 0x04
)

var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.FixedZone("JST", 9*60*60))

var (
	serialField  = bitfield.Bytes("serial", 2, 8, bitfield.BigEndian)
	balanceField = bitfield.Bytes("balance", 0, 4, bitfield.LittleEndian)
)

// historyLayout is the layout of a 16 byte history block. The timestamp is
// days since 2000-01-01 JST in the upper 15 bits and seconds into that day
// in the lower 17.
var historyLayout = bitfield.Layout{
	bitfield.Bytes("type", 0, 1, bitfield.BigEndian),
	bitfield.Bytes("sequence", 1, 3, bitfield.BigEndian),
	{Name: "days", Start: 32, Width: 15},
	{Name: "seconds", Start: 47, Width: 17},
	bitfield.Bytes("amount", 8, 4, bitfield.BigEndian),
	bitfield.Bytes("balance", 12, 4, bitfield.BigEndian),
}
