package ezlink

import (
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
)

// EZ-Link keeps its stored value in purse 3 and the matching log in history 3.
const (
	purseID   = 3
	historyID = 3

	historyRecordSize = 16
	userDataSize      = 8
)

// Transaction types, the first byte of a history record.
const (
	typeRetail    = 0x01
	typeService   = 0x04
	typeMRT       = 0x30
	typeBus       = 0x31
	typeTopUp     = 0x75
	typeBusRefund = 0x76
	typeCreation  = 0xf0
)

var singapore = time.FixedZone("SGT", 8*60*60)

// epoch is 1995-01-01 00:00 SGT. Record times count seconds from it, purse
// dates count days.
var epoch = time.Date(1995, time.January, 1, 0, 0, 0, 0, singapore)

func cardTime(seconds int64) time.Time { return epoch.Add(time.Duration(seconds) * time.Second) }
func cardDay(days int) time.Time      { return epoch.AddDate(0, 0, days) }

func signed(f bitfield.Field) bitfield.Field {
	f.Signed = true
	return f
}

// purseLayout covers the fixed part of a purse record. Issuer specific data
// of issuer_data_length bytes follows at offset 62.
var purseLayout = bitfield.Layout{
	bitfield.Bytes("version", 0, 1, bitfield.BigEndian),
	bitfield.Bytes("status", 1, 1, bitfield.BigEndian),
	signed(bitfield.Bytes("balance", 2, 3, bitfield.BigEndian)),
	signed(bitfield.Bytes("autoload", 5, 3, bitfield.BigEndian)),
	bitfield.Bytes("expiry_day", 24, 2, bitfield.BigEndian),
	bitfield.Bytes("creation_day", 26, 2, bitfield.BigEndian),
	bitfield.Bytes("last_credit_trp", 28, 4, bitfield.BigEndian),
	bitfield.Bytes("log_records", 40, 1, bitfield.BigEndian),
	bitfield.Bytes("issuer_data_length", 41, 1, bitfield.BigEndian),
	bitfield.Bytes("last_trp", 42, 4, bitfield.BigEndian),
}

const (
	canOffset = 8
	csnOffset = 16
	idSize    = 8
)

// historyLayout is one 16 byte log record; bytes 8-15 hold ASCII user data.
var historyLayout = bitfield.Layout{
	bitfield.Bytes("type", 0, 1, bitfield.BigEndian),
	signed(bitfield.Bytes("amount", 1, 3, bitfield.BigEndian)),
	bitfield.Bytes("time", 4, 4, bitfield.BigEndian),
}

// Issuers by the first three digits of the CAN.
var issuers = map[string]string{
	"100": "EZ-Link",
	"111": "NETS",
}

const defaultIssuer = "CEPAS"
