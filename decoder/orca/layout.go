package orca

import "github.com/theoremus-urban-solutions/farecard-decoder/bitfield"

const (
	appID       uint32 = 0x3010f2
	masterAppID uint32 = 0xffffff

	fileSerial  = 0x0f
	fileTrips   = 0x02
	fileTopups  = 0x03
	fileBalance = 0x04

	recordSize    = 48
	balanceOffset = 41
)

// Agencies.
const (
	agencyCT  = 0x02
	agencyET  = 0x03
	agencyKCM = 0x04
	agencyKT  = 0x05
	agencyPT  = 0x06
	agencyST  = 0x07
	agencyWSF = 0x08
)

// Transaction types.
const (
	transCancelTrip = 0x01
	transTapIn      = 0x03
	transTapOut     = 0x07
	transPurseUse   = 0x0c
	transPassUse    = 0x60
)

// FTP types.
const (
	ftpFerry           = 0x08
	ftpSounder         = 0x09
	ftpCustomerService = 0x0b
	ftpBus             = 0x80
	ftpStreetcar       = 0xf9
	ftpBRT             = 0xfa
	ftpLink            = 0xfb
	ftpPurseDebit      = 0xfe

	coachMonorail = 0x3
)

// Fare byte values that mean "no fare recorded" (transfers and passes).
// FIXME: reverse-engineered special case; the meaning of byte 15 is unknown.
var fareSentinels = map[byte]bool{0x00: true, 0xff: true}

const (
	fareSentinelByte = 15
	// FIXME: unverified heuristic. Byte 18 == 0x07 on a pass-use record has
	// only been observed on tap-outs; no documented layout confirms it.
	passUseFlagByte = 18
	passUseTapOut   = 0x07
)

// recordLayout is the bit layout of a 48 byte trip or top-up record.
var recordLayout = bitfield.Layout{
	{Name: "agency", Start: 24, Width: 4},
	{Name: "timestamp", Start: 28, Width: 32},
	{Name: "ftp", Start: 60, Width: 8},
	{Name: "coach", Start: 68, Width: 24},
	{Name: "fare", Start: 120, Width: 15},
	{Name: "type", Start: 136, Width: 8},
	{Name: "balance", Start: 272, Width: 16},
}

type agencyInfo struct {
	name  string
	short string
}

var agencies = map[int]agencyInfo{
	agencyCT:  {"Community Transit", "CT"},
	agencyET:  {"Everett Transit", "ET"},
	agencyKCM: {"King County Metro Transit", "KCM"},
	agencyKT:  {"Kitsap Transit", "KT"},
	agencyPT:  {"Pierce Transit", "PT"},
	agencyST:  {"Sound Transit", "ST"},
	agencyWSF: {"Washington State Ferries", "WSF"},
}

var (
	monorailAgency  = agencyInfo{"Seattle Monorail Services", "SMS"}
	waterTaxiAgency = agencyInfo{"King County Water Taxi", "KCWT"}
)
