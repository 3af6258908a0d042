package clipper

import "github.com/theoremus-urban-solutions/farecard-decoder/bitfield"

const (
	appID uint32 = 0x9011f2

	fileExpiry  = 0x01
	fileBalance = 0x02
	fileRefills = 0x04
	fileSerial  = 0x08
	fileTrips   = 0x0e

	recordSize = 32

	// Seconds between 1900-01-01 and the Unix epoch.
	epochOffset   = 2208988800
	secondsPerDay = 86400
)

// Agencies.
const (
	agencyACTransit     = 0x01
	agencyBART          = 0x04
	agencyCaltrain      = 0x06
	agencyCCTA          = 0x08
	agencyGGT           = 0x0b
	agencySMART         = 0x0c
	agencySamTrans      = 0x0f
	agencyVTA           = 0x11
	agencyMuni          = 0x12
	agencyGGFerry       = 0x19
	agencySFBayFerry    = 0x1b
	agencyCaltrain8Ride = 0x173
)

// Transport codes stored in the last word of a trip record.
const (
	transportShared = 0x62
	transportBusA   = 0x61
	transportMetro  = 0x6f
	transportFerry  = 0x73
	transportBusB   = 0x75
	transportBusC   = 0x77
	transportTrain  = 0x78
)

const (
	noVehicle    = 0xffff
	endOfLine    = 0xffff
	lrvThreshold = 10000
)

var (
	serialField  = bitfield.Bytes("serial", 1, 4, bitfield.BigEndian)
	balanceField = bitfield.Field{Name: "balance", Start: 18 * 8, Width: 16, Signed: true}
	expiryField  = bitfield.Bytes("expiry", 8, 2, bitfield.BigEndian)
)

// tripLayout is the byte layout of a 32 byte trip record.
var tripLayout = bitfield.Layout{
	bitfield.Bytes("agency", 0x02, 2, bitfield.BigEndian),
	bitfield.Bytes("fare", 0x06, 2, bitfield.BigEndian),
	bitfield.Bytes("vehicle", 0x0a, 2, bitfield.BigEndian),
	bitfield.Bytes("timestamp", 0x0c, 4, bitfield.BigEndian),
	bitfield.Bytes("exit", 0x10, 4, bitfield.BigEndian),
	bitfield.Bytes("from", 0x14, 2, bitfield.BigEndian),
	bitfield.Bytes("to", 0x16, 2, bitfield.BigEndian),
	bitfield.Bytes("route", 0x1c, 2, bitfield.BigEndian),
	bitfield.Bytes("transport", 0x1e, 2, bitfield.BigEndian),
}

// refillLayout is the byte layout of a 32 byte refill record.
var refillLayout = bitfield.Layout{
	bitfield.Bytes("agency", 0x02, 2, bitfield.BigEndian),
	bitfield.Bytes("timestamp", 0x04, 4, bitfield.BigEndian),
	bitfield.Bytes("machine", 0x08, 4, bitfield.BigEndian),
	bitfield.Bytes("amount", 0x0e, 2, bitfield.BigEndian),
}

type agencyInfo struct {
	name  string
	short string
}

var agencies = map[int]agencyInfo{
	agencyACTransit:     {"Alameda-Contra Costa Transit District", "ACTransit"},
	agencyBART:          {"Bay Area Rapid Transit", "BART"},
	agencyCaltrain:      {"Caltrain", "Caltrain"},
	agencyCCTA:          {"Central Contra Costa Transit Authority", "County Connection"},
	agencyGGT:           {"Golden Gate Transit", "GGT"},
	agencySMART:         {"Sonoma-Marin Area Rail Transit", "SMART"},
	agencySamTrans:      {"San Mateo County Transit District", "SAMTRANS"},
	agencyVTA:           {"Santa Clara Valley Transportation Authority", "VTA"},
	agencyMuni:          {"San Francisco Municipal", "Muni"},
	agencyGGFerry:       {"Golden Gate Ferry", "GG Ferry"},
	agencySFBayFerry:    {"San Francisco Bay Ferry", "SF Bay Ferry"},
	agencyCaltrain8Ride: {"Caltrain 8-Rides", "Caltrain"},
}

var ggFerryRoutes = map[int]string{
	0x03: "Larkspur",
	0x04: "San Francisco",
}
