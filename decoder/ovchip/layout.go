package ovchip

import (
	"bytes"
	"time"
	_ "time/tzdata"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
)

const (
	sectorCount      = 40
	transactionSlots = 28
	blockSize        = 16

	// Transactions live in sectors 35 to 38, seven two-block slots each.
	firstTransactionSector = 35
	slotsPerSector         = 7

	indexSector = 39
	indexBlock  = 11
)

// Process types stored in the transfer field.
const (
	processPurchase = 0x00
	processCheckin  = 0x01
	processCheckout = 0x02
	processTransfer = 0x06
	processBanned   = 0x07
	processCredit   = -0x02
	processNoData   = -0x03
)

const (
	agencyTLS        = 0x00
	agencyConnexxion = 0x01
	agencyGVB        = 0x02
	agencyHTM        = 0x03
	agencyNS         = 0x04
	agencyRET        = 0x05
	agencyVeolia     = 0x07
	agencyArriva     = 0x08
	agencySyntus     = 0x09
	agencyQbuzz      = 0x0a
	agencyDUO        = 0x0c
	agencyStore      = 0x19
	agencyDUOAlt     = 0x2c
)

// NS resets check-ins at 04:00.
const nsCutoffMinute = 240

// header is the start of sector 0 block 1 on every OV-chipkaart.
var header = []byte{0x84, 0x00, 0x00, 0x00, 0x06, 0x03, 0xa0, 0x00, 0x13, 0xae, 0xe4}

func hasHeader(block []byte) bool {
	return len(block) >= len(header) && bytes.Equal(block[:len(header)], header)
}

var amsterdam = mustZone("Europe/Amsterdam")

func mustZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// cardDate converts days since 1997-01-01 and minutes after midnight,
// both local time.
func cardDate(day, minute int) time.Time {
	return time.Date(1997, time.January, 1+day, 0, minute, 0, 0, amsterdam)
}

// blockAt converts a byte pointer used by the index into a sector and block.
// Sectors 0-31 have 4 blocks, sectors 32-39 have 16.
func blockAt(ptr int) (sector, block int) {
	b := ptr / blockSize
	if b < 128 {
		return b / 4, b % 4
	}
	return 32 + (b-128)/16, (b - 128) % 16
}

var preambleLayout = bitfield.Layout{
	{Name: "expiry", Start: 216, Width: 20},
	{Name: "type", Start: 276, Width: 4},
}

var infoLayout = bitfield.Layout{
	{Name: "company", Start: 48, Width: 5},
	{Name: "expiry", Start: 53, Width: 14},
	{Name: "personal", Start: 110, Width: 1},
	{Name: "autocharge_active", Start: 176, Width: 3},
	{Name: "autocharge_limit", Start: 179, Width: 16},
	{Name: "autocharge_charge", Start: 195, Width: 16},
}

// creditLayout is one credit slot. The credit is stored offset by 0x8000.
var creditLayout = bitfield.Layout{
	{Name: "banbits", Start: 0, Width: 9},
	{Name: "slot_id", Start: 9, Width: 12},
	{Name: "credit_id", Start: 56, Width: 12},
	{Name: "credit", Start: 77, Width: 16},
}

const creditBias = 0x8000

// presentField is a transaction field stored only when bit Flag of the
// 28-bit field mask is set. Flags count from the least significant bit of
// the mask; fields follow each other in flag order.
type presentField struct {
	Flag  int
	Name  string
	Width int
}

// Fields named "never" have not been seen on real cards. A record using one
// cannot be decoded reliably.
var transactionFields = []presentField{
	{0, "never", 8},
	{1, "unknown_a", 24},
	{2, "transfer", 7},
	{3, "never", 8},
	{4, "company", 16},
	{5, "never", 8},
	{6, "id", 24},
	{7, "never", 8},
	{8, "station", 16},
	{9, "never", 8},
	{10, "machine", 24},
	{11, "never", 8},
	{12, "never", 8},
	{13, "never", 8},
	{14, "vehicle", 16},
	{15, "never", 8},
	{16, "product", 5},
	{17, "never", 8},
	{18, "never", 8},
	{19, "never", 8},
	{20, "duration", 16},
	{21, "never", 8},
	{22, "never", 8},
	{23, "amount", 16},
	{24, "subscription", 13},
	{25, "unknown_c", 10},
	{26, "unknown_d", 8},
}

const (
	fieldMaskWidth = 28
	dateWidth      = 14
	timeWidth      = 11
)

var agencyNames = map[int]string{
	agencyTLS:        "Trans Link Systems",
	agencyConnexxion: "Connexxion",
	agencyGVB:        "Gemeentelijk Vervoersbedrijf",
	agencyHTM:        "Haagsche Tramweg-Maatschappij",
	agencyNS:         "Nederlandse Spoorwegen",
	agencyRET:        "Rotterdamse Elektrische Tram",
	agencyVeolia:     "Veolia",
	agencyArriva:     "Arriva",
	agencySyntus:     "Syntus",
	agencyQbuzz:      "Qbuzz",
	agencyDUO:        "Dienst Uitvoering Onderwijs",
	agencyStore:      "Reseller",
	agencyDUOAlt:     "Dienst Uitvoering Onderwijs",
}

var shortAgencyNames = map[int]string{
	agencyTLS:        "TLS",
	agencyConnexxion: "Connexxion",
	agencyGVB:        "GVB",
	agencyHTM:        "HTM",
	agencyNS:         "NS",
	agencyRET:        "RET",
	agencyVeolia:     "Veolia",
	agencyArriva:     "Arriva",
	agencySyntus:     "Syntus",
	agencyQbuzz:      "Qbuzz",
	agencyDUO:        "DUO",
	agencyStore:      "Reseller",
	agencyDUOAlt:     "DUO",
}

var subscriptionNames = map[int]string{
	// NS
	0x0005: "OV-jaarkaart",
	0x0007: "OV-Bijkaart 1e klas",
	0x0011: "NS Businesscard",
	0x0019: "Voordeelurenabonnement (twee jaar)",
	0x00af: "Studenten OV-chipkaart week (2009)",
	0x00b0: "Studenten OV-chipkaart weekend (2009)",
	0x00b1: "Studentenkaart korting week (2009)",
	0x00b2: "Studentenkaart korting weekend (2009)",
	0x00c9: "Reizen op saldo bij NS, 1e klasse",
	0x00ca: "Reizen op saldo bij NS, 2de klasse",
	0x00ce: "Voordeelurenabonnement reizen op saldo",
	0x00e5: "Reizen op saldo (tijdelijk eerste klas)",
	0x00e6: "Reizen op saldo (tijdelijk tweede klas)",
	0x00e7: "Reizen op saldo (tijdelijk eerste klas korting)",
	// Arriva
	0x059a: "Dalkorting",
	// Veolia
	0x0626: "DALU Dalkorting",
	// Connexxion
	0x0692: "Daluren Oost-Nederland",
	0x069c: "Daluren Oost-Nederland",
	// DUO
	0x09c6: "Student weekend-vrij",
	0x09c7: "Student week-korting",
	0x09c9: "Student week-vrij",
	0x09ca: "Student weekend-korting",
	// GVB
	0x0bbd: "Fietssupplement",
}
