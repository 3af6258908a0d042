package ezlink

import (
	"fmt"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// Transaction is one CEPAS log record.
type Transaction struct {
	Type int
	// Amount is signed: debits are negative, top-ups positive.
	Amount   int64
	Time     time.Time
	UserData string
}

// ParseTransaction decodes a 16 byte history record. All-zero records are
// unused log slots.
func ParseTransaction(slot int, rec []byte) (Transaction, error) {
	if len(rec) != historyRecordSize {
		return Transaction{}, fmt.Errorf("record %d is %d bytes", slot, len(rec))
	}
	if bitfield.IsZero(rec) {
		return Transaction{}, transit.Malformed(Family, slot, "empty log record")
	}
	v, err := historyLayout.Decode(rec)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Type:     v.Int("type"),
		Amount:   v.Get("amount"),
		Time:     cardTime(v.Get("time")),
		UserData: userData(rec[historyRecordSize-userDataSize:]),
	}, nil
}

// userData keeps the printable part of the ASCII user data field.
func userData(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c == 0 {
			break
		}
		if c < 0x20 || c > 0x7e {
			c = ' '
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func (t Transaction) isBus() bool { return t.Type == typeBus || t.Type == typeBusRefund }

// Fare is the amount charged; top-ups give negative fares. Card creation
// records carry no fare.
func (t Transaction) Fare() (int64, bool) {
	if t.Type == typeCreation {
		return 0, false
	}
	return -t.Amount, true
}

func (t Transaction) Mode() transit.Mode {
	switch t.Type {
	case typeBus, typeBusRefund:
		return transit.ModeBus
	case typeMRT:
		return transit.ModeMetro
	case typeTopUp:
		return transit.ModeTicketMachine
	case typeRetail, typeService:
		return transit.ModePOS
	}
	return transit.ModeOther
}

// busRoute returns the service number of a bus record ("SVC 174 " or
// "BUS174").
func (t Transaction) busRoute() (string, bool) {
	if !t.isBus() || len(t.UserData) < 7 {
		return "", false
	}
	if !strings.HasPrefix(t.UserData, "SVC") && !strings.HasPrefix(t.UserData, "BUS") {
		return "", false
	}
	return strings.ReplaceAll(t.UserData[3:7], " ", ""), true
}

// stationPair returns the entry and exit codes of "AAA-BBB" style user data.
func (t Transaction) stationPair() (from, to string, ok bool) {
	if len(t.UserData) < 7 || (t.UserData[3] != '-' && t.UserData[3] != ' ') {
		return "", "", false
	}
	from, to = strings.TrimSpace(t.UserData[:3]), strings.TrimSpace(t.UserData[4:7])
	return from, to, from != "" && to != ""
}

// Route names the record the way it is shown to riders.
func (t Transaction) Route() string {
	if route, ok := t.busRoute(); ok {
		if t.Type == typeBusRefund {
			return "Bus Refund"
		}
		return "Bus #" + route
	}
	switch t.Type {
	case typeCreation:
		return "First use"
	case typeRetail:
		return "Retail Purchase"
	case typeBus:
		return "Unknown format: " + t.UserData
	case typeBusRefund:
		return "Bus Refund"
	case typeMRT:
		return "MRT"
	case typeTopUp:
		return "Top-up"
	case typeService:
		return "Service Charge"
	}
	return fmt.Sprintf("Unknown format: 0x%02x", t.Type)
}

// Agency returns the operator name. issuer is used for records made by the
// card issuer itself.
func (t Transaction) Agency(issuer string, short bool) string {
	switch t.Type {
	case typeBus, typeBusRefund:
		if route, ok := t.busRoute(); ok && sbsRoutes.Contains(route) {
			return "SBS"
		}
		return "SMRT"
	case typeCreation, typeTopUp, typeService:
		if short && issuer == "EZ-Link" {
			return "EZ"
		}
		return issuer
	case typeRetail:
		return "POS"
	}
	return "SMRT"
}
