package transit

import (
	"fmt"
	"strings"
)

// Mode is the kind of vehicle or device a transaction happened at.
type Mode int

const (
	ModeOther Mode = iota
	ModeBus
	ModeTrain
	ModeTram
	ModeMetro
	ModeFerry
	ModeTicketMachine
	ModeVendingMachine
	ModePOS
	ModeBanned
	ModeTrolleybus
	ModeTollRoad
	ModeMonorail
	ModeCableCar
)

var modeNames = [...]string{
	ModeOther:          "OTHER",
	ModeBus:            "BUS",
	ModeTrain:          "TRAIN",
	ModeTram:           "TRAM",
	ModeMetro:          "METRO",
	ModeFerry:          "FERRY",
	ModeTicketMachine:  "TICKET_MACHINE",
	ModeVendingMachine: "VENDING_MACHINE",
	ModePOS:            "POS",
	ModeBanned:         "BANNED",
	ModeTrolleybus:     "TROLLEYBUS",
	ModeTollRoad:       "TOLL_ROAD",
	ModeMonorail:       "MONORAIL",
	ModeCableCar:       "CABLECAR",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	s := strings.ToUpper(string(text))
	for i, name := range modeNames {
		if name == s {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

// IsTransport reports whether the mode moves passengers, as opposed to a
// machine or shop transaction.
func (m Mode) IsTransport() bool {
	switch m {
	case ModeBus, ModeTrain, ModeTram, ModeMetro, ModeFerry, ModeTrolleybus, ModeMonorail, ModeCableCar:
		return true
	}
	return false
}
