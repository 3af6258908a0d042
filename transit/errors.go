package transit

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord marks a record that failed its family's validity test.
// Decoders drop such records silently.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError carries the family, slot and reason of a dropped
// record.
type MalformedRecordError struct {
	Family string
	Slot   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s record %d: %s", e.Family, e.Slot, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// Malformed builds a MalformedRecordError.
func Malformed(family string, slot int, reason string) error {
	return &MalformedRecordError{Family: family, Slot: slot, Reason: reason}
}

// Subsystem names a part of the ledger that is decoded independently.
type Subsystem string

const (
	SubsystemSerial        Subsystem = "serial"
	SubsystemBalance       Subsystem = "balance"
	SubsystemTrips         Subsystem = "trips"
	SubsystemRefills       Subsystem = "refills"
	SubsystemSubscriptions Subsystem = "subscriptions"
	SubsystemInfo          Subsystem = "info"
)

// SubsystemFailure records why a subsystem could not be decoded.
type SubsystemFailure struct {
	Subsystem Subsystem `json:"subsystem"`
	Err       error     `json:"-"`
	Message   string    `json:"message"`
}

func (f SubsystemFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.Subsystem, f.Message)
}

func (f SubsystemFailure) Unwrap() error { return f.Err }
