package transit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/theoremus-urban-solutions/farecard-decoder/internal/logging"
)

// Ledger is the decoded content of one card.
type Ledger struct {
	ScanID    uuid.UUID `json:"scan_id"`
	ScannedAt time.Time `json:"scanned_at"`
	Family    string    `json:"family"`
	Name      string    `json:"name"`
	Serial    string    `json:"serial,omitempty"`
	// Balance is nil when the balance subsystem failed or the card has none.
	Balance  *int64 `json:"balance,omitempty"`
	Currency string `json:"currency"`

	Trips         []Trip         `json:"trips"`
	Refills       []Refill       `json:"refills,omitempty"`
	Subscriptions []Subscription `json:"subscriptions,omitempty"`
	Info          []InfoItem     `json:"info,omitempty"`

	Failures []SubsystemFailure `json:"failures,omitempty"`
}

// Partial reports whether any subsystem failed.
func (l *Ledger) Partial() bool { return len(l.Failures) > 0 }

// Failure returns the failure of subsystem s, if any.
func (l *Ledger) Failure(s Subsystem) (SubsystemFailure, bool) {
	for _, f := range l.Failures {
		if f.Subsystem == s {
			return f, true
		}
	}
	return SubsystemFailure{}, false
}

// Failed reports whether subsystem s failed.
func (l *Ledger) Failed(s Subsystem) bool {
	_, ok := l.Failure(s)
	return ok
}

// Identity returns the family, name and serial of the ledger.
func (l *Ledger) Identity() Identity {
	return Identity{Family: l.Family, Name: l.Name, Serial: l.Serial}
}

// Builder assembles a Ledger one subsystem at a time. Each subsystem runs
// in isolation: an error or panic is recorded as a SubsystemFailure and the
// remaining subsystems still run.
//
// Example:
//
//	b := transit.NewBuilder(ctx, "orca", "ORCA", "USD")
//	b.Serial(func() (string, error) { return readSerial(dump) })
//	b.Trips(func() ([]transit.Trip, error) { return readTrips(dump) })
//	ledger := b.Build()
type Builder struct {
	ctx    context.Context
	ledger Ledger
}

// NewBuilder starts a ledger for a card family.
func NewBuilder(ctx context.Context, family, name, currency string) *Builder {
	return &Builder{
		ctx: ctx,
		ledger: Ledger{
			Family:   family,
			Name:     name,
			Currency: currency,
		},
	}
}

// SetName overrides the display name, e.g. after detecting a card variant.
func (b *Builder) SetName(name string) *Builder {
	b.ledger.Name = name
	return b
}

// SetScannedAt records when the dump was taken.
func (b *Builder) SetScannedAt(t time.Time) *Builder {
	b.ledger.ScannedAt = t
	return b
}

func (b *Builder) Serial(fn func() (string, error)) *Builder {
	b.run(SubsystemSerial, func() error {
		s, err := fn()
		if err == nil {
			b.ledger.Serial = s
		}
		return err
	})
	return b
}

func (b *Builder) Balance(fn func() (int64, error)) *Builder {
	b.run(SubsystemBalance, func() error {
		v, err := fn()
		if err == nil {
			b.ledger.Balance = Amount(v)
		}
		return err
	})
	return b
}

func (b *Builder) Trips(fn func() ([]Trip, error)) *Builder {
	b.run(SubsystemTrips, func() error {
		trips, err := fn()
		if err == nil {
			b.ledger.Trips = trips
		}
		return err
	})
	return b
}

func (b *Builder) Refills(fn func() ([]Refill, error)) *Builder {
	b.run(SubsystemRefills, func() error {
		refills, err := fn()
		if err == nil {
			b.ledger.Refills = refills
		}
		return err
	})
	return b
}

func (b *Builder) Subscriptions(fn func() ([]Subscription, error)) *Builder {
	b.run(SubsystemSubscriptions, func() error {
		subs, err := fn()
		if err == nil {
			b.ledger.Subscriptions = subs
		}
		return err
	})
	return b
}

func (b *Builder) Info(fn func() ([]InfoItem, error)) *Builder {
	b.run(SubsystemInfo, func() error {
		items, err := fn()
		if err == nil {
			b.ledger.Info = items
		}
		return err
	})
	return b
}

// Fail records a failure for a subsystem computed outside the builder.
func (b *Builder) Fail(s Subsystem, err error) *Builder {
	b.record(s, err)
	return b
}

// Failed reports whether subsystem s has failed so far.
func (b *Builder) Failed(s Subsystem) bool {
	return b.ledger.Failed(s)
}

// CurrentBalance returns the balance decoded so far.
func (b *Builder) CurrentBalance() (int64, bool) {
	if b.ledger.Balance == nil {
		return 0, false
	}
	return *b.ledger.Balance, true
}

func (b *Builder) run(s Subsystem, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			b.record(s, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		b.record(s, err)
	}
}

func (b *Builder) record(s Subsystem, err error) {
	logging.FromContext(b.ctx).Warn().
		Str("family", b.ledger.Family).
		Str("subsystem", string(s)).
		Err(err).
		Msg("ledger subsystem failed")
	b.ledger.Failures = append(b.ledger.Failures, SubsystemFailure{Subsystem: s, Err: err, Message: err.Error()})
}

// Build sorts trips and refills newest first, assigns a scan id and returns
// the ledger. The builder must not be used afterwards.
func (b *Builder) Build() *Ledger {
	l := b.ledger
	if l.Trips == nil {
		l.Trips = []Trip{}
	}
	SortTrips(l.Trips)
	SortRefills(l.Refills)
	l.ScanID = uuid.New()
	if l.ScannedAt.IsZero() {
		l.ScannedAt = time.Now().UTC()
	}
	return &l
}
