package transit

import (
	"time"
)

// Trip is one rider-facing journey or machine transaction.
type Trip struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end,omitempty"`

	StartStation *Station `json:"start_station,omitempty"`
	EndStation   *Station `json:"end_station,omitempty"`

	// Fare is nil when the card does not record one for this transaction.
	Fare      *int64 `json:"fare,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`

	Mode        Mode   `json:"mode"`
	Agency      string `json:"agency,omitempty"`
	ShortAgency string `json:"short_agency,omitempty"`
	Route       string `json:"route,omitempty"`
	Vehicle     string `json:"vehicle,omitempty"`
	Machine     string `json:"machine,omitempty"`
	Passengers  int    `json:"passengers,omitempty"`

	BalanceAfter *int64 `json:"balance_after,omitempty"`
}

// Amount returns a pointer to v, for optional fare and balance fields.
func Amount(v int64) *int64 { return &v }

// HasFare reports whether a fare is known.
func (t Trip) HasFare() bool { return t.Fare != nil }

// FareValue returns the fare or 0.
func (t Trip) FareValue() int64 {
	if t.Fare == nil {
		return 0
	}
	return *t.Fare
}

// Timestamp returns Start, or End for trips that only know their end.
func (t Trip) Timestamp() time.Time {
	if !t.Start.IsZero() {
		return t.Start
	}
	return t.End
}

// WithBalance returns a copy of t with BalanceAfter set.
func (t Trip) WithBalance(balance int64) Trip {
	t.BalanceAfter = Amount(balance)
	return t
}

// Refill is a balance top-up.
type Refill struct {
	Time        time.Time `json:"time"`
	Amount      int64     `json:"amount"`
	Agency      string    `json:"agency,omitempty"`
	ShortAgency string    `json:"short_agency,omitempty"`
	Machine     string    `json:"machine,omitempty"`
}

// Subscription is a season pass or product stored on the card.
type Subscription struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Agency      string    `json:"agency,omitempty"`
	ValidFrom   time.Time `json:"valid_from,omitempty"`
	ValidTo     time.Time `json:"valid_to,omitempty"`
	Purchased   time.Time `json:"purchased,omitempty"`
	Price       *int64    `json:"price,omitempty"`
	Machine     string    `json:"machine,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Active reports whether at falls inside the validity window. An unset
// bound is open.
func (s Subscription) Active(at time.Time) bool {
	if !s.ValidFrom.IsZero() && at.Before(s.ValidFrom) {
		return false
	}
	if !s.ValidTo.IsZero() && at.After(s.ValidTo) {
		return false
	}
	return true
}

// InfoItem is a labelled piece of card metadata.
type InfoItem struct {
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
	// Header marks a section heading with no value.
	Header bool `json:"header,omitempty"`
}

// Identity is what a decoder can tell about a card without a full decode.
type Identity struct {
	Family string `json:"family"`
	Name   string `json:"name"`
	Serial string `json:"serial,omitempty"`
}
