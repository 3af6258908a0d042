package formatter

import (
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// Options controls rendering.
type Options struct {
	// Symbols overrides the currency symbol per ISO 4217 code.
	Symbols map[string]string
	// ShowRaw adds minor-unit amounts next to the formatted ones.
	ShowRaw bool
	// Location converts timestamps; nil keeps the card's own zone.
	Location *time.Location
}

func (o Options) amount(v int64, currency string) string {
	if sym, ok := o.Symbols[strings.ToUpper(currency)]; ok {
		return transit.FormatAmountWith(v, currency, sym)
	}
	return transit.FormatAmount(v, currency)
}

func (o Options) raw(v *int64) *int64 {
	if !o.ShowRaw {
		return nil
	}
	return v
}

func (o Options) time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if o.Location != nil {
		t = t.In(o.Location)
	}
	return t.Format(time.RFC3339)
}

func (o Options) date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if o.Location != nil {
		t = t.In(o.Location)
	}
	return t.Format(time.DateOnly)
}

// LedgerView is a ledger with display strings.
type LedgerView struct {
	ScanID        string             `json:"scan_id"`
	ScannedAt     string             `json:"scanned_at"`
	Family        string             `json:"family"`
	Name          string             `json:"name"`
	Serial        string             `json:"serial,omitempty"`
	Currency      string             `json:"currency"`
	Balance       string             `json:"balance,omitempty"`
	BalanceRaw    *int64             `json:"balance_raw,omitempty"`
	Trips         []TripView         `json:"trips"`
	Refills       []RefillView       `json:"refills,omitempty"`
	Subscriptions []SubscriptionView `json:"subscriptions,omitempty"`
	Info          []transit.InfoItem `json:"info,omitempty"`
	Failures      []FailureView      `json:"failures,omitempty"`
}

// TripView is a trip with display strings.
type TripView struct {
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Mode       string `json:"mode"`
	Agency     string `json:"agency,omitempty"`
	Route      string `json:"route,omitempty"`
	Vehicle    string `json:"vehicle,omitempty"`
	Machine    string `json:"machine,omitempty"`
	Passengers int    `json:"passengers,omitempty"`
	Fare       string `json:"fare,omitempty"`
	FareRaw    *int64 `json:"fare_raw,omitempty"`
	Balance    string `json:"balance_after,omitempty"`
	Cancelled  bool   `json:"cancelled,omitempty"`
}

// RefillView is a refill with display strings.
type RefillView struct {
	Time      string `json:"time"`
	Amount    string `json:"amount"`
	AmountRaw *int64 `json:"amount_raw,omitempty"`
	Agency    string `json:"agency,omitempty"`
	Machine   string `json:"machine,omitempty"`
}

// SubscriptionView is a subscription with display strings.
type SubscriptionView struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Agency      string `json:"agency,omitempty"`
	ValidFrom   string `json:"valid_from,omitempty"`
	ValidTo     string `json:"valid_to,omitempty"`
	Price       string `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
}

// FailureView names a subsystem that could not be decoded.
type FailureView struct {
	Subsystem string `json:"subsystem"`
	Error     string `json:"error"`
}

// Wrap builds the display view of a ledger.
func Wrap(l *transit.Ledger, opts Options) LedgerView {
	v := LedgerView{
		ScanID:    l.ScanID.String(),
		ScannedAt: opts.time(l.ScannedAt),
		Family:    l.Family,
		Name:      l.Name,
		Serial:    l.Serial,
		Currency:  l.Currency,
		Trips:     make([]TripView, 0, len(l.Trips)),
		Info:      l.Info,
	}
	if l.Balance != nil {
		v.Balance = opts.amount(*l.Balance, l.Currency)
		v.BalanceRaw = opts.raw(l.Balance)
	}
	for _, t := range l.Trips {
		v.Trips = append(v.Trips, wrapTrip(t, l.Currency, opts))
	}
	for _, r := range l.Refills {
		v.Refills = append(v.Refills, RefillView{
			Time:      opts.time(r.Time),
			Amount:    opts.amount(r.Amount, l.Currency),
			AmountRaw: opts.raw(transit.Amount(r.Amount)),
			Agency:    firstNonEmpty(r.ShortAgency, r.Agency),
			Machine:   r.Machine,
		})
	}
	for _, s := range l.Subscriptions {
		sv := SubscriptionView{
			ID:          s.ID,
			Name:        s.Name,
			Agency:      s.Agency,
			ValidFrom:   opts.date(s.ValidFrom),
			ValidTo:     opts.date(s.ValidTo),
			Description: s.Description,
		}
		if s.Price != nil {
			sv.Price = opts.amount(*s.Price, l.Currency)
		}
		v.Subscriptions = append(v.Subscriptions, sv)
	}
	for _, f := range l.Failures {
		msg := f.Message
		if msg == "" && f.Err != nil {
			msg = f.Err.Error()
		}
		v.Failures = append(v.Failures, FailureView{Subsystem: string(f.Subsystem), Error: msg})
	}
	return v
}

func wrapTrip(t transit.Trip, currency string, opts Options) TripView {
	tv := TripView{
		Start:      opts.time(t.Start),
		End:        opts.time(t.End),
		Mode:       t.Mode.String(),
		Agency:     firstNonEmpty(t.ShortAgency, t.Agency),
		Route:      t.Route,
		Vehicle:    t.Vehicle,
		Machine:    t.Machine,
		Passengers: t.Passengers,
		Cancelled:  t.Cancelled,
		FareRaw:    opts.raw(t.Fare),
	}
	if t.StartStation != nil {
		tv.From = t.StartStation.DisplayName()
	}
	if t.EndStation != nil {
		tv.To = t.EndStation.DisplayName()
	}
	if t.Fare != nil {
		tv.Fare = opts.amount(*t.Fare, currency)
	}
	if t.BalanceAfter != nil {
		tv.Balance = opts.amount(*t.BalanceAfter, currency)
	}
	return tv
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}

// TripFilter selects trips. Zero fields match everything.
type TripFilter struct {
	Mode   string
	Agency string
	Since  time.Time
	// TransportOnly drops machine and shop transactions.
	TransportOnly bool
}

// FilterTrips returns the trips matching f. Mode and agency compare
// case-insensitively; agency matches either the long or the short name.
func FilterTrips(trips []transit.Trip, f TripFilter) []transit.Trip {
	mode := strings.ToUpper(strings.TrimSpace(f.Mode))
	agency := strings.ToLower(strings.TrimSpace(f.Agency))

	filtered := []transit.Trip{}
	for _, t := range trips {
		if mode != "" && t.Mode.String() != mode {
			continue
		}
		if agency != "" && strings.ToLower(t.Agency) != agency && strings.ToLower(t.ShortAgency) != agency {
			continue
		}
		if !f.Since.IsZero() && t.Timestamp().Before(f.Since) {
			continue
		}
		if f.TransportOnly && !t.Mode.IsTransport() {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}
