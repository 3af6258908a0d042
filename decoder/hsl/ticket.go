package hsl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// Use is one entry of the use log.
type Use struct {
	ValueTicket bool
	Time        time.Time
	Expires     time.Time
	Fare        int64
	Passengers  int
	Balance     int64

	// Line and Vehicle are only known for the entry merged with the
	// value ticket or season pass file.
	Line    int
	Vehicle int

	// synthetic entries are built from the ticket files and carry no
	// balance.
	synthetic bool
}

// ParseUse decodes a use log record. Unused slots are all zero.
func ParseUse(slot int, rec []byte) (Use, error) {
	v, err := historyLayout.Decode(rec)
	if err != nil {
		return Use{}, err
	}
	if v.Get("day") == 0 {
		return Use{}, transit.Malformed(Family, slot, "empty use record")
	}
	return Use{
		ValueTicket: v.Get("arvo") == 1,
		Time:        cardTime(v.Get("day"), v.Get("minute")),
		Expires:     cardTime(v.Get("expire_day"), v.Get("expire_minute")),
		Fare:        v.Get("fare"),
		Passengers:  v.Int("pax"),
		Balance:     v.Get("balance"),
	}, nil
}

// Mode derives the vehicle type from the JORE line number.
func (u Use) Mode() transit.Mode { return lineMode(u.Line) }

// Agency describes the ticket the entry was paid with.
func (u Use) Agency() string {
	if u.ValueTicket {
		mins := int(u.Expires.Sub(u.Time) / time.Minute)
		return fmt.Sprintf("Value ticket, %d pax, %d min", u.Passengers, mins)
	}
	return fmt.Sprintf("Season pass, %d pax", u.Passengers)
}

// Route is "Line X, Vehicle Y" once the line is known.
func (u Use) Route() string {
	if u.Line == 0 {
		return ""
	}
	return fmt.Sprintf("Line %s, Vehicle %d", lineName(u.Line), u.Vehicle)
}

// lineName drops the leading area digit of a JORE line number.
func lineName(line int) string {
	s := strconv.Itoa(line)
	if len(s) < 2 {
		return s
	}
	return s[1:]
}

func lineMode(line int) transit.Mode {
	if line == 0 {
		return transit.ModeBus
	}
	s := strconv.Itoa(line)
	switch {
	case s == "1300":
		return transit.ModeMetro
	case s == "1019":
		return transit.ModeFerry
	case strings.HasPrefix(s, "100") || s == "1010":
		return transit.ModeTram
	case strings.HasPrefix(s, "3"):
		return transit.ModeTrain
	}
	return transit.ModeBus
}

// ValueTicket is the most recently bought single ticket (arvo).
type ValueTicket struct {
	DiscountGroup int
	Duration      int // minutes
	Region        int
	Exit          time.Time
	Price         int64
	Purchased     time.Time
	Expires       time.Time
	Passengers    int
	Transfer      time.Time
	Vehicle       int
	Line          int
	JOREExt       int
	Direction     int
	Mystery       int

	bought bool
}

// ParseValueTicket decodes the arvo file.
func ParseValueTicket(data []byte) (ValueTicket, error) {
	v, err := valueTicketLayout.Decode(data)
	if err != nil {
		return ValueTicket{}, err
	}
	return ValueTicket{
		Mystery:       v.Int("mystery"),
		DiscountGroup: v.Int("discount_group"),
		Duration:      v.Int("duration"),
		Region:        v.Int("region"),
		Exit:          cardTime(v.Get("exit_day"), v.Get("exit_minute")),
		Price:         v.Get("price"),
		Purchased:     cardTime(v.Get("purchase_day"), v.Get("purchase_minute")),
		Expires:       cardTime(v.Get("expire_day"), v.Get("expire_minute")),
		Passengers:    v.Int("pax"),
		Transfer:      cardTime(v.Get("transfer_day"), v.Get("transfer_minute")),
		Vehicle:       v.Int("vehicle"),
		Line:          v.Int("line"),
		JOREExt:       v.Int("jore_ext"),
		Direction:     v.Int("direction"),
		bought:        v.Get("purchase_day") > 0,
	}, nil
}

// Bought reports whether a value ticket was ever purchased on the card.
func (t ValueTicket) Bought() bool { return t.bought }

// RegionName returns the validity region of the ticket.
func (t ValueTicket) RegionName() string {
	if name, ok := regionNames[t.Region]; ok {
		return name
	}
	return ""
}

// Use returns the synthetic use log entry for a ticket bought on board.
func (t ValueTicket) Use() Use {
	return Use{
		ValueTicket: true,
		Time:        t.Purchased,
		Expires:     t.Expires,
		Fare:        t.Price,
		Passengers:  t.Passengers,
		Line:        t.Line,
		Vehicle:     t.Vehicle,
		synthetic:   true,
	}
}

// SeasonPass is the kausi file.
type SeasonPass struct {
	Start     time.Time
	End       time.Time
	PrevStart time.Time
	PrevEnd   time.Time
	Purchased time.Time
	Price     int64
	LastUse   time.Time
	Vehicle   int
	Line      int
	JOREExt   int
	Direction int

	empty   bool
	hasPrev bool
}

// ParseSeasonPass decodes the kausi file. The newer of the two stored
// periods becomes the current one.
func ParseSeasonPass(data []byte) (SeasonPass, error) {
	v, err := seasonPassLayout.Decode(data)
	if err != nil {
		return SeasonPass{}, err
	}
	start, end := v.Get("start_day"), v.Get("end_day")
	prevStart, prevEnd := v.Get("prev_start_day"), v.Get("prev_end_day")
	if prevStart > start {
		start, end, prevStart, prevEnd = prevStart, prevEnd, start, end
	}
	return SeasonPass{
		Start:     cardTime(start, 0),
		End:       cardTime(end, 0),
		PrevStart: cardTime(prevStart, 0),
		PrevEnd:   cardTime(prevEnd, 0),
		Purchased: cardTime(v.Get("purchase_day"), v.Get("purchase_minute")),
		Price:     v.Get("price"),
		LastUse:   cardTime(v.Get("last_use_day"), v.Get("last_use_minute")),
		Vehicle:   v.Int("vehicle"),
		Line:      v.Int("line"),
		JOREExt:   v.Int("jore_ext"),
		Direction: v.Int("direction"),
		empty:     start == 0 && prevStart == 0,
		hasPrev:   prevStart > 0,
	}, nil
}

// Empty reports whether no season pass was ever loaded.
func (p SeasonPass) Empty() bool { return p.empty }

// Valid reports whether the current period covers at. The end day is
// inclusive.
func (p SeasonPass) Valid(at time.Time) bool {
	if p.empty {
		return false
	}
	return !at.Before(p.Start) && at.Before(p.End.Add(secondsPerDay*time.Second))
}

// Use returns the synthetic use log entry for the pass purchase.
func (p SeasonPass) Use() Use {
	return Use{
		Time:       p.Purchased,
		Expires:    p.Purchased,
		Fare:       p.Price,
		Passengers: 1,
		Line:       p.Line,
		Vehicle:    p.Vehicle,
		synthetic:  true,
	}
}

// Subscriptions lists the current period and, when stored, the previous one.
func (p SeasonPass) Subscriptions() []transit.Subscription {
	if p.empty {
		return nil
	}
	endOfDay := func(t time.Time) time.Time { return t.Add(secondsPerDay*time.Second - time.Second) }
	subs := []transit.Subscription{{
		ID:        0,
		Name:      "Season pass",
		Agency:    CardName,
		ValidFrom: p.Start,
		ValidTo:   endOfDay(p.End),
		Purchased: p.Purchased,
		Price:     transit.Amount(p.Price),
	}}
	if p.hasPrev {
		subs = append(subs, transit.Subscription{
			ID:        1,
			Name:      "Previous season pass",
			Agency:    CardName,
			ValidFrom: p.PrevStart,
			ValidTo:   endOfDay(p.PrevEnd),
		})
	}
	return subs
}
