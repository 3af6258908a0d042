package suica

import (
	"context"
	"fmt"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

const (
	namespaceRail = "suica_rail"
	namespaceBus  = "suica_bus"
)

// Record is one history block.
type Record struct {
	Console int
	Process int
	DateRaw int
	In      int
	Out     int
	Balance int64
	Region  int

	// Fare is the balance difference to the previous (older) record; it is
	// unknown for the oldest record.
	Fare    int64
	HasFare bool
	Start   time.Time
	End     time.Time
}

// ParseRecord decodes a history block. Blocks without a date are unused and
// fail with transit.ErrMalformedRecord.
func ParseRecord(data []byte) (Record, error) {
	v, err := historyLayout.Decode(data)
	if err != nil {
		return Record{}, err
	}
	r := Record{
		Console: v.Int("console"),
		Process: v.Int("process"),
		DateRaw: v.Int("date"),
		In:      v.Int("in"),
		Out:     v.Int("out"),
		Balance: v.Get("balance"),
		Region:  v.Int("region"),
	}
	if r.DateRaw == 0 {
		return Record{}, transit.Malformed(Family, -1, "no date")
	}
	r.Start = r.date()
	if r.isProductSale() {
		r.Start = r.Start.Add(time.Duration(r.In>>11)*time.Hour + time.Duration((r.In>>5)&0x3f)*time.Minute)
	}
	return r, nil
}

// date decodes the 7/4/5 bit year/month/day word. The year counts from 2000.
func (r Record) date() time.Time {
	yy := r.DateRaw >> 9
	mm := (r.DateRaw >> 5) & 0x0f
	dd := r.DateRaw & 0x1f
	return time.Date(2000+yy, time.Month(mm), dd, 0, 0, 0, 0, jst)
}

func (r Record) isProductSale() bool {
	return r.Console == consolePOS || r.Console == consoleVending
}

func (r Record) isCharge() bool { return r.Process == processCharge }
func (r Record) isBus() bool    { return r.Console == consoleBus }
func (r Record) isTVM() bool    { return tvmConsoles[r.Console] }

// Mode classifies the record by console and process type.
func (r Record) Mode() transit.Mode {
	switch {
	case r.isTVM(), r.isCharge():
		return transit.ModeTicketMachine
	case r.Console == consoleVending:
		return transit.ModeVendingMachine
	case r.Console == consolePOS:
		return transit.ModePOS
	case r.isBus():
		return transit.ModeBus
	}
	return transit.ModeMetro
}

// area is the rail operator area encoded in the top two bits of the region
// byte.
func (r Record) area() int { return (r.Region >> 6) & 0xff }

// Stations resolves the entry and exit station. Sales and charges have
// none, buses and ticket machines only an entry.
func (r Record) Stations(ctx context.Context, provider stations.Provider) (start, end *transit.Station, err error) {
	switch {
	case r.isProductSale(), r.isCharge():
		return nil, nil, nil
	case r.isBus():
		start, err = r.busStop(ctx, provider)
		return start, nil, err
	}
	start, err = r.railStation(ctx, provider, r.In)
	if err != nil || r.isTVM() {
		return start, nil, err
	}
	end, err = r.railStation(ctx, provider, r.Out)
	return start, end, err
}

func (r Record) busStop(ctx context.Context, provider stations.Provider) (*transit.Station, error) {
	line, stop := r.In&0xff, r.Out&0xff
	code := line<<8 | stop
	if code == 0 {
		return nil, nil
	}
	s, err := stations.Lookup(ctx, provider.For(namespaceBus), 0, code, r.stationID(line, stop))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r Record) railStation(ctx context.Context, provider stations.Provider, word int) (*transit.Station, error) {
	line, station := word>>8, word&0xff
	code := line<<8 | station
	if r.area() == 0 && code == 0 {
		return nil, nil
	}
	s, err := stations.Lookup(ctx, provider.For(namespaceRail), r.area(), code, r.stationID(line, station))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r Record) stationID(line, station int) string {
	return fmt.Sprintf("0x%x/0x%x/0x%x", r.Region, line, station)
}

// Route describes machine transactions that have no station.
func (r Record) Route(hasStation bool) string {
	if hasStation {
		return ""
	}
	return ConsoleName(r.Console) + " " + ProcessName(r.Process)
}

// Tap is one gate event from the in/out service.
type Tap struct {
	Entry   bool
	Station int
	DateRaw int
	Hour    int
	Minute  int
	Fare    int64
}

// ParseTap decodes an in/out block.
func ParseTap(data []byte) (Tap, error) {
	v, err := tapLayout.Decode(data)
	if err != nil {
		return Tap{}, err
	}
	return Tap{
		Entry:   v.Get("entry") == 1,
		Station: v.Int("station"),
		DateRaw: v.Int("date"),
		Hour:    fromBCD(v.Int("hour")),
		Minute:  fromBCD(v.Int("minute")),
		Fare:    v.Get("fare"),
	}, nil
}

func fromBCD(b int) int { return (b>>4)*10 + b&0x0f }

func atTime(day time.Time, hour, minute int) time.Time {
	y, m, d := day.In(jst).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, jst)
}

// matchTaps fills in gate times for a turnstile record. Exit taps must match
// the exit station, date and fare, entry taps the entry station and date.
// Each tap is used at most once.
func matchTaps(r *Record, taps []Tap, used []bool) {
	for i, t := range taps {
		if used[i] || t.Entry || t.Station != r.Out || t.DateRaw != r.DateRaw || t.Fare != r.Fare {
			continue
		}
		r.End = atTime(r.Start, t.Hour, t.Minute)
		used[i] = true
		break
	}
	for i, t := range taps {
		if used[i] || !t.Entry || t.Station != r.In || t.DateRaw != r.DateRaw {
			continue
		}
		r.Start = atTime(r.Start, t.Hour, t.Minute)
		used[i] = true
		break
	}
}
