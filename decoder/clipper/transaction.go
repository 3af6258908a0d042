package clipper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// Record is one decoded trip record. Clipper writes a complete trip per
// record, so no tap pairing is needed.
type Record struct {
	Timestamp int64
	Exit      int64
	Agency    int
	Fare      int64
	Vehicle   int
	From      int
	To        int
	Route     int
	Transport int
}

// ParseRecord decodes a 32 byte trip record. Records without an agency are
// blank slots and fail with transit.ErrMalformedRecord.
func ParseRecord(data []byte) (Record, error) {
	v, err := tripLayout.Decode(data)
	if err != nil {
		return Record{}, err
	}
	if v.Int("agency") == 0 {
		return Record{}, transit.Malformed(Family, -1, "no agency")
	}
	return Record{
		Timestamp: v.Get("timestamp"),
		Exit:      v.Get("exit"),
		Agency:    v.Int("agency"),
		Fare:      v.Get("fare"),
		Vehicle:   v.Int("vehicle"),
		From:      v.Int("from"),
		To:        v.Int("to"),
		Route:     v.Int("route"),
		Transport: v.Int("transport"),
	}, nil
}

// Start returns the tap-on time.
func (r Record) Start() time.Time { return clipperTime(r.Timestamp) }

// End returns the tap-off time, zero when the card did not record one.
func (r Record) End() time.Time { return clipperTime(r.Exit) }

// HasExit reports whether the record carries a tap-off time.
func (r Record) HasExit() bool { return r.Exit != 0 }

// Mode classifies the record by transport code. Code 0x62 is shared by
// ferries, heavy rail and light rail and needs the agency to tell them apart.
func (r Record) Mode() transit.Mode {
	switch r.Transport {
	case transportShared:
		switch r.Agency {
		case agencySFBayFerry, agencyGGFerry:
			return transit.ModeFerry
		case agencyCaltrain, agencySMART:
			return transit.ModeTrain
		}
		return transit.ModeTram
	case transportMetro:
		return transit.ModeMetro
	case transportBusA, transportBusB, transportBusC:
		return transit.ModeBus
	case transportFerry:
		return transit.ModeFerry
	case transportTrain:
		return transit.ModeTrain
	}
	return transit.ModeOther
}

// VehicleID formats the vehicle number. Muni LRV4 cars store their number
// times ten plus a letter index, so 20101 is car 2010A.
func (r Record) VehicleID() string {
	if r.Vehicle == 0 || r.Vehicle == noVehicle {
		return ""
	}
	if r.Vehicle >= lrvThreshold {
		return fmt.Sprintf("%d%X", r.Vehicle/10, 9+r.Vehicle%10)
	}
	return strconv.Itoa(r.Vehicle)
}

// RouteName returns the route label. Only Golden Gate Ferry routes are
// known without a database.
func (r Record) RouteName() string {
	if r.Agency != agencyGGFerry {
		return ""
	}
	if name, ok := ggFerryRoutes[r.Route]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", r.Route)
}

// RefillRecord is one decoded value load.
type RefillRecord struct {
	Timestamp int64
	Agency    int
	Machine   int64
	Amount    int64
}

// ParseRefill decodes a 32 byte refill record. A zero timestamp marks a
// blank slot.
func ParseRefill(data []byte) (RefillRecord, error) {
	v, err := refillLayout.Decode(data)
	if err != nil {
		return RefillRecord{}, err
	}
	if v.Get("timestamp") == 0 {
		return RefillRecord{}, transit.Malformed(Family, -1, "no timestamp")
	}
	return RefillRecord{
		Timestamp: v.Get("timestamp"),
		Agency:    v.Int("agency"),
		Machine:   v.Get("machine"),
		Amount:    v.Get("amount"),
	}, nil
}

func (r RefillRecord) Time() time.Time { return clipperTime(r.Timestamp) }

// Refill converts the record for the ledger.
func (r RefillRecord) Refill() transit.Refill {
	name, short := agencyNames(r.Agency)
	return transit.Refill{
		Time:        r.Time(),
		Amount:      r.Amount,
		Agency:      name,
		ShortAgency: short,
		Machine:     fmt.Sprintf("%x", r.Machine),
	}
}

func clipperTime(raw int64) time.Time {
	if raw == 0 {
		return time.Time{}
	}
	return time.Unix(raw-epochOffset, 0).UTC()
}

func agencyNames(agency int) (string, string) {
	if a, ok := agencies[agency]; ok {
		return a.name, a.short
	}
	unknown := fmt.Sprintf("Unknown (0x%x)", agency)
	return unknown, unknown
}

// resolveStation looks a station up in the provider and the builtin table.
// Zone based operators get a zone label, and other unknown codes a hex
// placeholder. An empty start (0) or end (0xffff) gives nil.
func resolveStation(ctx context.Context, provider stations.Provider, agency, id int, isEnd bool) (*transit.Station, error) {
	r := stations.Chain(provider.For(namespace), builtin)
	s, err := r.ResolveStation(ctx, agency, id)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, stations.ErrNotFound) {
		return nil, err
	}

	switch agency {
	case agencyGGT, agencyCaltrain, agencyGGFerry, agencySMART:
		if id == endOfLine {
			return nameOnly(id, "(End of line)"), nil
		}
		if agency != agencyGGFerry {
			return nameOnly(id, "Zone "+strconv.Itoa(id)), nil
		}
	}

	empty := 0
	if isEnd {
		empty = endOfLine
	}
	if id == empty {
		return nil, nil
	}
	st := nameOnly(id, fmt.Sprintf("0x%x/0x%x", agency, id))
	st.Unknown = true
	return st, nil
}

func nameOnly(id int, name string) *transit.Station {
	return &transit.Station{ID: strconv.Itoa(id), Name: name}
}
