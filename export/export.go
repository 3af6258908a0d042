// Package export converts decoded ledgers to GTFS-Realtime so card trips can
// be loaded by tools that understand transit feeds.
//
// Every transport trip becomes an ADDED TripUpdate with the boarding stop as
// the first stop time update and the alighting stop, when known, as the
// second. Machine and shop transactions are skipped.
package export

import (
	"fmt"
	"strings"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

const gtfsRealtimeVersion = "2.0"

// Options controls id generation.
type Options struct {
	// AgencyPrefix is prepended to route and stop ids.
	AgencyPrefix string
	// Timestamp of the feed header; zero uses the newest scan time.
	Timestamp time.Time
}

// FeedMessage converts ledgers with default options.
func FeedMessage(ledgers ...*transit.Ledger) *gtfsrtpb.FeedMessage {
	return Options{}.FeedMessage(ledgers...)
}

// FeedMessage converts ledgers to a full-dataset feed.
func (o Options) FeedMessage(ledgers ...*transit.Ledger) *gtfsrtpb.FeedMessage {
	ts := o.Timestamp
	var entities []*gtfsrtpb.FeedEntity
	for _, l := range ledgers {
		if l == nil {
			continue
		}
		if l.ScannedAt.After(ts) && o.Timestamp.IsZero() {
			ts = l.ScannedAt
		}
		for i, trip := range l.Trips {
			if !trip.Mode.IsTransport() || trip.Timestamp().IsZero() {
				continue
			}
			entities = append(entities, o.entity(l, i, trip))
		}
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	return &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRealtimeVersion),
			Incrementality:      gtfsrtpb.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(ts.Unix())),
		},
		Entity: entities,
	}
}

func (o Options) entity(l *transit.Ledger, i int, trip transit.Trip) *gtfsrtpb.FeedEntity {
	id := fmt.Sprintf("%s-%d", l.ScanID, i)
	start := trip.Timestamp()

	relationship := gtfsrtpb.TripDescriptor_ADDED
	if trip.Cancelled {
		relationship = gtfsrtpb.TripDescriptor_CANCELED
	}
	desc := &gtfsrtpb.TripDescriptor{
		TripId:               proto.String(id),
		StartDate:            proto.String(start.Format("20060102")),
		StartTime:            proto.String(start.Format("15:04:05")),
		ScheduleRelationship: relationship.Enum(),
	}
	if route := o.routeID(l, trip); route != "" {
		desc.RouteId = proto.String(route)
	}

	update := &gtfsrtpb.TripUpdate{
		Trip:      desc,
		Timestamp: proto.Uint64(uint64(l.ScannedAt.Unix())),
	}
	if trip.Vehicle != "" || trip.Route != "" {
		update.Vehicle = &gtfsrtpb.VehicleDescriptor{}
		if trip.Vehicle != "" {
			update.Vehicle.Id = proto.String(trip.Vehicle)
		}
		if trip.Route != "" {
			update.Vehicle.Label = proto.String(trip.Route)
		}
	}

	seq := uint32(0)
	if trip.StartStation != nil && !trip.Start.IsZero() {
		seq++
		update.StopTimeUpdate = append(update.StopTimeUpdate, &gtfsrtpb.TripUpdate_StopTimeUpdate{
			StopSequence: proto.Uint32(seq),
			StopId:       proto.String(o.stopID(l, trip.StartStation)),
			Departure:    &gtfsrtpb.TripUpdate_StopTimeEvent{Time: proto.Int64(trip.Start.Unix())},
		})
	}
	if trip.EndStation != nil && !trip.End.IsZero() {
		seq++
		update.StopTimeUpdate = append(update.StopTimeUpdate, &gtfsrtpb.TripUpdate_StopTimeUpdate{
			StopSequence: proto.Uint32(seq),
			StopId:       proto.String(o.stopID(l, trip.EndStation)),
			Arrival:      &gtfsrtpb.TripUpdate_StopTimeEvent{Time: proto.Int64(trip.End.Unix())},
		})
	}

	return &gtfsrtpb.FeedEntity{
		Id:         proto.String(id),
		TripUpdate: update,
	}
}

// routeID is "<prefix><agency>:<route>" with the parts that are known.
func (o Options) routeID(l *transit.Ledger, trip transit.Trip) string {
	agency := trip.ShortAgency
	if agency == "" {
		agency = trip.Agency
	}
	if agency == "" && trip.Route == "" {
		return ""
	}
	if agency == "" {
		agency = l.Family
	}
	id := o.AgencyPrefix + sanitize(agency)
	if trip.Route != "" {
		id += ":" + sanitize(trip.Route)
	}
	return id
}

func (o Options) stopID(l *transit.Ledger, s *transit.Station) string {
	return o.AgencyPrefix + l.Family + ":" + sanitize(s.ID)
}

func sanitize(s string) string {
	return strings.Join(strings.Fields(s), "_")
}

// Marshal encodes a feed in the protobuf wire format.
func Marshal(msg *gtfsrtpb.FeedMessage) ([]byte, error) {
	return proto.Marshal(msg)
}

// Unmarshal decodes a feed written by Marshal.
func Unmarshal(b []byte) (*gtfsrtpb.FeedMessage, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(b, &fm); err != nil {
		return nil, err
	}
	return &fm, nil
}
