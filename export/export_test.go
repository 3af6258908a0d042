package export

import (
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"

	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

var scanned = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func sampleLedger() *transit.Ledger {
	from := transit.Station{ID: "8", Name: "Powell Street"}
	to := transit.Station{ID: "1", Name: "Colma"}
	return &transit.Ledger{
		ScanID:    uuid.MustParse("6f1c2d9e-8a4b-4c3d-9e2f-0a1b2c3d4e5f"),
		ScannedAt: scanned,
		Family:    "clipper",
		Name:      "Clipper",
		Currency:  "USD",
		Trips: []transit.Trip{
			{
				Start:        scanned.Add(-time.Hour),
				End:          scanned.Add(-30 * time.Minute),
				StartStation: &from,
				EndStation:   &to,
				Mode:         transit.ModeMetro,
				ShortAgency:  "BART",
			},
			{Start: scanned.Add(-2 * time.Hour), Mode: transit.ModeTicketMachine, Agency: "Clipper"},
			{
				Start:       scanned.Add(-3 * time.Hour),
				Mode:        transit.ModeBus,
				Agency:      "San Francisco Municipal",
				ShortAgency: "Muni",
				Route:       "38 Geary",
				Vehicle:     "8512",
				Cancelled:   true,
			},
		},
	}
}

func TestFeedMessage(t *testing.T) {
	msg := Options{AgencyPrefix: "fc-"}.FeedMessage(sampleLedger(), nil)

	if got := msg.GetHeader().GetTimestamp(); got != uint64(scanned.Unix()) {
		t.Errorf("expected header timestamp %d, got %d", scanned.Unix(), got)
	}
	if msg.GetHeader().GetIncrementality() != gtfsrtpb.FeedHeader_FULL_DATASET {
		t.Errorf("expected FULL_DATASET, got %v", msg.GetHeader().GetIncrementality())
	}
	if len(msg.GetEntity()) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(msg.GetEntity()))
	}

	want := &gtfsrtpb.FeedEntity{
		Id: proto.String("6f1c2d9e-8a4b-4c3d-9e2f-0a1b2c3d4e5f-0"),
		TripUpdate: &gtfsrtpb.TripUpdate{
			Trip: &gtfsrtpb.TripDescriptor{
				TripId:               proto.String("6f1c2d9e-8a4b-4c3d-9e2f-0a1b2c3d4e5f-0"),
				RouteId:              proto.String("fc-BART"),
				StartDate:            proto.String("20240301"),
				StartTime:            proto.String("08:30:00"),
				ScheduleRelationship: gtfsrtpb.TripDescriptor_ADDED.Enum(),
			},
			Timestamp: proto.Uint64(uint64(scanned.Unix())),
			StopTimeUpdate: []*gtfsrtpb.TripUpdate_StopTimeUpdate{
				{
					StopSequence: proto.Uint32(1),
					StopId:       proto.String("fc-clipper:8"),
					Departure:    &gtfsrtpb.TripUpdate_StopTimeEvent{Time: proto.Int64(scanned.Add(-time.Hour).Unix())},
				},
				{
					StopSequence: proto.Uint32(2),
					StopId:       proto.String("fc-clipper:1"),
					Arrival:      &gtfsrtpb.TripUpdate_StopTimeEvent{Time: proto.Int64(scanned.Add(-30 * time.Minute).Unix())},
				},
			},
		},
	}
	if diff := cmp.Diff(want, msg.GetEntity()[0], protocmp.Transform()); diff != "" {
		t.Errorf("entity mismatch (-want +got):\n%s", diff)
	}

	bus := msg.GetEntity()[1].GetTripUpdate()
	if bus.GetTrip().GetScheduleRelationship() != gtfsrtpb.TripDescriptor_CANCELED {
		t.Errorf("expected CANCELED, got %v", bus.GetTrip().GetScheduleRelationship())
	}
	if bus.GetTrip().GetRouteId() != "fc-Muni:38_Geary" {
		t.Errorf("expected fc-Muni:38_Geary, got %s", bus.GetTrip().GetRouteId())
	}
	if bus.GetVehicle().GetId() != "8512" || bus.GetVehicle().GetLabel() != "38 Geary" {
		t.Errorf("unexpected vehicle %v", bus.GetVehicle())
	}
	if len(bus.GetStopTimeUpdate()) != 0 {
		t.Errorf("expected no stop time updates, got %d", len(bus.GetStopTimeUpdate()))
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	msg := FeedMessage(sampleLedger())
	b, err := Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !proto.Equal(msg, got) {
		t.Error("feed changed across marshal")
	}
	t.Logf("✓ %d entities, %d bytes", len(got.GetEntity()), len(b))
}

func TestFeedMessageEmpty(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	msg := Options{Timestamp: fixed}.FeedMessage()
	if len(msg.GetEntity()) != 0 {
		t.Errorf("expected no entities, got %d", len(msg.GetEntity()))
	}
	if msg.GetHeader().GetTimestamp() != uint64(fixed.Unix()) {
		t.Errorf("expected %d, got %d", fixed.Unix(), msg.GetHeader().GetTimestamp())
	}
}
