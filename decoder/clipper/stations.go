package clipper

import (
	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
)

const namespace = "clipper"

func station(agency, code int, name, short string, lat, lon float64) stations.Entry {
	return stations.Entry{
		Agency:    agency,
		Code:      code,
		Name:      name,
		ShortName: short,
		Company:   agencies[agency].name,
		Latitude:  stations.Coord(lat),
		Longitude: stations.Coord(lon),
	}
}

func bart(code int, name, short string, lat, lon float64) stations.Entry {
	return station(agencyBART, code, name, short, lat, lon)
}

// builtin covers BART and the ferry terminals. Bus and light rail stops are
// only available from a station database.
var builtin = stations.NewTable(
	bart(0x01, "Colma Station", "Colma", 37.68468, -122.46626),
	bart(0x02, "Daly City Station", "Daly City", 37.70608, -122.46908),
	bart(0x03, "Balboa Park Station", "Balboa Park", 37.721556, -122.447503),
	bart(0x04, "Glen Park Station", "Glen Park", 37.733118, -122.433808),
	bart(0x05, "24th St. Mission Station", "24th St.", 37.75226, -122.41849),
	bart(0x06, "16th St. Mission Station", "16th St.", 37.765228, -122.419478),
	bart(0x07, "Civic Center Station", "Civic Center", 37.779538, -122.413788),
	bart(0x08, "Powell Street Station", "Powell St.", 37.784970, -122.40701),
	bart(0x09, "Montgomery St. Station", "Montgomery", 37.789336, -122.401486),
	bart(0x0a, "Embarcadero Station", "Embarcadero", 37.793086, -122.396276),
	bart(0x0b, "West Oakland Station", "West Oakland", 37.805296, -122.294938),
	bart(0x0c, "12th Street Oakland City Center", "12th St.", 37.802956, -122.2720367),
	bart(0x0d, "19th Street Oakland Station", "19th St.", 37.80762, -122.26886),
	bart(0x0e, "MacArthur Station", "MacArthur", 37.82928, -122.26661),
	bart(0x0f, "Rockridge Station", "Rockridge", 37.84463, -122.251825),
	bart(0x12, "Walnut Creek Station", "Walnut Creek", 37.90563, -122.06744),
	bart(0x14, "Concord Station", "Concord", 37.97376, -122.02903),
	bart(0x15, "North Concord/Martinez Station", "N. Concord/Martinez", 38.00318, -122.02463),
	bart(0x17, "Ashby Station", "Ashby", 37.85303, -122.269965),
	bart(0x18, "Downtown Berkeley Station", "Berkeley", 37.869868, -122.268051),
	bart(0x19, "North Berkeley Station", "North Berkeley", 37.874026, -122.283882),
	bart(0x1a, "El Cerrito Plaza Station", "El Cerrito Plaza", 37.903959, -122.299271),
	bart(0x1b, "El Cerrito Del Norte Station", "El Cerrito Del Norte", 37.925651, -122.317219),
	bart(0x1c, "Richmond Station", "Richmond", 37.93730, -122.35338),
	bart(0x1d, "Lake Merritt Station", "Lake Merritt", 37.79761, -122.26564),
	bart(0x1e, "Fruitvale Station", "Fruitvale", 37.77495, -122.22425),
	bart(0x1f, "Coliseum Station", "Coliseum", 37.75256, -122.19806),
	bart(0x20, "Coliseum Station", "Coliseum", 37.754270, -122.197757),
	bart(0x22, "Hayward Station", "Hayward", 37.670387, -122.088002),
	bart(0x23, "South Hayward Station", "South Hayward", 37.634800, -122.057551),
	bart(0x24, "Union City Station", "Union City", 37.591203, -122.017854),
	bart(0x25, "Fremont Station", "Fremont", 37.557727, -121.976395),
	bart(0x26, "Daly City Station", "Daly City", 37.7066, -122.4696),
	bart(0x27, "Dublin / Pleasanton Station", "Dublin / Pleasanton", 37.70169, -121.89918),
	bart(0x28, "South San Francisco Station", "South SF", 37.6744, -122.442),
	bart(0x29, "San Bruno Station", "San Bruno", 37.63714, -122.415622),
	bart(0x2a, "San Francisco Int'l Airport Station", "SFO", 37.61590, -122.39263),
	bart(0x2b, "Millbrae Station", "Millbrae", 37.599935, -122.386478),
	bart(0x2c, "West Dublin/Pleasanton Station", "W. Dublin/Pleasanton", 37.699764, -121.928118),
	bart(0x2d, "Oakland Airport Station", "OAK Airport", 37.75256, -122.19806),

	station(agencyGGFerry, 0x01, "San Francisco Ferry Building", "San Francisco", 37.795873, -122.391987),
	station(agencyGGFerry, 0x03, "Larkspur Ferry Terminal", "Larkspur", 37.945509, -122.50916),

	station(agencySFBayFerry, 0x01, "Alameda Main Street Terminal", "Alameda Main St.", 37.790668, -122.294036),
	station(agencySFBayFerry, 0x08, "San Francisco Ferry Building", "Ferry Building", 37.795873, -122.391987),
)
