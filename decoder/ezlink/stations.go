package ezlink

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
)

const namespace = "ezlink"

func mrt(code, name, lines string, lat, lon float64) stations.Entry {
	return stations.Entry{
		Code:      stations.CodeFromString(code),
		Name:      name,
		ShortName: code,
		Lines:     strings.Split(lines, " / "),
		Latitude:  stations.Coord(lat),
		Longitude: stations.Coord(lon),
	}
}

func topup(code, name string) stations.Entry {
	return stations.Entry{Code: stations.CodeFromString(code), Name: name, ShortName: code}
}

// builtin maps three letter station codes, packed with
// stations.CodeFromString, to MRT and LRT stations. Interchanges keep the
// entry of the line listed last.
var builtin = stations.NewTable(
	// Top-up points
	topup("GTM", "GTM Manual Top-up"),
	topup("PSC", "Passenger Service Centre Top-up"),
	// North-East Line (NEL)
	mrt("HBF", "HarbourFront", "NE1 / CC29", 1.265297, 103.82225),
	mrt("HBC", "HarbourFront", "NE1 / CC29", 1.265297, 103.82225),
	mrt("CNT", "Chinatown", "NE4 / DT19", 1.28485, 103.844006),
	mrt("CQY", "Clarke Quay", "NE5", 1.288708, 103.846606),
	mrt("LTI", "Little India", "NE7 / DT12", 1.306725, 103.849175),
	mrt("FRP", "Farrer Park", "NE8", 1.312314, 103.854028),
	mrt("BNK", "Boon Keng", "NE9", 1.319483, 103.861722),
	mrt("PTP", "Potong Pasir", "NE10", 1.331161, 103.869058),
	mrt("WLH", "Woodleigh", "NE11", 1.339181, 103.870744),
	mrt("KVN", "Kovan", "NE13", 1.360214, 103.884864),
	mrt("HGN", "Hougang", "NE14", 1.371292, 103.892161),
	mrt("BGK", "Buangkok", "NE15", 1.382728, 103.892789),
	mrt("SKG", "Sengkang", "NE16 / STC", 1.391653, 103.895133),
	mrt("PGL", "Punggol", "NE17 / PTC", 1.405264, 103.902097),
	mrt("PGC", "Punggol Coast", "NE18", 1.414600, 103.910900),
	// Downtown Line (DTL)
	mrt("BPJ", "Bukit Panjang", "DT1 / BP6", 1.377926, 103.763077),
	mrt("CSW", "Cashew", "DT2", 1.368972, 103.764442),
	mrt("HVW", "Hillview", "DT3", 1.362734, 103.767473),
	mrt("BTW", "Beauty World", "DT5", 1.340935, 103.775691),
	mrt("KAP", "King Albert Park", "DT6", 1.335502, 103.783739),
	mrt("SAV", "Sixth Avenue", "DT7", 1.330670, 103.797372),
	mrt("TKK", "Tan Kah Kee", "DT8", 1.325963, 103.807280),
	mrt("STV", "Stevens", "DT10", 1.320009, 103.825868),
	mrt("RCR", "Rochor", "DT13", 1.304045, 103.852392),
	mrt("DTN", "Downtown", "DT17", 1.279458, 103.852931),
	mrt("TLA", "Telok Ayer", "DT18", 1.282050, 103.848472),
	mrt("FCN", "Fort Canning", "DT20", 1.292402, 103.844313),
	mrt("BCL", "Bencoolen", "DT21", 1.298422, 103.849911),
	mrt("JLB", "Jalan Besar", "DT22", 1.305449, 103.855527),
	mrt("BDM", "Bendemeer", "DT23", 1.313778, 103.863039),
	mrt("GLB", "Geylang Bahru", "DT24", 1.321377, 103.871765),
	mrt("MTR", "Mattar", "DT25", 1.327038, 103.882993),
	mrt("UBI", "Ubi", "DT27", 1.329956, 103.899208),
	mrt("KKB", "Kaki Bukit", "DT28", 1.334955, 103.907810),
	mrt("BDN", "Bedok North", "DT29", 1.334766, 103.918125),
	mrt("BDR", "Bedok Reservoir", "DT30", 1.336631, 103.932036),
	mrt("TPW", "Tampines West", "DT31", 1.346246, 103.938321),
	mrt("TPE", "Tampines East", "DT33", 1.356055, 103.954381),
	mrt("UPC", "Upper Changi", "DT34", 1.341632, 103.961420),
	// Circle Line (CCL)
	// DBN is the Northeast line entrance of Dhoby Ghaut.
	mrt("DBN", "Dhoby Ghaut", "CC1 / NS24 / NE6", 1.299156, 103.845736),
	mrt("BBS", "Bras Basah", "CC2", 1.296931, 103.850631),
	mrt("EPN", "Esplanade", "CC3", 1.293436, 103.855381),
	mrt("PMD", "Promenade", "CC4 / DT15", 1.293131, 103.861064),
	mrt("NCH", "Nicoll Highway", "CC5", 1.299697, 103.863611),
	mrt("SDM", "Stadium", "CC6", 1.302856, 103.875347),
	mrt("MBT", "Mountbatten", "CC7", 1.306306, 103.882531),
	mrt("DKT", "Dakota", "CC8", 1.308289, 103.888253),
	mrt("MPS", "MacPherson", "CC10 / DT26", 1.32665, 103.890019),
	mrt("TAS", "Tai Seng", "CC11", 1.335833, 103.887942),
	mrt("BLY", "Bartley", "CC12", 1.342756, 103.879697),
	mrt("SER", "Serangoon", "CC13 / NE12", 1.349944, 103.873092),
	mrt("SRC", "Serangoon", "CC13 / NE12", 1.349944, 103.873092),
	mrt("LRC", "Lorong Chuan", "CC14", 1.351636, 103.864064),
	// Alternate code (Circle line entrance)
	mrt("BSC", "Bishan", "CC15 / NS17", 1.351236, 103.848456),
	mrt("MRM", "Marymount", "CC16", 1.349078, 103.839492),
	mrt("CDT", "Caldecott", "CC17", 1.337761, 103.839447),
	mrt("BTN", "Botanic Gardens", "CC19 / DT9", 1.322519, 103.815406),
	mrt("FRR", "Farrer Road", "CC20", 1.317319, 103.807431),
	mrt("HLV", "Holland Village", "CC21", 1.312078, 103.796208),
	mrt("ONH", "one-north", "CC23", 1.299331, 103.787067),
	mrt("KRG", "Kent Ridge", "CC24", 1.293383, 103.784394),
	mrt("HPV", "Haw Par Villa", "CC25", 1.282386, 103.781867),
	mrt("PPJ", "Pasir Panjang", "CC26", 1.276167, 103.791358),
	mrt("LBD", "Labrador Park", "CC27", 1.272267, 103.802908),
	mrt("TLB", "Telok Blangah", "CC28", 1.270572, 103.809678),
	// Marina Bay Extension (CCL)
	mrt("BFT", "Bayfront", "CE1 / DT16", 1.282347, 103.859317),
	// Changi Airport Extension (EWL)
	mrt("XPO", "Expo", "CG1 / DT35", 1.335469, 103.961767),
	mrt("CGA", "Changi Airport", "CG2", 1.357372, 103.988836),
	// East-West Line (EWL)
	mrt("PSR", "Pasir Ris", "EW1", 1.372411, 103.949369),
	mrt("TAM", "Tampines", "EW2 / DT32", 1.352528, 103.945322),
	mrt("SIM", "Simei", "EW3", 1.343444, 103.953172),
	mrt("TNM", "Tanah Merah", "EW4", 1.327358, 103.946344),
	mrt("BDK", "Bedok", "EW5", 1.324039, 103.930036),
	mrt("KEM", "Kembangan", "EW6", 1.320983, 103.912842),
	mrt("EUN", "Eunos", "EW7", 1.319725, 103.903108),
	mrt("PYL", "Paya Lebar", "EW8 / CC9", 1.317767, 103.892381),
	mrt("ALJ", "Aljunied", "EW9", 1.316442, 103.882981),
	mrt("KAL", "Kallang", "EW10", 1.311469, 103.8714),
	mrt("LVR", "Lavender", "EW11", 1.307167, 103.863008),
	mrt("BGS", "Bugis", "EW12 / DT14", 1.300194, 103.85615),
	// Alternate code (Downtown line entrance)
	mrt("BGD", "Bugis", "EW12 / DT14", 1.300194, 103.85615),
	mrt("TPG", "Tanjong Pagar", "EW15", 1.276439, 103.845711),
	mrt("OTP", "Outram Park", "EW16 / NE3", 1.280225, 103.839486),
	// Alternate code (Northeast line entrance)
	mrt("OTN", "Outram Park", "EW16 / NE3", 1.280225, 103.839486),
	mrt("TIB", "Tiong Bahru", "EW17", 1.286081, 103.826958),
	mrt("RDH", "Redhill", "EW18", 1.289733, 103.81675),
	mrt("QUE", "Queenstown", "EW19", 1.294442, 103.806114),
	mrt("COM", "Commonwealth", "EW20", 1.302558, 103.798225),
	mrt("BNV", "Buona Vista", "EW21 / CC22", 1.306817, 103.790428),
	mrt("DVR", "Dover", "EW22", 1.311314, 103.778658),
	mrt("CLE", "Clementi", "EW23", 1.315303, 103.765244),
	mrt("CNG", "Chinese Garden", "EW25", 1.342711, 103.732467),
	mrt("LKS", "Lakeside", "EW26", 1.344589, 103.721139),
	mrt("BNL", "Boon Lay", "EW27", 1.338883, 103.706208),
	mrt("PNR", "Pioneer", "EW28", 1.337578, 103.697217),
	mrt("JKN", "Joo Koon", "EW29", 1.327739, 103.678486),
	// Tuas West Extension (EWL)
	mrt("GCL", "Gul Circle", "EW30", 1.319867, 103.661069),
	mrt("TCR", "Tuas Crescent", "EW31", 1.320812, 103.648374),
	mrt("TWR", "Tuas West Road", "EW32", 1.329568, 103.640132),
	mrt("TLK", "Tuas Link", "EW33", 1.340231, 103.636669),
	// North-South Line (NSL)
	mrt("JUR", "Jurong East", "NS1 / EW24", 1.333415, 103.742119),
	mrt("BBT", "Bukit Batok", "NS2", 1.349073, 103.749664),
	mrt("BGB", "Bukit Gombak", "NS3", 1.358702, 103.751787),
	mrt("CCK", "Choa Chu Kang", "NS4 / BP1", 1.385092, 103.744322),
	mrt("YWT", "Yew Tee", "NS5", 1.396986, 103.747239),
	mrt("KRJ", "Kranji", "NS7", 1.425047, 103.761853),
	mrt("MSL", "Marsiling", "NS8", 1.432636, 103.774283),
	mrt("WDL", "Woodlands", "NS9", 1.437094, 103.786483),
	mrt("ADM", "Admiralty", "NS10", 1.440689, 103.800933),
	mrt("SBW", "Sembawang", "NS11", 1.449025, 103.820153),
	mrt("YIS", "Yishun", "NS13", 1.429464, 103.835239),
	mrt("KTB", "Khatib", "NS14", 1.417167, 103.8329),
	mrt("YCK", "Yio Chu Kang", "NS15", 1.381906, 103.844817),
	mrt("AMK", "Ang Mo Kio", "NS16", 1.370017, 103.84945),
	mrt("BSH", "Bishan", "NS17 / CC15", 1.351236, 103.848456),
	mrt("BDL", "Braddell", "NS18", 1.340339, 103.846725),
	mrt("TAP", "Toa Payoh", "NS19", 1.332703, 103.847808),
	mrt("NOV", "Novena", "NS20", 1.320394, 103.843689),
	mrt("NEW", "Newton", "NS21 / DT11", 1.312956, 103.838442),
	// Alternate code (Downtown line entrance)
	mrt("NTD", "Newton", "NS21 / DT11", 1.312956, 103.838442),
	mrt("ORC", "Orchard", "NS22", 1.304314, 103.831939),
	mrt("SOM", "Somerset", "NS23", 1.300514, 103.839028),
	mrt("DBG", "Dhoby Ghaut", "NS24 / NE6 / CC1", 1.299156, 103.845736),
	mrt("CTH", "City Hall", "NS25 / EW13", 1.293239, 103.852219),
	mrt("RFP", "Raffles Place", "NS26 / EW14", 1.283881, 103.851533),
	mrt("MRB", "Marina Bay", "NS27 / CE2", 1.276097, 103.854675),
	mrt("MSP", "Marina South Pier", "NS28", 1.270958, 103.863242),
	// Sengkang LRT (East Loop)
	mrt("SE1", "Compassvale", "SE1", 1.39455, 103.900183),
	mrt("SE2", "Rumbia", "SE2", 1.391094, 103.906306),
	mrt("SE3", "Bakau", "SE3", 1.387853, 103.905267),
	mrt("SE4", "Kangkar", "SE4", 1.383739, 103.902194),
	mrt("SE5", "Ranggung", "SE5", 1.383619, 103.897736),
	// Sengkang LRT (West Loop)
	mrt("SW1", "Cheng Lim", "SW1", 1.39634, 103.893757),
	mrt("SW2", "Farmway", "SW2", 1.397272, 103.888953),
	mrt("SW3", "Kupang", "SW3", 1.398538, 103.881365),
	mrt("SW4", "Thanggam", "SW4", 1.397371, 103.87542),
	mrt("SW5", "Fernvale", "SW5", 1.391935, 103.876142),
	mrt("SW6", "Layar", "SW6", 1.392180, 103.879895),
	mrt("SW7", "Tongkang", "SW7", 1.389286, 103.886145),
	mrt("SW8", "Renjong", "SW8", 1.386614, 103.890425),
	// Punggol LRT (East Loop)
	mrt("PE1", "Cove", "PE1", 1.399316, 103.906342),
	mrt("PE2", "Meridian", "PE2", 1.396931, 103.909312),
	mrt("PE3", "Coral Edge", "PE3", 1.393455, 103.912179),
	mrt("PE4", "Riviera", "PE4", 1.39463, 103.916509),
	mrt("PE5", "Kadaloor", "PE5", 1.399332, 103.916502),
	mrt("PE6", "Oasis", "PE6", 1.401622, 103.91369),
	mrt("PE7", "Damai", "PE7", 1.405292, 103.907818),
	// Punggol LRT (West Loop)
	mrt("PW1", "Sam Kee", "PW1", 1.411111, 103.904928),
	mrt("PW2", "Teck Lee", "PW2", 1.41280, 103.906233),
	mrt("PW3", "Punggol Point", "PW3", 1.418104, 103.906559),
	mrt("PW4", "Samudera", "PW4", 1.417075, 103.90231),
	mrt("PW5", "Nibong", "PW5", 1.413042, 103.900293),
	mrt("PW6", "Sumang", "PW6", 1.409524, 103.898490),
	mrt("PW7", "Soo Teck", "PW7", 1.405700, 103.897246),
	// Bukit Panjang LRT
	mrt("BP2", "South View", "BP2", 1.380293, 103.745294),
	mrt("BP3", "Keat Hong", "BP3", 1.378601, 103.749057),
	mrt("BP4", "Teck Whye", "BP4", 1.376641, 103.753695),
	mrt("BP5", "Phoenix", "BP5", 1.378618, 103.758033),
	mrt("BP7", "Petir", "BP7", 1.377753, 103.766665),
	mrt("BP8", "Pending", "BP8", 1.376068, 103.770917),
	mrt("BP9", "Bangkit", "BP9", 1.380013, 103.772658),
	mrt("BP10", "Fajar", "BP10", 1.384524, 103.770824),
	mrt("BP11", "Segar", "BP11", 1.387772, 103.769598),
	mrt("BP12", "Jelapang", "BP12", 1.386691, 103.764494),
	mrt("BP13", "Senja", "BP13", 1.382700898, 103.762363),
	mrt("BP14", "Ten Mile Junction", "BP14", 1.380349, 103.760129),
)

// sbsRoutes are the bus services run by SBS Transit. Other routes are SMRT.
var sbsRoutes = mapset.NewSet(
	"CT18", "CT8", "1N", "2", "2N", "3", "3N", "4N", "5", "5N",
	"6", "6N", "7", "8", "9", "10", "10e", "11", "12", "13",
	"14", "14e", "15", "16", "17", "18", "19", "21", "22", "23",
	"24", "25", "26", "27", "28", "29", "30", "30e", "31", "32",
	"33", "34", "35", "36", "37", "38", "39", "40", "42", "43",
	"45", "48", "51", "52", "53", "54", "55", "56", "57", "58",
	"59", "60", "62", "63", "64", "65", "66", "69", "70", "70M",
	"72", "73", "74", "74e", "76", "78", "79", "80", "81", "82",
	"83", "85", "86", "87", "88", "89", "89e", "90", "91", "92",
	"93", "94", "95", "96", "97", "97e", "98", "98M", "99", "100",
	"101", "103", "105", "107", "107M", "109", "111", "112", "113", "115",
	"119", "123", "123M", "124", "125", "128", "130", "131", "132", "133",
	"133M", "135", "136", "138", "139", "142", "143", "145", "147", "151",
	"151e", "153", "154", "155", "156", "157", "158", "159", "160", "161",
	"162", "162M", "163", "163M", "165", "166", "168", "170", "170X", "174",
	"174e", "175", "179", "179A", "181", "182", "182M", "183", "185", "186",
	"191", "192", "193", "194", "195", "196", "196e", "197", "198", "199",
	"200", "222", "225", "228", "229", "231", "232", "235", "238", "240",
	"241", "242", "243", "246", "249", "251", "252", "254", "255", "257",
	"261", "262", "265", "268", "269", "272", "273", "275", "282", "284",
	"284M", "285", "291", "292", "293", "298", "315", "317", "324", "325",
	"329", "333", "334", "335", "354", "358", "359", "371", "372", "374",
	"400", "401", "402", "403", "405", "408", "409", "410", "502", "502A",
	"506", "518", "518A", "532", "533", "534", "535", "536", "538", "542",
	"543", "544", "545", "548", "550", "552", "553", "554", "555", "556",
	"558", "561", "563", "564", "565", "569", "585", "800", "803", "804",
	"805", "806", "807", "811", "812", "851", "852", "860", "531", "539",
	"549", "557", "559", "560", "566", "588", "590", "735", "750", "761",
	"763", "765",
)
