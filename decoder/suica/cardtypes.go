package suica

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultCardName is used when the service codes do not identify a single
// issuer.
const DefaultCardName = "Japan IC"

// Service codes seen on each issuer's cards. Many are shared, so only the
// codes unique to one issuer identify it.
var issuerServices = []struct {
	name     string
	services mapset.Set[int]
}{
	{"Hayakaken", mapset.NewSet(0x1f88, 0x1f8a, 0x2048, 0x204a, 0x2448, 0x244a, 0x2488, 0x248a, 0x24c8, 0x24ca, 0x2508, 0x250a, 0x2548, 0x254a)},
	{"ICOCA", mapset.NewSet(0x1a48, 0x1a4a, 0x1a88, 0x1a8a, 0x9608, 0x960a)},
	{"Kitaca", mapset.NewSet(0x1848, 0x184b, 0x2088, 0x208b, 0x20c8, 0x20cb, 0x2108, 0x210b, 0x2148, 0x214b, 0x2188, 0x218b)},
	{"manaca", mapset.NewSet(0x9888, 0x988b, 0x98cc, 0x98cf, 0x9908, 0x990a, 0x9948, 0x994a, 0x9988, 0x998b)},
	{"nimoca", mapset.NewSet(0x1f48, 0x1f4a, 0x1f88, 0x1f8a, 0x1fc8, 0x1fca, 0x2008, 0x200a, 0x2048, 0x204a)},
	{"PASMO", mapset.NewSet(0x1848, 0x184b, 0x1908, 0x190a, 0x1948, 0x194b, 0x1988, 0x198b, 0x1cc8, 0x1cca, 0x1d08, 0x1d0a, 0x2308, 0x230a, 0x2348, 0x234b, 0x2388, 0x238b, 0x23c8, 0x23cb)},
	{"PiTaPa", mapset.NewSet(0x1b88, 0x1b8a, 0x9748, 0x974a)},
	{"SUGOCA", mapset.NewSet(0x1f88, 0x1f8a, 0x2048, 0x204b, 0x21c8, 0x21cb, 0x2208, 0x220a, 0x2248, 0x224a, 0x2288, 0x228a)},
	{"Suica", mapset.NewSet(0x1808, 0x180a, 0x1848, 0x184b, 0x18c8, 0x18ca, 0x1908, 0x190a, 0x1948, 0x194b, 0x1988, 0x198b, 0x2308, 0x230a, 0x2348, 0x234b, 0x2388, 0x238b, 0x23c8, 0x23cb)},
	{"TOICA", mapset.NewSet(0x1848, 0x184b, 0x1e08, 0x1e0a, 0x1e48, 0x1e4a, 0x1e88, 0x1e8a, 0x1e8b, 0x1ecc, 0x1ecf)},
}

type issuer struct {
	name   string
	unique mapset.Set[int]
}

var issuers = uniqueServices()

func uniqueServices() []issuer {
	out := make([]issuer, len(issuerServices))
	for i, is := range issuerServices {
		unique := is.services.Clone()
		for j, other := range issuerServices {
			if i != j {
				unique = unique.Difference(other.services)
			}
		}
		if unique.Cardinality() == 0 {
			panic("suica: issuer " + is.name + " has no unique service code")
		}
		out[i] = issuer{name: is.name, unique: unique}
	}
	return out
}

// CardName identifies the issuer from the service codes a card advertises.
// It returns DefaultCardName when no issuer or more than one matches.
func CardName(serviceCodes []int) string {
	codes := mapset.NewSet(serviceCodes...)
	match := ""
	for _, is := range issuers {
		if is.unique.Intersect(codes).Cardinality() == 0 {
			continue
		}
		if match != "" {
			return DefaultCardName
		}
		match = is.name
	}
	if match == "" {
		return DefaultCardName
	}
	return match
}
