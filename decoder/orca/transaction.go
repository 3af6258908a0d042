package orca

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/bitfield"
	"github.com/theoremus-urban-solutions/farecard-decoder/stations"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

// Transaction is one decoded ORCA use-log or top-up record.
type Transaction struct {
	Timestamp  int64
	Agency     int
	FtpType    int
	Coach      int
	Fare       int64
	NewBalance int64
	Type       int
	Topup      bool
}

// ParseTransaction decodes a 48 byte record. All-zero records are blank
// slots and fail with transit.ErrMalformedRecord.
func ParseTransaction(data []byte, topup bool) (Transaction, error) {
	if bitfield.IsZero(data) {
		return Transaction{}, transit.Malformed("orca", -1, "blank slot")
	}
	v, err := recordLayout.Decode(data)
	if err != nil {
		return Transaction{}, err
	}
	t := Transaction{
		Timestamp:  v.Get("timestamp"),
		Agency:     v.Int("agency"),
		FtpType:    v.Int("ftp"),
		Coach:      v.Int("coach"),
		Fare:       v.Get("fare"),
		NewBalance: v.Get("balance"),
		Type:       v.Int("type"),
		Topup:      topup,
	}
	if fareSentinels[data[fareSentinelByte]] {
		t.Fare = 0
	}
	if t.Type == transPassUse && len(data) > passUseFlagByte && data[passUseFlagByte] == passUseTapOut {
		t.Type = transTapOut
	}
	return t, nil
}

// Time returns the transaction time, zero when the card stored none.
func (t Transaction) Time() time.Time {
	if t.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(t.Timestamp, 0).UTC()
}

func (t Transaction) isTapIn() bool  { return !t.Topup && t.Type == transTapIn }
func (t Transaction) isTapOut() bool { return !t.Topup && t.Type == transTapOut }
func (t Transaction) isCancel() bool { return !t.Topup && t.Type == transCancelTrip }

func (t Transaction) isLink() bool      { return t.Agency == agencyST && t.FtpType == ftpLink }
func (t Transaction) isSounder() bool   { return t.Agency == agencyST && t.FtpType == ftpSounder }
func (t Transaction) isStreetcar() bool { return t.FtpType == ftpStreetcar }
func (t Transaction) isRapidRide() bool { return t.Agency == agencyKCM && t.FtpType == ftpBRT }
func (t Transaction) isSwift() bool     { return t.Agency == agencyCT && t.FtpType == ftpBRT }

func (t Transaction) isMonorail() bool {
	return t.Agency == agencyKCM && t.FtpType == ftpPurseDebit && t.Coach == coachMonorail
}

func (t Transaction) isWaterTaxi() bool {
	return t.Agency == agencyKCM && t.FtpType == ftpPurseDebit && t.Coach != coachMonorail
}

// SignedFare applies the sign convention: top-ups and tap-outs are credits.
func (t Transaction) SignedFare() int64 {
	if t.Topup || t.Type == transTapOut {
		return -t.Fare
	}
	return t.Fare
}

// Mode classifies the transaction by agency and FTP type.
func (t Transaction) Mode() transit.Mode {
	switch {
	case t.Topup:
		return transit.ModeTicketMachine
	case t.isMonorail():
		return transit.ModeMonorail
	case t.isWaterTaxi():
		return transit.ModeFerry
	}
	switch t.FtpType {
	case ftpLink:
		return transit.ModeMetro
	case ftpSounder:
		return transit.ModeTrain
	case ftpFerry:
		return transit.ModeFerry
	case ftpStreetcar:
		return transit.ModeTram
	}
	return transit.ModeBus
}

// AgencyNames returns the long and short operator names.
func (t Transaction) AgencyNames() (string, string) {
	switch {
	case t.Topup:
		return "", ""
	case t.isMonorail():
		return monorailAgency.name, monorailAgency.short
	case t.isWaterTaxi():
		return waterTaxiAgency.name, waterTaxiAgency.short
	}
	if a, ok := agencies[t.Agency]; ok {
		return a.name, a.short
	}
	return fmt.Sprintf("Unknown Agency: %d", t.Agency), "Unknown"
}

// Route returns the route label, empty when the card does not say.
func (t Transaction) Route() string {
	switch {
	case t.Topup:
		return "Top-up"
	case t.isLink():
		return "Link Light Rail"
	case t.isSounder():
		return "Sounder Train"
	case t.isStreetcar():
		return "Streetcar"
	case t.Agency == agencyST:
		return "Express Bus"
	case t.isMonorail():
		return "Seattle Monorail"
	case t.isWaterTaxi():
		return "Water Taxi"
	case t.isSwift():
		return "Bus Rapid Transit"
	case t.Agency == agencyKCM && t.FtpType == ftpBus:
		return "Bus"
	case t.Agency == agencyKCM && t.FtpType == ftpBRT:
		return "Bus Rapid Transit"
	}
	return ""
}

// Vehicle returns the coach number for vehicles that report one.
func (t Transaction) Vehicle() string {
	if t.Topup {
		return ""
	}
	if t.isLink() || t.isSounder() || t.Agency == agencyWSF || t.isStreetcar() ||
		t.isSwift() || t.isRapidRide() || t.isMonorail() {
		return ""
	}
	return strconv.Itoa(t.Coach)
}

// Station resolves the boarding location. It returns nil for buses, whose
// coach number identifies a vehicle rather than a stop.
func (t Transaction) Station(ctx context.Context, provider stations.Provider) (*transit.Station, error) {
	if t.Topup {
		return nil, nil
	}
	var r stations.Resolver
	agency, code := t.Agency, t.Coach&0xffff
	switch {
	case t.isStreetcar():
		r, agency, code = provider.For(namespaceStreetcar), 0, t.Coach
	case t.isRapidRide() || t.isSwift():
		r, agency, code = provider.For(namespaceBRT), 0, t.Coach
	default:
		r = provider.For(namespace)
	}
	if r != nil {
		s, err := r.ResolveStation(ctx, agency, code)
		if err == nil {
			return &s, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}

	if !t.isLink() && !t.isSounder() && t.Agency != agencyWSF {
		return nil, nil
	}
	builtinCode := t.Coach
	if t.isLink() {
		builtinCode = t.Coach % 1000
	}
	s, err := stations.Lookup(ctx, builtin, t.Agency, builtinCode, strconv.Itoa(t.Coach))
	if err != nil {
		return nil, err
	}
	return &s, nil
}
