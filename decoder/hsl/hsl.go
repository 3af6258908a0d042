// Package hsl decodes HSL travel cards (Helsinki Region Transport).
//
// The card keeps a short use log plus two ticket files: the last value
// ticket (arvo) and the season pass (kausi). Only the ticket files know
// the line and vehicle, so they are merged into the newest matching log
// entry, or added as an entry of their own when the log has none.
package hsl

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/farecard-decoder/card"
	"github.com/theoremus-urban-solutions/farecard-decoder/internal/logging"
	"github.com/theoremus-urban-solutions/farecard-decoder/transit"
)

const (
	Family   = "hsl"
	CardName = "HSL"
	Currency = "EUR"
)

// Decoder decodes HSL DESFire dumps. It needs no station data.
type Decoder struct{}

func New() *Decoder { return &Decoder{} }

func (d *Decoder) Name() string { return Family }

func (d *Decoder) Check(dump *card.Dump) bool {
	_, ok := appID(dump)
	return ok
}

func (d *Decoder) Identify(dump *card.Dump) (transit.Identity, error) {
	app, ok := appID(dump)
	if !ok {
		return transit.Identity{}, card.Errorf(appIDv1, fileAppInfo, "no HSL application")
	}
	serial, err := readSerial(dump, app)
	if err != nil {
		return transit.Identity{}, err
	}
	return transit.Identity{Family: Family, Name: CardName, Serial: serial}, nil
}

func (d *Decoder) Decode(ctx context.Context, dump *card.Dump) (*transit.Ledger, error) {
	app, ok := appID(dump)
	if !ok {
		return nil, card.Errorf(appIDv1, fileAppInfo, "no HSL application")
	}
	b := transit.NewBuilder(ctx, Family, CardName, Currency).SetScannedAt(dump.ScannedAt)
	b.Serial(func() (string, error) { return readSerial(dump, app) })

	var refill *transit.Refill
	b.Balance(func() (int64, error) {
		balance, last, err := readBalance(dump, app)
		refill = last
		return balance, err
	})
	b.Refills(func() ([]transit.Refill, error) {
		if refill == nil {
			return nil, nil
		}
		return []transit.Refill{*refill}, nil
	})
	b.Trips(func() ([]transit.Trip, error) { return readTrips(ctx, dump, app) })
	b.Subscriptions(func() ([]transit.Subscription, error) {
		pass, ok, err := readSeasonPass(ctx, dump, app)
		if err != nil || !ok {
			return nil, err
		}
		return pass.Subscriptions(), nil
	})
	b.Info(func() ([]transit.InfoItem, error) { return readInfo(ctx, dump, app) })
	return b.Build(), nil
}

func appID(dump *card.Dump) (uint32, bool) {
	if dump.Kind != card.KindDESFire {
		return 0, false
	}
	for _, id := range []uint32{appIDv1, appIDv2} {
		if dump.HasApp(id) {
			return id, true
		}
	}
	return 0, false
}

// readSerial returns the 18 digit card number following the version byte.
func readSerial(dump *card.Dump, app uint32) (string, error) {
	data, err := dump.ReadFile(app, fileAppInfo)
	if err != nil {
		return "", err
	}
	if len(data) < 10 {
		return "", card.Errorf(app, fileAppInfo, "application info is %d bytes", len(data))
	}
	return formatSerial(strings.ToUpper(hex.EncodeToString(data[:10])[2:20])), nil
}

func formatSerial(s string) string {
	if len(s) < 18 {
		return s
	}
	return s[:6] + " " + s[6:10] + " " + s[10:14] + " " + s[14:18]
}

// readBalance returns the purse value and the last refill, nil when the
// card was never loaded.
func readBalance(dump *card.Dump, app uint32) (int64, *transit.Refill, error) {
	data, err := dump.ReadFile(app, fileBalance)
	if err != nil {
		return 0, nil, err
	}
	v, err := balanceLayout.Decode(data)
	if err != nil {
		return 0, nil, card.Wrap(app, fileBalance, "balance", err)
	}
	var refill *transit.Refill
	if day := v.Get("refill_day"); day > 0 {
		refill = &transit.Refill{
			Time:        cardTime(day, v.Get("refill_minute")),
			Amount:      v.Get("refill_amount"),
			Agency:      CardName,
			ShortAgency: CardName,
		}
	}
	return v.Get("balance"), refill, nil
}

func readUses(dump *card.Dump, app uint32) ([]Use, error) {
	records, err := dump.ReadRecords(app, fileHistory, historyRecordSize)
	if err != nil {
		return nil, err
	}
	var uses []Use
	for i, rec := range records {
		u, err := ParseUse(i, rec)
		if errors.Is(err, transit.ErrMalformedRecord) {
			continue
		}
		if err != nil {
			return nil, card.Wrap(app, fileHistory, "record "+strconv.Itoa(i), err)
		}
		uses = append(uses, u)
	}
	slices.SortStableFunc(uses, func(a, b Use) int { return b.Time.Compare(a.Time) })
	return uses, nil
}

func readValueTicket(ctx context.Context, dump *card.Dump, app uint32) (ValueTicket, bool, error) {
	data, err := dump.ReadFile(app, fileValueTicket)
	if errors.Is(err, card.ErrNotPresent) {
		logging.FromContext(ctx).Debug().Err(err).Msg("hsl: no value ticket file")
		return ValueTicket{}, false, nil
	}
	if err != nil {
		return ValueTicket{}, false, err
	}
	t, err := ParseValueTicket(data)
	if err != nil {
		return ValueTicket{}, false, card.Wrap(app, fileValueTicket, "value ticket", err)
	}
	return t, true, nil
}

func readSeasonPass(ctx context.Context, dump *card.Dump, app uint32) (SeasonPass, bool, error) {
	data, err := dump.ReadFile(app, fileSeasonPass)
	if errors.Is(err, card.ErrNotPresent) {
		logging.FromContext(ctx).Debug().Err(err).Msg("hsl: no season pass file")
		return SeasonPass{}, false, nil
	}
	if err != nil {
		return SeasonPass{}, false, err
	}
	p, err := ParseSeasonPass(data)
	if err != nil {
		return SeasonPass{}, false, card.Wrap(app, fileSeasonPass, "season pass", err)
	}
	return p, true, nil
}

// mergeUses attaches the line and vehicle of the ticket files to the newest
// log entry paid with that ticket type. uses is sorted newest first.
func mergeUses(uses []Use, arvo *ValueTicket, kausi *SeasonPass) []Use {
	if arvo != nil {
		if i := slices.IndexFunc(uses, func(u Use) bool { return u.ValueTicket }); i >= 0 {
			uses[i].Line, uses[i].Vehicle = arvo.Line, arvo.Vehicle
		} else if arvo.Bought() {
			uses = append(uses, arvo.Use())
		}
	}
	if kausi != nil {
		if i := slices.IndexFunc(uses, func(u Use) bool { return !u.ValueTicket && !u.synthetic }); i >= 0 {
			uses[i].Line, uses[i].Vehicle = kausi.Line, kausi.Vehicle
		} else if kausi.Vehicle > 0 {
			uses = append(uses, kausi.Use())
		}
	}
	return uses
}

func readTrips(ctx context.Context, dump *card.Dump, app uint32) ([]transit.Trip, error) {
	uses, err := readUses(dump, app)
	if err != nil {
		return nil, err
	}
	var arvo *ValueTicket
	if t, ok, err := readValueTicket(ctx, dump, app); err != nil {
		return nil, err
	} else if ok {
		arvo = &t
	}
	var kausi *SeasonPass
	if p, ok, err := readSeasonPass(ctx, dump, app); err != nil {
		return nil, err
	} else if ok && !p.Empty() {
		kausi = &p
	}

	uses = mergeUses(uses, arvo, kausi)
	trips := make([]transit.Trip, 0, len(uses))
	for _, u := range uses {
		trip := transit.Trip{
			Start:       u.Time,
			Fare:        transit.Amount(u.Fare),
			Mode:        u.Mode(),
			Agency:      u.Agency(),
			ShortAgency: u.Agency(),
			Route:       u.Route(),
			Passengers:  u.Passengers,
		}
		if u.Vehicle > 0 {
			trip.Vehicle = strconv.Itoa(u.Vehicle)
		}
		if !u.synthetic {
			trip = trip.WithBalance(u.Balance)
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

func readInfo(ctx context.Context, dump *card.Dump, app uint32) ([]transit.InfoItem, error) {
	data, err := dump.ReadFile(app, fileAppInfo)
	if err != nil {
		return nil, err
	}
	v, err := appInfoLayout.Decode(data)
	if err != nil {
		return nil, card.Wrap(app, fileAppInfo, "application info", err)
	}
	items := []transit.InfoItem{
		{Label: "Card information", Header: true},
		{Label: "Application version", Value: strconv.Itoa(v.Int("version"))},
		{Label: "Application key version", Value: strconv.Itoa(v.Int("key_version"))},
		{Label: "Platform type", Value: strconv.Itoa(v.Int("platform"))},
		{Label: "Security level", Value: strconv.Itoa(v.Int("security"))},
	}

	pass, ok, err := readSeasonPass(ctx, dump, app)
	if err != nil {
		return nil, err
	}
	if ok && !pass.Empty() {
		at := dump.ScannedAt
		if at.IsZero() {
			at = time.Now()
		}
		items = append(items,
			transit.InfoItem{Label: "Season pass", Header: true},
			transit.InfoItem{Label: "Valid", Value: yesNo(pass.Valid(at))},
			transit.InfoItem{Label: "Starts", Value: localDate(pass.Start)},
			transit.InfoItem{Label: "Ends", Value: localDate(pass.End)},
			transit.InfoItem{Label: "Bought on", Value: localDateTime(pass.Purchased)},
			transit.InfoItem{Label: "Price", Value: transit.FormatAmount(pass.Price, Currency)},
			transit.InfoItem{Label: "Last used", Value: localDateTime(pass.LastUse)},
			transit.InfoItem{Label: "Vehicle number", Value: strconv.Itoa(pass.Vehicle)},
			transit.InfoItem{Label: "Line", Value: lineName(pass.Line)},
			transit.InfoItem{Label: "JORE extension", Value: strconv.Itoa(pass.JOREExt)},
			transit.InfoItem{Label: "Direction", Value: strconv.Itoa(pass.Direction)},
			transit.InfoItem{Label: "Previous season pass", Value: localDate(pass.PrevStart) + " - " + localDate(pass.PrevEnd)},
		)
	}

	arvo, ok, err := readValueTicket(ctx, dump, app)
	if err != nil {
		return nil, err
	}
	if ok && arvo.Bought() {
		items = append(items,
			transit.InfoItem{Label: "Value ticket", Header: true},
			transit.InfoItem{Label: "Bought on", Value: localDateTime(arvo.Purchased)},
			transit.InfoItem{Label: "Expires on", Value: localDateTime(arvo.Expires)},
			transit.InfoItem{Label: "Last transfer", Value: localDateTime(arvo.Transfer)},
			transit.InfoItem{Label: "Last sign", Value: localDateTime(arvo.Exit)},
			transit.InfoItem{Label: "Price", Value: transit.FormatAmount(arvo.Price, Currency)},
			transit.InfoItem{Label: "Discount group", Value: strconv.Itoa(arvo.DiscountGroup)},
			transit.InfoItem{Label: "Passengers", Value: strconv.Itoa(arvo.Passengers)},
			transit.InfoItem{Label: "Duration", Value: fmt.Sprintf("%d min", arvo.Duration)},
			transit.InfoItem{Label: "Vehicle number", Value: strconv.Itoa(arvo.Vehicle)},
			transit.InfoItem{Label: "Region", Value: arvo.RegionName()},
			transit.InfoItem{Label: "Line", Value: lineName(arvo.Line)},
			transit.InfoItem{Label: "JORE extension", Value: strconv.Itoa(arvo.JOREExt)},
			transit.InfoItem{Label: "Direction", Value: strconv.Itoa(arvo.Direction)},
		)
	}
	return items, nil
}

func localDate(t time.Time) string     { return t.In(helsinki).Format(time.DateOnly) }
func localDateTime(t time.Time) string { return t.In(helsinki).Format("2006-01-02 15:04") }

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
