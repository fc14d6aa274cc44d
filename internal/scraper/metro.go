package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/domain/market"
)

// MetroDirectory reads the target site's internal market endpoints through an
// already authenticated page.
type MetroDirectory struct {
	baseURL string
	settle  time.Duration
	sleep   Sleeper
	logger  *log.Logger
}

func NewMetroDirectory(baseURL string, settle time.Duration, logger *log.Logger) *MetroDirectory {
	if logger == nil {
		logger = log.Default()
	}
	return &MetroDirectory{baseURL: baseURL, settle: settle, sleep: SleepContext, logger: logger}
}

func fetchJSONExpr(path string) string {
	p, _ := json.Marshal(path)
	return `fetch(` + string(p) + `, {credentials: 'include', headers: {'Accept': 'application/json'}})
		.then(r => {
			if (!r.ok) { throw new Error('HTTP ' + r.status); }
			return r.json();
		})`
}

func (d *MetroDirectory) fetch(ctx context.Context, page browser.Page, path string) ([]byte, error) {
	var raw []byte
	if err := page.Evaluate(ctx, fetchJSONExpr(path), &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectory, path, err)
	}
	return raw, nil
}

func (d *MetroDirectory) ListMetroAreas(ctx context.Context, page browser.Page) ([]market.MetroArea, error) {
	if err := page.Goto(ctx, dashboardURL(d.baseURL, "")); err != nil {
		return nil, err
	}
	if err := d.sleep(ctx, d.settle); err != nil {
		return nil, err
	}

	raw, err := d.fetch(ctx, page, MetroListPath)
	if err != nil {
		return nil, err
	}
	areas, err := ParseMetroAreas(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode metro list: %v", ErrDirectory, err)
	}
	d.logger.Printf("metro_directory op=list status=ok count=%d", len(areas))
	return areas, nil
}

func (d *MetroDirectory) GetMetroAreaDetail(ctx context.Context, page browser.Page, metroID string) (market.MetroAreaDetail, error) {
	raw, err := d.fetch(ctx, page, metroDetailPath(metroID))
	if err != nil {
		return market.MetroAreaDetail{}, err
	}
	detail, err := ParseMetroAreaDetail(raw)
	if err != nil {
		return market.MetroAreaDetail{}, fmt.Errorf("%w: decode metro detail: %v", ErrDirectory, err)
	}
	if detail.ID == "" {
		detail.ID = metroID
	}
	d.logger.Printf("metro_directory op=detail metro=%s status=ok zips=%d", metroID, len(detail.ZipCodes))
	return detail, nil
}

type rawStats struct {
	ActiveProperties      *float64 `json:"activeProperties"`
	ActiveUnits           *float64 `json:"activeUnits"`
	UpcomingUnits         *float64 `json:"upcomingUnits"`
	SupportedZipcodeCount *float64 `json:"supportedZipcodeCount"`
	AverageOccupancy      *float64 `json:"averageOccupancy"`
	SharedBathroomPrice   *float64 `json:"sharedBathroomPrice"`
	PrivateBathroomPrice  *float64 `json:"privateBathroomPrice"`
	DaysToFirstBooking    *float64 `json:"daysToFirstBooking"`
	DaysTo80Booking       *float64 `json:"daysTo80Booking"`
}

type rawMetro struct {
	ID                    json.RawMessage `json:"id"`
	Name                  *string         `json:"name"`
	Slug                  *string         `json:"slug"`
	MarketType            *string         `json:"marketType"`
	ActiveProperties      *float64        `json:"activeProperties"`
	SupportedZipcodeCount *float64        `json:"supportedZipcodeCount"`
	Stats                 *rawStats       `json:"stats"`
	ZipCodes              []rawZip        `json:"zipCodes"`
}

type rawZip struct {
	ZipCode          json.RawMessage `json:"zipCode"`
	Zipcode          json.RawMessage `json:"zipcode"`
	ActiveProperties *float64        `json:"activeProperties"`
	ActiveUnits      *float64        `json:"activeUnits"`
	Supported        *bool           `json:"supported"`
}

// ParseMetroAreas accepts either a bare array or an object wrapping it under
// "metroAreas", "data" or "results". The result is sorted by name.
func ParseMetroAreas(raw []byte) ([]market.MetroArea, error) {
	items, err := unwrapList(raw)
	if err != nil {
		return nil, err
	}

	out := make([]market.MetroArea, 0, len(items))
	for _, it := range items {
		m := market.MetroArea{
			ID:         idString(it.ID),
			Name:       strOr(it.Name, "Unknown"),
			Slug:       strOr(it.Slug, ""),
			MarketType: strOr(it.MarketType, ""),
		}
		m.ActiveProperties = roundOr(it.ActiveProperties, 0)
		m.SupportedZipcodeCount = roundOr(it.SupportedZipcodeCount, 0)
		if it.Stats != nil {
			if it.ActiveProperties == nil {
				m.ActiveProperties = roundOr(it.Stats.ActiveProperties, 0)
			}
			if it.SupportedZipcodeCount == nil {
				m.SupportedZipcodeCount = roundOr(it.Stats.SupportedZipcodeCount, 0)
			}
		}
		out = append(out, m)
	}

	SortMetroAreas(out)
	return out, nil
}

// SortMetroAreas orders by name using English collation rules.
func SortMetroAreas(areas []market.MetroArea) {
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(areas, func(i, j int) bool {
		return c.CompareString(areas[i].Name, areas[j].Name) < 0
	})
}

// ParseMetroAreaDetail rounds float statistics to integers. Occupancy given
// as a fraction (<= 1) is scaled to a percentage first.
func ParseMetroAreaDetail(raw []byte) (market.MetroAreaDetail, error) {
	var body struct {
		rawMetro
		Data *rawMetro `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return market.MetroAreaDetail{}, err
	}
	it := body.rawMetro
	if body.Data != nil {
		it = *body.Data
	}

	d := market.MetroAreaDetail{
		ID:         idString(it.ID),
		Name:       strOr(it.Name, "Unknown"),
		MarketType: strOr(it.MarketType, ""),
		ZipCodes:   make([]market.ZipCode, 0, len(it.ZipCodes)),
	}
	if s := it.Stats; s != nil {
		d.Stats = market.MetroStats{
			ActiveProperties:     roundOr(s.ActiveProperties, 0),
			ActiveUnits:          roundOr(s.ActiveUnits, 0),
			UpcomingUnits:        roundOr(s.UpcomingUnits, 0),
			AverageOccupancy:     percentPtr(s.AverageOccupancy),
			SharedBathroomPrice:  roundPtr(s.SharedBathroomPrice),
			PrivateBathroomPrice: roundPtr(s.PrivateBathroomPrice),
			DaysToFirstBooking:   roundPtr(s.DaysToFirstBooking),
			DaysTo80Booking:      roundPtr(s.DaysTo80Booking),
		}
	}
	for _, z := range it.ZipCodes {
		code := idString(z.ZipCode)
		if code == "" {
			code = idString(z.Zipcode)
		}
		if code == "" {
			continue
		}
		supported := true
		if z.Supported != nil {
			supported = *z.Supported
		}
		d.ZipCodes = append(d.ZipCodes, market.ZipCode{
			ZipCode:          code,
			ActiveProperties: roundOr(z.ActiveProperties, 0),
			ActiveUnits:      roundOr(z.ActiveUnits, 0),
			Supported:        supported,
		})
	}
	return d, nil
}

func unwrapList(raw []byte) ([]rawMetro, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []rawMetro
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var wrapped struct {
		MetroAreas []rawMetro `json:"metroAreas"`
		Data       []rawMetro `json:"data"`
		Results    []rawMetro `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	switch {
	case wrapped.MetroAreas != nil:
		return wrapped.MetroAreas, nil
	case wrapped.Data != nil:
		return wrapped.Data, nil
	default:
		return wrapped.Results, nil
	}
}

func idString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.TrimSpace(string(raw))
}

func strOr(v *string, def string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return def
	}
	return strings.TrimSpace(*v)
}

func roundOr(v *float64, def int) int {
	if v == nil {
		return def
	}
	return int(math.Round(*v))
}

func roundPtr(v *float64) *int {
	if v == nil {
		return nil
	}
	return market.IntPtr(int(math.Round(*v)))
}

func percentPtr(v *float64) *int {
	if v == nil {
		return nil
	}
	f := *v
	if f >= 0 && f <= 1 {
		f *= 100
	}
	return market.IntPtr(int(math.Round(f)))
}
