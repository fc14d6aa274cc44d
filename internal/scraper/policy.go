package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"metro-scrape/internal/domain/market"
)

// PolicyVersion identifies the default pattern set. Bump it whenever the
// target site's wording changes and the table below is revised.
const PolicyVersion = "2024.1"

const DefaultRegionWindow = 800

type Field string

const (
	FieldActiveUnits          Field = "activeUnits"
	FieldUpcomingUnits        Field = "upcomingUnits"
	FieldSharedBathroomPrice  Field = "sharedBathroomPrice"
	FieldPrivateBathroomPrice Field = "privateBathroomPrice"
	FieldAverageOccupancy     Field = "averageOccupancy"
	FieldDaysToFirstBooking   Field = "daysToFirstBooking"
	FieldDaysTo80Booking      Field = "daysTo80Booking"
)

// FieldRule maps one pattern onto one record field. The pattern's first
// capture group is handed to Transform.
type FieldRule struct {
	Field     Field
	Pattern   *regexp.Regexp
	Transform func(raw string) (int, bool)
}

// Policy is the complete text-parsing configuration for a zip page.
type Policy struct {
	Version         string
	RegionWindow    int
	Rules           []FieldRule
	NoDataPhrases   []string
	NoActivePattern *regexp.Regexp
}

// lead rejects captures that start inside a longer number such as the "34"
// of "12,34". RE2 has no lookbehind, so the boundary is consumed.
const lead = `(?:^|[^\d.,])`

const num = `(\d{1,3}(?:,\d{3})+|\d+)`

var defaultRules = []FieldRule{
	{FieldActiveUnits, regexp.MustCompile(`(?i)` + lead + num + `\s+active\s+units?\b`), parseCount},
	{FieldUpcomingUnits, regexp.MustCompile(`(?i)` + lead + num + `\s+upcoming\s+units?\b`), parseCount},
	{FieldSharedBathroomPrice, regexp.MustCompile(`(?i)\$\s*` + num + `(?:\.\d+)?\s*(?:/|per)\s*week\s+with\s+(?:a\s+)?shared\s+bath(?:room)?`), parseCount},
	{FieldPrivateBathroomPrice, regexp.MustCompile(`(?i)\$\s*` + num + `(?:\.\d+)?\s*(?:/|per)\s*week\s+with\s+(?:a\s+)?private\s+bath(?:room)?`), parseCount},
	{FieldAverageOccupancy, regexp.MustCompile(`(?i)` + lead + `(\d{1,3}(?:\.\d+)?)\s*%\s*average\s+occupancy`), parsePercent},
	{FieldDaysToFirstBooking, regexp.MustCompile(`(?i)` + lead + num + `\s+days?\s+to\s+first\s+booking`), parseCount},
	{FieldDaysTo80Booking, regexp.MustCompile(`(?i)` + lead + num + `\s+days?\s+to\s+80\s*%\s+booking`), parseCount},
}

var regionMarker = regexp.MustCompile(`(?i)postal\s+code\s+([0-9A-Za-z-]+)`)

var defaultNoDataPhrases = []string{
	"no active homes",
	"does not have any active",
}

var defaultNoActivePattern = regexp.MustCompile(`(?i)\b(?:0|zero)\s+active\s+(?:units?|rooms?|homes?|properties)\b`)

// DefaultPolicy returns the built-in pattern table.
func DefaultPolicy() *Policy {
	return &Policy{
		Version:         PolicyVersion,
		RegionWindow:    DefaultRegionWindow,
		Rules:           defaultRules,
		NoDataPhrases:   defaultNoDataPhrases,
		NoActivePattern: defaultNoActivePattern,
	}
}

// WithHeuristics overrides the classification heuristics. Empty inputs keep
// the current values.
func (p *Policy) WithHeuristics(noDataPhrases []string, noActivePattern string) (*Policy, error) {
	out := *p
	if len(noDataPhrases) > 0 {
		out.NoDataPhrases = append([]string(nil), noDataPhrases...)
	}
	if strings.TrimSpace(noActivePattern) != "" {
		re, err := regexp.Compile(`(?i)` + noActivePattern)
		if err != nil {
			return nil, err
		}
		out.NoActivePattern = re
	}
	return &out, nil
}

// WithRegionWindow overrides the zip region length.
func (p *Policy) WithRegionWindow(n int) *Policy {
	out := *p
	if n > 0 {
		out.RegionWindow = n
	}
	return &out
}

// ParseZipText turns the rendered text of a zip page into a record. It is a
// pure function of its inputs.
func (p *Policy) ParseZipText(zipCode string, text string) market.ZipRecord {
	region, found := p.Region(zipCode, text)

	rec := market.ZipRecord{
		ZipCode:     zipCode,
		Status:      market.ZipStatusActive,
		RegionFound: found,
	}

	for _, r := range p.Rules {
		m := r.Pattern.FindStringSubmatch(region)
		if len(m) < 2 {
			continue
		}
		v, ok := r.Transform(m[1])
		if !ok {
			continue
		}
		setField(&rec, r.Field, v)
	}

	if isZeroOrNil(rec.ActiveUnits) && isZeroOrNil(rec.UpcomingUnits) {
		switch {
		case p.hasNoDataPhrase(region):
			rec.Status = market.ZipStatusNoData
		case p.NoActivePattern != nil && p.NoActivePattern.MatchString(region):
			rec.Status = market.ZipStatusNoActive
			rec.ActiveUnits = market.IntPtr(0)
		}
	}

	return rec
}

// Region returns the text window that belongs to zipCode. When the
// "Postal code <zip>" marker is missing it falls back to the whole text and
// reports found=false.
func (p *Policy) Region(zipCode string, text string) (string, bool) {
	start := -1
	for _, m := range regionMarker.FindAllStringSubmatchIndex(text, -1) {
		if strings.EqualFold(text[m[2]:m[3]], strings.TrimSpace(zipCode)) {
			start = m[0]
			break
		}
	}
	if start < 0 {
		return text, false
	}

	window := p.RegionWindow
	if window <= 0 {
		window = DefaultRegionWindow
	}
	rest := text[start:]
	n := 0
	for i := range rest {
		if n == window {
			return rest[:i], true
		}
		n++
	}
	return rest, true
}

func (p *Policy) hasNoDataPhrase(region string) bool {
	lower := strings.ToLower(region)
	for _, phrase := range p.NoDataPhrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

func setField(rec *market.ZipRecord, f Field, v int) {
	switch f {
	case FieldActiveUnits:
		rec.ActiveUnits = market.IntPtr(v)
	case FieldUpcomingUnits:
		rec.UpcomingUnits = market.IntPtr(v)
	case FieldSharedBathroomPrice:
		rec.SharedBathroomPrice = market.IntPtr(v)
	case FieldPrivateBathroomPrice:
		rec.PrivateBathroomPrice = market.IntPtr(v)
	case FieldAverageOccupancy:
		rec.AverageOccupancy = market.IntPtr(v)
	case FieldDaysToFirstBooking:
		rec.DaysToFirstBooking = market.IntPtr(v)
	case FieldDaysTo80Booking:
		rec.DaysTo80Booking = market.IntPtr(v)
	}
}

func isZeroOrNil(v *int) bool {
	return v == nil || *v == 0
}

func parseCount(raw string) (int, bool) {
	v, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func parsePercent(raw string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 0 || f > 100 {
		return 0, false
	}
	return int(math.Round(f)), true
}
