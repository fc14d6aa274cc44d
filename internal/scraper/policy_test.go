package scraper

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"metro-scrape/internal/domain/market"
)

const atlantaPage = `PadSplit Host Insights
Atlanta metro: 1,204 active units across the city. 88% average occupancy.
Postal code 30301
12 active units  3 upcoming units
$220 per week with a shared bathroom
$310 per week with a private bathroom
78% average occupancy
5 days to first booking
21 days to 80% booking`

func TestParseZipText_FullRecord(t *testing.T) {
	got := DefaultPolicy().ParseZipText("30301", atlantaPage)
	want := market.ZipRecord{
		ZipCode:              "30301",
		Status:               market.ZipStatusActive,
		ActiveUnits:          market.IntPtr(12),
		UpcomingUnits:        market.IntPtr(3),
		SharedBathroomPrice:  market.IntPtr(220),
		PrivateBathroomPrice: market.IntPtr(310),
		AverageOccupancy:     market.IntPtr(78),
		DaysToFirstBooking:   market.IntPtr(5),
		DaysTo80Booking:      market.IntPtr(21),
		RegionFound:          true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestParseZipText_IgnoresCityWideFiguresBeforeRegion(t *testing.T) {
	text := "City total 1,204 active units. Postal code 30302 has 7 active units"
	got := DefaultPolicy().ParseZipText("30302", text)
	if got.ActiveUnits == nil || *got.ActiveUnits != 7 {
		t.Fatalf("expected 7 active units from zip region, got %v", got.ActiveUnits)
	}
}

func TestParseZipText_ThousandsSeparator(t *testing.T) {
	got := DefaultPolicy().ParseZipText("30303", "postal CODE 30303: 1,250 active units, $1,020 per week with a private bath")
	if got.ActiveUnits == nil || *got.ActiveUnits != 1250 {
		t.Fatalf("active units: got %v", got.ActiveUnits)
	}
	if got.PrivateBathroomPrice == nil || *got.PrivateBathroomPrice != 1020 {
		t.Fatalf("private price: got %v", got.PrivateBathroomPrice)
	}
}

func TestParseZipText_NoData(t *testing.T) {
	got := DefaultPolicy().ParseZipText("30304", "Postal code 30304 does not have any active homes yet.")
	want := market.ZipRecord{ZipCode: "30304", Status: market.ZipStatusNoData, RegionFound: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestParseZipText_NoActive(t *testing.T) {
	got := DefaultPolicy().ParseZipText("30305", "Postal code 30305 currently shows zero active units.")
	if got.Status != market.ZipStatusNoActive {
		t.Fatalf("status: got %s", got.Status)
	}
	if got.ActiveUnits == nil || *got.ActiveUnits != 0 {
		t.Fatalf("expected active units forced to 0, got %v", got.ActiveUnits)
	}
}

func TestParseZipText_NoDataNeverWithUnits(t *testing.T) {
	text := "Postal code 30306 lists 4 active units. Nearby areas do not have any active homes."
	got := DefaultPolicy().ParseZipText("30306", text)
	if got.Status != market.ZipStatusActive {
		t.Fatalf("expected active status when units are present, got %s", got.Status)
	}
}

func TestParseZipText_UnderExtractionStaysActive(t *testing.T) {
	got := DefaultPolicy().ParseZipText("30307", "Postal code 30307 loading...")
	if got.Status != market.ZipStatusActive {
		t.Fatalf("status: got %s", got.Status)
	}
	if got.ActiveUnits != nil || got.AverageOccupancy != nil {
		t.Fatalf("expected empty fields")
	}
}

func TestParseZipText_RegionMissingFallsBackToFullText(t *testing.T) {
	got := DefaultPolicy().ParseZipText("30308", "Log in to continue. 9 active units")
	if got.RegionFound {
		t.Fatalf("expected region not found")
	}
	if got.ActiveUnits == nil || *got.ActiveUnits != 9 {
		t.Fatalf("expected full-text scan, got %v", got.ActiveUnits)
	}
}

func TestParseZipText_Idempotent(t *testing.T) {
	p := DefaultPolicy()
	a := p.ParseZipText("30301", atlantaPage)
	b := p.ParseZipText("30301", atlantaPage)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("parsing is not deterministic:\n%s", diff)
	}
}

func TestRegion_WindowLength(t *testing.T) {
	p := DefaultPolicy().WithRegionWindow(20)
	text := "intro Postal code 30301 " + strings.Repeat("x", 100) + " 5 active units"
	region, found := p.Region("30301", text)
	if !found {
		t.Fatalf("expected region found")
	}
	if len([]rune(region)) != 20 {
		t.Fatalf("expected 20 rune window, got %d", len([]rune(region)))
	}
	if got := p.ParseZipText("30301", text); got.ActiveUnits != nil {
		t.Fatalf("figures outside the window must be ignored, got %v", *got.ActiveUnits)
	}
}

func TestWithHeuristics(t *testing.T) {
	p, err := DefaultPolicy().WithHeuristics([]string{"coming soon"}, `none\s+listed`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := p.ParseZipText("30309", "Postal code 30309 coming soon"); got.Status != market.ZipStatusNoData {
		t.Fatalf("custom phrase: got %s", got.Status)
	}
	if got := p.ParseZipText("30309", "Postal code 30309 NONE listed"); got.Status != market.ZipStatusNoActive {
		t.Fatalf("custom pattern: got %s", got.Status)
	}
	if _, err := DefaultPolicy().WithHeuristics(nil, "("); err == nil {
		t.Fatalf("expected invalid pattern error")
	}
}

func TestParsePercent_Rounds(t *testing.T) {
	got := DefaultPolicy().ParseZipText("30310", "Postal code 30310 77.6% average occupancy")
	if got.AverageOccupancy == nil || *got.AverageOccupancy != 78 {
		t.Fatalf("occupancy: got %v", got.AverageOccupancy)
	}
}

func TestParseZipText_LiteralZeroActiveUnits(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{name: "active only", text: "Postal code 30310 0 active units"},
		{name: "active and upcoming", text: "Postal code 30310 0 active units and 0 upcoming units"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DefaultPolicy().ParseZipText("30310", tc.text)
			if got.Status != market.ZipStatusNoActive {
				t.Fatalf("status: got %s", got.Status)
			}
			if got.ActiveUnits == nil || *got.ActiveUnits != 0 {
				t.Fatalf("expected active units 0, got %v", got.ActiveUnits)
			}
		})
	}
}

func TestParseZipText_ZeroActiveWithUpcomingStaysActive(t *testing.T) {
	got := DefaultPolicy().ParseZipText("30310", "Postal code 30310 0 active units 4 upcoming units")
	if got.Status != market.ZipStatusActive {
		t.Fatalf("status: got %s", got.Status)
	}
}

func TestParseZipText_RejectsPartialNumbers(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		field func(r market.ZipRecord) *int
	}{
		{name: "malformed thousands", text: "Postal code 30310 12,34 active units", field: func(r market.ZipRecord) *int { return r.ActiveUnits }},
		{name: "decimal count", text: "Postal code 30310 2.5 upcoming units", field: func(r market.ZipRecord) *int { return r.UpcomingUnits }},
		{name: "occupancy over 100", text: "Postal code 30310 1000% average occupancy", field: func(r market.ZipRecord) *int { return r.AverageOccupancy }},
		{name: "days tail", text: "Postal code 30310 1.5 days to first booking", field: func(r market.ZipRecord) *int { return r.DaysToFirstBooking }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DefaultPolicy().ParseZipText("30310", tc.text)
			if v := tc.field(got); v != nil {
				t.Fatalf("expected no value, got %d", *v)
			}
		})
	}
}

func TestRegion_MarkerMatchesWholeZip(t *testing.T) {
	p := DefaultPolicy()
	text := "Postal code 303101 has 40 active units. Postal code 30310 has 6 active units"
	region, found := p.Region("30310", text)
	if !found || !strings.HasPrefix(region, "Postal code 30310 ") {
		t.Fatalf("unexpected region %q (found=%t)", region, found)
	}
	if got := p.ParseZipText("30310", text); got.ActiveUnits == nil || *got.ActiveUnits != 6 {
		t.Fatalf("expected 6 active units, got %v", got.ActiveUnits)
	}
}
