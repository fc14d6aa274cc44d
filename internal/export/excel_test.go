package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"metro-scrape/internal/domain/market"
)

func completedJob() market.ScrapeJob {
	end := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	return market.ScrapeJob{
		ID:                "job-1",
		Status:            market.JobStatusCompleted,
		CityName:          "St. Louis, MO",
		TotalZipCodes:     3,
		CompletedZipCodes: 3,
		EndTime:           &end,
		Results: []market.ZipRecord{
			{
				ZipCode:              "30301",
				City:                 "St. Louis, MO",
				Status:               market.ZipStatusActive,
				ActiveUnits:          market.IntPtr(12),
				UpcomingUnits:        market.IntPtr(3),
				SharedBathroomPrice:  market.IntPtr(220),
				PrivateBathroomPrice: market.IntPtr(310),
				AverageOccupancy:     market.IntPtr(78),
				DaysToFirstBooking:   market.IntPtr(5),
				DaysTo80Booking:      market.IntPtr(21),
			},
			{ZipCode: "30302", City: "St. Louis, MO", Status: market.ZipStatusNoData},
			{ZipCode: "30303", City: "St. Louis, MO", Status: market.ZipStatusError, Error: "timeout"},
		},
	}
}

func openDoc(t *testing.T, doc Document) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(doc.Data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, name string) string {
	t.Helper()
	v, err := f.GetCellValue(SheetName, name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return v
}

func TestExport_Layout(t *testing.T) {
	e := NewExporter()
	e.now = func() time.Time { return time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC) }

	doc, err := e.Export(completedJob())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if doc.Filename != "padsplit_St__Louis__MO_2024-05-02.xlsx" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}

	f := openDoc(t, doc)

	var header []string
	for _, c := range []string{"A1", "B1", "C1", "D1", "E1", "F1", "G1", "H1", "I1", "J1"} {
		header = append(header, cell(t, f, c))
	}
	if diff := cmp.Diff(Headers, header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}

	var first []string
	for _, c := range []string{"A2", "B2", "C2", "D2", "E2", "F2", "G2", "H2", "I2", "J2"} {
		first = append(first, cell(t, f, c))
	}
	want := []string{"30301", "St. Louis, MO", "Active", "12", "3", "$220", "$310", "78%", "5", "21"}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}

	if got := cell(t, f, "C3"); got != "No Data" {
		t.Fatalf("expected No Data label, got %q", got)
	}
	if got := cell(t, f, "C4"); got != "error" {
		t.Fatalf("expected verbatim error label, got %q", got)
	}
	if got := cell(t, f, "F3"); got != "-" {
		t.Fatalf("expected dash for missing price, got %q", got)
	}

	if got := cell(t, f, "A5"); got != "" {
		t.Fatalf("expected blank spacer row, got %q", got)
	}
	if got := cell(t, f, "A6"); got != "SUMMARY" {
		t.Fatalf("expected SUMMARY row, got %q", got)
	}
	if cell(t, f, "D6") != "12" || cell(t, f, "E6") != "3" {
		t.Fatalf("unexpected totals %q %q", cell(t, f, "D6"), cell(t, f, "E6"))
	}
}

func TestExport_FlagsGapRows(t *testing.T) {
	doc, err := NewExporter().Export(completedJob())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	f := openDoc(t, doc)

	style := func(name string) int {
		id, err := f.GetCellStyle(SheetName, name)
		if err != nil {
			t.Fatalf("style %s: %v", name, err)
		}
		return id
	}

	header, active, noData, failed := style("A1"), style("A2"), style("A3"), style("A4")
	if header == 0 {
		t.Fatalf("expected styled header")
	}
	if noData == active || failed == active || noData == failed {
		t.Fatalf("expected distinct fills: active=%d noData=%d error=%d", active, noData, failed)
	}
}

func TestExport_RequiresCompletedJob(t *testing.T) {
	for _, st := range []market.JobStatus{market.JobStatusRunning, market.JobStatusError} {
		job := completedJob()
		job.Status = st
		doc, err := NewExporter().Export(job)
		if !errors.Is(err, ErrNotCompleted) {
			t.Fatalf("status=%s: expected ErrNotCompleted, got %v", st, err)
		}
		if len(doc.Data) != 0 {
			t.Fatalf("status=%s: expected no document", st)
		}
	}
}

func TestTotals_TreatsNilAsZero(t *testing.T) {
	a, u := Totals([]market.ZipRecord{
		{ActiveUnits: market.IntPtr(4)},
		{UpcomingUnits: market.IntPtr(2)},
		{},
		{ActiveUnits: market.IntPtr(1), UpcomingUnits: market.IntPtr(1)},
	})
	if a != 5 || u != 3 {
		t.Fatalf("unexpected totals %d %d", a, u)
	}
}

func TestFilename_EmptyCity(t *testing.T) {
	got := Filename("  ", time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC))
	if got != "padsplit_export_2024-01-09.xlsx" {
		t.Fatalf("unexpected filename %q", got)
	}
}
