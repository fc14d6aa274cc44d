package export

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"metro-scrape/internal/domain/market"
)

var ErrNotCompleted = errors.New("scrape job not completed")

const (
	SheetName   = "Zip Codes"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var Headers = []string{
	"Zip Code",
	"City",
	"Status",
	"Active Units",
	"Upcoming Units",
	"Shared Bath $/wk",
	"Private Bath $/wk",
	"Avg Occupancy",
	"Days to 1st Booking",
	"Days to 80% Booking",
}

type Document struct {
	Filename string
	Data     []byte
}

type Exporter struct {
	now func() time.Time
}

func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// Export renders a completed job as an xlsx workbook: one header row, one row
// per result in job order, a blank row and a SUMMARY row.
func (e *Exporter) Export(job market.ScrapeJob) (Document, error) {
	if job.Status != market.JobStatusCompleted {
		return Document{}, fmt.Errorf("%w: status=%s", ErrNotCompleted, job.Status)
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return Document{}, err
	}

	styles, err := newStyles(f)
	if err != nil {
		return Document{}, err
	}

	for i, h := range Headers {
		if err := setCell(f, i+1, 1, h); err != nil {
			return Document{}, err
		}
	}
	if err := styleRow(f, 1, styles.header); err != nil {
		return Document{}, err
	}

	row := 2
	for _, rec := range job.Results {
		for i, v := range Row(rec) {
			if err := setCell(f, i+1, row, v); err != nil {
				return Document{}, err
			}
		}
		switch rec.Status {
		case market.ZipStatusNoData:
			err = styleRow(f, row, styles.noData)
		case market.ZipStatusError:
			err = styleRow(f, row, styles.failed)
		}
		if err != nil {
			return Document{}, err
		}
		row++
	}

	// blank spacer row, then totals
	row++
	active, upcoming := Totals(job.Results)
	for i, v := range []any{"SUMMARY", "", "", active, upcoming} {
		if err := setCell(f, i+1, row, v); err != nil {
			return Document{}, err
		}
	}
	if err := styleRow(f, row, styles.summary); err != nil {
		return Document{}, err
	}

	if err := f.SetColWidth(SheetName, "A", "J", 18); err != nil {
		return Document{}, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Document{}, err
	}
	return Document{Filename: Filename(job.CityName, e.now()), Data: buf.Bytes()}, nil
}

// Row formats one record in column order. Counts stay numeric so the sheet can
// be summed; missing values render as "-".
func Row(rec market.ZipRecord) []any {
	return []any{
		rec.ZipCode,
		rec.City,
		StatusLabel(rec.Status),
		orDash(rec.ActiveUnits, nil),
		orDash(rec.UpcomingUnits, nil),
		orDash(rec.SharedBathroomPrice, func(v int) string { return fmt.Sprintf("$%d", v) }),
		orDash(rec.PrivateBathroomPrice, func(v int) string { return fmt.Sprintf("$%d", v) }),
		orDash(rec.AverageOccupancy, func(v int) string { return fmt.Sprintf("%d%%", v) }),
		orDash(rec.DaysToFirstBooking, nil),
		orDash(rec.DaysTo80Booking, nil),
	}
}

func StatusLabel(s market.ZipStatus) string {
	switch s {
	case market.ZipStatusActive:
		return "Active"
	case market.ZipStatusNoData:
		return "No Data"
	default:
		return string(s)
	}
}

// Totals sums active and upcoming units; nil counts as zero.
func Totals(records []market.ZipRecord) (active, upcoming int) {
	for _, r := range records {
		if r.ActiveUnits != nil {
			active += *r.ActiveUnits
		}
		if r.UpcomingUnits != nil {
			upcoming += *r.UpcomingUnits
		}
	}
	return active, upcoming
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9]`)

func Filename(city string, now time.Time) string {
	name := unsafeName.ReplaceAllString(strings.TrimSpace(city), "_")
	if name == "" {
		name = "export"
	}
	return fmt.Sprintf("padsplit_%s_%s.xlsx", name, now.Format("2006-01-02"))
}

func orDash(v *int, format func(int) string) any {
	if v == nil {
		return "-"
	}
	if format == nil {
		return *v
	}
	return format(*v)
}

type sheetStyles struct {
	header  int
	noData  int
	failed  int
	summary int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
	}); err != nil {
		return s, err
	}
	if s.noData, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFF2CC"}},
	}); err != nil {
		return s, err
	}
	if s.failed, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#F8CBAD"}},
	}); err != nil {
		return s, err
	}
	if s.summary, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	}); err != nil {
		return s, err
	}
	return s, nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(SheetName, cell, v)
}

func styleRow(f *excelize.File, row, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(Headers), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, first, last, style)
}
