package market

import "time"

type ZipStatus string

const (
	ZipStatusActive   ZipStatus = "active"
	ZipStatusNoData   ZipStatus = "no_data"
	ZipStatusNoActive ZipStatus = "no_active"
	ZipStatusError    ZipStatus = "error"
)

type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusError     JobStatus = "error"
)

// Terminal reports whether no further writes will happen to a job in this state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

type Credentials struct {
	Email    string
	Password string
}

type MetroArea struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Slug                  string `json:"slug"`
	MarketType            string `json:"marketType"`
	ActiveProperties      int    `json:"activeProperties"`
	SupportedZipcodeCount int    `json:"supportedZipcodeCount"`
}

type MetroStats struct {
	ActiveProperties     int  `json:"activeProperties"`
	ActiveUnits          int  `json:"activeUnits"`
	UpcomingUnits        int  `json:"upcomingUnits"`
	AverageOccupancy     *int `json:"averageOccupancy"`
	SharedBathroomPrice  *int `json:"sharedBathroomPrice"`
	PrivateBathroomPrice *int `json:"privateBathroomPrice"`
	DaysToFirstBooking   *int `json:"daysToFirstBooking"`
	DaysTo80Booking      *int `json:"daysTo80Booking"`
}

type ZipCode struct {
	ZipCode          string `json:"zipCode"`
	ActiveProperties int    `json:"activeProperties"`
	ActiveUnits      int    `json:"activeUnits"`
	Supported        bool   `json:"supported"`
}

type MetroAreaDetail struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	MarketType string     `json:"marketType"`
	Stats      MetroStats `json:"stats"`
	ZipCodes   []ZipCode  `json:"zipCodes"`
}

// ZipRecord is the extraction result for one zip code. Nil pointers mean the
// field was not found on the page.
type ZipRecord struct {
	ZipCode              string    `json:"zipCode"`
	City                 string    `json:"city"`
	Status               ZipStatus `json:"status"`
	ActiveUnits          *int      `json:"activeUnits"`
	UpcomingUnits        *int      `json:"upcomingUnits"`
	SharedBathroomPrice  *int      `json:"sharedBathroomPrice"`
	PrivateBathroomPrice *int      `json:"privateBathroomPrice"`
	AverageOccupancy     *int      `json:"averageOccupancy"`
	DaysToFirstBooking   *int      `json:"daysToFirstBooking"`
	DaysTo80Booking      *int      `json:"daysTo80Booking"`
	RegionFound          bool      `json:"regionFound"`
	Error                string    `json:"error,omitempty"`
}

type ScrapeJob struct {
	ID                string      `json:"id"`
	Status            JobStatus   `json:"status"`
	CityName          string      `json:"cityName"`
	ZipCodes          []string    `json:"zipCodes"`
	TotalZipCodes     int         `json:"totalZipCodes"`
	CompletedZipCodes int         `json:"completedZipCodes"`
	CurrentZipCode    string      `json:"currentZipCode"`
	Results           []ZipRecord `json:"results"`
	StartTime         time.Time   `json:"startTime"`
	EndTime           *time.Time  `json:"endTime"`
	Error             string      `json:"error,omitempty"`
}

// Clone returns a deep copy so readers never share slices with the writer.
func (j ScrapeJob) Clone() ScrapeJob {
	out := j
	out.ZipCodes = append([]string(nil), j.ZipCodes...)
	out.Results = append([]ZipRecord(nil), j.Results...)
	if j.EndTime != nil {
		t := *j.EndTime
		out.EndTime = &t
	}
	return out
}

// ProgressPercent is round(completed/total*100); zero when total is zero.
func (j ScrapeJob) ProgressPercent() int {
	if j.TotalZipCodes <= 0 {
		return 0
	}
	return int(float64(j.CompletedZipCodes)/float64(j.TotalZipCodes)*100 + 0.5)
}

// Duration is nil until the job has an end time.
func (j ScrapeJob) Duration() *time.Duration {
	if j.EndTime == nil {
		return nil
	}
	d := j.EndTime.Sub(j.StartTime)
	return &d
}

type ActivityEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	Email     string    `json:"email"`
	Detail    string    `json:"detail,omitempty"`
}

// IntPtr is a small helper for building optional numeric fields.
func IntPtr(v int) *int {
	return &v
}
