package model

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrInvalidInput marks a malformed query. It is detected before any
// computation runs.
var ErrInvalidInput = eris.New("invalid input")

// Query is a validated prediction request.
type Query struct {
	Lat          float64        `json:"lat"`
	Lon          float64        `json:"lon"`
	CategoryCode string         `json:"category_code"`
	Category     string         `json:"category"`
	RadiusM      float64        `json:"radius_m"`
	StartHour    int            `json:"start_hour"`
	EndHour      int            `json:"end_hour"`
	Days         []time.Weekday `json:"days"`
}

// PredictRequest is the wire form of a prediction request. Lat, Lon and
// Radius are pointers so an omitted field is told apart from zero.
type PredictRequest struct {
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	CategoryCode string   `json:"indsMclsCd"`
	Radius       *float64 `json:"radius"`
	TimeRange    string   `json:"time_range"`
	DayOfWeek    []string `json:"day_of_week"`
}

// Query validates the request and resolves the category code through
// categories (code -> label).
func (r PredictRequest) Query(categories map[string]string) (Query, error) {
	if r.Lat == nil || r.Lon == nil || r.Radius == nil {
		return Query{}, eris.Wrap(ErrInvalidInput, "lat, lon and radius are required")
	}
	lat, lon, radius := *r.Lat, *r.Lon, *r.Radius
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Query{}, eris.Wrapf(ErrInvalidInput, "lat %v out of range [-90, 90]", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return Query{}, eris.Wrapf(ErrInvalidInput, "lon %v out of range [-180, 180]", lon)
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return Query{}, eris.Wrapf(ErrInvalidInput, "radius %v must be a non-negative number", radius)
	}

	code := strings.ToUpper(strings.TrimSpace(r.CategoryCode))
	label, ok := categories[code]
	if !ok || label == "" {
		return Query{}, eris.Wrapf(ErrInvalidInput, "unknown category code %q", r.CategoryCode)
	}

	start, end, err := ParseTimeRange(r.TimeRange)
	if err != nil {
		return Query{}, err
	}

	days, err := ParseWeekdays(r.DayOfWeek)
	if err != nil {
		return Query{}, err
	}

	return Query{
		Lat:          lat,
		Lon:          lon,
		CategoryCode: code,
		Category:     label,
		RadiusM:      radius,
		StartHour:    start,
		EndHour:      end,
		Days:         days,
	}, nil
}

// ParseTimeRange parses "H-H" into start and end hours with
// 0 <= start < end <= 24.
func ParseTimeRange(s string) (int, int, error) {
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, eris.Wrapf(ErrInvalidInput, "time_range %q must look like H-H", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(startStr))
	if err != nil {
		return 0, 0, eris.Wrapf(ErrInvalidInput, "time_range start %q", startStr)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endStr))
	if err != nil {
		return 0, 0, eris.Wrapf(ErrInvalidInput, "time_range end %q", endStr)
	}
	if start < 0 || end > 24 || start >= end {
		return 0, 0, eris.Wrapf(ErrInvalidInput, "time_range %d-%d must satisfy 0 <= start < end <= 24", start, end)
	}
	return start, end, nil
}

var weekdayNames = map[string]time.Weekday{
	"월": time.Monday, "화": time.Tuesday, "수": time.Wednesday, "목": time.Thursday,
	"금": time.Friday, "토": time.Saturday, "일": time.Sunday,
	"월요일": time.Monday, "화요일": time.Tuesday, "수요일": time.Wednesday, "목요일": time.Thursday,
	"금요일": time.Friday, "토요일": time.Saturday, "일요일": time.Sunday,
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday, "thu": time.Thursday,
	"fri": time.Friday, "sat": time.Saturday, "sun": time.Sunday,
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday, "sunday": time.Sunday,
}

// ParseWeekdays maps weekday names to a de-duplicated list in Monday-first
// order. Korean short/long names and English short/long names are accepted.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	if len(names) == 0 {
		return nil, eris.Wrap(ErrInvalidInput, "day_of_week must not be empty")
	}
	seen := make(map[time.Weekday]bool, len(names))
	for _, n := range names {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, eris.Wrapf(ErrInvalidInput, "unknown weekday %q", n)
		}
		seen[d] = true
	}
	days := make([]time.Weekday, 0, len(seen))
	for _, d := range Weekdays {
		if seen[d] {
			days = append(days, d)
		}
	}
	return days, nil
}
