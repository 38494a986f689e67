// Package temporal rescales a monthly sales baseline to the share of sales
// that falls inside a requested operating schedule.
package temporal

import (
	"time"

	"github.com/sells-group/sitesales/internal/model"
)

// Schedule is a set of operating days and a [Start, End) hour window.
type Schedule struct {
	Days  []time.Weekday
	Start int
	End   int
}

// FullWeek is every day, all day.
func FullWeek() Schedule {
	return Schedule{Days: append([]time.Weekday(nil), model.Weekdays...), Start: 0, End: 24}
}

// Ratios holds the two correction factors. A factor is 1 when the basis
// rows carry no sales for its dimension.
type Ratios struct {
	Day  float64 `json:"day_ratio"`
	Hour float64 `json:"hour_ratio"`
}

// Factor is the combined multiplier.
func (r Ratios) Factor() float64 { return r.Day * r.Hour }

// Correct returns baseline scaled by the schedule's day and hour share of
// basis sales.
func Correct(baseline float64, basis []*model.DistrictRecord, s Schedule) float64 {
	return baseline * Compute(basis, s).Factor()
}

// Compute derives both ratios from basis rows. Absent amounts count as 0.
func Compute(basis []*model.DistrictRecord, s Schedule) Ratios {
	return Ratios{Day: DayRatio(basis, s.Days), Hour: HourRatio(basis, s.Start, s.End)}
}

// DayRatio is selected weekday sales over all weekday sales.
func DayRatio(basis []*model.DistrictRecord, days []time.Weekday) float64 {
	selected := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		selected[d] = true
	}

	var total, picked float64
	for _, r := range basis {
		for _, d := range model.Weekdays {
			amt := model.Value(r.WeekdaySales(d))
			total += amt
			if selected[d] {
				picked += amt
			}
		}
	}
	if total == 0 {
		return 1
	}
	return picked / total
}

// HourRatio weights each hour bucket's sales by the fraction of the bucket
// covered by [start, end).
func HourRatio(basis []*model.DistrictRecord, start, end int) float64 {
	var total, picked float64
	for _, r := range basis {
		for _, b := range model.HourBuckets {
			amt := model.Value(r.HourSales(b.Key))
			total += amt
			if ov := overlap(start, end, b.Start, b.End); ov > 0 {
				picked += amt * float64(ov) / float64(b.Len())
			}
		}
	}
	if total == 0 {
		return 1
	}
	return picked / total
}

func overlap(s1, e1, s2, e2 int) int {
	return max(0, min(e1, e2)-max(s1, s2))
}
