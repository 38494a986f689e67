package dataset

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sells-group/sitesales/internal/model"
)

type textColumn struct {
	name string
	ref  func(*model.DistrictRecord) *string
}

type numColumn struct {
	name string
	ref  func(*model.DistrictRecord) **float64
}

var textColumns = []textColumn{
	{"period", func(r *model.DistrictRecord) *string { return &r.Period }},
	{"district_code", func(r *model.DistrictRecord) *string { return &r.DistrictCode }},
	{"district_name", func(r *model.DistrictRecord) *string { return &r.DistrictName }},
	{"category", func(r *model.DistrictRecord) *string { return &r.Category }},
	{"change_indicator", func(r *model.DistrictRecord) *string { return &r.ChangeIndicator }},
}

var numColumns = []numColumn{
	{"competitors_300m", func(r *model.DistrictRecord) **float64 { return &r.Competitors300m }},
	{"monthly_sales", func(r *model.DistrictRecord) **float64 { return &r.MonthlySales }},
	{"foot_total", func(r *model.DistrictRecord) **float64 { return &r.FootTotal }},
	{"foot_male", func(r *model.DistrictRecord) **float64 { return &r.FootMale }},
	{"foot_female", func(r *model.DistrictRecord) **float64 { return &r.FootFemale }},
	{"foot_age_10", func(r *model.DistrictRecord) **float64 { return &r.FootAge10 }},
	{"foot_age_20", func(r *model.DistrictRecord) **float64 { return &r.FootAge20 }},
	{"foot_age_30", func(r *model.DistrictRecord) **float64 { return &r.FootAge30 }},
	{"foot_age_40", func(r *model.DistrictRecord) **float64 { return &r.FootAge40 }},
	{"foot_age_50", func(r *model.DistrictRecord) **float64 { return &r.FootAge50 }},
	{"foot_age_60", func(r *model.DistrictRecord) **float64 { return &r.FootAge60 }},
	{"foot_hour_00_06", func(r *model.DistrictRecord) **float64 { return &r.FootHour0006 }},
	{"foot_hour_06_11", func(r *model.DistrictRecord) **float64 { return &r.FootHour0611 }},
	{"foot_hour_11_14", func(r *model.DistrictRecord) **float64 { return &r.FootHour1114 }},
	{"foot_hour_14_17", func(r *model.DistrictRecord) **float64 { return &r.FootHour1417 }},
	{"foot_hour_17_21", func(r *model.DistrictRecord) **float64 { return &r.FootHour1721 }},
	{"foot_hour_21_24", func(r *model.DistrictRecord) **float64 { return &r.FootHour2124 }},
	{"foot_mon", func(r *model.DistrictRecord) **float64 { return &r.FootMon }},
	{"foot_tue", func(r *model.DistrictRecord) **float64 { return &r.FootTue }},
	{"foot_wed", func(r *model.DistrictRecord) **float64 { return &r.FootWed }},
	{"foot_thu", func(r *model.DistrictRecord) **float64 { return &r.FootThu }},
	{"foot_fri", func(r *model.DistrictRecord) **float64 { return &r.FootFri }},
	{"foot_sat", func(r *model.DistrictRecord) **float64 { return &r.FootSat }},
	{"foot_sun", func(r *model.DistrictRecord) **float64 { return &r.FootSun }},
	{"residents", func(r *model.DistrictRecord) **float64 { return &r.Residents }},
	{"workers", func(r *model.DistrictRecord) **float64 { return &r.Workers }},
	{"operating_months", func(r *model.DistrictRecord) **float64 { return &r.OperatingMonths }},
	{"city_operating_months", func(r *model.DistrictRecord) **float64 { return &r.CityOperatingMonths }},
	{"closure_months", func(r *model.DistrictRecord) **float64 { return &r.ClosureMonths }},
	{"city_closure_months", func(r *model.DistrictRecord) **float64 { return &r.CityClosureMonths }},
	{"sales_mon", func(r *model.DistrictRecord) **float64 { return &r.SalesMon }},
	{"sales_tue", func(r *model.DistrictRecord) **float64 { return &r.SalesTue }},
	{"sales_wed", func(r *model.DistrictRecord) **float64 { return &r.SalesWed }},
	{"sales_thu", func(r *model.DistrictRecord) **float64 { return &r.SalesThu }},
	{"sales_fri", func(r *model.DistrictRecord) **float64 { return &r.SalesFri }},
	{"sales_sat", func(r *model.DistrictRecord) **float64 { return &r.SalesSat }},
	{"sales_sun", func(r *model.DistrictRecord) **float64 { return &r.SalesSun }},
	{"sales_hour_00_06", func(r *model.DistrictRecord) **float64 { return &r.SalesHour0006 }},
	{"sales_hour_06_11", func(r *model.DistrictRecord) **float64 { return &r.SalesHour0611 }},
	{"sales_hour_11_14", func(r *model.DistrictRecord) **float64 { return &r.SalesHour1114 }},
	{"sales_hour_14_17", func(r *model.DistrictRecord) **float64 { return &r.SalesHour1417 }},
	{"sales_hour_17_21", func(r *model.DistrictRecord) **float64 { return &r.SalesHour1721 }},
	{"sales_hour_21_24", func(r *model.DistrictRecord) **float64 { return &r.SalesHour2124 }},
}

// Columns returns the SQL column order used by every SQL loader and importer.
func Columns() []string {
	cols := make([]string, 0, len(textColumns)+2+len(numColumns))
	for _, c := range textColumns {
		cols = append(cols, c.name)
	}
	cols = append(cols, "lat", "lon")
	for _, c := range numColumns {
		cols = append(cols, c.name)
	}
	return cols
}

// selectSQL builds the loader query. Text columns are coalesced so a NULL
// label scans as an empty string.
func selectSQL(table string) string {
	exprs := make([]string, 0, len(textColumns)+2+len(numColumns))
	for _, c := range textColumns {
		exprs = append(exprs, fmt.Sprintf("COALESCE(%s, '')", c.name))
	}
	exprs = append(exprs, "lat", "lon")
	for _, c := range numColumns {
		exprs = append(exprs, c.name)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), table)
}

// createSQL builds a CREATE TABLE statement; realType is the dialect's
// floating point type name.
func createSQL(table, realType string) string {
	defs := make([]string, 0, len(textColumns)+2+len(numColumns))
	for _, c := range textColumns {
		defs = append(defs, c.name+" TEXT")
	}
	defs = append(defs, "lat "+realType+" NOT NULL", "lon "+realType+" NOT NULL")
	for _, c := range numColumns {
		defs = append(defs, c.name+" "+realType)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table, strings.Join(defs, ",\n\t"))
}

// values flattens r in Columns order. Absent attributes are nil.
func values(r *model.DistrictRecord) []any {
	out := make([]any, 0, len(textColumns)+2+len(numColumns))
	for _, c := range textColumns {
		out = append(out, *c.ref(r))
	}
	out = append(out, r.Lat, r.Lon)
	for _, c := range numColumns {
		if p := *c.ref(r); p != nil {
			out = append(out, *p)
		} else {
			out = append(out, nil)
		}
	}
	return out
}

// scanner decodes one SQL row into a DistrictRecord.
type scanner struct {
	rec  model.DistrictRecord
	nums []sql.NullFloat64
	dest []any
}

func newScanner() *scanner {
	s := &scanner{nums: make([]sql.NullFloat64, len(numColumns))}
	s.dest = make([]any, 0, len(textColumns)+2+len(numColumns))
	for _, c := range textColumns {
		s.dest = append(s.dest, c.ref(&s.rec))
	}
	s.dest = append(s.dest, &s.rec.Lat, &s.rec.Lon)
	for i := range s.nums {
		s.dest = append(s.dest, &s.nums[i])
	}
	return s
}

// record returns a copy of the last scanned row with optional values set.
func (s *scanner) record() model.DistrictRecord {
	rec := s.rec
	for i, c := range numColumns {
		if s.nums[i].Valid {
			*c.ref(&rec) = model.Float(s.nums[i].Float64)
		} else {
			*c.ref(&rec) = nil
		}
	}
	return rec
}
