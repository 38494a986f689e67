package model

import (
	"math"
	"time"
)

// DistrictRecord is one row of the historical commercial-district dataset.
// A row is keyed by (period, district, category). Every numeric attribute is
// optional; nil means the source had no observation for it.
type DistrictRecord struct {
	Period          string  `csv:"기준_년분기_코드" json:"period"`
	DistrictCode    string  `csv:"상권_코드" json:"district_code"`
	DistrictName    string  `csv:"상권_코드_명" json:"district_name"`
	Lat             float64 `csv:"위도" json:"lat"`
	Lon             float64 `csv:"경도" json:"lon"`
	Category        string  `csv:"서비스_업종_코드_명" json:"category"`
	ChangeIndicator string  `csv:"상권_변화_지표_명" json:"change_indicator"`

	Competitors300m *float64 `csv:"300m내_경쟁_업종_수" json:"competitors_300m"`
	MonthlySales    *float64 `csv:"당월_매출_금액" json:"monthly_sales"`

	FootTotal  *float64 `csv:"총_유동인구_수" json:"foot_total"`
	FootMale   *float64 `csv:"남성_유동인구_수" json:"foot_male"`
	FootFemale *float64 `csv:"여성_유동인구_수" json:"foot_female"`

	FootAge10 *float64 `csv:"연령대_10_유동인구_수" json:"foot_age_10"`
	FootAge20 *float64 `csv:"연령대_20_유동인구_수" json:"foot_age_20"`
	FootAge30 *float64 `csv:"연령대_30_유동인구_수" json:"foot_age_30"`
	FootAge40 *float64 `csv:"연령대_40_유동인구_수" json:"foot_age_40"`
	FootAge50 *float64 `csv:"연령대_50_유동인구_수" json:"foot_age_50"`
	FootAge60 *float64 `csv:"연령대_60_이상_유동인구_수" json:"foot_age_60"`

	FootHour0006 *float64 `csv:"시간대_00_06_유동인구_수" json:"foot_hour_00_06"`
	FootHour0611 *float64 `csv:"시간대_06_11_유동인구_수" json:"foot_hour_06_11"`
	FootHour1114 *float64 `csv:"시간대_11_14_유동인구_수" json:"foot_hour_11_14"`
	FootHour1417 *float64 `csv:"시간대_14_17_유동인구_수" json:"foot_hour_14_17"`
	FootHour1721 *float64 `csv:"시간대_17_21_유동인구_수" json:"foot_hour_17_21"`
	FootHour2124 *float64 `csv:"시간대_21_24_유동인구_수" json:"foot_hour_21_24"`

	FootMon *float64 `csv:"월요일_유동인구_수" json:"foot_mon"`
	FootTue *float64 `csv:"화요일_유동인구_수" json:"foot_tue"`
	FootWed *float64 `csv:"수요일_유동인구_수" json:"foot_wed"`
	FootThu *float64 `csv:"목요일_유동인구_수" json:"foot_thu"`
	FootFri *float64 `csv:"금요일_유동인구_수" json:"foot_fri"`
	FootSat *float64 `csv:"토요일_유동인구_수" json:"foot_sat"`
	FootSun *float64 `csv:"일요일_유동인구_수" json:"foot_sun"`

	Residents *float64 `csv:"총_상주인구_수" json:"residents"`
	Workers   *float64 `csv:"총_직장_인구_수" json:"workers"`

	OperatingMonths     *float64 `csv:"운영_영업_개월_평균" json:"operating_months"`
	CityOperatingMonths *float64 `csv:"서울_운영_영업_개월_평균" json:"city_operating_months"`
	ClosureMonths       *float64 `csv:"폐업_영업_개월_평균" json:"closure_months"`
	CityClosureMonths   *float64 `csv:"서울_폐업_영업_개월_평균" json:"city_closure_months"`

	SalesMon *float64 `csv:"월요일_매출_금액" json:"sales_mon"`
	SalesTue *float64 `csv:"화요일_매출_금액" json:"sales_tue"`
	SalesWed *float64 `csv:"수요일_매출_금액" json:"sales_wed"`
	SalesThu *float64 `csv:"목요일_매출_금액" json:"sales_thu"`
	SalesFri *float64 `csv:"금요일_매출_금액" json:"sales_fri"`
	SalesSat *float64 `csv:"토요일_매출_금액" json:"sales_sat"`
	SalesSun *float64 `csv:"일요일_매출_금액" json:"sales_sun"`

	SalesHour0006 *float64 `csv:"시간대_00_06_매출_금액" json:"sales_hour_00_06"`
	SalesHour0611 *float64 `csv:"시간대_06_11_매출_금액" json:"sales_hour_06_11"`
	SalesHour1114 *float64 `csv:"시간대_11_14_매출_금액" json:"sales_hour_11_14"`
	SalesHour1417 *float64 `csv:"시간대_14_17_매출_금액" json:"sales_hour_14_17"`
	SalesHour1721 *float64 `csv:"시간대_17_21_매출_금액" json:"sales_hour_17_21"`
	SalesHour2124 *float64 `csv:"시간대_21_24_매출_금액" json:"sales_hour_21_24"`
}

// HourBucket is one of the fixed, contiguous time-of-day partitions used by
// the dataset. End is exclusive.
type HourBucket struct {
	Key   string
	Start int
	End   int
}

// Len returns the bucket duration in hours.
func (b HourBucket) Len() int { return b.End - b.Start }

// HourBuckets partitions the day in dataset order.
var HourBuckets = []HourBucket{
	{Key: "00_06", Start: 0, End: 6},
	{Key: "06_11", Start: 6, End: 11},
	{Key: "11_14", Start: 11, End: 14},
	{Key: "14_17", Start: 14, End: 17},
	{Key: "17_21", Start: 17, End: 21},
	{Key: "21_24", Start: 21, End: 24},
}

// Weekdays lists days in dataset order (Monday first).
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// HasSales reports whether the row carries an observed monthly sales figure.
func (r *DistrictRecord) HasSales() bool {
	return r.MonthlySales != nil && !math.IsNaN(*r.MonthlySales)
}

// WeekdaySales returns the historical sales attributed to day d.
func (r *DistrictRecord) WeekdaySales(d time.Weekday) *float64 {
	switch d {
	case time.Monday:
		return r.SalesMon
	case time.Tuesday:
		return r.SalesTue
	case time.Wednesday:
		return r.SalesWed
	case time.Thursday:
		return r.SalesThu
	case time.Friday:
		return r.SalesFri
	case time.Saturday:
		return r.SalesSat
	default:
		return r.SalesSun
	}
}

// WeekdayFoot returns the foot traffic observed on day d.
func (r *DistrictRecord) WeekdayFoot(d time.Weekday) *float64 {
	switch d {
	case time.Monday:
		return r.FootMon
	case time.Tuesday:
		return r.FootTue
	case time.Wednesday:
		return r.FootWed
	case time.Thursday:
		return r.FootThu
	case time.Friday:
		return r.FootFri
	case time.Saturday:
		return r.FootSat
	default:
		return r.FootSun
	}
}

// HourSales returns the historical sales attributed to bucket key
// ("00_06", "06_11", ...). Unknown keys return nil.
func (r *DistrictRecord) HourSales(key string) *float64 {
	switch key {
	case "00_06":
		return r.SalesHour0006
	case "06_11":
		return r.SalesHour0611
	case "11_14":
		return r.SalesHour1114
	case "14_17":
		return r.SalesHour1417
	case "17_21":
		return r.SalesHour1721
	case "21_24":
		return r.SalesHour2124
	}
	return nil
}

// HourFoot returns the foot traffic observed in bucket key.
func (r *DistrictRecord) HourFoot(key string) *float64 {
	switch key {
	case "00_06":
		return r.FootHour0006
	case "06_11":
		return r.FootHour0611
	case "11_14":
		return r.FootHour1114
	case "14_17":
		return r.FootHour1417
	case "17_21":
		return r.FootHour1721
	case "21_24":
		return r.FootHour2124
	}
	return nil
}

// Value dereferences an optional attribute, treating nil and NaN as zero.
func Value(p *float64) float64 {
	if p == nil || math.IsNaN(*p) {
		return 0
	}
	return *p
}

// Float returns a pointer to v. Handy for building records in code.
func Float(v float64) *float64 { return &v }
