package dataset

import "github.com/sells-group/sitesales/internal/model"

func f(v float64) *float64 { return model.Float(v) }

// sampleRows returns two districts; "A" carries two periods of Korean
// restaurant data and one coffee row, "B" sits ~1.1 km north.
func sampleRows() []model.DistrictRecord {
	return []model.DistrictRecord{
		{
			Period: "20231", DistrictCode: "A", DistrictName: "건대입구역", Lat: 37.540, Lon: 127.070,
			Category: "한식음식점", ChangeIndicator: "LH",
			Competitors300m: f(5), MonthlySales: f(1000), FootTotal: f(200),
			SalesMon: f(1), SalesSun: f(2),
		},
		{
			Period: "20234", DistrictCode: "A", DistrictName: "건대입구역", Lat: 37.540, Lon: 127.070,
			Category: "한식음식점", ChangeIndicator: "HH",
			Competitors300m: f(7), FootTotal: f(220),
		},
		{
			Period: "20234", DistrictCode: "A", DistrictName: "건대입구역", Lat: 37.540, Lon: 127.070,
			Category: "커피-음료", ChangeIndicator: "HH",
			Competitors300m: f(0), MonthlySales: f(500),
		},
		{
			Period: "20234", DistrictCode: "B", DistrictName: "어린이대공원역", Lat: 37.550, Lon: 127.070,
			Category: "한식음식점", ChangeIndicator: "LL",
			Competitors300m: f(2), MonthlySales: f(300),
		},
	}
}
