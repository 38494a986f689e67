package model

// Confidence is a data-sufficiency label, not a statistical interval.
type Confidence string

const (
	ConfidenceNotComputable Confidence = "not computable"
	ConfidenceLow           Confidence = "low confidence"
	ConfidenceGood          Confidence = "good confidence"
)

// Transit describes the station nearest to a point.
type Transit struct {
	Name      string  `json:"name"`
	DistanceM float64 `json:"distance_m"`
	Ridership float64 `json:"ridership"`
}

// District identifies a resolved commercial district.
type District struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	DistanceM float64 `json:"distance_m"`
}

// Prediction is the answer for the queried location plus its recommendations.
type Prediction struct {
	RequestID     string     `json:"request_id,omitempty"`
	Lat           float64    `json:"lat"`
	Lon           float64    `json:"lon"`
	Category      string     `json:"category"`
	District      District   `json:"district"`
	Competitors   int        `json:"competitors"`
	Confidence    Confidence `json:"confidence"`
	HasSalesData  bool       `json:"has_sales_data"`
	BaselineSales float64    `json:"baseline_sales"`
	DayRatio      float64    `json:"day_ratio"`
	HourRatio     float64    `json:"hour_ratio"`
	Sales         float64    `json:"predicted_sales"`
	PerStoreSales float64    `json:"per_store_sales"`
	Model         string     `json:"model"`
	Transit       *Transit   `json:"transit,omitempty"`
	Tiers         []Tier     `json:"recommendations"`
}

// Candidate is one surviving grid point of a recommendation sweep.
type Candidate struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	DistanceM float64  `json:"distance_m"`
	Sales     float64  `json:"predicted_sales"`
	Percent   float64  `json:"percent_of_base"`
	District  District `json:"district"`
	Transit   *Transit `json:"transit,omitempty"`
}

// Tier groups candidates whose sales lie within a fixed band of the leader.
type Tier struct {
	Rank    int         `json:"rank"`
	Sales   float64     `json:"total_sales"`
	Percent float64     `json:"percent_of_base"`
	Tied    bool        `json:"tied"`
	Size    int         `json:"size"`
	Members []Candidate `json:"locations"`
}
