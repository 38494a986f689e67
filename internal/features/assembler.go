// Package features turns a resolved district record into the ordered input
// vector a sales model was trained on.
package features

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/sitesales/internal/labels"
	"github.com/sells-group/sitesales/internal/model"
)

// ErrMissingFeature is returned when a model declares a feature the
// assembler cannot produce.
var ErrMissingFeature = eris.New("features: missing feature")

// Feature names.
const (
	FootTotal  = "foot_total"
	FootMale   = "foot_male"
	FootFemale = "foot_female"

	ServiceCategory = "service_category"
	ChangeIndicator = "change_indicator"
	Competitors     = "competitors_300m"

	MaleRatio            = "male_ratio"
	FemaleRatio          = "female_ratio"
	MeanAge              = "mean_age"
	FootToResidentRatio  = "foot_to_resident_ratio"
	FootToWorkerRatio    = "foot_to_worker_ratio"
	OperatingMonthsDelta = "operating_months_delta"
	ClosureMonthsDelta   = "closure_months_delta"
	CompetitorDensity    = "competitor_density"
	TransitDistance      = "transit_distance_m"
	TransitRidership     = "transit_ridership"
	TransitAccessibility = "transit_accessibility"
)

type rawFeature struct {
	name  string
	alias string // dataset header name
	ref   func(*model.DistrictRecord) *float64
}

// rawFeatures are copied from the district record; absent values impute 0.
var rawFeatures = []rawFeature{
	{FootTotal, "총_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootTotal }},
	{FootMale, "남성_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootMale }},
	{FootFemale, "여성_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootFemale }},
	{"foot_age_10", "연령대_10_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootAge10 }},
	{"foot_age_20", "연령대_20_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootAge20 }},
	{"foot_age_30", "연령대_30_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootAge30 }},
	{"foot_age_40", "연령대_40_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootAge40 }},
	{"foot_age_50", "연령대_50_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootAge50 }},
	{"foot_age_60", "연령대_60_이상_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootAge60 }},
	{"foot_hour_00_06", "시간대_00_06_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootHour0006 }},
	{"foot_hour_06_11", "시간대_06_11_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootHour0611 }},
	{"foot_hour_11_14", "시간대_11_14_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootHour1114 }},
	{"foot_hour_14_17", "시간대_14_17_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootHour1417 }},
	{"foot_hour_17_21", "시간대_17_21_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootHour1721 }},
	{"foot_hour_21_24", "시간대_21_24_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootHour2124 }},
	{"foot_mon", "월요일_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootMon }},
	{"foot_tue", "화요일_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootTue }},
	{"foot_wed", "수요일_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootWed }},
	{"foot_thu", "목요일_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootThu }},
	{"foot_fri", "금요일_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootFri }},
	{"foot_sat", "토요일_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootSat }},
	{"foot_sun", "일요일_유동인구_수", func(r *model.DistrictRecord) *float64 { return r.FootSun }},
}

// aliases maps dataset header names onto canonical feature names so models
// fit directly on the raw table can be served unchanged.
var aliases = func() map[string]string {
	m := map[string]string{
		"서비스_업종_코드_명":  ServiceCategory,
		"상권_변화_지표_명":   ChangeIndicator,
		"300m내_경쟁_업종_수": Competitors,
	}
	for _, f := range rawFeatures {
		m[f.alias] = f.name
	}
	return m
}()

// ageWeights are the representative ages of the six foot-traffic age bands.
var ageWeights = []float64{10, 20, 30, 40, 50, 65}

// Inputs is everything known about one resolved location.
type Inputs struct {
	District *model.DistrictRecord
	// Category is the service-category label, not the request code.
	Category    string
	Competitors int
	// TransitDistanceM and TransitRidership describe the nearest station;
	// NaN when no station data is loaded.
	TransitDistanceM float64
	TransitRidership float64
}

// Assembler builds feature vectors. Safe for concurrent use.
type Assembler struct {
	enc *labels.Encoder
}

// New returns an Assembler encoding categorical fields with enc.
func New(enc *labels.Encoder) *Assembler {
	return &Assembler{enc: enc}
}

// Build assembles every known feature for in and projects them onto names,
// the order the model declares.
func (a *Assembler) Build(in Inputs, names []string) (model.FeatureVector, error) {
	all, err := a.Raw(in)
	if err != nil {
		return model.FeatureVector{}, err
	}
	return Project(all, names)
}

// Raw computes every raw and derived feature for in.
func (a *Assembler) Raw(in Inputs) (map[string]float64, error) {
	if in.District == nil {
		return nil, eris.New("features: nil district")
	}
	r := in.District

	category, err := a.enc.Encode(labels.FieldServiceCategory, in.Category)
	if err != nil {
		return nil, eris.Wrap(err, "features: encode service category")
	}
	change, err := a.enc.Encode(labels.FieldChangeIndicator, r.ChangeIndicator)
	if err != nil {
		return nil, eris.Wrap(err, "features: encode change indicator")
	}

	out := make(map[string]float64, len(rawFeatures)+16)
	for _, f := range rawFeatures {
		out[f.name] = model.Value(f.ref(r))
	}
	out[ServiceCategory] = float64(category)
	out[ChangeIndicator] = float64(change)
	out[Competitors] = float64(in.Competitors)

	total := model.Value(r.FootTotal)
	out[MaleRatio] = model.Value(r.FootMale) / (total + 1)
	out[FemaleRatio] = model.Value(r.FootFemale) / (total + 1)

	var ageSum float64
	for i, band := range []*float64{r.FootAge10, r.FootAge20, r.FootAge30, r.FootAge40, r.FootAge50, r.FootAge60} {
		ageSum += ageWeights[i] * model.Value(band)
	}
	out[MeanAge] = ageSum / (total + 1)

	out[FootToResidentRatio] = total / (model.Value(r.Residents) + 1)
	out[FootToWorkerRatio] = total / (model.Value(r.Workers) + 1)
	out[OperatingMonthsDelta] = delta(r.OperatingMonths, r.CityOperatingMonths)
	out[ClosureMonthsDelta] = delta(r.ClosureMonths, r.CityClosureMonths)
	out[CompetitorDensity] = float64(in.Competitors) / (total + 1)

	out[TransitDistance] = in.TransitDistanceM
	out[TransitRidership] = in.TransitRidership
	if math.IsNaN(in.TransitDistanceM) || math.IsNaN(in.TransitRidership) {
		out[TransitAccessibility] = math.NaN()
	} else {
		out[TransitAccessibility] = in.TransitRidership / (in.TransitDistanceM + 1)
	}
	return out, nil
}

// Project orders all by names. Dataset header names are accepted in place
// of canonical names.
func Project(all map[string]float64, names []string) (model.FeatureVector, error) {
	v := model.FeatureVector{
		Names:  append([]string(nil), names...),
		Values: make([]float64, len(names)),
	}
	for i, name := range names {
		key := name
		if canonical, ok := aliases[name]; ok {
			key = canonical
		}
		x, ok := all[key]
		if !ok {
			return model.FeatureVector{}, eris.Wrapf(ErrMissingFeature, "%q", name)
		}
		v.Values[i] = x
	}
	return v, nil
}

// Validate reports the first of names the assembler can never produce.
func Validate(names []string) error {
	known := Names()
	set := make(map[string]struct{}, len(known))
	for _, n := range known {
		set[n] = struct{}{}
	}
	for _, name := range names {
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, ok := set[name]; !ok {
			return eris.Wrapf(ErrMissingFeature, "%q", name)
		}
	}
	return nil
}

// Names lists every canonical feature name.
func Names() []string {
	out := make([]string, 0, len(rawFeatures)+14)
	for _, f := range rawFeatures {
		out = append(out, f.name)
	}
	return append(out,
		ServiceCategory, ChangeIndicator, Competitors,
		MaleRatio, FemaleRatio, MeanAge,
		FootToResidentRatio, FootToWorkerRatio,
		OperatingMonthsDelta, ClosureMonthsDelta,
		CompetitorDensity,
		TransitDistance, TransitRidership, TransitAccessibility,
	)
}

func delta(district, city *float64) float64 {
	if district == nil || city == nil || math.IsNaN(*district) || math.IsNaN(*city) {
		return math.NaN()
	}
	return *district - *city
}
