package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitesales/internal/model"
	"github.com/sells-group/sitesales/internal/predict"
)

type fakePredictor struct {
	fn  func(req model.PredictRequest) (*model.Prediction, error)
	got model.PredictRequest
	id  string
}

func (f *fakePredictor) PredictRequest(_ context.Context, req model.PredictRequest, requestID string) (*model.Prediction, error) {
	f.got, f.id = req, requestID
	p, err := f.fn(req)
	if p != nil {
		p.RequestID = requestID
	}
	return p, err
}

func samplePrediction() *model.Prediction {
	return &model.Prediction{
		Lat: 37.54, Lon: 127.07, Category: "한식음식점",
		District:    model.District{Code: "3110001", Name: "건대입구역"},
		Competitors: 5, Confidence: model.ConfidenceGood,
		BaselineSales: 10_000_000, Sales: 8_000_000, PerStoreSales: 1_600_000,
		DayRatio: 1, HourRatio: 0.8,
		Transit: &model.Transit{Name: "건대입구", DistanceM: 120, Ridership: 95000},
		Tiers: []model.Tier{{
			Rank: 1, Sales: 9_000_000, Percent: 112.5, Tied: true, Size: 2,
			Members: []model.Candidate{
				{Lat: 37.541, Lon: 127.07, Sales: 9_000_000, DistanceM: 111},
				{Lat: 37.541, Lon: 127.071, Sales: 8_500_000, DistanceM: 140},
			},
		}},
	}
}

const body = `{"lat": 37.54, "lon": 127.07, "indsMclsCd": "I201", "radius": 300, "time_range": "6-14", "day_of_week": ["월", "화"]}`

func do(t *testing.T, h http.Handler, method, path, payload string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var eb errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eb))
	return eb
}

func TestHealth(t *testing.T) {
	h := NewServer(&fakePredictor{}, Options{}).Handler()
	rec := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestPredict_OK(t *testing.T) {
	fp := &fakePredictor{fn: func(model.PredictRequest) (*model.Prediction, error) { return samplePrediction(), nil }}
	h := NewServer(fp, Options{}).Handler()

	rec := do(t, h, http.MethodPost, "/api/predict", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, "I201", fp.got.CategoryCode)
	require.NotNil(t, fp.got.Radius)
	assert.Equal(t, 300.0, *fp.got.Radius)
	assert.Equal(t, []string{"월", "화"}, fp.got.DayOfWeek)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, fp.id, got["request_id"])
	assert.Equal(t, rec.Header().Get(requestIDHeader), fp.id)
	assert.Equal(t, 8_000_000.0, got["predicted_sales"])
	assert.Equal(t, "good confidence", got["confidence"])
	tiers := got["recommendations"].([]any)
	require.Len(t, tiers, 1)
	assert.Len(t, tiers[0].(map[string]any)["locations"], 2)
}

func TestPredict_ReusesInboundRequestID(t *testing.T) {
	fp := &fakePredictor{fn: func(model.PredictRequest) (*model.Prediction, error) { return samplePrediction(), nil }}
	h := NewServer(fp, Options{}).Handler()

	const id = "0b6c2a57-2a4e-4f57-a5a1-0f1d9a3a6b10"
	rec := do(t, h, http.MethodPost, "/api/predict", body, http.Header{requestIDHeader: {id}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, fp.id)

	rec = do(t, h, http.MethodPost, "/api/predict", body, http.Header{requestIDHeader: {"not-a-uuid"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "not-a-uuid", fp.id)
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		err     error
		status  int
		kind    string
	}{
		{"bad json", `{"lat":`, nil, http.StatusBadRequest, KindInvalidInput},
		{"invalid input", body, eris.Wrap(model.ErrInvalidInput, "radius must be >= 0"), http.StatusBadRequest, KindInvalidInput},
		{"no competition", body, eris.Wrapf(predict.ErrNoCompetitionData, "district A"), http.StatusBadRequest, KindNoCompetitionData},
		{"failure", body, eris.New("model exploded"), http.StatusInternalServerError, KindPredictionFailed},
		{"missing lat", `{"lon": 127.07, "indsMclsCd": "I201", "radius": 300, "time_range": "6-14", "day_of_week": ["월"]}`, nil, http.StatusBadRequest, KindInvalidInput},
		{"missing radius", `{"lat": 37.54, "lon": 127.07, "indsMclsCd": "I201", "time_range": "6-14", "day_of_week": ["월"]}`, nil, http.StatusBadRequest, KindInvalidInput},
	}
	categories := map[string]string{"I201": "한식음식점"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakePredictor{fn: func(req model.PredictRequest) (*model.Prediction, error) {
				if _, err := req.Query(categories); err != nil {
					return nil, err
				}
				return nil, tt.err
			}}
			rec := do(t, NewServer(fp, Options{}).Handler(), http.MethodPost, "/api/predict", tt.payload, nil)
			assert.Equal(t, tt.status, rec.Code)
			eb := decodeError(t, rec)
			assert.Equal(t, tt.kind, eb.Error)
			assert.NotEmpty(t, eb.Message)
			assert.Equal(t, rec.Header().Get(requestIDHeader), eb.RequestID)
		})
	}
}

func TestPredict_FailureHidesDetail(t *testing.T) {
	fp := &fakePredictor{fn: func(model.PredictRequest) (*model.Prediction, error) { return nil, eris.New("secret path /srv/models") }}
	rec := do(t, NewServer(fp, Options{}).Handler(), http.MethodPost, "/api/predict", body, nil)
	assert.NotContains(t, rec.Body.String(), "/srv/models")
}

func TestPredict_PanicRecovered(t *testing.T) {
	fp := &fakePredictor{fn: func(model.PredictRequest) (*model.Prediction, error) { panic("boom") }}
	rec := do(t, NewServer(fp, Options{}).Handler(), http.MethodPost, "/api/predict", body, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, KindPredictionFailed, decodeError(t, rec).Error)
}

func TestPredict_RateLimited(t *testing.T) {
	fp := &fakePredictor{fn: func(model.PredictRequest) (*model.Prediction, error) { return samplePrediction(), nil }}
	h := NewServer(fp, Options{RateLimit: 0.001, RateBurst: 1}).Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/predict", body, nil).Code)
	rec := do(t, h, http.MethodPost, "/api/predict", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, KindRateLimited, decodeError(t, rec).Error)

	// Health is outside the limiter.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", nil).Code)
}

func TestPredict_CORS(t *testing.T) {
	fp := &fakePredictor{fn: func(model.PredictRequest) (*model.Prediction, error) { return samplePrediction(), nil }}
	h := NewServer(fp, Options{AllowedOrigins: []string{"https://map.example.com"}}).Handler()

	rec := do(t, h, http.MethodPost, "/api/predict", body, http.Header{"Origin": {"https://map.example.com"}})
	assert.Equal(t, "https://map.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodPost, "/api/predict", body, http.Header{"Origin": {"https://evil.example.com"}})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPredictGeoJSON(t *testing.T) {
	fp := &fakePredictor{fn: func(model.PredictRequest) (*model.Prediction, error) { return samplePrediction(), nil }}
	rec := do(t, NewServer(fp, Options{}).Handler(), http.MethodPost, "/api/predict/geojson", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)

	q := fc.Features[0]
	assert.Equal(t, "Point", q.Geometry.Type)
	assert.Equal(t, []float64{127.07, 37.54}, q.Geometry.Coordinates)
	assert.Equal(t, "query", q.Properties["kind"])
	assert.Equal(t, "건대입구", q.Properties["transit"])

	assert.Equal(t, "recommendation", fc.Features[1].Properties["kind"])
	assert.Equal(t, 1.0, fc.Features[1].Properties["rank"])
}

func TestPredictGeoJSON_Error(t *testing.T) {
	fp := &fakePredictor{fn: func(model.PredictRequest) (*model.Prediction, error) {
		return nil, eris.Wrap(predict.ErrNoCompetitionData, "district A")
	}}
	rec := do(t, NewServer(fp, Options{}).Handler(), http.MethodPost, "/api/predict/geojson", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindNoCompetitionData, decodeError(t, rec).Error)
}
