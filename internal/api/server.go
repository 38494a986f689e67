// Package api exposes the prediction pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/sitesales/internal/model"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Predictor answers validated prediction requests.
type Predictor interface {
	PredictRequest(ctx context.Context, req model.PredictRequest, requestID string) (*model.Prediction, error)
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	// RateLimit is requests per second across all clients; 0 disables
	// limiting.
	RateLimit float64
	RateBurst int
}

// Server routes HTTP requests to a Predictor.
type Server struct {
	predictor Predictor
	opts      Options
	limiter   *rate.Limiter
	started   time.Time
}

// NewServer returns a Server for p.
func NewServer(p Predictor, opts Options) *Server {
	s := &Server{predictor: p, opts: opts, started: time.Now()}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(logRequests)
	r.Use(recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		origins := s.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}))
		r.Use(s.rateLimit)

		r.Post("/predict", s.handlePredict)
		r.Post("/predict/geojson", s.handlePredictGeoJSON)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) (*model.Prediction, bool) {
	id := RequestIDFrom(r.Context())

	var req model.PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, id, badRequest(err))
		return nil, false
	}

	p, err := s.predictor.PredictRequest(r.Context(), req, id)
	if err != nil {
		writeError(w, id, err)
		return nil, false
	}
	return p, true
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	p, ok := s.predict(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePredictGeoJSON(w http.ResponseWriter, r *http.Request) {
	p, ok := s.predict(w, r)
	if !ok {
		return
	}
	fc := FeatureCollection(p)
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		zap.L().Warn("api: encode geojson", zap.Error(err))
	}
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, errorBody{
				Error:     KindRateLimited,
				Message:   "too many requests",
				RequestID: RequestIDFrom(r.Context()),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
