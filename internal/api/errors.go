package api

import (
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitesales/internal/model"
	"github.com/sells-group/sitesales/internal/predict"
)

// Error kinds reported in the "error" field.
const (
	KindInvalidInput      = "invalid_input"
	KindNoCompetitionData = "no_competition_data"
	KindPredictionFailed  = "prediction_failed"
	KindRateLimited       = "rate_limited"
)

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// classify maps err onto an HTTP status and error kind.
func classify(err error) (int, string) {
	switch {
	case eris.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, KindInvalidInput
	case eris.Is(err, predict.ErrNoCompetitionData):
		return http.StatusBadRequest, KindNoCompetitionData
	default:
		return http.StatusInternalServerError, KindPredictionFailed
	}
}

// badRequest marks a body decoding failure as invalid input.
func badRequest(err error) error {
	return eris.Wrapf(model.ErrInvalidInput, "decode body: %v", err)
}

func writeError(w http.ResponseWriter, requestID string, err error) {
	status, kind := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: prediction failed", zap.String("request_id", requestID), zap.Error(err))
		msg = "prediction failed"
	}
	writeJSON(w, status, errorBody{Error: kind, Message: msg, RequestID: requestID})
}
