package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"loanscore/applicant"
)

// predictResponse 预测结果
type predictResponse struct {
	Label       int       `json:"label"`
	Verdict     string    `json:"verdict"`
	Probability float64   `json:"probability"`
	Columns     []string  `json:"columns"`
	Features    []float64 `json:"features"`
}

func RegisterPredictHandlers(mux *http.ServeMux, h *handler) {
	mux.HandleFunc("POST /api/predict", h.handlePredict)
}

func (h *handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var input applicant.Input
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := input.Record()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.scorer.Score(r.Context(), rec)
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("prediction failed",
				zap.String("request_id", GetRequestID(r.Context())),
				zap.Error(err))
			writeError(w, status, "prediction failed")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Label:       result.Prediction.Label,
		Verdict:     result.Verdict(),
		Probability: result.Prediction.Probability,
		Columns:     result.Columns,
		Features:    result.Features,
	})
}
