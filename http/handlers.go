package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"loanscore/applicant"
	"loanscore/ml"
	"loanscore/monitoring"
	"loanscore/scoring"
)

// Scorer 评分服务接口
type Scorer interface {
	Score(ctx context.Context, rec applicant.Record) (scoring.Result, error)
	Schema() ml.Schema
}

type handler struct {
	scorer  Scorer
	metrics *monitoring.MetricsCollector
	logger  *zap.Logger
}

func newHandler(scorer Scorer, metrics *monitoring.MetricsCollector, logger *zap.Logger) *handler {
	if metrics == nil {
		metrics = monitoring.NewMetricsCollector()
	}
	return &handler{scorer: scorer, metrics: metrics, logger: logger}
}

func RegisterHandlers(mux *http.ServeMux, h *handler) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/schema", h.handleSchema)
	mux.HandleFunc("GET /api/metrics", h.handleMetrics)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema := h.scorer.Schema()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"columns":        schema.Columns(),
		"arity":          schema.Arity(),
		"interest_value": schema.Interest().String(),
		"categories": map[string][]applicant.Option{
			"education":       applicant.EducationOptions(),
			"employment_type": applicant.EmploymentTypeOptions(),
			"marital_status":  applicant.MaritalStatusOptions(),
			"loan_purpose":    applicant.LoanPurposeOptions(),
		},
	})
}

func (h *handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "prometheus" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write([]byte(h.metrics.ExportPrometheus()))
		return
	}
	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

// errorStatus 将错误映射为HTTP状态码
func errorStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, applicant.ErrUnknownCategory), errors.Is(err, applicant.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, ml.ErrSchemaMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON 先序列化再写状态码, 序列化失败时返回500
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		payload = []byte(`{"error":"internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(payload, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
