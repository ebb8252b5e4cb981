package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"loanscore/applicant"
	"loanscore/ml"
	"loanscore/monitoring"
	"loanscore/scoring"
)

type fakeScorer struct {
	schema      ml.Schema
	label       int
	probability float64
	err         error
	calls       int
	last        applicant.Record
}

func (f *fakeScorer) Score(ctx context.Context, rec applicant.Record) (scoring.Result, error) {
	f.calls++
	f.last = rec
	if f.err != nil {
		return scoring.Result{}, f.err
	}
	return scoring.Result{
		Prediction: ml.Prediction{Label: f.label, Probability: f.probability},
		Features:   f.schema.Encode(rec),
		Columns:    f.schema.Columns(),
	}, nil
}

func (f *fakeScorer) Schema() ml.Schema { return f.schema }

func newFakeScorer() *fakeScorer {
	return &fakeScorer{schema: ml.DefaultSchema(), probability: 0.125}
}

func newTestRouter(scorer Scorer) *http.ServeMux {
	return NewRouter(scorer, monitoring.NewMetricsCollector(), zap.NewNop())
}

func TestHealthHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(handleHealth)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"status":"ok"}`
	if rr.Body.String() != expected+"\n" && rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestSchemaHandler(t *testing.T) {
	mux := newTestRouter(newFakeScorer())

	req := httptest.NewRequest(http.MethodGet, "/api/schema", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var payload struct {
		Columns    []string                      `json:"columns"`
		Arity      int                           `json:"arity"`
		Interest   string                        `json:"interest_value"`
		Categories map[string][]applicant.Option `json:"categories"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.Arity != 17 || len(payload.Columns) != 17 {
		t.Fatalf("unexpected arity: %d columns=%d", payload.Arity, len(payload.Columns))
	}
	if payload.Columns[0] != "Age" || payload.Columns[16] != ml.InterestValueColumn {
		t.Fatalf("unexpected column order: %v", payload.Columns)
	}
	if payload.Interest != "raw" {
		t.Fatalf("unexpected interest convention: %s", payload.Interest)
	}
	purposes := payload.Categories["loan_purpose"]
	if len(purposes) != 5 || purposes[3].Label != "Home" || purposes[3].Code != 3 {
		t.Fatalf("unexpected loan purposes: %+v", purposes)
	}
}

func TestMetricsHandler(t *testing.T) {
	metrics := monitoring.NewMetricsCollector()
	metrics.IncrCounter(scoring.MetricPredictions, 3)
	metrics.Observe(scoring.MetricLatency, 1.5)
	mux := NewRouter(newFakeScorer(), metrics, zap.NewNop())

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if !strings.Contains(w.Body.String(), scoring.MetricPredictions) {
			t.Fatalf("metrics snapshot missing counter: %s", w.Body.String())
		}
	})

	t.Run("prometheus", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/metrics?format=prometheus", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
			t.Fatalf("unexpected content type: %s", w.Header().Get("Content-Type"))
		}
		if !strings.Contains(w.Body.String(), scoring.MetricPredictions+" 3") {
			t.Fatalf("prometheus output missing counter: %s", w.Body.String())
		}
	})
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown category", fmt.Errorf("%w: education %q", applicant.ErrUnknownCategory, "x"), http.StatusBadRequest},
		{"out of range", fmt.Errorf("%w: age 12", applicant.ErrOutOfRange), http.StatusBadRequest},
		{"schema mismatch", fmt.Errorf("%w: want 17", ml.ErrSchemaMismatch), http.StatusUnprocessableEntity},
		{"body too large", fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 10}), http.StatusRequestEntityTooLarge},
		{"model failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
