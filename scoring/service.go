// Package scoring runs the single pass from an applicant record to a
// default verdict: validate, encode, predict.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"loanscore/applicant"
	"loanscore/ml"
	"loanscore/monitoring"
)

const (
	MetricPredictions = "predictions_total"
	MetricDefaults    = "predictions_default_total"
	MetricErrors      = "prediction_errors_total"
	MetricLatency     = "prediction_latency_ms"
)

// Result is what the result surfaces render.
type Result struct {
	Prediction ml.Prediction
	Features   []float64
	Columns    []string
}

func (r Result) Verdict() string {
	if r.Prediction.Default() {
		return "Default"
	}
	return "No Default"
}

// Service is shared by every request handler. All its fields are read-only
// after NewService returns.
type Service struct {
	schema    ml.Schema
	predictor *ml.Predictor
	metrics   *monitoring.MetricsCollector
	logger    *zap.Logger
}

type Option func(*Service)

func WithMetrics(metrics *monitoring.MetricsCollector) Option {
	return func(s *Service) { s.metrics = metrics }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService checks that the encoder schema agrees with the loaded artifact.
// Artifacts that carry column names are checked name by name, others by
// count only.
func NewService(schema ml.Schema, predictor *ml.Predictor, opts ...Option) (*Service, error) {
	if names := predictor.FeatureNames(); names != nil {
		if err := schema.Verify(names); err != nil {
			return nil, err
		}
	} else if predictor.Arity() != schema.Arity() {
		return nil, fmt.Errorf("%w: artifact expects %d features, encoder produces %d", ml.ErrSchemaMismatch, predictor.Arity(), schema.Arity())
	}

	s := &Service{
		schema:    schema,
		predictor: predictor,
		metrics:   monitoring.NewMetricsCollector(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.Describe(MetricPredictions, "Predictions served")
	s.metrics.Describe(MetricDefaults, "Predictions with a default verdict")
	s.metrics.Describe(MetricErrors, "Rejected prediction requests")
	return s, nil
}

func (s *Service) Schema() ml.Schema { return s.schema }

func (s *Service) Metrics() *monitoring.MetricsCollector { return s.metrics }

// Score validates the record, encodes it and asks the model for a verdict.
func (s *Service) Score(ctx context.Context, rec applicant.Record) (Result, error) {
	start := time.Now()

	if err := rec.Validate(); err != nil {
		s.metrics.IncrCounter(MetricErrors, 1)
		return Result{}, err
	}

	features := s.schema.Encode(rec)
	if err := checkFinite(s.schema.Columns(), features); err != nil {
		s.metrics.IncrCounter(MetricErrors, 1)
		return Result{}, err
	}
	prediction, err := s.predictor.Predict(ctx, features)
	if err != nil {
		s.metrics.IncrCounter(MetricErrors, 1)
		s.logger.Error("prediction failed", zap.Error(err))
		return Result{}, err
	}

	elapsed := time.Since(start)
	s.metrics.IncrCounter(MetricPredictions, 1)
	if prediction.Default() {
		s.metrics.IncrCounter(MetricDefaults, 1)
	}
	s.metrics.Observe(MetricLatency, float64(elapsed.Microseconds())/1000)
	s.logger.Debug("prediction served",
		zap.Int("label", prediction.Label),
		zap.Float64("probability", prediction.Probability),
		zap.Duration("elapsed", elapsed))

	return Result{
		Prediction: prediction,
		Features:   features,
		Columns:    s.schema.Columns(),
	}, nil
}

// checkFinite rejects vectors where a derived column overflowed, e.g. a huge
// loan amount times the interest rate.
func checkFinite(columns []string, features []float64) error {
	for i, v := range features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s overflows", applicant.ErrOutOfRange, columns[i])
		}
	}
	return nil
}
