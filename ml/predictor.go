package ml

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const DefaultThreshold = 0.5

// Prediction is the classifier verdict for one applicant. Label 1 means
// predicted default.
type Prediction struct {
	Label       int     `json:"label"`
	Probability float64 `json:"probability"`
}

func (p Prediction) Default() bool { return p.Label == 1 }

// Predictor owns the loaded artifact for the lifetime of the process. It is
// read-only after construction.
type Predictor struct {
	model     Model
	threshold float64
	cache     PredictionCache
	logger    *zap.Logger
}

type PredictorOption func(*Predictor)

func WithThreshold(threshold float64) PredictorOption {
	return func(p *Predictor) {
		if threshold > 0 && threshold < 1 {
			p.threshold = threshold
		}
	}
}

func WithCache(cache PredictionCache) PredictorOption {
	return func(p *Predictor) { p.cache = cache }
}

func WithLogger(logger *zap.Logger) PredictorOption {
	return func(p *Predictor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPredictor(model Model, opts ...PredictorOption) *Predictor {
	p := &Predictor{
		model:     model,
		threshold: DefaultThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadPredictor loads the artifact at path and wraps it.
func LoadPredictor(modelType, path string, opts ...PredictorOption) (*Predictor, error) {
	model, err := LoadModel(modelType, path)
	if err != nil {
		return nil, err
	}
	return NewPredictor(model, opts...), nil
}

func (p *Predictor) Arity() int { return p.model.NumFeatures() }

func (p *Predictor) FeatureNames() []string { return p.model.FeatureNames() }

func (p *Predictor) Digest() string { return p.model.Digest() }

func (p *Predictor) Threshold() float64 { return p.threshold }

// Predict scores one feature vector. A vector of the wrong length fails with
// ErrSchemaMismatch; nothing is guessed.
func (p *Predictor) Predict(ctx context.Context, features []float64) (Prediction, error) {
	if len(features) != p.model.NumFeatures() {
		return Prediction{}, fmt.Errorf("%w: got %d features, model expects %d", ErrSchemaMismatch, len(features), p.model.NumFeatures())
	}

	var key string
	if p.cache != nil {
		key = p.cacheKey(features)
		if cached, ok := p.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	proba, err := p.model.Probability(features)
	if err != nil {
		return Prediction{}, err
	}
	proba = math.Min(1, math.Max(0, proba))
	prediction := Prediction{Probability: proba}
	if proba >= p.threshold {
		prediction.Label = 1
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, prediction); err != nil {
			p.logger.Warn("prediction cache write failed", zap.Error(err))
		}
	}
	return prediction, nil
}

// cacheKey is exact on the float bits, so only identical vectors share an
// entry. The artifact digest keeps entries from different models apart.
func (p *Predictor) cacheKey(features []float64) string {
	var b strings.Builder
	digest := p.model.Digest()
	if len(digest) > 16 {
		digest = digest[:16]
	}
	b.WriteString(digest)
	b.WriteByte('/')
	b.WriteString(strconv.FormatFloat(p.threshold, 'g', -1, 64))
	for _, v := range features {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
	}
	return b.String()
}
