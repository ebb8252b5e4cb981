package ml

import (
	"context"
	"errors"
)

var (
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrInvalidArtifact  = errors.New("invalid model artifact")
	ErrUnsupportedModel = errors.New("unsupported model type")
	ErrSchemaMismatch   = errors.New("feature schema mismatch")
)

// Model is a loaded binary classifier. Implementations are immutable after
// Load and safe for concurrent use.
type Model interface {
	// Probability returns the estimated probability of class 1.
	Probability(features []float64) (float64, error)
	NumFeatures() int
	// FeatureNames returns the column names embedded in the artifact, or nil
	// when the artifact does not carry them.
	FeatureNames() []string
	// Digest identifies the artifact contents.
	Digest() string
}

// PredictionCache memoizes predictions by feature vector.
type PredictionCache interface {
	Get(ctx context.Context, key string) (Prediction, bool)
	Set(ctx context.Context, key string, p Prediction) error
}
