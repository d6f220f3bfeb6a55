// Package inference wraps the trained rain models behind explicit capabilities.
//
// A deployment holds one classifier and optionally a regressor. Both are loaded
// once at startup and read concurrently without locking; nothing on the
// inference path mutates them.
package inference

import "rainfall-api/internal/features"

// Classifier predicts a rain label (1) or no-rain label (0) per row.
type Classifier interface {
	Predict(rows []features.Vector) ([]int, error)
}

// ProbabilityEstimator is implemented by classifiers that can output
// [p(no_rain), p(rain)] per row.
type ProbabilityEstimator interface {
	PredictProba(rows []features.Vector) ([][2]float64, error)
}

// Regressor predicts log1p(precipitation_mm) per row.
type Regressor interface {
	Predict(rows []features.Vector) ([]float64, error)
}

// Model is the set of trained capabilities a deployment serves.
type Model struct {
	Schema     features.Schema
	Classifier Classifier
	Regressor  Regressor
}
