package inference

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"rainfall-api/internal/features"
	"rainfall-api/internal/models"
)

// MetricsInterface defines the metrics the engine reports.
type MetricsInterface interface {
	InferenceLatencyObserve(op string, seconds float64)
	InferenceFailuresInc(op string)
}

// Engine serves classify/probability/regress over a loaded Model.
// An engine built with Unavailable fails every call with ErrModelUnavailable.
type Engine struct {
	model   *Model
	proba   ProbabilityEstimator
	loadErr error
	metrics MetricsInterface
}

// NewEngine resolves the capabilities of m once, at construction.
func NewEngine(m *Model, metrics MetricsInterface) *Engine {
	if m == nil || m.Classifier == nil {
		return Unavailable(errors.New("no classifier loaded"), metrics)
	}

	e := &Engine{model: m, metrics: metrics}
	if p, ok := m.Classifier.(ProbabilityEstimator); ok {
		e.proba = p
	}
	return e
}

// Unavailable returns an engine standing in for a model that failed to load.
func Unavailable(cause error, metrics MetricsInterface) *Engine {
	if cause == nil {
		cause = errors.New("model not loaded")
	}
	return &Engine{loadErr: cause, metrics: metrics}
}

// Available reports whether a model is loaded.
func (e *Engine) Available() bool { return e.loadErr == nil }

// LoadError is the cause recorded when the model failed to load.
func (e *Engine) LoadError() error { return e.loadErr }

// Schema is the feature layout of the loaded model.
func (e *Engine) Schema() (features.Schema, error) {
	if err := e.check(); err != nil {
		return features.Schema{}, err
	}
	return e.model.Schema, nil
}

func (e *Engine) SupportsProbability() bool { return e.Available() && e.proba != nil }

func (e *Engine) SupportsRegression() bool { return e.Available() && e.model.Regressor != nil }

func (e *Engine) check() error {
	if e.loadErr != nil {
		return errors.Wrap(models.ErrModelUnavailable, e.loadErr.Error())
	}
	return nil
}

// Classify predicts whether it will rain for one vector.
func (e *Engine) Classify(v features.Vector) (bool, error) {
	out, err := e.ClassifyBatch([]features.Vector{v})
	if err != nil {
		return false, err
	}
	return out[0], nil
}

// ClassifyBatch returns one label per vector, in input order.
func (e *Engine) ClassifyBatch(vs []features.Vector) ([]bool, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if len(vs) == 0 {
		return []bool{}, nil
	}

	defer e.observe("classify", time.Now())

	labels, err := e.model.Classifier.Predict(vs)
	if err != nil {
		return nil, e.fail("classify", err)
	}
	if len(labels) != len(vs) {
		return nil, e.fail("classify", errors.Errorf("classifier returned %d labels for %d rows", len(labels), len(vs)))
	}

	out := make([]bool, len(labels))
	for i, l := range labels {
		out[i] = l == 1
	}
	return out, nil
}

// Probability returns P(rain) for one vector.
func (e *Engine) Probability(v features.Vector) (float64, error) {
	out, err := e.ProbabilityBatch([]features.Vector{v})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// ProbabilityBatch returns P(rain) per vector, in input order.
func (e *Engine) ProbabilityBatch(vs []features.Vector) ([]float64, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if e.proba == nil {
		return nil, models.ErrProbabilityUnsupported
	}
	if len(vs) == 0 {
		return []float64{}, nil
	}

	defer e.observe("probability", time.Now())

	proba, err := e.proba.PredictProba(vs)
	if err != nil {
		return nil, e.fail("probability", err)
	}
	if len(proba) != len(vs) {
		return nil, e.fail("probability", errors.Errorf("classifier returned %d probabilities for %d rows", len(proba), len(vs)))
	}

	out := make([]float64, len(proba))
	for i, p := range proba {
		if !finite(p[1]) {
			return nil, e.fail("probability", errors.Errorf("row %d: probability %v is not finite", i, p[1]))
		}
		out[i] = clamp01(p[1])
	}
	return out, nil
}

// Regress estimates precipitation in mm for one vector. Callers only invoke it
// for vectors already classified as rain.
func (e *Engine) Regress(v features.Vector) (float64, error) {
	out, err := e.RegressBatch([]features.Vector{v})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// RegressBatch estimates precipitation per vector, in input order.
func (e *Engine) RegressBatch(vs []features.Vector) ([]float64, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	if e.model.Regressor == nil {
		return nil, models.ErrRegressionUnsupported
	}
	if len(vs) == 0 {
		return []float64{}, nil
	}

	defer e.observe("regress", time.Now())

	raw, err := e.model.Regressor.Predict(vs)
	if err != nil {
		return nil, e.fail("regress", err)
	}
	if len(raw) != len(vs) {
		return nil, e.fail("regress", errors.Errorf("regressor returned %d values for %d rows", len(raw), len(vs)))
	}

	out := make([]float64, len(raw))
	for i, y := range raw {
		mm := InverseLog1p(y)
		if !finite(mm) {
			return nil, e.fail("regress", errors.Errorf("row %d: log1p output %v overflows", i, y))
		}
		out[i] = mm
	}
	return out, nil
}

// InverseLog1p maps a log1p-space prediction back to millimetres, never negative.
func InverseLog1p(y float64) float64 {
	mm := math.Expm1(y)
	if mm < 0 || math.IsNaN(mm) {
		return 0
	}
	return mm
}

func (e *Engine) observe(op string, start time.Time) {
	if e.metrics != nil {
		e.metrics.InferenceLatencyObserve(op, time.Since(start).Seconds())
	}
}

func (e *Engine) fail(op string, err error) error {
	if e.metrics != nil {
		e.metrics.InferenceFailuresInc(op)
	}
	return errors.Wrapf(models.ErrInference, "%s: %v", op, err)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}
