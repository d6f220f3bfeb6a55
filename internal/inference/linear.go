package inference

import (
	"fmt"
	"math"

	"rainfall-api/internal/features"
)

type linear struct {
	Coefficients []float64
	Intercept    float64
}

func (l linear) margin(row features.Vector) (float64, error) {
	if len(row) != len(l.Coefficients) {
		return 0, fmt.Errorf("expected %d features, got %d", len(l.Coefficients), len(row))
	}

	m := l.Intercept
	for i, x := range row {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("feature %d is not finite", i)
		}
		m += l.Coefficients[i] * x
	}
	return m, nil
}

// LogisticClassifier is a binary logistic regression.
type LogisticClassifier struct {
	linear
	Threshold float64
}

func NewLogisticClassifier(coef []float64, intercept, threshold float64) *LogisticClassifier {
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	return &LogisticClassifier{
		linear:    linear{Coefficients: coef, Intercept: intercept},
		Threshold: threshold,
	}
}

func (c *LogisticClassifier) PredictProba(rows []features.Vector) ([][2]float64, error) {
	out := make([][2]float64, len(rows))
	for i, row := range rows {
		m, err := c.margin(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		p := sigmoid(m)
		out[i] = [2]float64{1 - p, p}
	}
	return out, nil
}

func (c *LogisticClassifier) Predict(rows []features.Vector) ([]int, error) {
	proba, err := c.PredictProba(rows)
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(proba))
	for i, p := range proba {
		if p[1] > c.Threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}

// MarginClassifier labels rows by the sign of a linear decision function.
// It has no calibrated probability output.
type MarginClassifier struct {
	linear
}

func NewMarginClassifier(coef []float64, intercept float64) *MarginClassifier {
	return &MarginClassifier{linear: linear{Coefficients: coef, Intercept: intercept}}
}

func (c *MarginClassifier) Predict(rows []features.Vector) ([]int, error) {
	labels := make([]int, len(rows))
	for i, row := range rows {
		m, err := c.margin(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if m > 0 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// LinearRegressor predicts in log1p space.
type LinearRegressor struct {
	linear
}

func NewLinearRegressor(coef []float64, intercept float64) *LinearRegressor {
	return &LinearRegressor{linear: linear{Coefficients: coef, Intercept: intercept}}
}

func (r *LinearRegressor) Predict(rows []features.Vector) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		m, err := r.margin(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
