package repositories

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"rainfall-api/internal/features"
	"rainfall-api/internal/inference"
)

const (
	KindLogistic  = "logistic"
	KindLinearSVC = "linear_svc"
	KindLinear    = "linear"

	TargetLog1p = "log1p"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Artifact is the on-disk form of one trained linear model.
type Artifact struct {
	Name          string             `json:"name"`
	SchemaVersion string             `json:"schema_version"`
	FeatureNames  []string           `json:"feature_names"`
	Kind          string             `json:"kind"`
	Coefficients  []float64          `json:"coefficients"`
	Intercept     float64            `json:"intercept"`
	Threshold     float64            `json:"threshold,omitempty"`
	Target        string             `json:"target,omitempty"`
	TrainedAt     string             `json:"trained_at,omitempty"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
}

// ReadArtifact decodes an artifact from path, transparently gunzipping it.
func ReadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model artifact: %w", err)
	}
	defer f.Close()

	return DecodeArtifact(f)
}

func DecodeArtifact(r io.Reader) (*Artifact, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var src io.Reader = br
	if bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	var a Artifact
	if err := json.NewDecoder(src).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	return &a, nil
}

// Schema resolves the frozen feature schema the artifact was trained on.
func (a *Artifact) Schema() (features.Schema, error) {
	schema, err := features.LookupSchema(a.SchemaVersion, a.FeatureNames)
	if err != nil {
		return features.Schema{}, err
	}
	if len(a.Coefficients) != schema.Width() {
		return features.Schema{}, fmt.Errorf("artifact %q has %d coefficients for %d features", a.Name, len(a.Coefficients), schema.Width())
	}
	return schema, nil
}

// Classifier builds the classifier described by the artifact.
func (a *Artifact) Classifier() (inference.Classifier, error) {
	switch a.Kind {
	case KindLogistic:
		return inference.NewLogisticClassifier(a.Coefficients, a.Intercept, a.Threshold), nil
	case KindLinearSVC:
		return inference.NewMarginClassifier(a.Coefficients, a.Intercept), nil
	default:
		return nil, fmt.Errorf("artifact %q: kind %q is not a classifier", a.Name, a.Kind)
	}
}

// Regressor builds the log1p regressor described by the artifact.
func (a *Artifact) Regressor() (inference.Regressor, error) {
	if a.Kind != KindLinear {
		return nil, fmt.Errorf("artifact %q: kind %q is not a regressor", a.Name, a.Kind)
	}
	if a.Target != TargetLog1p {
		return nil, fmt.Errorf("artifact %q: regressor target must be %q, got %q", a.Name, TargetLog1p, a.Target)
	}
	return inference.NewLinearRegressor(a.Coefficients, a.Intercept), nil
}
