package repositories

import (
	"context"
	"fmt"

	"rainfall-api/internal/features"
	"rainfall-api/internal/inference"
	"rainfall-api/pkg/observe"
)

// FileModelRepository loads a classifier and an optional regressor from
// artifact files on local disk.
type FileModelRepository struct {
	ClassifierPath string
	RegressorPath  string
	// Variant, when set, pins the input shape the artifacts must be trained on.
	Variant string
	l       *observe.Logger
}

func NewFileModelRepository(classifierPath, regressorPath string, l *observe.Logger) *FileModelRepository {
	return &FileModelRepository{
		ClassifierPath: classifierPath,
		RegressorPath:  regressorPath,
		l:              l,
	}
}

func (r *FileModelRepository) Name() string {
	return "file"
}

func (r *FileModelRepository) Load(ctx context.Context) (*inference.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clfArtifact, err := ReadArtifact(r.ClassifierPath)
	if err != nil {
		return nil, fmt.Errorf("classifier %s: %w", r.ClassifierPath, err)
	}
	schema, err := clfArtifact.Schema()
	if err != nil {
		return nil, fmt.Errorf("classifier %s: %w", r.ClassifierPath, err)
	}
	if r.Variant != "" && features.Variant(r.Variant) != schema.Variant {
		return nil, fmt.Errorf("classifier %s is trained on %s, deployment expects %s", r.ClassifierPath, schema.Variant, r.Variant)
	}
	classifier, err := clfArtifact.Classifier()
	if err != nil {
		return nil, err
	}

	model := &inference.Model{
		Schema:     schema,
		Classifier: classifier,
	}

	r.l.Info("loaded classifier artifact", map[string]any{
		"path":    r.ClassifierPath,
		"name":    clfArtifact.Name,
		"kind":    clfArtifact.Kind,
		"schema":  schema.Version,
		"trained": clfArtifact.TrainedAt,
	})

	if r.RegressorPath == "" {
		return model, nil
	}

	regArtifact, err := ReadArtifact(r.RegressorPath)
	if err != nil {
		return nil, fmt.Errorf("regressor %s: %w", r.RegressorPath, err)
	}
	regSchema, err := regArtifact.Schema()
	if err != nil {
		return nil, fmt.Errorf("regressor %s: %w", r.RegressorPath, err)
	}
	if !regSchema.Equal(schema) {
		return nil, fmt.Errorf("regressor schema %s does not match classifier schema %s", regSchema.Version, schema.Version)
	}
	regressor, err := regArtifact.Regressor()
	if err != nil {
		return nil, err
	}
	model.Regressor = regressor

	r.l.Info("loaded regressor artifact", map[string]any{
		"path":    r.RegressorPath,
		"name":    regArtifact.Name,
		"schema":  regSchema.Version,
		"trained": regArtifact.TrainedAt,
	})

	return model, nil
}
