package repositories

import (
	"context"

	"rainfall-api/config"
	"rainfall-api/internal/inference"
	"rainfall-api/pkg/observe"
)

// ModelRepository supplies the trained models a deployment serves.
type ModelRepository interface {
	Name() string
	Load(ctx context.Context) (*inference.Model, error)
}

func InitModelRepository(cfg *config.Config, l *observe.Logger) ModelRepository {
	return &FileModelRepository{
		ClassifierPath: cfg.Model.ClassifierPath,
		RegressorPath:  cfg.Model.RegressorPath,
		Variant:        cfg.Model.Variant,
		l:              l,
	}
}
