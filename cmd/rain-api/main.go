package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rainfall-api/config"
	_ "rainfall-api/docs"
	v1 "rainfall-api/internal/controllers/http/v1"
	"rainfall-api/internal/features"
	"rainfall-api/internal/inference"
	"rainfall-api/internal/repositories"
	"rainfall-api/internal/services/prediction"
	"rainfall-api/pkg/httpserver"
	"rainfall-api/pkg/observe"
)

// @title Rainfall API
// @version 1.0.0
// @description Predicts whether it will rain, and optionally how much, from a timestamped temperature and humidity reading.

// @contact.name Rainfall API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @tag.name Prediction
// @tag.description Rain prediction from weather observations
// @tag.name Info
// @tag.description Service metadata and health
func main() {
	ctx, cancel := context.WithCancel(context.Background())

	cnf, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot load config:", err)
		os.Exit(1)
	}

	hook := observe.NewSentryHook(cnf.App.Env, cnf.App.Name, cnf.Sentry.Debug, cnf.Sentry.DSN)
	l := observe.NewZapLoggerWithOptions(cnf.App.Name, observe.LoggerOptions{
		AppEnv: cnf.App.Env,
		Level:  cnf.Log.Level,
		Format: cnf.Log.Format,
	}, os.Stdout, hook)
	hook.SetLogger(l)

	metrics := observe.NewMetrics()

	repo := repositories.InitModelRepository(cnf, l)

	var engine *inference.Engine
	model, err := repo.Load(ctx)
	if err != nil {
		// keep serving: health reports the failure and predictions answer 503
		l.Error(err, map[string]any{"repository": repo.Name()})
		engine = inference.Unavailable(err, metrics)
	} else {
		engine = inference.NewEngine(model, metrics)
	}
	metrics.SetModelLoaded(engine.Available())

	schema, err := engine.Schema()
	if err != nil {
		schema = features.TimestampSchemaV1
		if cnf.Model.Variant == string(features.VariantCalendar) {
			schema = features.CalendarSchemaV1
		}
	}

	service := prediction.NewPredictionService(engine, schema, prediction.Options{
		MaxBatchSize: cnf.Model.MaxBatchSize,
		StrictRanges: cnf.Validation.StrictRanges,
		EchoInput:    cnf.Response.EchoInput,
	}, metrics, l)

	app := httpserver.InitFiberServer(httpserver.Options{
		AppName:      cnf.App.Name,
		BodyLimit:    cnf.Server.BodyLimit,
		ReadTimeout:  time.Duration(cnf.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cnf.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cnf.Server.IdleTimeout) * time.Second,
		Ready:        service.Ready,
	})

	v1.NewRouter(
		app,
		service,
		metrics.Registry,
		v1.AppInfo{Name: cnf.App.Name, Version: cnf.App.Version, Env: cnf.App.Env},
		l,
	)

	go func() {
		if err := app.Listen(":" + cnf.Server.Port); err != nil {
			l.Fatal("cannot run the server", map[string]any{"err": err})
		}
	}()

	l.Info("application started successfully", map[string]any{
		"port":           cnf.Server.Port,
		"schema_version": schema.Version,
		"model_loaded":   engine.Available(),
	})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = app.ShutdownWithContext(shutdownCtx)
		hook.Flush()
		_ = l.Stop()
		cancel()
	}()

	select {
	case <-sigCh:
		fmt.Println("received shutdown signal")
	case <-ctx.Done():
		fmt.Println("context cancelled")
	}
}
