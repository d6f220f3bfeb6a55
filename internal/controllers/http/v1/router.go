package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rainfall-api/internal/services/prediction"
	"rainfall-api/pkg/observe"
)

// AppInfo is echoed by the informational root route.
type AppInfo struct {
	Name    string
	Version string
	Env     string
}

type routes struct {
	service *prediction.PredictionService
	info    AppInfo
	l       *observe.Logger
}

func NewRouter(
	app *fiber.App,
	service *prediction.PredictionService,
	gatherer prometheus.Gatherer,
	info AppInfo,
	l *observe.Logger,
) {
	r := &routes{
		service: service,
		info:    info,
		l:       l,
	}

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	app.Get("/", r.handleRoot)
	app.Get("/health", r.handleHealth)
	app.Get("/schema", r.handleSchema)

	app.Post("/predict", r.handlePredict)
	app.Post("/predict_rain", r.handlePredict)
	app.Post("/predict-batch", r.handlePredictBatch)
}
