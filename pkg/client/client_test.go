package client_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "rainfall-api/internal/controllers/http/v1"
	"rainfall-api/internal/features"
	"rainfall-api/internal/inference"
	"rainfall-api/internal/models"
	"rainfall-api/internal/services/prediction"
	"rainfall-api/pkg/client"
	"rainfall-api/pkg/httpserver"
	"rainfall-api/pkg/observe"
)

func newServer(t *testing.T, engine *inference.Engine) *client.Client {
	t.Helper()

	l := observe.NewZapLogger("test-app", io.Discard)
	svc := prediction.NewPredictionService(engine, features.TimestampSchemaV1,
		prediction.Options{MaxBatchSize: 5, StrictRanges: true}, nil, l)

	app := httpserver.InitFiberServer(httpserver.Options{AppName: "test-app", Ready: svc.Ready})
	v1.NewRouter(app, svc, nil, v1.AppInfo{Name: "rainfall-api", Version: "1.0.0"}, l)

	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)

	return client.New(srv.URL, 2*time.Second)
}

// Rain above 70% humidity.
func humidityEngine() *inference.Engine {
	return inference.NewEngine(&inference.Model{
		Schema:     features.TimestampSchemaV1,
		Classifier: inference.NewLogisticClassifier([]float64{0, 0, 0, 0, 0, 1, 0}, -70, 0.5),
	}, nil)
}

func TestClient_Predict(t *testing.T) {
	c := newServer(t, humidityEngine())

	out, err := c.Predict(context.Background(), client.Observation{
		Timestamp:       "2023-05-09 14:30",
		TemperatureC:    25.5,
		HumidityPercent: 80,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LabelRain, out.Prediction)
	assert.True(t, out.WillRain)
	require.NotNil(t, out.RainProbability)
}

func TestClient_PredictValidationError(t *testing.T) {
	c := newServer(t, humidityEngine())

	_, err := c.Predict(context.Background(), map[string]any{
		"timestamp":     "2023-05-09 14:30",
		"temperature_c": 25.5,
	})
	require.Error(t, err)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, models.ErrCodeMissingField, apiErr.Response.Code)
	assert.Equal(t, "humidity_percent", apiErr.Response.Field)
}

func TestClient_PredictBatch(t *testing.T) {
	c := newServer(t, humidityEngine())

	out, err := c.PredictBatch(context.Background(), []any{
		client.Observation{Timestamp: "2023-05-09 14:30", TemperatureC: 25, HumidityPercent: 95},
		client.Observation{Timestamp: "2023-05-09 15:30", TemperatureC: 25, HumidityPercent: 5},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].WillRain)
	assert.False(t, out[1].WillRain)

	_, err = c.PredictBatch(context.Background(), []any{
		client.Observation{Timestamp: "2023-05-09 14:30", TemperatureC: 25, HumidityPercent: 95},
		client.Observation{Timestamp: "09/05/2023", TemperatureC: 25, HumidityPercent: 5},
	})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, models.ErrCodeInvalidTimestamp, apiErr.Response.Code)
	require.NotNil(t, apiErr.Response.Index)
	assert.Equal(t, 1, *apiErr.Response.Index)
}

func TestClient_HealthAndInfo(t *testing.T) {
	c := newServer(t, humidityEngine())

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.ModelLoaded)
	assert.Equal(t, "timestamp/v1", h.SchemaVersion)

	info, err := c.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rainfall-api", info.Name)
	assert.Equal(t, "timestamp", info.Variant)
	assert.True(t, info.Capabilities.Probability)
	assert.False(t, info.Capabilities.Precipitation)
}

func TestClient_Unavailable(t *testing.T) {
	c := newServer(t, inference.Unavailable(errors.New("no artifact"), nil))

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.False(t, h.ModelLoaded)
	assert.Equal(t, "unavailable", h.Status)

	_, err = c.Predict(context.Background(), client.Observation{Timestamp: "2023-05-09 14:30", TemperatureC: 25, HumidityPercent: 80})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.Status)
	assert.Equal(t, models.ErrCodeModelUnavailable, apiErr.Response.Code)
}
