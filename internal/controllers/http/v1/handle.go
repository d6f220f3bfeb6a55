package http

import (
	"bytes"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/invopop/jsonschema"

	"rainfall-api/internal/features"
	"rainfall-api/internal/models"
	"rainfall-api/internal/services/prediction"
	"rainfall-api/pkg/httpserver"
)

// TimestampPredictRequest is the observation accepted by timestamp deployments.
type TimestampPredictRequest struct {
	Timestamp       string  `json:"timestamp" example:"2023-05-09 14:30" jsonschema:"description=Local time as YYYY-MM-DD HH:MM,pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2} [0-9]{2}:[0-9]{2}$"`
	TemperatureC    float64 `json:"temperature_c" example:"25.5" jsonschema:"description=Air temperature in degrees Celsius,minimum=-90,maximum=60"`
	HumidityPercent float64 `json:"humidity_percent" example:"80" jsonschema:"description=Relative humidity in percent,minimum=0,maximum=100"`
}

// CalendarPredictRequest is the observation accepted by calendar deployments.
type CalendarPredictRequest struct {
	DayOfYear int `json:"day_of_year" example:"129" jsonschema:"minimum=1,maximum=366"`
	Month     int `json:"month" example:"5" jsonschema:"minimum=1,maximum=12"`
	Weekday   int `json:"weekday" example:"1" jsonschema:"description=Monday is 0 and Sunday is 6,minimum=0,maximum=6"`
	Year      int `json:"year" example:"2023" jsonschema:"minimum=1,maximum=9999"`
}

// BatchPredictRequest wraps several observations. Items follow the variant of
// the deployment: TimestampPredictRequest or CalendarPredictRequest.
type BatchPredictRequest struct {
	Observations []TimestampPredictRequest `json:"observations"`
}

// BatchPredictResponse holds one prediction per observation, in request order.
type BatchPredictResponse struct {
	Count       int                         `json:"count" example:"2"`
	Predictions []models.PredictionResponse `json:"predictions"`
}

// InfoResponse is the static payload of the root route.
type InfoResponse struct {
	Message       string                  `json:"message" example:"Rain Predictor API is live"`
	Name          string                  `json:"name" example:"rainfall-api"`
	Version       string                  `json:"version" example:"1.0.0"`
	Variant       features.Variant        `json:"variant" example:"timestamp"`
	SchemaVersion string                  `json:"schema_version" example:"timestamp/v1"`
	Features      []string                `json:"features"`
	ModelLoaded   bool                    `json:"model_loaded" example:"true"`
	Capabilities  prediction.Capabilities `json:"capabilities"`
}

// HealthResponse reports whether the model loaded.
type HealthResponse struct {
	Status        string `json:"status" example:"ok"`
	ModelLoaded   bool   `json:"model_loaded" example:"true"`
	SchemaVersion string `json:"schema_version,omitempty" example:"timestamp/v1"`
}

// handleRoot godoc
// @Summary Service information
// @Tags Info
// @Produce json
// @Success 200 {object} InfoResponse
// @Router / [get]
func (r *routes) handleRoot(c *fiber.Ctx) error {
	schema := r.service.Schema()
	return c.JSON(InfoResponse{
		Message:       "Rain Predictor API is live",
		Name:          r.info.Name,
		Version:       r.info.Version,
		Variant:       schema.Variant,
		SchemaVersion: schema.Version,
		Features:      schema.Fields,
		ModelLoaded:   r.service.Ready(),
		Capabilities:  r.service.Capabilities(),
	})
}

// handleHealth godoc
// @Summary Liveness and model status
// @Tags Info
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse "Model failed to load"
// @Router /health [get]
func (r *routes) handleHealth(c *fiber.Ctx) error {
	if !r.service.Ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status:      "unavailable",
			ModelLoaded: false,
		})
	}
	return c.JSON(HealthResponse{
		Status:        "ok",
		ModelLoaded:   true,
		SchemaVersion: r.service.Schema().Version,
	})
}

// handleSchema godoc
// @Summary JSON Schema of the accepted observation
// @Tags Info
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /schema [get]
func (r *routes) handleSchema(c *fiber.Ctx) error {
	reflector := jsonschema.Reflector{DoNotReference: true}

	var target any = &TimestampPredictRequest{}
	if r.service.Schema().Variant == features.VariantCalendar {
		target = &CalendarPredictRequest{}
	}

	return c.JSON(reflector.Reflect(target))
}

// handlePredict godoc
// @Summary Predict rain for one observation
// @Description Derives calendar and season features from the observation and runs the trained model.
// @Description Classification deployments answer with prediction and rain_probability;
// @Description deployments with a regressor answer with will_rain and precipitation_mm.
// @Description Calendar deployments take day_of_year, month, weekday and year instead (see CalendarPredictRequest and GET /schema).
// @Tags Prediction
// @Accept json
// @Produce json
// @Param observation body TimestampPredictRequest true "Observation"
// @Success 200 {object} models.PredictionResponse
// @Failure 400 {object} models.ErrorResponse "Invalid observation"
// @Failure 503 {object} models.ErrorResponse "Model unavailable"
// @Router /predict [post]
//
//	curl -X POST http://localhost:8080/predict -d '{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":80}'
func (r *routes) handlePredict(c *fiber.Ctx) error {
	var raw models.RawObservation
	if err := json.Unmarshal(c.Body(), &raw); err != nil || raw == nil {
		return r.writeError(c, models.ErrMalformedBody)
	}

	resp, err := r.service.Predict(c.UserContext(), raw)
	if err != nil {
		return r.writeError(c, err)
	}

	return c.JSON(resp)
}

// handlePredictBatch godoc
// @Summary Predict rain for several observations
// @Description Accepts {"observations": [...]} or a bare array. The batch fails as a whole on the first invalid observation.
// @Description Items are TimestampPredictRequest objects, or CalendarPredictRequest objects on calendar deployments (see GET /schema).
// @Tags Prediction
// @Accept json
// @Produce json
// @Param batch body BatchPredictRequest true "Observations"
// @Success 200 {object} BatchPredictResponse
// @Failure 400 {object} models.ErrorResponse "Invalid observation or batch size"
// @Failure 503 {object} models.ErrorResponse "Model unavailable"
// @Router /predict-batch [post]
func (r *routes) handlePredictBatch(c *fiber.Ctx) error {
	raws, err := decodeBatch(c.Body())
	if err != nil {
		return r.writeError(c, err)
	}

	out, err := r.service.PredictBatch(c.UserContext(), raws)
	if err != nil {
		return r.writeError(c, err)
	}

	return c.JSON(BatchPredictResponse{
		Count:       len(out),
		Predictions: out,
	})
}

func decodeBatch(body []byte) ([]models.RawObservation, error) {
	var items []json.RawMessage

	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, models.ErrMalformedBody
		}
	} else {
		var envelope struct {
			Observations []json.RawMessage `json:"observations"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, models.ErrMalformedBody
		}
		if envelope.Observations == nil {
			return nil, &models.FieldError{Field: "observations", Err: models.ErrMissingField}
		}
		items = envelope.Observations
	}

	raws := make([]models.RawObservation, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &raws[i]); err != nil || raws[i] == nil {
			return nil, &models.ItemError{Index: i, Err: models.ErrMalformedBody}
		}
	}
	return raws, nil
}

func (r *routes) writeError(c *fiber.Ctx, err error) error {
	resp := models.NewErrorResponse(err)
	status := resp.Code.HTTPStatus()

	r.l.Debug("request rejected", map[string]any{
		"request_id": httpserver.RequestID(c),
		"path":       c.Path(),
		"status":     status,
		"code":       resp.Code,
	})

	if status >= fiber.StatusInternalServerError {
		if resp.Code != models.ErrCodeModelUnavailable {
			resp.Error = "Failed to run prediction"
		} else {
			resp.Error = "Model unavailable"
		}
	}

	return c.Status(status).JSON(resp)
}
