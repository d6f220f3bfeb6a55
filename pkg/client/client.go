// Package client is a small HTTP client for the rainfall prediction API.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"rainfall-api/internal/models"
)

// Observation is a timestamp-variant observation.
type Observation struct {
	Timestamp       string  `json:"timestamp"`
	TemperatureC    float64 `json:"temperature_c"`
	HumidityPercent float64 `json:"humidity_percent"`
}

// CalendarObservation is a calendar-variant observation.
type CalendarObservation struct {
	DayOfYear int `json:"day_of_year"`
	Month     int `json:"month"`
	Weekday   int `json:"weekday"`
	Year      int `json:"year"`
}

type Health struct {
	Status        string `json:"status"`
	ModelLoaded   bool   `json:"model_loaded"`
	SchemaVersion string `json:"schema_version,omitempty"`
}

type Info struct {
	Message       string   `json:"message"`
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Variant       string   `json:"variant"`
	SchemaVersion string   `json:"schema_version"`
	Features      []string `json:"features"`
	ModelLoaded   bool     `json:"model_loaded"`
	Capabilities  struct {
		Probability   bool `json:"probability"`
		Precipitation bool `json:"precipitation"`
	} `json:"capabilities"`
}

type batchRequest struct {
	Observations []any `json:"observations"`
}

type batchResponse struct {
	Count       int                         `json:"count"`
	Predictions []models.PredictionResponse `json:"predictions"`
}

// APIError is returned for any non-2xx answer.
type APIError struct {
	Status   int
	Response models.ErrorResponse
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("rainfall-api: %d %s", e.Status, e.Response.Code)
	if e.Response.Error != "" {
		msg += ": " + e.Response.Error
	}
	if e.Response.Index != nil {
		msg += fmt.Sprintf(" (observation %d)", *e.Response.Index)
	}
	return msg
}

type Client struct {
	base string
	rest *resty.Client
}

func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second)
	}
	r.SetJSONMarshaler(json.Marshal)
	r.SetJSONUnmarshaler(json.Unmarshal)
	r.SetHeader("Content-Type", "application/json")
	return &Client{base: base, rest: r}
}

// Predict sends one observation, either an Observation, a CalendarObservation
// or any value that marshals to the accepted JSON object.
func (c *Client) Predict(ctx context.Context, obs any) (models.PredictionResponse, error) {
	var out models.PredictionResponse
	err := c.do(ctx, "POST", "/predict", obs, &out)
	return out, err
}

// PredictBatch sends observations in one request; results keep their order.
func (c *Client) PredictBatch(ctx context.Context, obs []any) ([]models.PredictionResponse, error) {
	var out batchResponse
	if err := c.do(ctx, "POST", "/predict-batch", batchRequest{Observations: obs}, &out); err != nil {
		return nil, err
	}
	return out.Predictions, nil
}

// Health returns the model status. A 503 answer is not an error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&out).
		Get(c.base + "/health")
	if err != nil {
		return out, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 503 {
		return out, &APIError{Status: resp.StatusCode()}
	}
	return out, nil
}

func (c *Client) Info(ctx context.Context) (Info, error) {
	var out Info
	err := c.do(ctx, "GET", "/", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	apiErr := &APIError{}

	req := c.rest.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&apiErr.Response)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, c.base+path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	return nil
}
