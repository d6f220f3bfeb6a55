// Package prediction orchestrates a request through validation, feature
// assembly and inference, and shapes the response of the deployment.
package prediction

import (
	"context"

	"github.com/pkg/errors"

	"rainfall-api/internal/features"
	"rainfall-api/internal/models"
	"rainfall-api/pkg/observe"
)

const (
	EndpointPredict = "predict"
	EndpointBatch   = "predict_batch"
)

// Engine is the inference capability the service drives.
type Engine interface {
	Available() bool
	SupportsProbability() bool
	SupportsRegression() bool
	Classify(v features.Vector) (bool, error)
	ClassifyBatch(vs []features.Vector) ([]bool, error)
	Probability(v features.Vector) (float64, error)
	ProbabilityBatch(vs []features.Vector) ([]float64, error)
	Regress(v features.Vector) (float64, error)
	RegressBatch(vs []features.Vector) ([]float64, error)
}

// MetricsInterface defines the metrics the service reports.
type MetricsInterface interface {
	PredictionsAdd(endpoint, outcome string, n int)
	RainPredictionsAdd(n int)
	RequestErrorsInc(code string)
	BatchSizeObserve(n int)
}

type Options struct {
	MaxBatchSize int
	StrictRanges bool
	EchoInput    bool
}

// PredictionService is the request orchestrator. It holds the only reference
// to the engine it was built with; there is no ambient model state.
type PredictionService struct {
	engine    Engine
	assembler *features.Assembler
	decoder   *decoder
	opts      Options
	metrics   MetricsInterface
	l         *observe.Logger
}

func NewPredictionService(engine Engine, schema features.Schema, opts Options, metrics MetricsInterface, l *observe.Logger) *PredictionService {
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 1000
	}
	return &PredictionService{
		engine:    engine,
		assembler: features.NewAssembler(schema),
		decoder:   newDecoder(schema.Variant, opts.StrictRanges),
		opts:      opts,
		metrics:   metrics,
		l:         l,
	}
}

// Schema is the feature layout requests are assembled into.
func (s *PredictionService) Schema() features.Schema { return s.assembler.Schema() }

// Style is the fixed response shape of this deployment.
func (s *PredictionService) Style() models.ResponseStyle {
	if s.engine.SupportsRegression() {
		return models.StyleCombined
	}
	return models.StyleClassification
}

// Ready reports whether predictions can be served.
func (s *PredictionService) Ready() bool { return s.engine.Available() }

// Predict serves one observation.
func (s *PredictionService) Predict(ctx context.Context, raw models.RawObservation) (models.PredictionResponse, error) {
	if err := ctx.Err(); err != nil {
		return models.PredictionResponse{}, err
	}
	if !s.engine.Available() {
		return models.PredictionResponse{}, s.reject(EndpointPredict, models.ErrModelUnavailable)
	}

	obs, err := s.decoder.decode(raw)
	if err != nil {
		return models.PredictionResponse{}, s.reject(EndpointPredict, err)
	}

	vec, err := s.assembler.Assemble(obs)
	if err != nil {
		return models.PredictionResponse{}, s.reject(EndpointPredict, err)
	}

	result, err := s.infer(vec)
	if err != nil {
		return models.PredictionResponse{}, s.reject(EndpointPredict, err)
	}

	s.record(EndpointPredict, []models.PredictionResult{result})
	s.l.Debug("prediction served", map[string]any{
		"will_rain":        result.WillRain,
		"precipitation_mm": result.PrecipitationMM,
	})

	return s.respond(result, obs, s.Style()), nil
}

func (s *PredictionService) infer(vec features.Vector) (models.PredictionResult, error) {
	var result models.PredictionResult

	rain, err := s.engine.Classify(vec)
	if err != nil {
		return result, err
	}
	result.WillRain = rain

	if s.engine.SupportsProbability() {
		p, err := s.engine.Probability(vec)
		if err != nil {
			return result, err
		}
		result.RainProbability = &p
	}

	// Regression is only meaningful for rain; dry observations report 0 mm.
	if rain && s.engine.SupportsRegression() {
		mm, err := s.engine.Regress(vec)
		if err != nil {
			return result, err
		}
		result.PrecipitationMM = mm
	}

	return result, nil
}

// PredictBatch serves many observations as one unit. Results align with the
// input by index. Any invalid item fails the whole batch, reported with the
// index of the first offending item.
func (s *PredictionService) PredictBatch(ctx context.Context, raws []models.RawObservation) ([]models.PredictionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.engine.Available() {
		return nil, s.reject(EndpointBatch, models.ErrModelUnavailable)
	}
	if len(raws) == 0 || len(raws) > s.opts.MaxBatchSize {
		return nil, s.reject(EndpointBatch, errors.Wrapf(models.ErrBatchSize, "got %d observations, accepted 1..%d", len(raws), s.opts.MaxBatchSize))
	}

	if s.metrics != nil {
		s.metrics.BatchSizeObserve(len(raws))
	}

	obs := make([]models.WeatherObservation, len(raws))
	for i, raw := range raws {
		o, err := s.decoder.decode(raw)
		if err != nil {
			return nil, s.reject(EndpointBatch, &models.ItemError{Index: i, Err: err})
		}
		obs[i] = o
	}

	vecs, err := s.assembler.AssembleBatch(obs)
	if err != nil {
		return nil, s.reject(EndpointBatch, err)
	}

	results, err := s.inferBatch(vecs)
	if err != nil {
		return nil, s.reject(EndpointBatch, err)
	}

	s.record(EndpointBatch, results)
	s.l.Debug("batch prediction served", map[string]any{"size": len(results)})

	style := s.Style()
	out := make([]models.PredictionResponse, len(results))
	for i, r := range results {
		out[i] = s.respond(r, obs[i], style)
	}
	return out, nil
}

func (s *PredictionService) inferBatch(vecs []features.Vector) ([]models.PredictionResult, error) {
	labels, err := s.engine.ClassifyBatch(vecs)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(vecs) {
		return nil, errors.Wrapf(models.ErrInference, "got %d labels for %d observations", len(labels), len(vecs))
	}

	results := make([]models.PredictionResult, len(vecs))
	for i, rain := range labels {
		results[i].WillRain = rain
	}

	if s.engine.SupportsProbability() {
		probs, err := s.engine.ProbabilityBatch(vecs)
		if err != nil {
			return nil, err
		}
		for i := range results {
			p := probs[i]
			results[i].RainProbability = &p
		}
	}

	if !s.engine.SupportsRegression() {
		return results, nil
	}

	var rainIdx []int
	var rainVecs []features.Vector
	for i, rain := range labels {
		if rain {
			rainIdx = append(rainIdx, i)
			rainVecs = append(rainVecs, vecs[i])
		}
	}
	if len(rainVecs) == 0 {
		return results, nil
	}

	amounts, err := s.engine.RegressBatch(rainVecs)
	if err != nil {
		return nil, err
	}
	for j, i := range rainIdx {
		results[i].PrecipitationMM = amounts[j]
	}

	return results, nil
}

func (s *PredictionService) respond(r models.PredictionResult, obs models.WeatherObservation, style models.ResponseStyle) models.PredictionResponse {
	resp := r.Response(style)
	if s.opts.EchoInput {
		resp.Input = s.decoder.echo(obs)
	}
	return resp
}

func (s *PredictionService) record(endpoint string, results []models.PredictionResult) {
	if s.metrics == nil {
		return
	}
	rain := 0
	for _, r := range results {
		if r.WillRain {
			rain++
		}
	}
	s.metrics.PredictionsAdd(endpoint, "ok", len(results))
	s.metrics.RainPredictionsAdd(rain)
}

func (s *PredictionService) reject(endpoint string, err error) error {
	code := models.Code(err)

	if s.metrics != nil {
		s.metrics.PredictionsAdd(endpoint, "rejected", 1)
		s.metrics.RequestErrorsInc(string(code))
	}

	fields := map[string]any{"endpoint": endpoint, "code": code}
	if code.HTTPStatus() >= 500 {
		s.l.Error(err, fields)
	} else {
		s.l.Warning(err.Error(), fields)
	}
	return err
}

// Capabilities describes what the loaded model can answer.
type Capabilities struct {
	Probability   bool `json:"probability"`
	Precipitation bool `json:"precipitation"`
}

func (s *PredictionService) Capabilities() Capabilities {
	return Capabilities{
		Probability:   s.engine.SupportsProbability(),
		Precipitation: s.engine.SupportsRegression(),
	}
}
