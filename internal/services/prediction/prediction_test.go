package prediction_test

import (
	"context"
	"io"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainfall-api/internal/features"
	"rainfall-api/internal/models"
	"rainfall-api/internal/services/prediction"
	"rainfall-api/pkg/observe"
)

// MockEngine classifies by humidity (or month for calendar vectors) and records
// every vector it is asked to regress.
type MockEngine struct {
	available   bool
	probability bool
	regression  bool
	rainColumn  int
	rainAbove   float64

	classified []features.Vector
	regressed  []features.Vector
}

func (m *MockEngine) Available() bool           { return m.available }
func (m *MockEngine) SupportsProbability() bool { return m.available && m.probability }
func (m *MockEngine) SupportsRegression() bool  { return m.available && m.regression }

func (m *MockEngine) Classify(v features.Vector) (bool, error) {
	out, err := m.ClassifyBatch([]features.Vector{v})
	if err != nil {
		return false, err
	}
	return out[0], nil
}

func (m *MockEngine) ClassifyBatch(vs []features.Vector) ([]bool, error) {
	if !m.available {
		return nil, models.ErrModelUnavailable
	}
	m.classified = append(m.classified, vs...)
	out := make([]bool, len(vs))
	for i, v := range vs {
		out[i] = v[m.rainColumn] > m.rainAbove
	}
	return out, nil
}

func (m *MockEngine) Probability(v features.Vector) (float64, error) {
	out, err := m.ProbabilityBatch([]features.Vector{v})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

func (m *MockEngine) ProbabilityBatch(vs []features.Vector) ([]float64, error) {
	if !m.probability {
		return nil, models.ErrProbabilityUnsupported
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = v[m.rainColumn] / 100
	}
	return out, nil
}

func (m *MockEngine) Regress(v features.Vector) (float64, error) {
	out, err := m.RegressBatch([]features.Vector{v})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

func (m *MockEngine) RegressBatch(vs []features.Vector) ([]float64, error) {
	if !m.regression {
		return nil, models.ErrRegressionUnsupported
	}
	m.regressed = append(m.regressed, vs...)
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = v[m.rainColumn] - m.rainAbove
	}
	return out, nil
}

type MockMetrics struct {
	predictions map[string]int
	rain        int
	errors      map[string]int
	batches     []int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{predictions: map[string]int{}, errors: map[string]int{}}
}

func (m *MockMetrics) PredictionsAdd(endpoint, outcome string, n int) {
	m.predictions[endpoint+"/"+outcome] += n
}
func (m *MockMetrics) RainPredictionsAdd(n int)     { m.rain += n }
func (m *MockMetrics) RequestErrorsInc(code string) { m.errors[code]++ }
func (m *MockMetrics) BatchSizeObserve(n int)       { m.batches = append(m.batches, n) }

var humidityColumn = features.TimestampSchemaV1.Index(features.FieldHumidity)

func timestampEngine() *MockEngine {
	return &MockEngine{
		available:   true,
		probability: true,
		rainColumn:  humidityColumn,
		rainAbove:   70,
	}
}

func newService(engine *MockEngine, schema features.Schema, metrics *MockMetrics) *prediction.PredictionService {
	return prediction.NewPredictionService(
		engine,
		schema,
		prediction.Options{MaxBatchSize: 3, StrictRanges: true},
		metrics,
		observe.NewZapLogger("test-app", io.Discard),
	)
}

func raw(t *testing.T, body string) models.RawObservation {
	t.Helper()
	var r models.RawObservation
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	return r
}

func TestPredict_AssemblesExactFeatures(t *testing.T) {
	engine := timestampEngine()
	svc := newService(engine, features.TimestampSchemaV1, NewMockMetrics())

	resp, err := svc.Predict(context.Background(), raw(t, `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":80.0}`))
	require.NoError(t, err)

	require.Len(t, engine.classified, 1)
	assert.Equal(t, features.Vector{14, 1, 5, 9, 25.5, 80.0, 1}, engine.classified[0])

	assert.True(t, resp.WillRain)
	assert.Equal(t, models.LabelRain, resp.Prediction)
	require.NotNil(t, resp.RainProbability)
	assert.InDelta(t, 0.8, *resp.RainProbability, 1e-9)
	assert.Nil(t, resp.PrecipitationMM)
}

func TestPredict_AcceptsLegacyFieldNames(t *testing.T) {
	engine := timestampEngine()
	svc := newService(engine, features.TimestampSchemaV1, NewMockMetrics())

	resp, err := svc.Predict(context.Background(), raw(t, `{"datetime":"2023-01-15 03:00","temp":12,"humidity":40}`))
	require.NoError(t, err)

	assert.False(t, resp.WillRain)
	assert.Equal(t, models.LabelNoRain, resp.Prediction)
	assert.Equal(t, features.Vector{3, 6, 1, 15, 12, 40, 0}, engine.classified[0])
}

func TestPredict_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		err   error
		field string
	}{
		{"missing humidity", `{"timestamp":"2023-05-09 14:30","temperature_c":25.5}`, models.ErrMissingField, "humidity_percent"},
		{"null temperature", `{"timestamp":"2023-05-09 14:30","temperature_c":null,"humidity_percent":80}`, models.ErrMissingField, "temperature_c"},
		{"string temperature", `{"timestamp":"2023-05-09 14:30","temperature_c":"warm","humidity_percent":80}`, models.ErrTypeMismatch, "temperature_c"},
		{"numeric timestamp", `{"timestamp":20230509,"temperature_c":25.5,"humidity_percent":80}`, models.ErrTypeMismatch, "timestamp"},
		{"malformed timestamp", `{"timestamp":"2023-13-40 99:99","temperature_c":25.5,"humidity_percent":80}`, models.ErrInvalidTimestamp, "timestamp"},
		{"humidity above 100", `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":120}`, models.ErrOutOfRange, "humidity_percent"},
		{"temperature below -90", `{"timestamp":"2023-05-09 14:30","temperature_c":-100,"humidity_percent":50}`, models.ErrOutOfRange, "temperature_c"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := timestampEngine()
			metrics := NewMockMetrics()
			svc := newService(engine, features.TimestampSchemaV1, metrics)

			_, err := svc.Predict(context.Background(), raw(t, tc.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.err), err.Error())

			var fe *models.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tc.field, fe.Field)

			assert.Empty(t, engine.classified, "model must not be touched")
			assert.Equal(t, 1, metrics.errors[string(models.Code(err))])
		})
	}
}

func TestPredict_LooseRangesPassThrough(t *testing.T) {
	engine := timestampEngine()
	svc := prediction.NewPredictionService(engine, features.TimestampSchemaV1,
		prediction.Options{StrictRanges: false}, nil, observe.NewZapLogger("test-app", io.Discard))

	_, err := svc.Predict(context.Background(), raw(t, `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":140}`))
	assert.NoError(t, err)
}

func TestPredict_ModelUnavailable(t *testing.T) {
	engine := timestampEngine()
	engine.available = false
	svc := newService(engine, features.TimestampSchemaV1, NewMockMetrics())

	_, err := svc.Predict(context.Background(), raw(t, `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":80}`))
	assert.True(t, errors.Is(err, models.ErrModelUnavailable))
	assert.False(t, svc.Ready())

	_, err = svc.PredictBatch(context.Background(), []models.RawObservation{raw(t, `{}`)})
	assert.True(t, errors.Is(err, models.ErrModelUnavailable))
}

func TestPredict_ProbabilityOmittedWhenUnsupported(t *testing.T) {
	engine := timestampEngine()
	engine.probability = false
	svc := newService(engine, features.TimestampSchemaV1, NewMockMetrics())

	resp, err := svc.Predict(context.Background(), raw(t, `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":80}`))
	require.NoError(t, err)
	assert.Nil(t, resp.RainProbability)
	assert.True(t, resp.WillRain)
}

func TestPredict_RegressOnlyWhenRain(t *testing.T) {
	engine := timestampEngine()
	engine.regression = true
	svc := newService(engine, features.TimestampSchemaV1, NewMockMetrics())

	assert.Equal(t, models.StyleCombined, svc.Style())

	dry, err := svc.Predict(context.Background(), raw(t, `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":30}`))
	require.NoError(t, err)
	assert.False(t, dry.WillRain)
	require.NotNil(t, dry.PrecipitationMM)
	assert.Equal(t, 0.0, *dry.PrecipitationMM)
	assert.Empty(t, engine.regressed)
	assert.Empty(t, dry.Prediction)

	wet, err := svc.Predict(context.Background(), raw(t, `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":82.5}`))
	require.NoError(t, err)
	assert.True(t, wet.WillRain)
	require.NotNil(t, wet.PrecipitationMM)
	assert.InDelta(t, 12.5, *wet.PrecipitationMM, 1e-9)
	assert.Len(t, engine.regressed, 1)
}

func TestPredict_CancelledContext(t *testing.T) {
	svc := newService(timestampEngine(), features.TimestampSchemaV1, NewMockMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Predict(ctx, raw(t, `{}`))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictBatch_PreservesOrder(t *testing.T) {
	engine := timestampEngine()
	engine.regression = true
	metrics := NewMockMetrics()
	svc := newService(engine, features.TimestampSchemaV1, metrics)

	out, err := svc.PredictBatch(context.Background(), []models.RawObservation{
		raw(t, `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":90}`),
		raw(t, `{"timestamp":"2023-01-09 14:30","temperature_c":10,"humidity_percent":20}`),
		raw(t, `{"timestamp":"2023-08-01 06:00","temperature_c":28,"humidity_percent":75}`),
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.True(t, out[0].WillRain)
	assert.False(t, out[1].WillRain)
	assert.True(t, out[2].WillRain)

	assert.InDelta(t, 20.0, *out[0].PrecipitationMM, 1e-9)
	assert.Equal(t, 0.0, *out[1].PrecipitationMM)
	assert.InDelta(t, 5.0, *out[2].PrecipitationMM, 1e-9)

	assert.InDelta(t, 0.9, *out[0].RainProbability, 1e-9)
	assert.InDelta(t, 0.2, *out[1].RainProbability, 1e-9)

	// Only the rainy rows reach the regressor.
	assert.Len(t, engine.regressed, 2)

	assert.Equal(t, []int{3}, metrics.batches)
	assert.Equal(t, 3, metrics.predictions["predict_batch/ok"])
	assert.Equal(t, 2, metrics.rain)
}

func TestPredictBatch_FailsAtomicallyWithFirstIndex(t *testing.T) {
	engine := timestampEngine()
	svc := newService(engine, features.TimestampSchemaV1, NewMockMetrics())

	_, err := svc.PredictBatch(context.Background(), []models.RawObservation{
		raw(t, `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":90}`),
		raw(t, `{"timestamp":"not a time","temperature_c":25.5,"humidity_percent":90}`),
		raw(t, `{"timestamp":"2023-05-09 14:30"}`),
	})
	require.Error(t, err)

	var ie *models.ItemError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 1, ie.Index)
	assert.True(t, errors.Is(err, models.ErrInvalidTimestamp))
	assert.Empty(t, engine.classified)
}

func TestPredictBatch_Size(t *testing.T) {
	svc := newService(timestampEngine(), features.TimestampSchemaV1, NewMockMetrics())
	obs := raw(t, `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":90}`)

	_, err := svc.PredictBatch(context.Background(), nil)
	assert.True(t, errors.Is(err, models.ErrBatchSize))

	_, err = svc.PredictBatch(context.Background(), []models.RawObservation{obs, obs, obs, obs})
	assert.True(t, errors.Is(err, models.ErrBatchSize))
}

func TestPredict_CalendarVariant(t *testing.T) {
	engine := &MockEngine{
		available:  true,
		regression: true,
		rainColumn: features.CalendarSchemaV1.Index(features.FieldMonth),
		rainAbove:  4,
	}
	svc := newService(engine, features.CalendarSchemaV1, NewMockMetrics())

	resp, err := svc.Predict(context.Background(), raw(t, `{"day_of_year":129,"month":5,"weekday":1,"year":2023}`))
	require.NoError(t, err)

	assert.Equal(t, features.Vector{129, 5, 1, 2023}, engine.classified[0])
	assert.True(t, resp.WillRain)
	assert.InDelta(t, 1.0, *resp.PrecipitationMM, 1e-9)
	assert.Nil(t, resp.RainProbability)
}

func TestPredict_CalendarRejections(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		err   error
		field string
	}{
		{"month 13", `{"day_of_year":129,"month":13,"weekday":1,"year":2023}`, models.ErrOutOfRange, "month"},
		{"month 0", `{"day_of_year":129,"month":0,"weekday":1,"year":2023}`, models.ErrOutOfRange, "month"},
		{"weekday 7", `{"day_of_year":129,"month":5,"weekday":7,"year":2023}`, models.ErrOutOfRange, "weekday"},
		{"day 366 in common year", `{"day_of_year":366,"month":12,"weekday":1,"year":2023}`, models.ErrOutOfRange, "day_of_year"},
		{"missing year", `{"day_of_year":129,"month":5,"weekday":1}`, models.ErrMissingField, "year"},
		{"string month", `{"day_of_year":129,"month":"May","weekday":1,"year":2023}`, models.ErrTypeMismatch, "month"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &MockEngine{available: true, rainColumn: 1}
			svc := newService(engine, features.CalendarSchemaV1, NewMockMetrics())

			_, err := svc.Predict(context.Background(), raw(t, tc.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.err), err.Error())

			var fe *models.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tc.field, fe.Field)
			assert.Empty(t, engine.classified)
		})
	}
}

func TestPredict_LeapDayOfYear(t *testing.T) {
	engine := &MockEngine{available: true, rainColumn: 1, rainAbove: 4}
	svc := newService(engine, features.CalendarSchemaV1, NewMockMetrics())

	_, err := svc.Predict(context.Background(), raw(t, `{"day_of_year":366,"month":12,"weekday":1,"year":2024}`))
	assert.NoError(t, err)
}

func TestPredict_EchoInput(t *testing.T) {
	svc := prediction.NewPredictionService(timestampEngine(), features.TimestampSchemaV1,
		prediction.Options{StrictRanges: true, EchoInput: true}, nil, observe.NewZapLogger("test-app", io.Discard))

	resp, err := svc.Predict(context.Background(), raw(t, `{"datetime_str":"2023-05-09 14:30","temp":0,"humidity":80}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"timestamp":        "2023-05-09 14:30",
		"temperature_c":    0.0,
		"humidity_percent": 80.0,
	}, resp.Input)

	out, err := svc.PredictBatch(context.Background(), []models.RawObservation{
		raw(t, `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":90}`),
		raw(t, `{"timestamp":"2023-01-02 08:00","temperature_c":3,"humidity_percent":10}`),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "2023-05-09 14:30", out[0].Input["timestamp"])
	assert.Equal(t, "2023-01-02 08:00", out[1].Input["timestamp"])
}

func TestPredict_EchoInputOffByDefault(t *testing.T) {
	svc := newService(timestampEngine(), features.TimestampSchemaV1, NewMockMetrics())

	resp, err := svc.Predict(context.Background(), raw(t, `{"timestamp":"2023-05-09 14:30","temperature_c":25.5,"humidity_percent":80}`))
	require.NoError(t, err)
	assert.Nil(t, resp.Input)
}

func TestPredict_EchoInputCalendar(t *testing.T) {
	engine := &MockEngine{
		available:  true,
		rainColumn: features.CalendarSchemaV1.Index(features.FieldMonth),
		rainAbove:  4,
	}
	svc := prediction.NewPredictionService(engine, features.CalendarSchemaV1,
		prediction.Options{EchoInput: true}, nil, observe.NewZapLogger("test-app", io.Discard))

	resp, err := svc.Predict(context.Background(), raw(t, `{"day_of_year":129,"month":5,"weekday":1,"year":2023}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"day_of_year": 129, "month": 5, "weekday": 1, "year": 2023}, resp.Input)
}
