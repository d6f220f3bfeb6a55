package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the prediction service.
type Metrics struct {
	Registry prometheus.Gatherer

	PredictionsTotal  *prometheus.CounterVec   // Predictions served, by endpoint and outcome
	RainPredictions   prometheus.Counter       // Observations classified as rain
	RequestErrors     *prometheus.CounterVec   // Rejected requests, by error code
	BatchSize         prometheus.Histogram     // Observations per batch request
	InferenceLatency  *prometheus.HistogramVec // Engine latency per operation
	InferenceFailures *prometheus.CounterVec   // Engine failures per operation
	ModelLoaded       prometheus.Gauge         // 1 when a model is loaded
}

// NewMetrics registers collectors on a fresh registry that also carries the
// Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWithRegistry(reg, reg)
}

// NewMetricsWithRegistry creates metrics on a custom registerer (useful for testing).
func NewMetricsWithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Registry: gatherer,
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rain_predictions_total",
			Help: "Total number of observations predicted",
		}, []string{"endpoint", "outcome"}),
		RainPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "rain_predicted_total",
			Help: "Total number of observations classified as rain",
		}),
		RequestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rain_request_errors_total",
			Help: "Total number of rejected prediction requests",
		}, []string{"code"}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rain_batch_size",
			Help:    "Number of observations per batch request",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		InferenceLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rain_inference_latency_seconds",
			Help:    "Model inference latency in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"op"}),
		InferenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rain_inference_failures_total",
			Help: "Total number of model inference failures",
		}, []string{"op"}),
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rain_model_loaded",
			Help: "Whether a trained model is loaded (1) or unavailable (0)",
		}),
	}
}

func (m *Metrics) InferenceLatencyObserve(op string, seconds float64) {
	m.InferenceLatency.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) InferenceFailuresInc(op string) {
	m.InferenceFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) PredictionsAdd(endpoint, outcome string, n int) {
	m.PredictionsTotal.WithLabelValues(endpoint, outcome).Add(float64(n))
}

func (m *Metrics) RainPredictionsAdd(n int) {
	m.RainPredictions.Add(float64(n))
}

func (m *Metrics) RequestErrorsInc(code string) {
	m.RequestErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) BatchSizeObserve(n int) {
	m.BatchSize.Observe(float64(n))
}

func (m *Metrics) SetModelLoaded(loaded bool) {
	if loaded {
		m.ModelLoaded.Set(1)
		return
	}
	m.ModelLoaded.Set(0)
}
