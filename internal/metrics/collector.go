package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates simulator metrics: dispatch volume, per-status
// response counts, dispatch latency and streamed chunk volume.
type Collector struct {
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	responsesTotal   *prometheus.CounterVec
	chunksTotal      prometheus.Counter
	tokensStreamed   prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a collector registering its metrics under namespace
// on the default prometheus registry. Use distinct namespaces per collector
// instance.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Total number of fan-out dispatches",
		},
		[]string{"kind", "execution"},
	)

	c.dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Fan-out dispatch duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	c.responsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Total number of per-target response records",
		},
		[]string{"status"},
	)

	c.chunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_chunks_total",
			Help:      "Total number of emitted stream chunks",
		},
	)

	c.tokensStreamed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_tokens_total",
			Help:      "Total number of tokens delivered in stream chunks",
		},
	)

	return c
}

// RecordDispatch records one completed fan-out.
func (c *Collector) RecordDispatch(kind string, concurrent bool, elapsed time.Duration) {
	execution := "sequential"
	if concurrent {
		execution = "concurrent"
	}
	c.dispatchesTotal.WithLabelValues(kind, execution).Inc()
	c.dispatchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RecordResponse records one terminal response record by status code.
func (c *Collector) RecordResponse(statusCode int) {
	c.responsesTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordChunk records one emitted stream chunk carrying tokens tokens.
func (c *Collector) RecordChunk(tokens int) {
	c.chunksTotal.Inc()
	c.tokensStreamed.Add(float64(tokens))
}
