// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/sheet2pdf/internal/httputil"
	"github.com/pdiddy/sheet2pdf/pkg/types"
)

// Metrics bundles Prometheus collectors for a batch run. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry        *prometheus.Registry
	AttemptsTotal   prometheus.Counter
	AttemptDuration prometheus.Histogram
	OutcomesTotal   *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	RetriesTotal    prometheus.Counter
	BytesTotal      prometheus.Counter
}

// NewMetrics constructs and registers all collectors on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	attempts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheet2pdf_attempts_total",
		Help: "Total fetch attempts, including retries.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sheet2pdf_attempt_duration_seconds",
		Help:    "Duration of single fetch attempts.",
		Buckets: prometheus.DefBuckets,
	})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sheet2pdf_outcomes_total",
		Help: "Fetch targets by final outcome.",
	}, []string{"status"})
	errorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sheet2pdf_errors_total",
		Help: "Failed attempts by error kind.",
	}, []string{"kind"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheet2pdf_retries_total",
		Help: "Retry attempts scheduled after a failure.",
	})
	bytesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheet2pdf_bytes_written_total",
		Help: "Bytes written to the output directory.",
	})

	registry.MustRegister(attempts, duration, outcomes, errorsTotal, retries, bytesTotal)

	return &Metrics{
		Registry:        registry,
		AttemptsTotal:   attempts,
		AttemptDuration: duration,
		OutcomesTotal:   outcomes,
		ErrorsTotal:     errorsTotal,
		RetriesTotal:    retries,
		BytesTotal:      bytesTotal,
	}
}

// ObserveAttempt counts one attempt and its duration.
func (m *Metrics) ObserveAttempt(d time.Duration) {
	if m == nil {
		return
	}
	m.AttemptsTotal.Inc()
	m.AttemptDuration.Observe(d.Seconds())
}

// IncError counts a failed attempt by kind.
func (m *Metrics) IncError(kind httputil.ErrorKind) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(kind.String()).Inc()
}

// IncRetries counts a scheduled retry.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// ObserveOutcome counts a finished target and the bytes it wrote.
func (m *Metrics) ObserveOutcome(o types.FetchOutcome) {
	if m == nil {
		return
	}
	m.OutcomesTotal.WithLabelValues(string(o.Status)).Inc()
	if o.Status == types.FetchSuccess {
		m.BytesTotal.Add(float64(o.Bytes))
	}
}

// WriteFile dumps the registry in text exposition format, for node_exporter's
// textfile collector or a later look by hand.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
