// Package metrics records per-step timings of a run on a private prometheus
// registry and exports them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Recorder implements pipeline.Observer.
type Recorder struct {
	registry *prometheus.Registry

	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "infermesh",
				Name:      "steps_total",
				Help:      "Total number of executed steps by result",
			},
			[]string{"step", "result"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "infermesh",
				Name:      "step_duration_seconds",
				Help:      "Duration of each step in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 500ms to ~4min
			},
			[]string{"step"},
		),
	}
	r.registry.MustRegister(r.stepsTotal, r.stepDuration)
	return r
}

// ObserveStep records one finished step.
func (r *Recorder) ObserveStep(name string, duration time.Duration, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	r.stepsTotal.WithLabelValues(name, result).Inc()
	r.stepDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all recorded metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
