package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration workflow.
type Metrics struct {
	Submissions           *prometheus.CounterVec
	SequenceFallbacks     *prometheus.CounterVec
	ReferenceLoadFailures prometheus.Counter
	HistoryWriteFailures  prometheus.Counter
	LocationOutcomes      *prometheus.CounterVec
	SubmitDuration        prometheus.Histogram
}

// New creates and registers all collectors on reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ehopa_submissions_total",
			Help: "Registration submissions by outcome",
		}, []string{"outcome"}),
		SequenceFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ehopa_sequence_fallbacks_total",
			Help: "Generated IDs that fell back to a default or sentinel suffix",
		}, []string{"kind"}),
		ReferenceLoadFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "ehopa_reference_load_failures_total",
			Help: "Reference data loads that blocked submission",
		}),
		HistoryWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "ehopa_history_write_failures_total",
			Help: "Local history writes that failed after a successful remote write",
		}),
		LocationOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ehopa_location_outcomes_total",
			Help: "Location acquisition attempts by terminal state",
		}, []string{"status"}),
		SubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ehopa_submit_duration_seconds",
			Help:    "Duration of the submitting stage (sequence, remote write, history, handoff)",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncSubmission records a submission outcome.
func (m *Metrics) IncSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// IncSequenceFallback records an ID that used a fallback suffix.
func (m *Metrics) IncSequenceFallback(kind string) {
	if m == nil {
		return
	}
	m.SequenceFallbacks.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncReferenceLoadFailure() {
	if m == nil {
		return
	}
	m.ReferenceLoadFailures.Inc()
}

func (m *Metrics) IncHistoryWriteFailure() {
	if m == nil {
		return
	}
	m.HistoryWriteFailures.Inc()
}

func (m *Metrics) IncLocationOutcome(status string) {
	if m == nil {
		return
	}
	m.LocationOutcomes.WithLabelValues(status).Inc()
}

// ObserveSubmit records the duration of a submitting stage.
// Call with time.Now() at the start of the stage.
func (m *Metrics) ObserveSubmit(start time.Time) {
	if m == nil {
		return
	}
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
