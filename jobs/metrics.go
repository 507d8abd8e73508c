package jobs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	revocations *prometheus.CounterVec
	cycles      prometheus.Counter
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When
// the registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddRevocations increments the token revocation counter for the given
// revocation kind.
func (m *Metrics) AddRevocations(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.revocations.WithLabelValues(kind).Add(float64(count))
}

// AddInferenceCycles counts role inference cycles detected by the audit job.
func (m *Metrics) AddInferenceCycles(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.cycles.Add(float64(count))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "keystone_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "keystone_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "keystone_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	revocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "keystone_token_revocations_total",
		Help: "Token revocations processed, partitioned by scope kind.",
	}, []string{"kind"})
	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "keystone_role_inference_cycles_total",
		Help: "Role inference cycles detected by the audit job.",
	})
	registerer.MustRegister(runs, failures, duration, revocations, cycles)
	return &Metrics{runs: runs, failures: failures, duration: duration, revocations: revocations, cycles: cycles}
}
