// Package metrics exposes Prometheus collectors for the sync loop and the
// development collection endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iobis/edna-sample-app/internal/client/models"
)

const (
	MetricSyncPassesTotal      = "edna_sync_passes_total"
	MetricSyncPassDuration     = "edna_sync_pass_duration_seconds"
	MetricSyncedItemsTotal     = "edna_synced_items_total"
	MetricSyncErrorsTotal      = "edna_sync_errors_total"
	MetricQueuedItems          = "edna_queued_items"
	MetricSyncPassesInProgress = "edna_sync_passes_in_progress"
)

// Item kinds for labeling.
const (
	KindSample = "sample"
	KindImage  = "image"
)

// Pass outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailure = "failure"
)

// Metrics tracks sync passes. It implements orchestrator.Observer.
type Metrics struct {
	passesTotal *prometheus.CounterVec
	passSeconds *prometheus.HistogramVec
	synced      *prometheus.CounterVec
	errors      *prometheus.CounterVec
	queued      *prometheus.GaugeVec
	inProgress  prometheus.Gauge
}

// NewMetrics creates the collectors. They are not registered; call
// Register.
func NewMetrics() *Metrics {
	return &Metrics{
		passesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSyncPassesTotal,
				Help: "Total number of sync passes by trigger and outcome",
			},
			[]string{"trigger", "outcome"},
		),
		passSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricSyncPassDuration,
				Help:    "Histogram of sync pass duration in seconds by trigger",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"trigger"},
		),
		synced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSyncedItemsTotal,
				Help: "Total number of items acknowledged by the collection endpoint",
			},
			[]string{"kind"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSyncErrorsTotal,
				Help: "Total number of failed engine runs by item kind and error kind",
			},
			[]string{"kind", "error_kind"},
		),
		queued: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricQueuedItems,
				Help: "Number of items waiting to be synced",
			},
			[]string{"kind"},
		),
		inProgress: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricSyncPassesInProgress,
				Help: "Number of sync passes currently running",
			},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.passesTotal,
		m.passSeconds,
		m.synced,
		m.errors,
		m.queued,
		m.inProgress,
	}
}

func (m *Metrics) PassStarted(string) {
	m.inProgress.Inc()
}

func (m *Metrics) PassFinished(res models.PassResult) {
	m.inProgress.Dec()
	m.passesTotal.WithLabelValues(res.Trigger, Outcome(res)).Inc()
	m.passSeconds.WithLabelValues(res.Trigger).Observe(res.Duration().Seconds())
	m.observeEngine(KindSample, res.Samples)
	m.observeEngine(KindImage, res.Images)
}

func (m *Metrics) StatsUpdated(st models.Stats) {
	m.queued.WithLabelValues(KindSample).Set(float64(st.Samples.Queued))
	m.queued.WithLabelValues(KindImage).Set(float64(st.Images.Queued))
}

func (m *Metrics) observeEngine(kind string, r models.SyncResult) {
	if r.Synced > 0 {
		m.synced.WithLabelValues(kind).Add(float64(r.Synced))
	}
	if r.Err != nil {
		m.errors.WithLabelValues(kind, string(r.Err.Kind)).Inc()
	}
}

// Outcome labels a pass: success when neither engine failed, failure when
// both did, partial otherwise.
func Outcome(res models.PassResult) string {
	s, i := res.Samples.Failed(), res.Images.Failed()
	switch {
	case !s && !i:
		return OutcomeSuccess
	case s && i:
		return OutcomeFailure
	default:
		return OutcomePartial
	}
}
