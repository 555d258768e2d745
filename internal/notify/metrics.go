package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks dispatch outcomes. All methods are nil-safe so the engine
// can run unobserved in tests.
type Metrics struct {
	posted     *prometheus.CounterVec
	canceled   *prometheus.CounterVec
	mergeNoops prometheus.Counter
	softSounds prometheus.Counter
	failures   prometheus.Counter
	cycleErrs  prometheus.Counter
}

// NewMetrics registers the engine's collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		posted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notifier",
			Name:      "notifications_posted_total",
			Help:      "Notifications posted to the shelf, by class.",
		}, []string{"class"}),
		canceled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notifier",
			Name:      "notifications_canceled_total",
			Help:      "Notifications canceled on the shelf, by class.",
		}, []string{"class"}),
		mergeNoops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "notifier",
			Name:      "merge_noops_total",
			Help:      "Update cycles skipped because the shelf already showed every line.",
		}),
		softSounds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "notifier",
			Name:      "soft_sounds_total",
			Help:      "Soft sounds played for observable conversations.",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "notifier",
			Name:      "failed_message_notifications_total",
			Help:      "Failed-message notifications posted.",
		}),
		cycleErrs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "notifier",
			Name:      "update_errors_total",
			Help:      "Update cycles aborted with an error.",
		}),
	}
}

func classLabel(typ NotificationType) string {
	if typ == TypeError {
		return "error"
	}
	return "message"
}

func (m *Metrics) incPosted(typ NotificationType) {
	if m != nil {
		m.posted.WithLabelValues(classLabel(typ)).Inc()
	}
}

func (m *Metrics) incCanceled(typ NotificationType) {
	if m != nil {
		m.canceled.WithLabelValues(classLabel(typ)).Inc()
	}
}

func (m *Metrics) incMergeNoop() {
	if m != nil {
		m.mergeNoops.Inc()
	}
}

func (m *Metrics) incSoftSound() {
	if m != nil {
		m.softSounds.Inc()
	}
}

func (m *Metrics) incFailure() {
	if m != nil {
		m.failures.Inc()
	}
}

func (m *Metrics) incCycleError() {
	if m != nil {
		m.cycleErrs.Inc()
	}
}
