package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BotMetrics records conversation and order pipeline outcomes.
type BotMetrics struct {
	updates      *prometheus.CounterVec
	orders       *prometheus.CounterVec
	fanout       *prometheus.CounterVec
	answerSource *prometheus.CounterVec
	resolverTime prometheus.Histogram
	wizard       *prometheus.CounterVec
}

// NewBotMetrics registers the bot metrics on the provided registerer.
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	if reg == nil {
		return &BotMetrics{}
	}
	updates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_total",
		Help: "Inbound chat updates by kind.",
	}, []string{"kind"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_order_confirmations_total",
		Help: "Order confirmation attempts by result.",
	}, []string{"result"})
	fanout := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_order_fanout_failures_total",
		Help: "Best-effort post-confirmation side effects that failed.",
	}, []string{"step"})
	answerSource := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_answers_total",
		Help: "Resolved answers by producing source.",
	}, []string{"source"})
	resolverTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bot_resolver_duration_seconds",
		Help:    "Duration of free-text answer resolution in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	wizard := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_preorder_wizard_total",
		Help: "Preorder wizard sessions by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(updates, orders, fanout, answerSource, resolverTime, wizard)
	return &BotMetrics{
		updates:      updates,
		orders:       orders,
		fanout:       fanout,
		answerSource: answerSource,
		resolverTime: resolverTime,
		wizard:       wizard,
	}
}

// IncUpdate counts an inbound update of the given kind.
func (m *BotMetrics) IncUpdate(kind string) {
	if m == nil || m.updates == nil {
		return
	}
	m.updates.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncOrderResult counts a confirmation attempt outcome.
func (m *BotMetrics) IncOrderResult(result string) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncFanoutFailure counts a failed best-effort side effect.
func (m *BotMetrics) IncFanoutFailure(step string) {
	if m == nil || m.fanout == nil {
		return
	}
	m.fanout.WithLabelValues(normalizeLabel(step)).Inc()
}

// IncAnswer counts an answer by its producing source.
func (m *BotMetrics) IncAnswer(source string) {
	if m == nil || m.answerSource == nil {
		return
	}
	m.answerSource.WithLabelValues(normalizeLabel(source)).Inc()
}

// ObserveResolverDuration records how long answer resolution took.
func (m *BotMetrics) ObserveResolverDuration(duration time.Duration) {
	if m == nil || m.resolverTime == nil {
		return
	}
	m.resolverTime.Observe(duration.Seconds())
}

// IncWizardOutcome counts a wizard session outcome.
func (m *BotMetrics) IncWizardOutcome(outcome string) {
	if m == nil || m.wizard == nil {
		return
	}
	m.wizard.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
