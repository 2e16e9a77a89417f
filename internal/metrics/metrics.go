// Package metrics содержит Prometheus метрики координатора обменов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "slotswap"

// Metrics набор счётчиков сервиса
type Metrics struct {
	SwapsProposed        prometheus.Counter
	SwapsResolved        *prometheus.CounterVec // status
	SwapConflicts        *prometheus.CounterVec // op
	TxRetries            *prometheus.CounterVec // op
	NotificationsDropped *prometheus.CounterVec // transport
	StalePending         prometheus.Gauge
}

// New регистрирует метрики в reg. В тестах передавайте prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		SwapsProposed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swaps_proposed_total",
			Help:      "Swap requests created.",
		}),
		SwapsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swaps_resolved_total",
			Help:      "Swap requests resolved, by final status.",
		}, []string{"status"}),
		SwapConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swap_conflicts_total",
			Help:      "Operations rejected with a conflict error.",
		}, []string{"op"}),
		TxRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_retries_total",
			Help:      "Store transactions retried after a write conflict.",
		}, []string{"op"}),
		NotificationsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Notifications that could not be delivered.",
		}, []string{"transport"}),
		StalePending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stale_pending_requests",
			Help:      "PENDING swap requests older than the configured threshold.",
		}),
	}
}
