// Package metrics exposes Prometheus counters and gauges for the editing
// core, grounded on zfogg-sidechain/backend/internal/metrics (promauto
// constructors for plain Gauges and Counters) rather than hand-rolled
// counters.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus metric the editing core records.
type Metrics struct {
	DocumentsActive     prometheus.Gauge
	ClientsConnected     prometheus.Gauge
	OperationsApplied    prometheus.Counter
	OperationsUndone     prometheus.Counter
	TransformedOperations prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide Metrics, registering it with the default
// Prometheus registry on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			DocumentsActive: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "collab_documents_active",
				Help: "Number of documents currently held in memory.",
			}),
			ClientsConnected: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "collab_clients_connected",
				Help: "Number of currently connected clients across all sessions.",
			}),
			OperationsApplied: promauto.NewCounter(prometheus.CounterOpts{
				Name: "collab_operations_applied_total",
				Help: "Total number of operations committed to document history.",
			}),
			OperationsUndone: promauto.NewCounter(prometheus.CounterOpts{
				Name: "collab_operations_undone_total",
				Help: "Total number of undo operations applied.",
			}),
			TransformedOperations: promauto.NewCounter(prometheus.CounterOpts{
				Name: "collab_operations_transformed_total",
				Help: "Total number of incoming operations rebased against missed history.",
			}),
		}
	})
	return instance
}
