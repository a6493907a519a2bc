package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RuntimeMetrics tracks transactions executed by the local ledger runtime.
type RuntimeMetrics struct {
	transactions *prometheus.CounterVec
	latency      prometheus.Histogram
	allocations  prometheus.Counter
}

var (
	runtimeOnce     sync.Once
	runtimeRegistry *RuntimeMetrics
)

func Runtime() *RuntimeMetrics {
	runtimeOnce.Do(func() {
		runtimeRegistry = &RuntimeMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rooster_runtime_transactions_total",
				Help: "Count of executed ledger transactions by outcome.",
			}, []string{"outcome"}),
			latency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "rooster_runtime_transaction_seconds",
				Help:    "Wall time spent executing a ledger transaction.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			}),
			allocations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rooster_runtime_allocations_total",
				Help: "Count of program-owned accounts created by the runtime.",
			}),
		}
		prometheus.MustRegister(
			runtimeRegistry.transactions,
			runtimeRegistry.latency,
			runtimeRegistry.allocations,
		)
	})
	return runtimeRegistry
}

func (m *RuntimeMetrics) ObserveTransaction(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.transactions.WithLabelValues(outcome).Inc()
	m.latency.Observe(elapsed.Seconds())
}

func (m *RuntimeMetrics) IncAllocation() {
	if m == nil {
		return
	}
	m.allocations.Inc()
}
