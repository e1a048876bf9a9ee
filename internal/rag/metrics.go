package rag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts query outcomes by terminal path.
type Metrics struct {
	QueriesTotal  *prometheus.CounterVec
	ChunksQueried prometheus.Counter
}

// Outcome label values for QueriesTotal.
const (
	outcomeAnswered    = "answered"
	outcomeBlocked     = "blocked"
	outcomeEmpty       = "empty"
	outcomeNoStore     = "store_unavailable"
	outcomeNoGenerator = "generator_unavailable"
	outcomeError       = "error"
)

// NewMetrics registers query metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mezand",
			Subsystem: "rag",
			Name:      "queries_total",
			Help:      "Chat queries by terminal outcome.",
		}, []string{"outcome"}),
		ChunksQueried: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mezand",
			Subsystem: "rag",
			Name:      "retrieved_chunks_total",
			Help:      "Context chunks retrieved across all queries.",
		}),
	}
}
