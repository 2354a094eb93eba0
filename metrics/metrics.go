// Package metrics exposes prometheus instruments for the lookup pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plubot_queries_total",
		Help: "Inbound queries by resolver mode (code/name) and outcome (hit/multi/miss)",
	}, []string{"mode", "outcome"})

	selections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plubot_selections_total",
		Help: "Disambiguation selections by outcome (hit/not_found)",
	}, []string{"outcome"})

	candidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "plubot_resolver_candidates",
		Help:    "Number of candidates returned per query",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})

	renderLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plubot_render_latency_ms",
		Help:    "Latency of barcode render calls in milliseconds",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"symbology"})

	renderCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plubot_render_cache_total",
		Help: "Render cache lookups by result (memory/disk/render/error)",
	}, []string{"result"})

	catalogReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plubot_catalog_reload_total",
		Help: "Catalog reload attempts by result (ok/error)",
	}, []string{"result"})

	catalogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "plubot_catalog_records",
		Help: "Record count of the last published catalog snapshot",
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(queries, selections, candidates, renderLatency, renderCache, catalogReloads, catalogSize)
	})
}

// IncQuery records a resolved query with its mode and outcome.
func IncQuery(mode, outcome string) {
	ensureRegistered()
	queries.WithLabelValues(mode, outcome).Inc()
}

// IncSelection records a disambiguation selection outcome.
func IncSelection(outcome string) {
	ensureRegistered()
	selections.WithLabelValues(outcome).Inc()
}

// ObserveCandidates records the candidate count of one resolver call.
func ObserveCandidates(n int) {
	ensureRegistered()
	candidates.Observe(float64(n))
}

// ObserveRender records latency of one render call per symbology.
func ObserveRender(symbology string, start time.Time) {
	ensureRegistered()
	renderLatency.WithLabelValues(symbology).Observe(float64(time.Since(start).Milliseconds()))
}

// IncRenderCache records where a render request was served from.
func IncRenderCache(result string) {
	ensureRegistered()
	renderCache.WithLabelValues(result).Inc()
}

// IncCatalogReload records a catalog reload attempt.
func IncCatalogReload(result string) {
	ensureRegistered()
	catalogReloads.WithLabelValues(result).Inc()
}

// ObserveCatalogSize records the size of a freshly published snapshot.
func ObserveCatalogSize(n int) {
	ensureRegistered()
	catalogSize.Set(float64(n))
}
