// Package metrics exposes Prometheus collectors for the router.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	agentLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lawgpt_agent_latency_ms",
		Help:    "Latency of agent invocations in milliseconds, retries included",
		Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1500, 3000, 6000},
	}, []string{"agent"})

	agentOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lawgpt_agent_outcomes_total",
		Help: "Agent invocation outcomes by kind (ok, unavailable, timeout, invalid_response)",
	}, []string{"agent", "outcome"})

	agentRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lawgpt_agent_retries_total",
		Help: "Agent retries after a transient failure",
	}, []string{"agent"})

	classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lawgpt_intent_classifications_total",
		Help: "Intent classifications by category and source",
	}, []string{"category", "source"})

	requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lawgpt_requests_total",
		Help: "Routed requests by final state (responded, degraded, failed, invalid)",
	}, []string{"outcome"})

	searchResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lawgpt_search_results",
		Help:    "Number of results returned by a search",
		Buckets: []float64{0, 1, 2, 5, 10, 20},
	})

	corpusDocuments = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lawgpt_corpus_documents",
		Help: "Documents in the active corpus snapshot",
	})

	corpusReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lawgpt_corpus_reloads_total",
		Help: "Corpus reloads by outcome (ok, error)",
	}, []string{"outcome"})

	httpRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lawgpt_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"route", "status"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(agentLatency, agentOutcomes, agentRetries, classifications, requests,
			searchResults, corpusDocuments, corpusReloads, httpRequests)
	})
}

// ObserveAgent records one settled agent invocation.
func ObserveAgent(agent, outcome string, latency time.Duration, attempts int) {
	ensureRegistered()
	agentLatency.WithLabelValues(agent).Observe(float64(latency.Milliseconds()))
	agentOutcomes.WithLabelValues(agent, outcome).Inc()
	if attempts > 1 {
		agentRetries.WithLabelValues(agent).Add(float64(attempts - 1))
	}
}

// IncClassification records which path produced an intent.
func IncClassification(category, source string) {
	ensureRegistered()
	classifications.WithLabelValues(category, source).Inc()
}

// IncRequest records the final state of a routed request.
func IncRequest(outcome string) {
	ensureRegistered()
	requests.WithLabelValues(outcome).Inc()
}

// ObserveSearch records the size of a result list.
func ObserveSearch(n int) {
	ensureRegistered()
	searchResults.Observe(float64(n))
}

// SetCorpusSize records the active snapshot size.
func SetCorpusSize(n int) {
	ensureRegistered()
	corpusDocuments.Set(float64(n))
}

// IncCorpusReload records a corpus reload attempt.
func IncCorpusReload(outcome string) {
	ensureRegistered()
	corpusReloads.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func ObserveHTTP(route string, status int, d time.Duration) {
	ensureRegistered()
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Observe(float64(d.Milliseconds()))
}

// Handler serves the default registry.
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.Handler()
}
