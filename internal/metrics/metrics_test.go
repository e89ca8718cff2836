package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveAgent("search", "ok", 12*time.Millisecond, 2)
	IncClassification("search", "heuristic")
	IncRequest("responded")
	ObserveSearch(3)
	SetCorpusSize(42)
	IncCorpusReload("ok")
	ObserveHTTP("/chat", 200, 30*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, name := range []string{
		`lawgpt_agent_outcomes_total{agent="search",outcome="ok"}`,
		`lawgpt_agent_retries_total{agent="search"}`,
		`lawgpt_intent_classifications_total{category="search",source="heuristic"}`,
		`lawgpt_requests_total{outcome="responded"}`,
		`lawgpt_corpus_documents 42`,
		`lawgpt_corpus_reloads_total{outcome="ok"}`,
		`lawgpt_http_request_duration_ms_count{route="/chat",status="200"}`,
	} {
		if !strings.Contains(out, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
