package domain

const (
	StatusOK    = "ok"
	StatusError = "error"

	ClassifiedByReasoner  = "reasoner"
	ClassifiedByHeuristic = "heuristic"
)

// ChatResponse is the router's merged answer. It is always fully populated,
// including when some agents failed.
type ChatResponse struct {
	RequestID   string         `json:"request_id"`
	Query       string         `json:"query"`
	Intent      Intent         `json:"intent"`
	Results     []ResultView   `json:"results"`
	Explanation string         `json:"explanation,omitempty"`
	Sources     []string       `json:"sources"`
	Diagnostics Diagnostics    `json:"diagnostics"`
	ranked      []ScoredResult
}

// Ranked returns the merged results with full documents.
func (r *ChatResponse) Ranked() []ScoredResult {
	return r.ranked
}

// SetRanked stores the merged results and their serialized views.
func (r *ChatResponse) SetRanked(results []ScoredResult, snippetChars int) {
	r.ranked = results
	r.Results = make([]ResultView, 0, len(results))
	for _, res := range results {
		r.Results = append(r.Results, NewResultView(res, snippetChars))
	}
}

// ResultView is the wire shape of a ScoredResult.
type ResultView struct {
	ID              string   `json:"id"`
	ActName         string   `json:"act_name"`
	Title           string   `json:"title"`
	PageNo          int      `json:"page_no"`
	Snippet         string   `json:"snippet"`
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

// NewResultView renders a result with a snippet of at most snippetChars runes.
func NewResultView(r ScoredResult, snippetChars int) ResultView {
	return ResultView{
		ID:              r.Document.ID,
		ActName:         r.Document.ActName,
		Title:           r.Document.Title,
		PageNo:          r.Document.PageNo,
		Snippet:         Snippet(r.Document.Content, snippetChars),
		Score:           r.Score,
		MatchedKeywords: r.MatchedKeywords,
	}
}

// Snippet truncates text to n runes. n <= 0 returns text unchanged.
func Snippet(text string, n int) string {
	if n <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

// Diagnostics explains how a response was produced.
type Diagnostics struct {
	Degraded       bool                     `json:"degraded"`
	Classification ClassificationDiagnostic `json:"classification"`
	Agents         []AgentDiagnostic        `json:"agents"`
}

// ClassificationDiagnostic records which classifier path produced the intent.
type ClassificationDiagnostic struct {
	Source   string `json:"source"`
	Degraded bool   `json:"degraded"`
	Error    string `json:"error,omitempty"`
}

// AgentDiagnostic is the per-agent status line.
type AgentDiagnostic struct {
	Agent     string    `json:"agent"`
	Status    string    `json:"status"`
	Kind      ErrorKind `json:"kind,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}
