package domain

// Request and response bodies of the public endpoints. Remote agents speak the
// same shapes, so they live here rather than in the HTTP package.

// SearchLawRequest is the body for POST /search-law.
type SearchLawRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// SearchLawResponse is the response for POST /search-law.
type SearchLawResponse struct {
	Query    string       `json:"query"`
	Keywords []string     `json:"keywords"`
	Results  []ResultView `json:"results"`
}

// ExplainLawRequest is the body for POST /explain-law.
type ExplainLawRequest struct {
	Query        string `json:"query"`
	MaxResults   int    `json:"max_results,omitempty"`
	LanguageHint string `json:"language_hint,omitempty"`
}

// ExplainLawResponse is the response for POST /explain-law.
type ExplainLawResponse struct {
	Query       string       `json:"query"`
	Keywords    []string     `json:"keywords"`
	UsedResults []ResultView `json:"used_results"`
	Explanation string       `json:"explanation"`
	Sources     []string     `json:"sources"`
}

// ChatRequest is the body for POST /chat.
type ChatRequest struct {
	Query        string `json:"query"`
	MaxResults   int    `json:"max_results,omitempty"`
	LanguageHint string `json:"language_hint,omitempty"`
}

// ViewsToResults converts wire results back into ranked results. The snippet
// stands in for the page content, which remote agents do not return in full.
func ViewsToResults(views []ResultView) []ScoredResult {
	out := make([]ScoredResult, 0, len(views))
	for _, v := range views {
		out = append(out, ScoredResult{
			Document: Document{
				ID:      v.ID,
				ActName: v.ActName,
				Title:   v.Title,
				PageNo:  v.PageNo,
				Content: v.Snippet,
			},
			Score:           v.Score,
			MatchedKeywords: v.MatchedKeywords,
		})
	}
	return out
}

// ResultsToViews renders ranked results for the wire.
func ResultsToViews(results []ScoredResult, snippetChars int) []ResultView {
	out := make([]ResultView, 0, len(results))
	for _, r := range results {
		out = append(out, NewResultView(r, snippetChars))
	}
	return out
}
