package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lawgpt/internal/domain"
)

func doc(id string, score float64) domain.ScoredResult {
	return domain.ScoredResult{
		Document: domain.Document{ID: id, ActName: "Act", Title: "Act - " + id, PageNo: 1, Content: "content of " + id},
		Score:    score,
	}
}

func query(max int) domain.Query {
	q, _ := domain.NewQuery("right to privacy", max, "", 20)
	return q
}

var hybrid = domain.Intent{Category: domain.CategoryHybrid, Confidence: 0.5}

func TestCombineUnionsAndDedupes(t *testing.T) {
	search := domain.AgentSucceeded("search", &domain.Payload{Results: []domain.ScoredResult{
		doc("a", 0.5), doc("b", 0.9),
	}}, 10, 1)
	analysis := domain.AgentSucceeded("analysis", &domain.Payload{Explanation: &domain.Explanation{
		Text:      "Explained.",
		Citations: []string{"c", "a"},
		Context:   []domain.ScoredResult{doc("a", 0.7), doc("c", 0.6), doc("d", 0.95)},
	}}, 20, 1)

	resp := Merger{SnippetChars: 400}.Combine(query(10), hybrid, []domain.AgentResult{search, analysis})

	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.ID)
	}
	// d is in context but not cited; a keeps its higher score.
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.InDelta(t, 0.7, resp.Results[1].Score, 1e-9)
	assert.Equal(t, []string{"c", "a"}, resp.Sources)
	assert.Equal(t, "Explained.", resp.Explanation)
	assert.False(t, resp.Diagnostics.Degraded)
	assert.Len(t, resp.Ranked(), 3)
}

func TestCombineTruncatesToMaxResults(t *testing.T) {
	search := domain.AgentSucceeded("search", &domain.Payload{Results: []domain.ScoredResult{
		doc("a", 0.1), doc("b", 0.2), doc("c", 0.3),
	}}, 1, 1)
	resp := Merger{}.Combine(query(2), hybrid, []domain.AgentResult{search})
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "c", resp.Results[0].ID)
	assert.Equal(t, "b", resp.Results[1].ID)
}

func TestCombinePartialFailure(t *testing.T) {
	search := domain.AgentSucceeded("search", &domain.Payload{Results: []domain.ScoredResult{doc("a", 0.5)}}, 10, 1)
	analysis := domain.AgentFailed("analysis", domain.KindTimeout, "deadline exceeded", 3000, 2)

	resp := Merger{}.Combine(query(5), hybrid, []domain.AgentResult{search, analysis})
	assert.True(t, resp.Diagnostics.Degraded)
	assert.Len(t, resp.Results, 1)
	require.Len(t, resp.Diagnostics.Agents, 2)
	assert.Equal(t, "analysis", resp.Diagnostics.Agents[0].Agent)
	assert.Equal(t, domain.StatusError, resp.Diagnostics.Agents[0].Status)
	assert.Equal(t, domain.KindTimeout, resp.Diagnostics.Agents[0].Kind)
	assert.Equal(t, 2, resp.Diagnostics.Agents[0].Attempts)
	assert.Equal(t, "search", resp.Diagnostics.Agents[1].Agent)
	assert.Equal(t, domain.StatusOK, resp.Diagnostics.Agents[1].Status)
}

func TestCombineAllFailed(t *testing.T) {
	resp := Merger{}.Combine(query(5), hybrid, []domain.AgentResult{
		domain.AgentFailed("search", domain.KindUnavailable, "down", 1, 2),
	})
	assert.True(t, resp.Diagnostics.Degraded)
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, UnavailableExplanation, resp.Explanation)
	assert.NotNil(t, resp.Sources)
}

func TestCombineDeterministic(t *testing.T) {
	results := []domain.AgentResult{
		domain.AgentSucceeded("search", &domain.Payload{Results: []domain.ScoredResult{
			doc("z", 0.5), doc("y", 0.5), doc("x", 0.5),
		}}, 1, 1),
	}
	first := Merger{}.Combine(query(5), hybrid, results)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Merger{}.Combine(query(5), hybrid, results))
	}
	assert.Equal(t, "x", first.Results[0].ID)
}

func TestCombineSnippet(t *testing.T) {
	search := domain.AgentSucceeded("search", &domain.Payload{Results: []domain.ScoredResult{doc("abc", 1)}}, 1, 1)
	resp := Merger{SnippetChars: 7}.Combine(query(5), hybrid, []domain.AgentResult{search})
	assert.Equal(t, "content", resp.Results[0].Snippet)
}
