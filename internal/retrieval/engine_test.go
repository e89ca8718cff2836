package retrieval

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/keywords"
)

func sampleCorpus() []domain.Document {
	return []domain.Document{
		{ID: "it-act-p1", ActName: "Information Technology Act", Title: "Information Technology Act - Page 1",
			PageNo: 1, Content: "Reasonable security practices for sensitive personal data and information."},
		{ID: "privacy-p1", ActName: "Right to Privacy Act", Title: "Right to Privacy Act - Page 1",
			PageNo: 1, Content: "Every person has the right to privacy. Data protection duties apply to processors."},
		{ID: "dpdp-p3", ActName: "Digital Personal Data Protection Act", Title: "Digital Personal Data Protection Act - Page 3",
			PageNo: 3, Content: "A data fiduciary shall protect personal data in its possession."},
		{ID: "ipc-p10", ActName: "Indian Penal Code", Title: "Indian Penal Code - Page 10",
			PageNo: 10, Content: "Whoever commits theft shall be punished with imprisonment."},
	}
}

func TestSearch_PrivacyExampleRanksPrivacyActFirst(t *testing.T) {
	e := NewEngine(DefaultConfig())
	snap := NewSnapshot(sampleCorpus())
	kws := keywords.Terms("right to privacy data protection")

	got := e.Search(kws, snap, 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "Right to Privacy Act", got[0].Document.ActName)
	for _, r := range got {
		assert.NotEqual(t, "ipc-p10", r.Document.ID, "document without overlap must be excluded")
	}
}

func TestSearch_ScoresInRangeAndSorted(t *testing.T) {
	e := NewEngine(DefaultConfig())
	snap := NewSnapshot(sampleCorpus())

	got := e.Search([]string{"data", "protection", "personal", "theft"}, snap, 10)
	require.NotEmpty(t, got)
	for i, r := range got {
		assert.Greater(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, r.Score)
		}
	}
}

func TestSearch_FullMatchScoresOne(t *testing.T) {
	e := NewEngine(DefaultConfig())
	snap := NewSnapshot([]domain.Document{
		{ID: "a", Title: "Bail", Content: "bail"},
	})
	got := e.Search([]string{"bail"}, snap, 1)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

func TestSearch_TitleOutweighsContent(t *testing.T) {
	e := NewEngine(DefaultConfig())
	snap := NewSnapshot([]domain.Document{
		{ID: "content", Title: "Misc", Content: "arrest procedure"},
		{ID: "title", Title: "Arrest", Content: "procedure"},
	})
	got := e.Search([]string{"arrest"}, snap, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "title", got[0].Document.ID)
	assert.InDelta(t, 2.0/3.0, got[0].Score, 1e-9)
	assert.InDelta(t, 1.0/3.0, got[1].Score, 1e-9)
}

func TestSearch_TieBrokenByAscendingID(t *testing.T) {
	e := NewEngine(DefaultConfig())
	snap := NewSnapshot([]domain.Document{
		{ID: "doc-c", Title: "x", Content: "custody"},
		{ID: "doc-a", Title: "y", Content: "custody"},
		{ID: "doc-b", Title: "z", Content: "custody"},
	})
	got := e.Search([]string{"custody"}, snap, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "doc-a", got[0].Document.ID)
	assert.Equal(t, "doc-b", got[1].Document.ID)
	assert.Equal(t, "doc-c", got[2].Document.ID)
}

func TestSearch_Idempotent(t *testing.T) {
	e := NewEngine(DefaultConfig())
	var docs []domain.Document
	for i := 0; i < 50; i++ {
		docs = append(docs, domain.Document{
			ID:      fmt.Sprintf("doc-%02d", 49-i),
			Title:   "Act",
			Content: "contract breach damages",
			PageNo:  i + 1,
		})
	}
	snap := NewSnapshot(docs)
	kws := []string{"contract", "damages"}

	first := e.Search(kws, snap, 20)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Search(kws, snap, 20))
	}
}

func TestSearch_EmptyInputs(t *testing.T) {
	e := NewEngine(DefaultConfig())
	snap := NewSnapshot(sampleCorpus())

	assert.Empty(t, e.Search(nil, snap, 5))
	assert.Empty(t, e.Search([]string{"privacy"}, NewSnapshot(nil), 5))
	assert.Empty(t, e.Search([]string{"privacy"}, nil, 5))
	assert.Empty(t, e.Search([]string{"zzzz"}, snap, 5))
	assert.Empty(t, e.Search([]string{"privacy"}, snap, 0))
	assert.NotNil(t, e.Search(nil, snap, 5))
}

func TestSearch_LimitRespected(t *testing.T) {
	e := NewEngine(DefaultConfig())
	snap := NewSnapshot(sampleCorpus())
	got := e.Search([]string{"data", "act"}, snap, 2)
	assert.LessOrEqual(t, len(got), 2)
}

func TestSearch_MaxScanDocs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxScanDocs = 1
	e := NewEngine(cfg)
	snap := NewSnapshot([]domain.Document{
		{ID: "first", Title: "t", Content: "nothing"},
		{ID: "second", Title: "t", Content: "bail"},
	})
	assert.Empty(t, e.Search([]string{"bail"}, snap, 5))
}

func TestSearch_MatchedKeywords(t *testing.T) {
	e := NewEngine(DefaultConfig())
	snap := NewSnapshot(sampleCorpus())
	got := e.Search([]string{"privacy", "theft"}, snap, 5)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Len(t, r.MatchedKeywords, 1)
	}
}

func TestNewEngine_FallsBackToDefaultWeights(t *testing.T) {
	e := NewEngine(Config{})
	assert.Equal(t, 2.0, e.Config().TitleWeight)
	assert.Equal(t, 1.0, e.Config().ContentWeight)
}

func TestSnapshot_DropsDuplicateIDs(t *testing.T) {
	snap := NewSnapshot([]domain.Document{
		{ID: "a", Title: "first"},
		{ID: "a", Title: "second"},
	})
	assert.Equal(t, 1, snap.Len())
	d, ok := snap.Get("a")
	require.True(t, ok)
	assert.Equal(t, "first", d.Title)
}

func TestSnapshot_Acts(t *testing.T) {
	snap := NewSnapshot(sampleCorpus())
	assert.Equal(t, []string{
		"Information Technology Act",
		"Right to Privacy Act",
		"Digital Personal Data Protection Act",
		"Indian Penal Code",
	}, snap.Acts())
}
