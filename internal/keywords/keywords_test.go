package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerms_Basic(t *testing.T) {
	got := Terms("What is the Right to Privacy under data protection law?")
	assert.Equal(t, []string{"right", "privacy", "data", "protection"}, got)
}

func TestTerms_Empty(t *testing.T) {
	got := Terms("")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, Terms("  ... !!! "))
}

func TestTerms_DedupKeepsFirstOccurrence(t *testing.T) {
	got := Terms("bail Bail BAIL custody bail")
	assert.Equal(t, []string{"bail", "custody"}, got)
}

func TestTerms_DropsSingleCharacters(t *testing.T) {
	got := Terms("a b c 21 x article 21A")
	assert.Equal(t, []string{"21", "21a"}, got)
}

func TestTerms_SplitsOnPunctuation(t *testing.T) {
	got := Terms("self-incrimination/arrest,detention")
	assert.Equal(t, []string{"self", "incrimination", "arrest", "detention"}, got)
}

func TestTerms_Unicode(t *testing.T) {
	got := Terms("धारा 21 अधिकार")
	assert.Equal(t, []string{"धारा", "21", "अधिकार"}, got)
}

func TestExtract_MaxKeywords(t *testing.T) {
	e := New(2)
	assert.Equal(t, []string{"arrest", "warrant"}, e.Extract("arrest warrant magistrate custody"))
}

func TestExtract_ZeroValueUnlimited(t *testing.T) {
	var e Extractor
	assert.Len(t, e.Extract("one two three four five six seven"), 7)
}

func TestExtract_Synonyms(t *testing.T) {
	e := New(0).WithSynonyms(map[string][]string{
		"privacy": {"Confidentiality", "personal data"},
		"arrest":  {"detention"},
	})
	got := e.Extract("privacy rights data")
	assert.Equal(t, []string{"privacy", "rights", "data", "confidentiality", "personal"}, got)
}

func TestWithSynonyms_DoesNotMutateReceiver(t *testing.T) {
	base := New(3)
	_ = base.WithSynonyms(map[string][]string{"bail": {"bond"}})
	assert.Equal(t, []string{"bail"}, base.Extract("bail"))
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("thereof"))
	assert.True(t, IsStopWord("the"))
	assert.False(t, IsStopWord("privacy"))
}
