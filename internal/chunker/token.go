package chunker

import "strings"

// tokensPerWord approximates subword tokens for English and Hinglish prose.
const tokensPerWord = 1.33

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return max(int(float64(words)*tokensPerWord), 1)
}

// wordsFor converts a token budget back into a word count.
func wordsFor(tokens int) int {
	return int(float64(tokens) / tokensPerWord)
}
