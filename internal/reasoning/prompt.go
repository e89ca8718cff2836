package reasoning

import (
	"fmt"
	"strings"

	"github.com/dgallion1/lawgpt/internal/domain"
)

// maxSourceChars bounds each source page in the analysis prompt.
const maxSourceChars = 1500

const ClassifyPrompt = `Classify the user's legal question into exactly one category.

- "search": the user wants to find a provision, act, section or case.
- "analysis": the user wants an explanation, interpretation, comparison or draft.
- "hybrid": the user needs both the relevant provisions and an explanation.

Respond with ONLY a JSON object: {"category": "<search|analysis|hybrid>", "confidence": <0.0-1.0>}`

const AnalyzePrompt = `You are a helpful Indian legal explainer for laypersons.

Explain what the law snippets below say about the user's question.
- Use short sentences and plain language. Avoid heavy legal jargon.
- Only rely on the sources given. If the answer is not clearly present, say the details are not fully clear and the user should check the bare act or consult a lawyer.
- Cite sources by their id.
- End the explanation with: "This information is for educational purposes, not legal advice."

Respond with ONLY a JSON object: {"explanation": "<text>", "citations": ["<source id>", ...]}`

// BuildClassifyPrompt wraps the question for the classifier.
func BuildClassifyPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString(ClassifyPrompt)
	sb.WriteString("\n\n[START_USER_QUERY]\n")
	sb.WriteString(text)
	sb.WriteString("\n[END_USER_QUERY]")
	return sb.String()
}

// BuildAnalyzePrompt renders the question and the retrieved pages.
func BuildAnalyzePrompt(req AnalysisRequest) string {
	var sb strings.Builder
	sb.WriteString(AnalyzePrompt)
	if req.LanguageHint == domain.LanguageHinglish {
		sb.WriteString("\nWrite the explanation in friendly Hinglish (a mix of Hindi and English).")
	}
	sb.WriteString("\n\n[START_USER_QUERY]\n")
	sb.WriteString(req.Query)
	sb.WriteString("\n[END_USER_QUERY]\n\n")

	if len(req.Context) == 0 {
		sb.WriteString("No matching law text found.\n")
		return sb.String()
	}
	for _, r := range req.Context {
		d := r.Document
		sb.WriteString("=== Source ===\n")
		sb.WriteString(fmt.Sprintf("id: %s\n", d.ID))
		sb.WriteString(fmt.Sprintf("title: %s - %s (Page %d)\n", d.ActName, d.Title, d.PageNo))
		sb.WriteString("snippet:\n")
		sb.WriteString(domain.Snippet(strings.TrimSpace(d.Content), maxSourceChars))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
