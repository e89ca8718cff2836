package reasoning

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/lawgpt/internal/domain"
)

const (
	templateBullets      = 8
	templateSnippetChars = 220
	templateActs         = 3
)

var hinglishMarkers = []string{
	"kya", "kaise", "hai", "nahi", "nhai", "kyun", "kyunki", "matlab",
	"samjha", "samjhao", "batao", "agar", "toh", "aisa", "waise", "yaar",
}

// DetectLanguage guesses whether text is Hinglish. Two or more marker
// substrings are enough.
func DetectLanguage(text string) string {
	t := strings.ToLower(text)
	hits := 0
	for _, m := range hinglishMarkers {
		if strings.Contains(t, m) {
			hits++
		}
	}
	if hits >= 2 {
		return domain.LanguageHinglish
	}
	return domain.LanguageEnglish
}

// NoMatchExplanation is returned when retrieval found nothing to explain.
const NoMatchExplanation = "No clear match was found in the indexed bare acts/pages for this query.\n\n" +
	"Try the following:\n" +
	"- Type the exact name of the Act (for example: 'Digital Personal Data Protection Act 2023').\n" +
	"- If you know it, also mention the section/article number (for example: 'Section 43 IT Act')."

// Template is a deterministic Analyzer that needs no external service. It
// summarizes each context page in English or Hinglish.
type Template struct{}

func (Template) Analyze(ctx context.Context, req AnalysisRequest) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	if len(req.Context) == 0 {
		return Analysis{Text: NoMatchExplanation, Citations: []string{}}, nil
	}

	lang := req.LanguageHint
	if lang == "" {
		lang = DetectLanguage(req.Query)
	}
	hinglish := lang == domain.LanguageHinglish

	var sb strings.Builder
	acts := mainActs(req.Context)
	if hinglish {
		sb.WriteString(fmt.Sprintf("Tumne poocha: \"%s\"\n\n", req.Query))
		sb.WriteString("Jo bare acts aur judgments mile hain, unko dekh kar simplified explanation ye hai:\n")
		if acts != "" {
			sb.WriteString(fmt.Sprintf("Ye mainly in Acts/judgments se related hai: %s.\n\n", acts))
		}
	} else {
		sb.WriteString(fmt.Sprintf("You asked: \"%s\"\n\n", req.Query))
		sb.WriteString("Based on the bare acts and case law pages found in your documents, here is a simplified explanation:\n")
		if acts != "" {
			sb.WriteString(fmt.Sprintf("This mainly relates to these Acts/judgments: %s.\n\n", acts))
		}
	}

	used := req.Context
	if len(used) > templateBullets {
		used = used[:templateBullets]
	}
	citations := make([]string, 0, len(used))
	lines := make([]string, 0, len(used))
	for _, r := range used {
		d := r.Document
		label := strings.TrimSpace(d.ActName)
		if d.Title != "" {
			if label != "" {
				label = label + " – " + d.Title
			} else {
				label = d.Title
			}
		}
		snippet := strings.ReplaceAll(strings.TrimSpace(d.Content), "\n", " ")
		snippet = domain.Snippet(snippet, templateSnippetChars)

		if hinglish {
			lines = append(lines, fmt.Sprintf("- %s (Page %d): simple words me roughly ye bataya gaya hai ki \"%s\"", label, d.PageNo, snippet))
		} else {
			lines = append(lines, fmt.Sprintf("- %s (Page %d): in simple terms, this passage is talking about \"%s\"", label, d.PageNo, snippet))
		}
		citations = append(citations, d.ID)
	}
	sb.WriteString(strings.Join(lines, "\n"))

	return Analysis{Text: sb.String(), Citations: citations}, nil
}

// mainActs lists up to three distinct act names, sorted.
func mainActs(ctx []domain.ScoredResult) string {
	set := make(map[string]struct{})
	for _, r := range ctx {
		if a := strings.TrimSpace(r.Document.ActName); a != "" {
			set[a] = struct{}{}
		}
	}
	acts := make([]string, 0, len(set))
	for a := range set {
		acts = append(acts, a)
	}
	sort.Strings(acts)
	if len(acts) > templateActs {
		acts = acts[:templateActs]
	}
	return strings.Join(acts, ", ")
}
