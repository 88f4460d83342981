package classify

import (
	"fmt"
	"strings"
)

// DefaultMaxContentChars bounds the article text sent to the model.
const DefaultMaxContentChars = 4000

// TruncationMarker is appended to content cut at the character limit.
const TruncationMarker = "... (truncated)"

const systemMessage = "You are an objective media bias analyst. Provide balanced, evidence-based assessments of news articles. Always respond with valid JSON only."

var factors = []string{
	"Language choice (emotionally charged vs neutral)",
	"Source selection and attribution",
	"Facts vs opinions presented",
	"Balance of perspectives",
	"Framing and context",
	"Omission of relevant information",
	"Headline tone compared to the body",
	"Selective or out-of-context quotes",
}

var confidenceBands = []string{
	"0.85-1.0: clear, repeated evidence across several factors",
	"0.60-0.84: consistent evidence in at least two factors",
	"0.30-0.59: limited or mixed evidence",
	"0.10-0.29: very little text or evidence to judge from",
}

// truncateChars returns s cut to at most max characters, never splitting a
// UTF-8 rune, with TruncationMarker appended when anything was removed.
func truncateChars(s string, max int) string {
	if max <= 0 {
		return TruncationMarker
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + TruncationMarker
		}
		n++
	}
	return s
}

// buildUserMessage renders the instruction prompt. content must already be
// truncated.
func buildUserMessage(title, content string) string {
	var b strings.Builder
	b.WriteString("Analyze the following news article for bias and provide a structured assessment.\n\n")
	fmt.Fprintf(&b, "Title: %s\n\n", strings.TrimSpace(title))
	fmt.Fprintf(&b, "Content: %s\n\n", content)
	b.WriteString("Return a single JSON object with exactly these fields:\n")
	fmt.Fprintf(&b, "- \"label\": one of %s\n", quoteList(Labels))
	b.WriteString("- \"reasoning\": 2-3 sentences explaining your assessment\n")
	b.WriteString("- \"confidence\": number from 0.0 to 1.0\n")
	b.WriteString("- \"categories\": array of article categories, e.g. [\"Political\", \"News\", \"Opinion\"]\n\n")
	b.WriteString("Consider factors like:\n")
	for _, f := range factors {
		b.WriteString("- ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString("\nConfidence guide:\n")
	for _, c := range confidenceBands {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	b.WriteString("\nBe objective and provide specific reasoning. Respond with the JSON object only, no markdown.")
	return b.String()
}

func quoteList(items []string) string {
	q := make([]string, len(items))
	for i, s := range items {
		q[i] = `"` + s + `"`
	}
	return strings.Join(q, ", ")
}
