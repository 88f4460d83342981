package classify

import "github.com/hyperifyio/biascheck/internal/llm"

// Bias labels a successful verdict may carry.
const (
	LabelNeutral        = "Neutral"
	LabelSlightLeft     = "Slight Left Bias"
	LabelSlightRight    = "Slight Right Bias"
	LabelModerateLeft   = "Moderate Left Bias"
	LabelModerateRight  = "Moderate Right Bias"
	LabelStrongLeft     = "Strong Left Bias"
	LabelStrongRight    = "Strong Right Bias"
	LabelAnalysisFailed = "Analysis Failed"
)

// Labels lists the valid labels of a successful verdict, from neutral
// outwards.
var Labels = []string{
	LabelNeutral,
	LabelSlightLeft,
	LabelSlightRight,
	LabelModerateLeft,
	LabelModerateRight,
	LabelStrongLeft,
	LabelStrongRight,
}

// FailureReasoning is the fixed reasoning of the failure verdict.
const FailureReasoning = "Unable to analyze the article due to a technical error. Please try again."

// FailureCategory is the sole category of the failure verdict.
const FailureCategory = "Error"

// Verdict is the classifier output.
type Verdict struct {
	Label      string   `json:"label"`
	Reasoning  string   `json:"reasoning"`
	Confidence float64  `json:"confidence"`
	Categories []string `json:"categories"`
}

// Failed returns the sentinel verdict used whenever classification could not
// complete. Its label, zero confidence and ["Error"] categories only ever
// appear together.
func Failed() Verdict {
	return Verdict{
		Label:      LabelAnalysisFailed,
		Reasoning:  FailureReasoning,
		Confidence: 0,
		Categories: []string{FailureCategory},
	}
}

// IsFailed reports whether v is the failure sentinel.
func (v Verdict) IsFailed() bool { return v.Label == LabelAnalysisFailed }

// Schema describes the verdict object for providers that support
// schema-constrained output.
func Schema() *llm.Schema {
	return &llm.Schema{
		Name:        "bias_verdict",
		Description: "Media bias assessment of a single news article",
		Fields: []llm.Field{
			{Name: "label", Type: llm.FieldString, Enum: Labels, Description: "Overall bias label"},
			{Name: "reasoning", Type: llm.FieldString, Description: "2-3 sentences explaining the assessment"},
			{Name: "confidence", Type: llm.FieldNumber, Description: "Confidence between 0.0 and 1.0"},
			{Name: "categories", Type: llm.FieldStringList, Description: "Article categories such as Political, News, Opinion"},
		},
	}
}
