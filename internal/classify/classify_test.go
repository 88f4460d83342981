package classify

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hyperifyio/biascheck/internal/llm"
)

type fakeProvider struct {
	out   string
	err   error
	calls int
	last  llm.Request
}

func (f *fakeProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	f.last = req
	return f.out, f.err
}

const plainVerdict = `{"label":"Slight Left Bias","reasoning":"Loaded adjectives favour one side.","confidence":0.72,"categories":["Political","News"]}`

func assertFailed(t *testing.T, v Verdict) {
	t.Helper()
	if v.Label != LabelAnalysisFailed || v.Confidence != 0 || !reflect.DeepEqual(v.Categories, []string{"Error"}) || v.Reasoning != FailureReasoning {
		t.Fatalf("expected failure sentinel, got %+v", v)
	}
}

func TestParseVerdict_FencedEqualsUnfenced(t *testing.T) {
	plain, ok := ParseVerdict(plainVerdict)
	if !ok {
		t.Fatal("plain verdict should parse")
	}
	for _, raw := range []string{
		"```json\n" + plainVerdict + "\n```",
		"```\n" + plainVerdict + "\n```",
		"```JSON " + plainVerdict + "```",
	} {
		fenced, ok := ParseVerdict(raw)
		if !ok {
			t.Fatalf("fenced verdict should parse: %q", raw)
		}
		if !reflect.DeepEqual(plain, fenced) {
			t.Fatalf("fenced and unfenced differ: %+v vs %+v", plain, fenced)
		}
	}
}

func TestParseVerdict_ProseWrapped(t *testing.T) {
	raw := "Sure! Here is my assessment:\n" + plainVerdict + "\nLet me know if you need anything else {smile}."
	v, ok := ParseVerdict(raw)
	if !ok {
		t.Fatal("prose-wrapped verdict should be recovered")
	}
	if v.Label != LabelSlightLeft || v.Confidence != 0.72 {
		t.Fatalf("unexpected verdict %+v", v)
	}
}

func TestParseVerdict_BracesInsideStrings(t *testing.T) {
	raw := `Note {draft} then {"label":"Neutral","reasoning":"Quotes like \"}\" and {braces} are fine.","confidence":0.5,"categories":["News"]} end`
	v, ok := ParseVerdict(raw)
	if !ok {
		t.Fatal("verdict with braces in strings should parse")
	}
	if v.Reasoning != `Quotes like "}" and {braces} are fine.` {
		t.Fatalf("unexpected reasoning %q", v.Reasoning)
	}
}

func TestParseVerdict_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"no object":     "I cannot analyze this article.",
		"unbalanced":    `{"label":"Neutral","reasoning":"x","confidence":0.4`,
		"unknown label": `{"label":"Mixed","reasoning":"x","confidence":0.4,"categories":[]}`,
		"failed label":  `{"label":"Analysis Failed","reasoning":"x","confidence":0,"categories":["Error"]}`,
		"no reasoning":  `{"label":"Neutral","confidence":0.4}`,
		"bad conf":      `{"label":"Neutral","reasoning":"x","confidence":"high"}`,
		"array":         `[{"label":"Neutral"}]`,
	}
	for name, raw := range cases {
		if v, ok := ParseVerdict(raw); ok {
			t.Fatalf("%s: expected rejection, got %+v", name, v)
		}
	}
}

func TestCanonicalLabel(t *testing.T) {
	cases := map[string]string{
		"neutral":                  LabelNeutral,
		"  NEUTRAL ":               LabelNeutral,
		"Centrist":                 LabelNeutral,
		"slight-left bias":         LabelSlightLeft,
		"Leans Right":              LabelSlightRight,
		"center-left":              LabelSlightLeft,
		"Moderate_Right_Bias":      LabelModerateRight,
		"left":                     LabelModerateLeft,
		"Strongly Conservative":    LabelStrongRight,
		"far-left":                 LabelStrongLeft,
		"Strong Right Bias":        LabelStrongRight,
		"Moderately Right-Leaning": LabelModerateRight,
		"Strongly Left-Leaning":    LabelStrongLeft,
		"Strong Lean Left":         LabelStrongLeft,
		"Left-Leaning":             LabelSlightLeft,
		"slightly leaning right":   LabelSlightRight,
	}
	for in, want := range cases {
		got, ok := CanonicalLabel(in)
		if !ok || got != want {
			t.Fatalf("CanonicalLabel(%q) = %q,%v; want %q", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "left and right", "slight strong left", "Analysis Failed", "pro-government"} {
		if got, ok := CanonicalLabel(in); ok {
			t.Fatalf("CanonicalLabel(%q) should fail, got %q", in, got)
		}
	}
}

func TestParseVerdict_IntensityWithLeaning(t *testing.T) {
	v, ok := ParseVerdict(`{"label":"Moderately Right-Leaning","reasoning":"Framing favours one party.","confidence":0.6,"categories":["Politics"]}`)
	if !ok || v.Label != LabelModerateRight {
		t.Fatalf("expected Moderate Right Bias, got %+v ok=%v", v, ok)
	}
}

func TestParseConfidenceForms(t *testing.T) {
	cases := map[string]float64{
		`0.8`:    0.8,
		`"0.65"`: 0.65,
		`"85%"`:  0.85,
		`90`:     0.9,
		`0`:      minConfidence,
		`-1`:     minConfidence,
		`250`:    1,
	}
	for raw, want := range cases {
		got, ok := parseConfidence([]byte(raw))
		if !ok || got != want {
			t.Fatalf("parseConfidence(%s) = %v,%v; want %v", raw, got, ok, want)
		}
	}
}

func TestParseCategories(t *testing.T) {
	if got := parseCategories([]byte(`["Political"," news ","Error","political",3]`)); !reflect.DeepEqual(got, []string{"Political", "news"}) {
		t.Fatalf("unexpected categories %v", got)
	}
	if got := parseCategories([]byte(`"Opinion, Economy"`)); !reflect.DeepEqual(got, []string{"Opinion", "Economy"}) {
		t.Fatalf("unexpected categories %v", got)
	}
	if got := parseCategories(nil); !reflect.DeepEqual(got, []string{"General"}) {
		t.Fatalf("missing categories should default to General, got %v", got)
	}
	if got := parseCategories([]byte(`["Error"]`)); !reflect.DeepEqual(got, []string{"General"}) {
		t.Fatalf("error-only categories should default to General, got %v", got)
	}
}

func TestClassify_Success(t *testing.T) {
	p := &fakeProvider{out: "```json\n" + plainVerdict + "\n```"}
	c := &Classifier{Provider: p, Model: "gpt-4o-mini", Temperature: DefaultTemperature, UseSchema: true}
	v := c.Classify(context.Background(), "Budget vote", strings.Repeat("word ", 200))
	if v.IsFailed() || v.Label != LabelSlightLeft {
		t.Fatalf("unexpected verdict %+v", v)
	}
	if p.last.MaxTokens != DefaultMaxTokens || p.last.Temperature != DefaultTemperature {
		t.Fatalf("request not bounded: %+v", p.last)
	}
	if p.last.Schema == nil || p.last.System == "" {
		t.Fatalf("expected schema and system message")
	}
	if !strings.Contains(p.last.Prompt, "Title: Budget vote") {
		t.Fatalf("prompt missing title")
	}
}

func TestClassify_TruncatesContent(t *testing.T) {
	p := &fakeProvider{out: plainVerdict}
	c := &Classifier{Provider: p, Model: "gpt-4o-mini", MaxContentChars: 10}
	c.Classify(context.Background(), "t", "ééééééééééééééé and more")
	if !strings.Contains(p.last.Prompt, "Content: éééééééééé"+TruncationMarker) {
		t.Fatalf("content should be cut to 10 characters with marker: %q", p.last.Prompt)
	}
	if !utf8.ValidString(p.last.Prompt) {
		t.Fatal("prompt must stay valid UTF-8")
	}
}

func TestClassify_ShortContentNotMarked(t *testing.T) {
	p := &fakeProvider{out: plainVerdict}
	c := &Classifier{Provider: p}
	c.Classify(context.Background(), "t", "short body")
	if strings.Contains(p.last.Prompt, TruncationMarker) {
		t.Fatal("untruncated content must not carry the marker")
	}
}

func TestClassify_NoRoomForContentFails(t *testing.T) {
	p := &fakeProvider{out: plainVerdict}
	c := &Classifier{Provider: p, Model: "gpt-oss-20b", MaxTokens: 4000}
	assertFailed(t, c.Classify(context.Background(), "t", strings.Repeat("word ", 100)))
	if p.calls != 0 {
		t.Fatalf("model must not be called with an empty article, calls=%d", p.calls)
	}
}

func TestClassify_FailuresYieldSentinel(t *testing.T) {
	assertFailed(t, (&Classifier{Provider: &fakeProvider{err: errors.New("dial tcp: connection refused")}}).Classify(context.Background(), "t", "c"))
	assertFailed(t, (&Classifier{Provider: &fakeProvider{out: "no json here"}}).Classify(context.Background(), "t", "c"))
	assertFailed(t, (&Classifier{}).Classify(context.Background(), "t", "c"))
}

func TestVerdictTripleCoupling(t *testing.T) {
	outs := []string{
		plainVerdict,
		`{"label":"Neutral","reasoning":"r","confidence":0,"categories":["Error"]}`,
		`{"label":"Neutral","reasoning":"r","confidence":"0%","categories":[]}`,
		"garbage",
	}
	for _, out := range outs {
		v := (&Classifier{Provider: &fakeProvider{out: out}}).Classify(context.Background(), "t", "c")
		failed := v.Label == LabelAnalysisFailed
		zero := v.Confidence == 0
		errCats := reflect.DeepEqual(v.Categories, []string{"Error"})
		if failed != zero || zero != errCats {
			t.Fatalf("label/confidence/categories coupling broken for %q: %+v", out, v)
		}
	}
}

func TestSchemaLabelsExcludeSentinel(t *testing.T) {
	for _, f := range Schema().Fields {
		if f.Name != "label" {
			continue
		}
		for _, l := range f.Enum {
			if l == LabelAnalysisFailed {
				t.Fatal("schema enum must not offer the failure label")
			}
		}
		return
	}
	t.Fatal("schema has no label field")
}

func TestBuildUserMessage_FactorsAndBands(t *testing.T) {
	msg := buildUserMessage("  Budget vote ", "body")
	if !strings.Contains(msg, "Title: Budget vote\n") {
		t.Fatalf("title not trimmed: %q", msg)
	}
	for _, want := range append(append([]string{}, factors...), confidenceBands...) {
		if !strings.Contains(msg, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	for _, l := range Labels {
		if !strings.Contains(msg, `"`+l+`"`) {
			t.Fatalf("prompt missing label %q", l)
		}
	}
	if len(factors) != 8 || len(confidenceBands) != 4 {
		t.Fatalf("unexpected rubric sizes %d/%d", len(factors), len(confidenceBands))
	}
}
