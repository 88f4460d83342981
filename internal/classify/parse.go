package classify

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// minConfidence keeps successful verdicts strictly above the failure
// sentinel's zero confidence.
const minConfidence = 0.01

// maxBraceCandidates bounds the brace scan on pathological responses.
const maxBraceCandidates = 64

var fenceRe = regexp.MustCompile("```[A-Za-z]*[ \t]*\r?\n?")

// parseAttempt turns raw model text into candidate JSON object strings.
type parseAttempt struct {
	name       string
	candidates func(raw string) []string
}

// parseLadder is tried in order; the first candidate that decodes into a
// valid verdict wins.
var parseLadder = []parseAttempt{
	{name: "fence-strip", candidates: func(raw string) []string {
		if !strings.Contains(raw, "```") {
			return nil
		}
		return []string{stripFences(raw)}
	}},
	{name: "direct", candidates: func(raw string) []string {
		return []string{strings.TrimSpace(raw)}
	}},
	{name: "brace-scan", candidates: func(raw string) []string {
		return balancedObjects(stripFences(raw), maxBraceCandidates)
	}},
}

// ParseVerdict recovers a verdict from raw model output. It reports false
// when no attempt yields a valid verdict.
func ParseVerdict(raw string) (Verdict, bool) {
	v, _, ok := parseVerdict(raw)
	return v, ok
}

func parseVerdict(raw string) (Verdict, string, bool) {
	if strings.TrimSpace(raw) == "" {
		return Verdict{}, "", false
	}
	for _, a := range parseLadder {
		for _, c := range a.candidates(raw) {
			if v, ok := decodeVerdict(c); ok {
				return v, a.name, true
			}
		}
	}
	return Verdict{}, "", false
}

func stripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

// balancedObjects returns the substrings of s that start at a '{' and end at
// its matching '}', in order of their opening brace. Braces inside JSON
// strings are ignored.
func balancedObjects(s string, limit int) []string {
	var out []string
	for start := 0; start < len(s) && len(out) < limit; start++ {
		if s[start] != '{' {
			continue
		}
		if end := matchBrace(s, start); end > 0 {
			out = append(out, s[start:end+1])
		}
	}
	return out
}

func matchBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

type rawVerdict struct {
	Label      *string         `json:"label"`
	Reasoning  *string         `json:"reasoning"`
	Confidence json.RawMessage `json:"confidence"`
	Categories json.RawMessage `json:"categories"`
}

func decodeVerdict(s string) (Verdict, bool) {
	if !strings.HasPrefix(s, "{") {
		return Verdict{}, false
	}
	var rv rawVerdict
	if err := json.Unmarshal([]byte(s), &rv); err != nil {
		return Verdict{}, false
	}
	return normalize(rv)
}

func normalize(rv rawVerdict) (Verdict, bool) {
	if rv.Label == nil || rv.Reasoning == nil {
		return Verdict{}, false
	}
	label, ok := CanonicalLabel(*rv.Label)
	if !ok {
		return Verdict{}, false
	}
	reasoning := strings.TrimSpace(*rv.Reasoning)
	if reasoning == "" {
		return Verdict{}, false
	}
	conf, ok := parseConfidence(rv.Confidence)
	if !ok {
		return Verdict{}, false
	}
	return Verdict{
		Label:      label,
		Reasoning:  reasoning,
		Confidence: conf,
		Categories: parseCategories(rv.Categories),
	}, true
}

// parseConfidence accepts a number, a numeric string or a percentage and
// clamps the result into [minConfidence, 1].
func parseConfidence(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(s)
		percent := strings.HasSuffix(s, "%")
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		if percent {
			v /= 100
		}
		f = v
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// Models sometimes answer on a 0-100 scale.
	if f > 1 && f <= 100 {
		f /= 100
	}
	return math.Min(1, math.Max(minConfidence, f)), true
}

// parseCategories accepts an array of strings or a comma separated string.
// The failure category is never kept and an empty result becomes
// ["General"].
func parseCategories(raw json.RawMessage) []string {
	var items []string
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, it := range list {
			if s, ok := it.(string); ok {
				items = append(items, s)
			}
		}
	} else {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			items = strings.Split(s, ",")
		}
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		it = strings.Join(strings.Fields(it), " ")
		key := strings.ToLower(it)
		if it == "" || key == strings.ToLower(FailureCategory) || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	if len(out) == 0 {
		return []string{"General"}
	}
	return out
}

var (
	neutralAliases = map[string]bool{
		"neutral": true, "no bias": true, "none": true, "unbiased": true,
		"balanced": true, "center": true, "centre": true, "centrist": true,
		"neutral bias": true, "minimal bias": true,
	}
	leftWords      = map[string]bool{"left": true, "liberal": true, "progressive": true}
	rightWords     = map[string]bool{"right": true, "conservative": true}
	slightWords    = map[string]bool{"slight": true, "slightly": true, "mild": true, "mildly": true, "center": true, "centre": true}
	// leanWords imply Slight only when no other intensity word is present.
	leanWords      = map[string]bool{"lean": true, "leaning": true, "leans": true}
	moderateWords  = map[string]bool{"moderate": true, "moderately": true}
	strongWords    = map[string]bool{"strong": true, "strongly": true, "heavy": true, "heavily": true, "extreme": true, "far": true, "hard": true}
	labelSeparator = strings.NewReplacer("-", " ", "_", " ", ".", " ")
)

// CanonicalLabel maps a model supplied label onto one of Labels. It tolerates
// case, spacing, hyphenation and common synonyms. "Leaning" alone reads as
// slight; a side without any intensity is treated as moderate. The failure label is never accepted.
func CanonicalLabel(s string) (string, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(labelSeparator.Replace(s)), " "))
	if key == "" {
		return "", false
	}
	if neutralAliases[key] {
		return LabelNeutral, true
	}
	var left, right, leaning bool
	intensity := ""
	for _, w := range strings.Fields(key) {
		switch {
		case leftWords[w]:
			left = true
		case rightWords[w]:
			right = true
		case leanWords[w]:
			leaning = true
		case slightWords[w]:
			intensity = setIntensity(intensity, "Slight")
		case moderateWords[w]:
			intensity = setIntensity(intensity, "Moderate")
		case strongWords[w]:
			intensity = setIntensity(intensity, "Strong")
		case w == "bias" || w == "biased" || w == "wing" || w == "of":
		default:
			return "", false
		}
	}
	if left == right || intensity == "conflict" {
		return "", false
	}
	if intensity == "" && leaning {
		intensity = "Slight"
	}
	if intensity == "" {
		intensity = "Moderate"
	}
	side := "Left"
	if right {
		side = "Right"
	}
	return intensity + " " + side + " Bias", true
}

func setIntensity(cur, next string) string {
	if cur == "" || cur == next {
		return next
	}
	return "conflict"
}
