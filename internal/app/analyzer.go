package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/biascheck/internal/classify"
	"github.com/hyperifyio/biascheck/internal/extract"
	"github.com/hyperifyio/biascheck/internal/scrape"
)

// DefaultMinContentChars is the shortest article text worth classifying.
const DefaultMinContentChars = 100

// Request validation and extraction outcomes reported to callers.
var (
	ErrURLRequired      = errors.New("url is required")
	ErrInvalidURL       = errors.New("invalid url format")
	ErrExtractionFailed = scrape.ErrExtractionFailed
	ErrContentTooShort  = errors.New("article content too short")
)

// ArticleExtractor turns a URL into article text.
type ArticleExtractor interface {
	Extract(ctx context.Context, u *url.URL) (extract.Article, error)
}

// VerdictClassifier produces a bias verdict and never fails.
type VerdictClassifier interface {
	Classify(ctx context.Context, title, content string) classify.Verdict
}

// Response is the result of analyzing one article.
type Response struct {
	Title     string           `json:"title"`
	Byline    string           `json:"byline,omitempty"`
	WordCount int              `json:"wordCount"`
	Analysis  classify.Verdict `json:"analysis"`
	// Strategy names the extraction strategy that produced the article.
	Strategy string `json:"-"`
}

// Analyzer runs extraction, the length gate and classification for one URL.
type Analyzer struct {
	Extractor       ArticleExtractor
	Classifier      VerdictClassifier
	MinContentChars int
}

// ValidateURL checks that raw is an absolute http(s) URL with a host. It does
// no network I/O.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrURLRequired
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Hostname() == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// Analyze validates rawURL, extracts the article and classifies it.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (Response, error) {
	logger := zerolog.Ctx(ctx)
	u, err := ValidateURL(rawURL)
	if err != nil {
		return Response{}, err
	}

	art, err := a.Extractor.Extract(ctx, u)
	if err != nil {
		if errors.Is(err, ErrExtractionFailed) {
			logger.Info().Str("url", u.String()).Msg("no strategy could extract the article")
			return Response{}, ErrExtractionFailed
		}
		return Response{}, fmt.Errorf("extract: %w", err)
	}

	min := a.MinContentChars
	if min <= 0 {
		min = DefaultMinContentChars
	}
	if n := utf8.RuneCountInString(art.Content); n < min {
		logger.Info().Int("chars", n).Int("min", min).Msg("article too short")
		return Response{}, ErrContentTooShort
	}

	title := strings.TrimSpace(art.Title)
	if title == "" {
		title = extract.UntitledPlaceholder
	}
	verdict := a.Classifier.Classify(ctx, title, art.Content)
	resp := Response{
		Title:     title,
		Byline:    art.Byline,
		WordCount: extract.WordCount(art.Content),
		Analysis:  verdict,
		Strategy:  art.Strategy,
	}
	logger.Info().
		Str("strategy", art.Strategy).
		Int("words", resp.WordCount).
		Str("label", verdict.Label).
		Msg("article analyzed")
	return resp, nil
}
