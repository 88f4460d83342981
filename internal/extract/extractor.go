package extract

import (
    "errors"
    "net/url"
    "strings"
)

// ErrNoArticle is returned when an extractor cannot identify article content
// in the supplied HTML.
var ErrNoArticle = errors.New("no article content found")

// Article is the canonical result of a successful extraction.
type Article struct {
    Title   string `json:"title"`
    Content string `json:"content"`
    Byline  string `json:"byline,omitempty"`
    // Strategy names the strategy that produced the article. It is set by the
    // scraper and only used for diagnostics.
    Strategy string `json:"-"`
}

// Extractor defines a minimal interface for content extraction strategies.
// Implementations can swap readability tactics without changing callers.
type Extractor interface {
    // Extract converts raw HTML bytes into an Article. pageURL is used to
    // resolve relative links and may be nil. Implementations must be
    // deterministic and must not mutate input.
    Extract(input []byte, pageURL *url.URL) (Article, error)
}

// WordCount returns the number of whitespace-separated tokens in s.
func WordCount(s string) int {
    return len(strings.Fields(s))
}
