package extract

import (
    "fmt"
    "net/url"
    "strings"

    readability "github.com/go-shiori/go-readability"
    "golang.org/x/net/html"
)

// Readability extracts the main article body with a port of Mozilla's
// readability algorithm after pruning consent banners and scripts.
type Readability struct{}

var placeholderURL = &url.URL{Scheme: "http", Host: "localhost", Path: "/"}

func (Readability) Extract(input []byte, pageURL *url.URL) (Article, error) {
    doc, err := parseAndPrune(input)
    if err != nil {
        return Article{}, fmt.Errorf("parse html: %w", err)
    }
    if pageURL == nil {
        pageURL = placeholderURL
    }
    fallbackTitle := findTitle(doc)
    parsed, err := readability.FromDocument(doc, pageURL)
    if err != nil {
        return Article{}, fmt.Errorf("%w: %v", ErrNoArticle, err)
    }
    content := articleText(parsed.Content)
    if content == "" {
        content = Normalize(parsed.TextContent)
    }
    if content == "" {
        return Article{}, ErrNoArticle
    }
    title := strings.TrimSpace(collapseSpaces(parsed.Title))
    if title == "" {
        title = fallbackTitle
    }
    return Article{
        Title:   title,
        Content: content,
        Byline:  strings.TrimSpace(collapseSpaces(parsed.Byline)),
    }, nil
}

// articleText re-renders readability's cleaned HTML so paragraphs stay
// separated by blank lines.
func articleText(fragment string) string {
    if strings.TrimSpace(fragment) == "" {
        return ""
    }
    node, err := html.Parse(strings.NewReader(fragment))
    if err != nil {
        return ""
    }
    return nodeText(node)
}
