package extract

import (
    "net/url"
    "strings"
    "unicode/utf8"

    "github.com/PuerkitoBio/goquery"
)

// UntitledPlaceholder is the title used when a page has neither a heading
// nor a <title>.
const UntitledPlaceholder = "Untitled Article"

// DefaultMinFragmentChars drops text blocks shorter than this many characters
// when assembling content from selector matches.
const DefaultMinFragmentChars = 50

// contentSelectors are tried in order; the first one that yields at least one
// usable text block wins. The bare paragraph selector is the last resort.
var contentSelectors = []string{
    "article",
    `[itemprop="articleBody"]`,
    ".article-body",
    ".article-content",
    ".story-body",
    ".entry-content",
    ".post-content",
    "main",
    `[role="main"]`,
    "p",
}

var bylineSelectors = []string{
    `[rel="author"]`,
    `[itemprop="author"]`,
    ".byline",
    ".author",
}

// Selectors is the heuristic fallback extractor. It matches a prioritized list
// of CSS selectors and concatenates the text of matching elements.
type Selectors struct {
    // MinFragmentChars overrides DefaultMinFragmentChars when positive.
    MinFragmentChars int
}

func (s Selectors) Extract(input []byte, _ *url.URL) (Article, error) {
    root, err := parseAndPrune(input)
    if err != nil {
        return Article{}, err
    }
    doc := goquery.NewDocumentFromNode(root)

    min := s.MinFragmentChars
    if min <= 0 {
        min = DefaultMinFragmentChars
    }
    var blocks []string
    for _, sel := range contentSelectors {
        blocks = collectBlocks(doc.Find(sel), min)
        if len(blocks) > 0 {
            break
        }
    }
    if len(blocks) == 0 {
        return Article{}, ErrNoArticle
    }
    return Article{
        Title:   selectTitle(doc),
        Content: strings.Join(blocks, "\n\n"),
        Byline:  selectByline(doc),
    }, nil
}

// collectBlocks turns matched elements into text blocks. Containers that hold
// paragraphs contribute one block per paragraph so short captions and share
// widgets inside them can be filtered individually.
func collectBlocks(matches *goquery.Selection, min int) []string {
    var blocks []string
    seen := map[string]struct{}{}
    add := func(text string) {
        if utf8.RuneCountInString(text) < min {
            return
        }
        if _, dup := seen[text]; dup {
            return
        }
        seen[text] = struct{}{}
        blocks = append(blocks, text)
    }
    matches.Each(func(_ int, sel *goquery.Selection) {
        paragraphs := sel.Find("p")
        if goquery.NodeName(sel) == "p" || paragraphs.Length() == 0 {
            for _, n := range sel.Nodes {
                add(nodeText(n))
            }
            return
        }
        paragraphs.Each(func(_ int, p *goquery.Selection) {
            for _, n := range p.Nodes {
                add(nodeText(n))
            }
        })
    })
    return blocks
}

func selectTitle(doc *goquery.Document) string {
    if h := strings.TrimSpace(collapseSpaces(doc.Find("h1").First().Text())); h != "" {
        return h
    }
    if t := strings.TrimSpace(collapseSpaces(doc.Find("title").First().Text())); t != "" {
        return t
    }
    return UntitledPlaceholder
}

func selectByline(doc *goquery.Document) string {
    for _, sel := range bylineSelectors {
        if v := strings.TrimSpace(collapseSpaces(doc.Find(sel).First().Text())); v != "" {
            return v
        }
    }
    if v, ok := doc.Find(`meta[name="author"]`).First().Attr("content"); ok {
        return strings.TrimSpace(v)
    }
    return ""
}
