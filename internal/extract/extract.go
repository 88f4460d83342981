package extract

import (
    "bytes"
    "strings"

    "golang.org/x/net/html"
    "golang.org/x/text/unicode/norm"
)

// parseAndPrune parses HTML and strips elements that never carry article
// text: scripts, styles, embedded frames and cookie/consent containers.
func parseAndPrune(input []byte) (*html.Node, error) {
    node, err := html.Parse(bytes.NewReader(input))
    if err != nil {
        return nil, err
    }
    prune(node)
    return node, nil
}

func prune(n *html.Node) {
    for c := n.FirstChild; c != nil; {
        next := c.NextSibling
        if c.Type == html.ElementNode {
            switch strings.ToLower(c.Data) {
            case "script", "style", "noscript", "iframe", "template", "svg":
                n.RemoveChild(c)
                c = next
                continue
            }
            if isBoilerplateContainer(c) {
                n.RemoveChild(c)
                c = next
                continue
            }
        }
        if c.Type == html.CommentNode {
            n.RemoveChild(c)
            c = next
            continue
        }
        prune(c)
        c = next
    }
}

func findTitle(n *html.Node) string {
    head := findFirst(n, "head")
    if head == nil {
        return ""
    }
    t := findFirst(head, "title")
    if t == nil || t.FirstChild == nil {
        return ""
    }
    return strings.TrimSpace(collapseSpaces(t.FirstChild.Data))
}

func findFirst(n *html.Node, tag string) *html.Node {
    var res *html.Node
    var dfs func(*html.Node)
    dfs = func(cur *html.Node) {
        if res != nil {
            return
        }
        if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
            res = cur
            return
        }
        for c := cur.FirstChild; c != nil; c = c.NextSibling {
            dfs(c)
            if res != nil {
                return
            }
        }
    }
    dfs(n)
    return res
}

// nodeText renders the readable text below n with block elements separated
// by newlines, then normalizes it.
func nodeText(n *html.Node) string {
    var b strings.Builder
    collectText(&b, n)
    return Normalize(b.String())
}

func collectText(b *strings.Builder, n *html.Node) {
    if n.Type == html.ElementNode {
        if isBoilerplateContainer(n) {
            return
        }
        switch strings.ToLower(n.Data) {
        case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "button", "form":
            return
        case "br", "hr":
            b.WriteString("\n")
        case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "div", "section":
            b.WriteString("\n")
        }
    }

    if n.Type == html.TextNode {
        data := strings.ReplaceAll(n.Data, "\t", " ")
        data = strings.ReplaceAll(data, "\r", " ")
        b.WriteString(data)
    }

    for c := n.FirstChild; c != nil; c = c.NextSibling {
        collectText(b, c)
    }

    if n.Type == html.ElementNode {
        switch strings.ToLower(n.Data) {
        case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
            b.WriteString("\n\n")
        case "li", "div", "section":
            b.WriteString("\n")
        }
    }
}

// consentBannerIDs are element ids used by common consent platforms for the
// banner or modal itself.
var consentBannerIDs = map[string]bool{
    "onetrust-banner-sdk":   true,
    "onetrust-consent-sdk":  true,
    "cybotcookiebotdialog":  true,
    "didomi-host":           true,
    "didomi-popup":          true,
    "usercentrics-root":     true,
    "qc-cmp2-container":     true,
    "cmp-container":         true,
    "sp_message_container":  true,
    "cookie-banner":         true,
    "cookie-notice":         true,
    "cookie-consent":        true,
    "cookie-law-info-bar":   true,
    "gdpr-consent":          true,
    "gdpr-banner":           true,
}

var (
    consentWords = []string{"cookie", "consent", "gdpr", "onetrust", "cmp"}
    overlayWords = []string{"banner", "notice", "popup", "modal", "overlay", "dialog", "bar", "wall", "prompt"}
)

// minProtectedParagraphChars is the paragraph text mass that marks an element
// as holding real content.
const minProtectedParagraphChars = 400

// isBoilerplateContainer reports whether n is a consent banner or modal
// overlay. Elements holding article content are never boilerplate.
func isBoilerplateContainer(n *html.Node) bool {
    if n == nil || n.Type != html.ElementNode {
        return false
    }
    switch strings.ToLower(n.Data) {
    case "html", "body", "main", "article":
        return false
    }
    if !looksLikeOverlay(n) {
        return false
    }
    return !holdsContent(n)
}

func looksLikeOverlay(n *html.Node) bool {
    for _, attr := range n.Attr {
        val := strings.ToLower(strings.TrimSpace(attr.Val))
        switch strings.ToLower(attr.Key) {
        case "role":
            if val == "dialog" || val == "alertdialog" {
                return true
            }
        case "aria-modal":
            if val == "true" {
                return true
            }
        case "id":
            if consentBannerIDs[val] || isConsentOverlayToken(val) {
                return true
            }
        case "class":
            for _, tok := range strings.Fields(val) {
                if isConsentOverlayToken(tok) {
                    return true
                }
            }
        }
    }
    return false
}

// isConsentOverlayToken matches class or id tokens such as "cookie-banner" or
// "consent_modal" but not state markers like "cookie-consent-pending".
func isConsentOverlayToken(tok string) bool {
    parts := strings.FieldsFunc(tok, func(r rune) bool { return r == '-' || r == '_' })
    var consent, overlay bool
    for _, p := range parts {
        for _, w := range consentWords {
            if strings.HasPrefix(p, w) {
                consent = true
            }
        }
        for _, w := range overlayWords {
            if p == w {
                overlay = true
            }
        }
    }
    return consent && overlay
}

// holdsContent reports whether n contains an article container or enough
// paragraph text to be the page body.
func holdsContent(n *html.Node) bool {
    paragraphChars := 0
    found := false
    var walk func(*html.Node)
    walk = func(cur *html.Node) {
        if found {
            return
        }
        if cur.Type == html.ElementNode {
            switch strings.ToLower(cur.Data) {
            case "article", "main":
                found = true
                return
            case "p":
                paragraphChars += len(strings.TrimSpace(textOf(cur)))
                if paragraphChars >= minProtectedParagraphChars {
                    found = true
                }
                return
            }
            for _, a := range cur.Attr {
                if strings.EqualFold(a.Key, "itemprop") && strings.EqualFold(a.Val, "articleBody") {
                    found = true
                    return
                }
            }
        }
        for c := cur.FirstChild; c != nil; c = c.NextSibling {
            walk(c)
        }
    }
    for c := n.FirstChild; c != nil; c = c.NextSibling {
        walk(c)
    }
    return found
}

func textOf(n *html.Node) string {
    var b strings.Builder
    var walk func(*html.Node)
    walk = func(cur *html.Node) {
        if cur.Type == html.TextNode {
            b.WriteString(cur.Data)
        }
        for c := cur.FirstChild; c != nil; c = c.NextSibling {
            walk(c)
        }
    }
    walk(n)
    return b.String()
}

// Normalize converts extracted text into the canonical content form: NFC
// unicode, trimmed lines, single spaces inside lines and at most one blank
// line between blocks.
func Normalize(s string) string {
    s = norm.NFC.String(s)
    s = strings.ReplaceAll(s, "\u00a0", " ")
    lines := strings.Split(s, "\n")
    out := make([]string, 0, len(lines))
    for _, line := range lines {
        trimmed := strings.TrimSpace(line)
        if trimmed == "" {
            if len(out) == 0 || out[len(out)-1] == "" {
                continue
            }
            out = append(out, "")
            continue
        }
        out = append(out, collapseSpaces(trimmed))
    }
    for len(out) > 0 && out[len(out)-1] == "" {
        out = out[:len(out)-1]
    }
    return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
    var b strings.Builder
    lastSpace := false
    for _, r := range s {
        if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
            if !lastSpace {
                b.WriteByte(' ')
                lastSpace = true
            }
            continue
        }
        b.WriteRune(r)
        lastSpace = false
    }
    return b.String()
}
