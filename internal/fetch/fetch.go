package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	retry "github.com/sethvargo/go-retry"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent mimics a current desktop Chrome so naive bot filters let
// the static fetch through.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultMaxBodyBytes caps how much of a page body is read.
const DefaultMaxBodyBytes = 8 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

// Page is a fetched HTML document decoded to UTF-8.
type Page struct {
	URL         *url.URL
	ContentType string
	Body        []byte
}

// Client wraps http.Client and provides browser-like headers, timeouts and
// limited retry on transient errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// RetryDelay is the constant pause between attempts. Zero means 200ms.
	RetryDelay time.Duration
	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
	// MaxBodyBytes limits the body size. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET with context, browser headers, and bounded retry for
// transient errors (5xx and per-request timeouts).
func (c *Client) Get(ctx context.Context, rawURL string) (Page, error) {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))

	var page Page
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := c.tryOnce(ctx, rawURL)
		if err != nil {
			if isTransient(err) {
				log.Debug().Err(err).Str("url", rawURL).Msg("transient fetch error")
				return retry.RetryableError(err)
			}
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if req.URL == nil || !isHTTPScheme(req.URL) {
		return Page{}, fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	c.setBrowserHeaders(req)

	httpClient := c.getHTTPClient()
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, &StatusError{StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isAllowedHTMLContentType(contentType) {
		return Page{}, fmt.Errorf("unsupported content type: %s", contentType)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := decodeBody(io.LimitReader(resp.Body, limit), contentType)
	if err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}
	return Page{URL: resp.Request.URL, ContentType: contentType, Body: body}, nil
}

func (c *Client) setBrowserHeaders(req *http.Request) {
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// decodeBody converts the body to UTF-8 using the declared charset, falling
// back to sniffing <meta> tags.
func decodeBody(r io.Reader, contentType string) ([]byte, error) {
	utf8Reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(utf8Reader)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 && se.StatusCode <= 599
	}
	return false
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	// Servers that omit Content-Type usually serve HTML.
	if ct == "" {
		return true
	}
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
