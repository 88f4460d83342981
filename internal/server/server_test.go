package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/hyperifyio/biascheck/internal/app"
	"github.com/hyperifyio/biascheck/internal/classify"
	"github.com/hyperifyio/biascheck/internal/extract"
	"github.com/hyperifyio/biascheck/internal/llm"
)

type analyzerFunc func(ctx context.Context, rawURL string) (app.Response, error)

func (f analyzerFunc) Analyze(ctx context.Context, rawURL string) (app.Response, error) {
	return f(ctx, rawURL)
}

type countingExtractor struct {
	calls int
	art   extract.Article
	err   error
}

func (c *countingExtractor) Extract(ctx context.Context, u *url.URL) (extract.Article, error) {
	c.calls++
	return c.art, c.err
}

type failingProvider struct{ calls int }

func (p *failingProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	p.calls++
	return "", errors.New("dial tcp 10.0.0.1:443: connect: connection refused")
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

var articleText = strings.Repeat("Lawmakers traded sharp words over the proposed energy bill on Monday. ", 5)

func TestAnalyze_StatusContract(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		ex     *countingExtractor
		status int
		msg    string
		calls  int
	}{
		{"missing url", `{}`, &countingExtractor{}, 400, msgURLRequired, 0},
		{"empty url", `{"url":""}`, &countingExtractor{}, 400, msgURLRequired, 0},
		{"malformed url", `{"url":"not a url"}`, &countingExtractor{}, 400, msgInvalidURL, 0},
		{"extraction failed", `{"url":"https://example.com/404"}`, &countingExtractor{err: app.ErrExtractionFailed}, 400, msgExtractionFailed, 1},
		{"too short", `{"url":"https://example.com/brief"}`, &countingExtractor{art: extract.Article{Title: "t", Content: strings.Repeat("a", 40)}}, 400, msgContentTooShort, 1},
		{"unexpected", `{"url":"https://example.com/x"}`, &countingExtractor{err: context.Canceled}, 500, msgInternal, 1},
		{"not json", `url=https://example.com`, &countingExtractor{}, 500, msgInternal, 0},
	}
	for _, tc := range cases {
		a := &app.Analyzer{Extractor: tc.ex, Classifier: &classify.Classifier{Provider: &failingProvider{}}}
		rec := post(t, New(a).Routes(), tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: status=%d, want %d (body %s)", tc.name, rec.Code, tc.status, rec.Body.String())
		}
		if got := decodeError(t, rec); got != tc.msg {
			t.Fatalf("%s: error=%q, want %q", tc.name, got, tc.msg)
		}
		if tc.ex.calls != tc.calls {
			t.Fatalf("%s: extractor calls=%d, want %d", tc.name, tc.ex.calls, tc.calls)
		}
	}
}

func TestAnalyze_ProviderErrorStillOK(t *testing.T) {
	p := &failingProvider{}
	a := &app.Analyzer{
		Extractor:  &countingExtractor{art: extract.Article{Title: "Energy bill", Content: articleText}},
		Classifier: &classify.Classifier{Provider: p},
	}
	rec := post(t, New(a).Routes(), `{"url":"https://example.com/energy"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
	var body struct {
		Title     string           `json:"title"`
		WordCount int              `json:"wordCount"`
		Analysis  classify.Verdict `json:"analysis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Analysis.Label != classify.LabelAnalysisFailed || body.Analysis.Confidence != 0 || len(body.Analysis.Categories) != 1 || body.Analysis.Categories[0] != "Error" {
		t.Fatalf("expected failure sentinel, got %+v", body.Analysis)
	}
	if body.WordCount != len(strings.Fields(articleText)) || body.Title != "Energy bill" {
		t.Fatalf("unexpected body %+v", body)
	}
	if p.calls != 1 {
		t.Fatalf("provider calls=%d, want 1", p.calls)
	}
}

func TestAnalyze_ResponseShape(t *testing.T) {
	a := analyzerFunc(func(ctx context.Context, rawURL string) (app.Response, error) {
		return app.Response{Title: "T", WordCount: 3, Strategy: "rendered", Analysis: classify.Verdict{Label: classify.LabelNeutral, Reasoning: "r", Confidence: 0.5, Categories: []string{"News"}}}, nil
	})
	rec := post(t, New(a).Routes(), `{"url":"https://example.com"}`)
	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := raw["byline"]; ok {
		t.Fatal("empty byline must be omitted")
	}
	if _, ok := raw["Strategy"]; ok {
		t.Fatal("strategy must not leak into the response")
	}
	if raw["wordCount"] != float64(3) || raw["title"] != "T" {
		t.Fatalf("unexpected body %v", raw)
	}
}

func TestAnalyze_PanicRecovered(t *testing.T) {
	a := analyzerFunc(func(ctx context.Context, rawURL string) (app.Response, error) {
		panic("boom")
	})
	rec := post(t, New(a).Routes(), `{"url":"https://example.com"}`)
	if rec.Code != http.StatusInternalServerError || decodeError(t, rec) != msgInternal {
		t.Fatalf("expected generic 500, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	h := New(analyzerFunc(func(ctx context.Context, rawURL string) (app.Response, error) {
		return app.Response{}, app.ErrURLRequired
	})).Routes()

	rec := post(t, h, `{}`)
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Fatalf("expected generated request id, got %q", rec.Header().Get(RequestIDHeader))
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{}`))
	req.Header.Set(RequestIDHeader, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != id {
		t.Fatalf("incoming request id should be echoed")
	}
}

func TestHealthAndMethods(t *testing.T) {
	h := New(analyzerFunc(func(ctx context.Context, rawURL string) (app.Response, error) {
		return app.Response{}, nil
	})).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET analyze: status=%d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/analyze", nil))
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: status=%d", rec.Code)
	}
}
