package function

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestAnalyze_RootRoutesToAnalyze(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("model must not be called for an invalid URL")
	})
	llm := httptest.NewServer(mux)
	defer llm.Close()

	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_BASE_URL", llm.URL+"/v1")
	t.Setenv("LLM_API_KEY", "test")
	t.Setenv("BROWSER_ENABLE", "false")
	handlerOnce = sync.Once{}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"url":"notaurl"}`))
	rec := httptest.NewRecorder()
	Analyze(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Invalid URL format" {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestAnalyze_InitFailure(t *testing.T) {
	orig := newHandler
	defer func() { newHandler = orig }()
	newHandler = func(context.Context) (http.Handler, error) {
		return nil, context.DeadlineExceeded
	}
	handlerOnce = sync.Once{}
	defer func() { handlerOnce = sync.Once{} }()

	rec := httptest.NewRecorder()
	Analyze(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rec.Code)
	}
}
