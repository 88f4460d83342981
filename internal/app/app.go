package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/biascheck/internal/classify"
	"github.com/hyperifyio/biascheck/internal/fetch"
	"github.com/hyperifyio/biascheck/internal/llm"
	"github.com/hyperifyio/biascheck/internal/render"
	"github.com/hyperifyio/biascheck/internal/scrape"
)

// App owns the long-lived clients shared by all requests.
type App struct {
	cfg      Config
	analyzer *Analyzer
	closers  []io.Closer
}

// New builds the HTTP client, renderer and LLM provider once and wires them
// into an Analyzer.
func New(ctx context.Context, cfg Config) (*App, error) {
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	applyDefaults(&cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	httpClient := newHighThroughputHTTPClient()
	a := &App{cfg: cfg}

	provider, err := a.newProvider(ctx, httpClient)
	if err != nil {
		return nil, err
	}

	fetcher := &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       cfg.FetchAttempts,
		PerRequestTimeout: cfg.FetchTimeout,
		RedirectMaxHops:   5,
	}
	scraper := &scrape.Scraper{Fetcher: fetcher}
	if cfg.BrowserEnabled {
		ua := cfg.UserAgent
		if ua == "" {
			ua = fetch.DefaultUserAgent
		}
		scraper.Renderer = &render.Headless{
			Launcher: &render.ChromeLauncher{
				ExecPath:    cfg.BrowserPath,
				UserAgent:   ua,
				NoSandbox:   cfg.BrowserNoSandbox,
				NavTimeout:  cfg.BrowserNavTimeout,
				SettleDelay: cfg.BrowserSettleDelay,
			},
			MaxConcurrent: cfg.BrowserMaxConcurrent,
		}
	} else {
		log.Info().Msg("headless browser disabled; only static extraction is available")
	}

	a.analyzer = &Analyzer{
		Extractor: scraper,
		Classifier: &classify.Classifier{
			Provider:        provider,
			Model:           cfg.LLMModel,
			MaxTokens:       cfg.LLMMaxTokens,
			Temperature:     float32(cfg.LLMTemperature),
			MaxContentChars: cfg.MaxContentChars,
			UseSchema:       cfg.LLMProvider == ProviderGemini || cfg.LLMStructuredOutput,
		},
		MinContentChars: cfg.MinContentChars,
	}
	return a, nil
}

func (a *App) newProvider(ctx context.Context, httpClient *http.Client) (llm.Provider, error) {
	switch a.cfg.LLMProvider {
	case ProviderGemini:
		g, err := llm.NewGemini(ctx, a.cfg.LLMAPIKey, a.cfg.LLMModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		a.closers = append(a.closers, g)
		return g, nil
	default:
		transportCfg := openai.DefaultConfig(a.cfg.LLMAPIKey)
		if a.cfg.LLMBaseURL != "" {
			transportCfg.BaseURL = a.cfg.LLMBaseURL
		}
		transportCfg.HTTPClient = httpClient
		client := &llm.OpenAIProvider{Inner: openai.NewClientWithConfig(transportCfg)}
		if !a.cfg.SkipPreflight {
			preflight(ctx, client)
		}
		return &llm.Chat{Client: client, Model: a.cfg.LLMModel, StructuredOutput: a.cfg.LLMStructuredOutput}, nil
	}
}

// preflight lists models to surface connectivity problems early. It never
// fails startup.
func preflight(ctx context.Context, lister llm.ModelLister) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) > 0 {
		log.Info().Int("count", len(models.Models)).Msg("LLM models available")
	} else {
		log.Warn().Msg("LLM returned zero models")
	}
}

// Analyzer returns the request pipeline.
func (a *App) Analyzer() *Analyzer { return a.analyzer }

// Config returns the effective configuration after defaults.
func (a *App) Config() Config { return a.cfg }

// Analyze runs the pipeline for one URL.
func (a *App) Analyze(ctx context.Context, rawURL string) (Response, error) {
	return a.analyzer.Analyze(ctx, rawURL)
}

// Close releases provider clients.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}
