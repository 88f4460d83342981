package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/biascheck/internal/app"
	"github.com/hyperifyio/biascheck/internal/server"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.DefaultContextLogger = &log.Logger

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// loadConfig layers configuration: defaults, then the config file, then the
// environment, then flags that were set explicitly on the command line.
func loadConfig(args []string) (app.Config, error) {
	fs := flag.NewFlagSet("biascheck", flag.ContinueOnError)
	d := app.Defaults()

	var (
		configPath string
		envFile    string
		flagCfg    = d
	)
	fs.StringVar(&configPath, "config", os.Getenv("BIASCHECK_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&envFile, "env", ".env", "Path to dotenv file (missing file is ignored)")
	fs.StringVar(&flagCfg.Addr, "addr", d.Addr, "Listen address for server mode")
	fs.StringVar(&flagCfg.URL, "url", "", "Analyze a single article URL, print JSON and exit")
	fs.StringVar(&flagCfg.OutputPDFPath, "pdf", "", "With -url, also write a PDF report to this path")
	fs.StringVar(&flagCfg.LLMProvider, "llm.provider", d.LLMProvider, "LLM provider: openai or gemini")
	fs.StringVar(&flagCfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	fs.StringVar(&flagCfg.LLMModel, "llm.model", "", "Model name (provider default when empty)")
	fs.StringVar(&flagCfg.LLMAPIKey, "llm.key", "", "API key for the LLM provider")
	fs.IntVar(&flagCfg.LLMMaxTokens, "llm.maxTokens", d.LLMMaxTokens, "Maximum completion tokens")
	fs.Float64Var(&flagCfg.LLMTemperature, "llm.temperature", d.LLMTemperature, "Sampling temperature")
	fs.BoolVar(&flagCfg.LLMStructuredOutput, "llm.structured", false, "Request JSON-schema structured output from OpenAI-compatible servers")
	fs.BoolVar(&flagCfg.SkipPreflight, "llm.skipPreflight", false, "Skip the startup model listing")
	fs.StringVar(&flagCfg.UserAgent, "fetch.ua", "", "User-Agent for page fetches")
	fs.DurationVar(&flagCfg.FetchTimeout, "fetch.timeout", d.FetchTimeout, "Per-request timeout for the static fetch")
	fs.IntVar(&flagCfg.FetchAttempts, "fetch.attempts", d.FetchAttempts, "Static fetch attempts")
	fs.BoolVar(&flagCfg.BrowserEnabled, "browser", d.BrowserEnabled, "Enable the headless browser fallback")
	fs.StringVar(&flagCfg.BrowserPath, "browser.path", "", "Chrome executable path")
	fs.BoolVar(&flagCfg.BrowserNoSandbox, "browser.noSandbox", false, "Run Chrome without its sandbox (containers running as root)")
	fs.DurationVar(&flagCfg.BrowserNavTimeout, "browser.navTimeout", d.BrowserNavTimeout, "Navigation timeout")
	fs.DurationVar(&flagCfg.BrowserSettleDelay, "browser.settle", d.BrowserSettleDelay, "Wait after load for client-side rendering")
	fs.IntVar(&flagCfg.BrowserMaxConcurrent, "browser.max", d.BrowserMaxConcurrent, "Maximum concurrent browsers")
	fs.IntVar(&flagCfg.MaxContentChars, "content.max", d.MaxContentChars, "Maximum article characters sent to the model")
	fs.IntVar(&flagCfg.MinContentChars, "content.min", d.MinContentChars, "Minimum article characters required for analysis")
	fs.BoolVar(&flagCfg.Verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return app.Config{}, err
	}

	if err := app.LoadEnvFiles(envFile); err != nil {
		return app.Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := d
	// The model default depends on the provider and is filled by app.New.
	cfg.LLMModel = ""
	var fileKey string
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return app.Config{}, err
		}
		app.ApplyFileConfig(&cfg, fc)
		fileKey = fc.LLM.APIKey
	}
	app.ApplyEnvOverrides(&cfg)

	keyFlagSet := false
	fs.Visit(func(f *flag.Flag) {
		applyFlag(&cfg, flagCfg, f.Name)
		keyFlagSet = keyFlagSet || f.Name == "llm.key"
	})
	if !keyFlagSet {
		// The env key fallback depends on the final provider.
		cfg.LLMAPIKey = app.APIKeyFromEnv(cfg.LLMProvider)
		if cfg.LLMAPIKey == "" {
			cfg.LLMAPIKey = fileKey
		}
	}
	return cfg, nil
}

// applyFlag copies the setting behind one explicitly set flag.
func applyFlag(cfg *app.Config, from app.Config, name string) {
	switch name {
	case "addr":
		cfg.Addr = from.Addr
	case "url":
		cfg.URL = from.URL
	case "pdf":
		cfg.OutputPDFPath = from.OutputPDFPath
	case "llm.provider":
		cfg.LLMProvider = from.LLMProvider
	case "llm.base":
		cfg.LLMBaseURL = from.LLMBaseURL
	case "llm.model":
		cfg.LLMModel = from.LLMModel
	case "llm.key":
		cfg.LLMAPIKey = from.LLMAPIKey
	case "llm.maxTokens":
		cfg.LLMMaxTokens = from.LLMMaxTokens
	case "llm.temperature":
		cfg.LLMTemperature = from.LLMTemperature
	case "llm.structured":
		cfg.LLMStructuredOutput = from.LLMStructuredOutput
	case "llm.skipPreflight":
		cfg.SkipPreflight = from.SkipPreflight
	case "fetch.ua":
		cfg.UserAgent = from.UserAgent
	case "fetch.timeout":
		cfg.FetchTimeout = from.FetchTimeout
	case "fetch.attempts":
		cfg.FetchAttempts = from.FetchAttempts
	case "browser":
		cfg.BrowserEnabled = from.BrowserEnabled
	case "browser.path":
		cfg.BrowserPath = from.BrowserPath
	case "browser.noSandbox":
		cfg.BrowserNoSandbox = from.BrowserNoSandbox
	case "browser.navTimeout":
		cfg.BrowserNavTimeout = from.BrowserNavTimeout
	case "browser.settle":
		cfg.BrowserSettleDelay = from.BrowserSettleDelay
	case "browser.max":
		cfg.BrowserMaxConcurrent = from.BrowserMaxConcurrent
	case "content.max":
		cfg.MaxContentChars = from.MaxContentChars
	case "content.min":
		cfg.MinContentChars = from.MinContentChars
	case "v":
		cfg.Verbose = from.Verbose
	}
}

// run analyzes cfg.URL once when set, otherwise serves the HTTP API until ctx
// is cancelled.
func run(ctx context.Context, cfg app.Config, stdout io.Writer) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if cfg.URL != "" {
		return analyzeOnce(ctx, a, cfg, stdout)
	}
	return serve(ctx, a.Config().Addr, server.New(a).Routes())
}

func analyzeOnce(ctx context.Context, a *app.App, cfg app.Config, stdout io.Writer) error {
	resp, err := a.Analyze(ctx, cfg.URL)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if cfg.OutputPDFPath != "" {
		if err := app.WriteReportPDF(resp, cfg.URL, cfg.OutputPDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("path", cfg.OutputPDFPath).Msg("PDF report written")
	}
	return nil
}

func serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// exitCode maps request-level failures of a one-shot run to 2 and everything
// else to 1.
func exitCode(err error) int {
	switch {
	case errors.Is(err, app.ErrURLRequired),
		errors.Is(err, app.ErrInvalidURL),
		errors.Is(err, app.ErrExtractionFailed),
		errors.Is(err, app.ErrContentTooShort):
		return 2
	default:
		return 1
	}
}
