package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Server
	Addr string

	// One-shot CLI run
	URL           string
	OutputPDFPath string

	// LLM
	LLMProvider         string
	LLMBaseURL          string
	LLMModel            string
	LLMAPIKey           string
	LLMMaxTokens        int
	LLMTemperature      float64
	LLMStructuredOutput bool
	// SkipPreflight disables the best-effort model listing in New.
	SkipPreflight bool

	// Static fetch
	UserAgent     string
	FetchTimeout  time.Duration
	FetchAttempts int

	// Headless browser
	BrowserEnabled       bool
	BrowserPath          string
	BrowserNoSandbox     bool
	BrowserNavTimeout    time.Duration
	BrowserSettleDelay   time.Duration
	BrowserMaxConcurrent int

	// Content limits
	MaxContentChars int
	MinContentChars int

	Verbose bool
}

// Provider names accepted in Config.LLMProvider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// DefaultGeminiModel is used when the gemini provider is selected without a
// model.
const DefaultGeminiModel = "gemini-1.5-flash"

// Defaults returns the configuration used when nothing else is specified.
func Defaults() Config {
	return Config{
		Addr:                 ":8080",
		LLMProvider:          ProviderOpenAI,
		LLMModel:             "gpt-4.1-mini",
		LLMMaxTokens:         1000,
		LLMTemperature:       0.2,
		FetchTimeout:         15 * time.Second,
		FetchAttempts:        2,
		BrowserEnabled:       true,
		BrowserNavTimeout:    30 * time.Second,
		BrowserSettleDelay:   2 * time.Second,
		BrowserMaxConcurrent: 2,
		MaxContentChars:      4000,
		MinContentChars:      DefaultMinContentChars,
	}
}

// applyDefaults fills zero-valued numeric and string settings from Defaults.
// Booleans and the temperature are left untouched since zero is meaningful.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Addr == "" {
		cfg.Addr = d.Addr
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = d.LLMProvider
	}
	if cfg.LLMModel == "" {
		switch cfg.LLMProvider {
		case ProviderOpenAI:
			cfg.LLMModel = d.LLMModel
		case ProviderGemini:
			cfg.LLMModel = DefaultGeminiModel
		}
	}
	if cfg.LLMMaxTokens == 0 {
		cfg.LLMMaxTokens = d.LLMMaxTokens
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = d.FetchTimeout
	}
	if cfg.FetchAttempts == 0 {
		cfg.FetchAttempts = d.FetchAttempts
	}
	if cfg.BrowserNavTimeout == 0 {
		cfg.BrowserNavTimeout = d.BrowserNavTimeout
	}
	if cfg.BrowserSettleDelay == 0 {
		cfg.BrowserSettleDelay = d.BrowserSettleDelay
	}
	if cfg.BrowserMaxConcurrent == 0 {
		cfg.BrowserMaxConcurrent = d.BrowserMaxConcurrent
	}
	if cfg.MaxContentChars == 0 {
		cfg.MaxContentChars = d.MaxContentChars
	}
	if cfg.MinContentChars == 0 {
		cfg.MinContentChars = d.MinContentChars
	}
}
