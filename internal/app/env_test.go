package app

import (
    "os"
    "path/filepath"
    "testing"
    "time"
)

func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
    t.Setenv("FOO", "")
    t.Setenv("BAR", "")

    dir := t.TempDir()
    envPath := filepath.Join(dir, ".env.test")
    content := "\n# sample dotenv file\nFOO=alpha\nBAR=\"beta\"\n"
    if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
        t.Fatalf("write dotenv: %v", err)
    }

    if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("FOO"); got != "alpha" {
        t.Fatalf("FOO=%q, want alpha", got)
    }
    if got := os.Getenv("BAR"); got != "beta" {
        t.Fatalf("BAR=%q, want beta", got)
    }
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
    t.Setenv("K", "")
    dir := t.TempDir()
    a := filepath.Join(dir, ".env.a")
    b := filepath.Join(dir, ".env.b")
    if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil { t.Fatalf("write a: %v", err) }
    if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil { t.Fatalf("write b: %v", err) }

    if err := LoadEnvFiles(a, b); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("K"); got != "second" {
        t.Fatalf("override order failed: got %q, want second", got)
    }
}

func TestApplyEnvToConfig_FromEnv(t *testing.T) {
    t.Setenv("LLM_PROVIDER", "gemini")
    t.Setenv("LLM_API_KEY", "")
    t.Setenv("GEMINI_API_KEY", "g-key")
    t.Setenv("ADDR", "")
    t.Setenv("PORT", "9090")
    t.Setenv("LLM_TEMPERATURE", "0.4")
    t.Setenv("BROWSER_SETTLE_DELAY", "1500")
    t.Setenv("FETCH_TIMEOUT", "7s")
    t.Setenv("MIN_CONTENT_CHARS", "250")
    t.Setenv("BROWSER_ENABLE", "true")

    var cfg Config
    ApplyEnvToConfig(&cfg)
    if cfg.LLMProvider != "gemini" || cfg.LLMAPIKey != "g-key" {
        t.Fatalf("provider/key = %q/%q, want gemini/g-key", cfg.LLMProvider, cfg.LLMAPIKey)
    }
    if cfg.Addr != ":9090" {
        t.Fatalf("Addr=%q, want :9090 from PORT", cfg.Addr)
    }
    if cfg.LLMTemperature != 0.4 {
        t.Fatalf("LLMTemperature=%v, want 0.4", cfg.LLMTemperature)
    }
    if cfg.BrowserSettleDelay != 1500*time.Millisecond || cfg.FetchTimeout != 7*time.Second {
        t.Fatalf("durations not parsed: settle=%v fetch=%v", cfg.BrowserSettleDelay, cfg.FetchTimeout)
    }
    if cfg.MinContentChars != 250 || !cfg.BrowserEnabled {
        t.Fatalf("MinContentChars=%d BrowserEnabled=%v", cfg.MinContentChars, cfg.BrowserEnabled)
    }
}

// Explicit values are kept by ApplyEnvToConfig but replaced by ApplyEnvOverrides.
func TestApplyEnv_Precedence(t *testing.T) {
    t.Setenv("LLM_MODEL", "from-env")
    t.Setenv("BROWSER_ENABLE", "false")

    cfg := Config{LLMModel: "explicit", BrowserEnabled: true}
    ApplyEnvToConfig(&cfg)
    if cfg.LLMModel != "explicit" || !cfg.BrowserEnabled {
        t.Fatalf("ApplyEnvToConfig must not override explicit values: %+v", cfg)
    }
    ApplyEnvOverrides(&cfg)
    if cfg.LLMModel != "from-env" || cfg.BrowserEnabled {
        t.Fatalf("ApplyEnvOverrides must override: model=%q browser=%v", cfg.LLMModel, cfg.BrowserEnabled)
    }
}

func TestApplyEnvOverrides_OpenAIKeyFallback(t *testing.T) {
    t.Setenv("LLM_API_KEY", "")
    t.Setenv("OPENAI_API_KEY", "sk-test")
    cfg := Config{LLMProvider: ProviderOpenAI}
    ApplyEnvOverrides(&cfg)
    if cfg.LLMAPIKey != "sk-test" {
        t.Fatalf("LLMAPIKey=%q, want OPENAI_API_KEY fallback", cfg.LLMAPIKey)
    }
}
