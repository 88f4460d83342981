package app

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    setString := func(dst *string, keys ...string) {
        if *dst != "" { return }
        for _, k := range keys {
            if v := strings.TrimSpace(os.Getenv(k)); v != "" {
                *dst = v
                return
            }
        }
    }
    setString(&cfg.LLMProvider, "LLM_PROVIDER")
    setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
    setString(&cfg.LLMModel, "LLM_MODEL")
    setString(&cfg.LLMAPIKey, apiKeyEnvKeys(cfg.LLMProvider)...)
    setString(&cfg.UserAgent, "USER_AGENT")
    setString(&cfg.BrowserPath, "BROWSER_PATH")
    if cfg.Addr == "" {
        cfg.Addr = addrFromEnv()
    }

    setInt := func(dst *int, key string) {
        if *dst != 0 { return }
        if n, ok := envInt(key); ok { *dst = n }
    }
    setInt(&cfg.LLMMaxTokens, "LLM_MAX_TOKENS")
    setInt(&cfg.BrowserMaxConcurrent, "BROWSER_MAX_CONCURRENT")
    setInt(&cfg.MaxContentChars, "MAX_CONTENT_CHARS")
    setInt(&cfg.MinContentChars, "MIN_CONTENT_CHARS")

    if cfg.LLMTemperature == 0 {
        if f, ok := envFloat("LLM_TEMPERATURE"); ok { cfg.LLMTemperature = f }
    }

    setDuration := func(dst *time.Duration, key string) {
        if *dst != 0 { return }
        if d, ok := envDuration(key); ok { *dst = d }
    }
    setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT")
    setDuration(&cfg.BrowserNavTimeout, "BROWSER_NAV_TIMEOUT")
    setDuration(&cfg.BrowserSettleDelay, "BROWSER_SETTLE_DELAY")

    // Booleans only switch on from env here; ApplyEnvOverrides can switch off.
    setBool := func(dst *bool, key string) {
        if *dst { return }
        if b, ok := envBool(key); ok && b { *dst = true }
    }
    setBool(&cfg.BrowserEnabled, "BROWSER_ENABLE")
    setBool(&cfg.BrowserNoSandbox, "BROWSER_NO_SANDBOX")
    setBool(&cfg.LLMStructuredOutput, "LLM_STRUCTURED_OUTPUT")
    setBool(&cfg.Verbose, "VERBOSE")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    if v := os.Getenv("LLM_PROVIDER"); v != "" { cfg.LLMProvider = v }
    if v := os.Getenv("LLM_BASE_URL"); v != "" { cfg.LLMBaseURL = v }
    if v := os.Getenv("LLM_MODEL"); v != "" { cfg.LLMModel = v }
    for _, k := range apiKeyEnvKeys(cfg.LLMProvider) {
        if v := os.Getenv(k); v != "" {
            cfg.LLMAPIKey = v
            break
        }
    }
    if v := os.Getenv("USER_AGENT"); v != "" { cfg.UserAgent = v }
    if v := os.Getenv("BROWSER_PATH"); v != "" { cfg.BrowserPath = v }
    if v := addrFromEnv(); v != "" { cfg.Addr = v }

    if n, ok := envInt("LLM_MAX_TOKENS"); ok { cfg.LLMMaxTokens = n }
    if n, ok := envInt("BROWSER_MAX_CONCURRENT"); ok { cfg.BrowserMaxConcurrent = n }
    if n, ok := envInt("MAX_CONTENT_CHARS"); ok { cfg.MaxContentChars = n }
    if n, ok := envInt("MIN_CONTENT_CHARS"); ok { cfg.MinContentChars = n }
    if f, ok := envFloat("LLM_TEMPERATURE"); ok { cfg.LLMTemperature = f }

    if d, ok := envDuration("FETCH_TIMEOUT"); ok { cfg.FetchTimeout = d }
    if d, ok := envDuration("BROWSER_NAV_TIMEOUT"); ok { cfg.BrowserNavTimeout = d }
    if d, ok := envDuration("BROWSER_SETTLE_DELAY"); ok { cfg.BrowserSettleDelay = d }

    if b, ok := envBool("BROWSER_ENABLE"); ok { cfg.BrowserEnabled = b }
    if b, ok := envBool("BROWSER_NO_SANDBOX"); ok { cfg.BrowserNoSandbox = b }
    if b, ok := envBool("LLM_STRUCTURED_OUTPUT"); ok { cfg.LLMStructuredOutput = b }
    if b, ok := envBool("VERBOSE"); ok { cfg.Verbose = b }
}

// APIKeyFromEnv returns the first API key set in the environment for provider,
// checking LLM_API_KEY before the provider specific key.
func APIKeyFromEnv(provider string) string {
    for _, k := range apiKeyEnvKeys(provider) {
        if v := strings.TrimSpace(os.Getenv(k)); v != "" {
            return v
        }
    }
    return ""
}

// apiKeyEnvKeys lists the env keys consulted for the API key, generic first.
func apiKeyEnvKeys(provider string) []string {
    if strings.EqualFold(strings.TrimSpace(provider), ProviderGemini) {
        return []string{"LLM_API_KEY", "GEMINI_API_KEY"}
    }
    return []string{"LLM_API_KEY", "OPENAI_API_KEY"}
}

// addrFromEnv prefers ADDR and falls back to PORT as set by container
// platforms.
func addrFromEnv() string {
    if v := strings.TrimSpace(os.Getenv("ADDR")); v != "" { return v }
    if v := strings.TrimSpace(os.Getenv("PORT")); v != "" { return ":" + v }
    return ""
}

func envInt(key string) (int, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    n, err := strconv.Atoi(s)
    if err != nil || n < 0 { return 0, false }
    return n, true
}

func envFloat(key string) (float64, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    f, err := strconv.ParseFloat(s, 64)
    if err != nil { return 0, false }
    return f, true
}

// envDuration accepts Go durations ("30s") or plain milliseconds ("2000").
func envDuration(key string) (time.Duration, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    if d, err := time.ParseDuration(s); err == nil { return d, true }
    if ms, err := strconv.Atoi(s); err == nil && ms >= 0 { return time.Duration(ms) * time.Millisecond, true }
    return 0, false
}

func envBool(key string) (bool, bool) {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
    case "1", "true", "yes", "on":
        return true, true
    case "0", "false", "no", "off":
        return false, true
    }
    return false, false
}
