package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
    Addr string `yaml:"addr" json:"addr"`

    LLM struct {
        Provider         string   `yaml:"provider" json:"provider"`
        BaseURL          string   `yaml:"base" json:"base"`
        Model            string   `yaml:"model" json:"model"`
        APIKey           string   `yaml:"key" json:"key"`
        MaxTokens        int      `yaml:"maxTokens" json:"maxTokens"`
        Temperature      *float64 `yaml:"temperature" json:"temperature"`
        StructuredOutput bool     `yaml:"structuredOutput" json:"structuredOutput"`
    } `yaml:"llm" json:"llm"`

    Fetch struct {
        UserAgent string   `yaml:"userAgent" json:"userAgent"`
        Timeout   Duration `yaml:"timeout" json:"timeout"`
        Attempts  int      `yaml:"attempts" json:"attempts"`
    } `yaml:"fetch" json:"fetch"`

    Browser struct {
        Enable        *bool    `yaml:"enable" json:"enable"`
        Path          string   `yaml:"path" json:"path"`
        NoSandbox     bool     `yaml:"noSandbox" json:"noSandbox"`
        NavTimeout    Duration `yaml:"navTimeout" json:"navTimeout"`
        SettleDelay   Duration `yaml:"settleDelay" json:"settleDelay"`
        MaxConcurrent int      `yaml:"maxConcurrent" json:"maxConcurrent"`
    } `yaml:"browser" json:"browser"`

    Content struct {
        MaxChars int `yaml:"maxChars" json:"maxChars"`
        MinChars int `yaml:"minChars" json:"minChars"`
    } `yaml:"content" json:"content"`

    Verbose bool `yaml:"verbose" json:"verbose"`
}

// Duration accepts "30s" style strings in YAML and JSON files.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
    return d.parse(n.Value)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        return fmt.Errorf("duration must be a string like \"30s\": %w", err)
    }
    return d.parse(s)
}

func (d *Duration) parse(s string) error {
    v, err := time.ParseDuration(strings.TrimSpace(s))
    if err != nil {
        return err
    }
    *d = Duration(v)
    return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are unset or still at their Defaults value, so explicit flags win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }
    d := Defaults()

    if (cfg.Addr == "" || cfg.Addr == d.Addr) && fc.Addr != "" { cfg.Addr = fc.Addr }

    if (cfg.LLMProvider == "" || cfg.LLMProvider == d.LLMProvider) && fc.LLM.Provider != "" { cfg.LLMProvider = fc.LLM.Provider }
    if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" { cfg.LLMBaseURL = fc.LLM.BaseURL }
    if (cfg.LLMModel == "" || cfg.LLMModel == d.LLMModel) && fc.LLM.Model != "" { cfg.LLMModel = fc.LLM.Model }
    if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" { cfg.LLMAPIKey = fc.LLM.APIKey }
    if (cfg.LLMMaxTokens == 0 || cfg.LLMMaxTokens == d.LLMMaxTokens) && fc.LLM.MaxTokens > 0 { cfg.LLMMaxTokens = fc.LLM.MaxTokens }
    if (cfg.LLMTemperature == 0 || cfg.LLMTemperature == d.LLMTemperature) && fc.LLM.Temperature != nil { cfg.LLMTemperature = *fc.LLM.Temperature }
    if !cfg.LLMStructuredOutput && fc.LLM.StructuredOutput { cfg.LLMStructuredOutput = true }

    if cfg.UserAgent == "" && fc.Fetch.UserAgent != "" { cfg.UserAgent = fc.Fetch.UserAgent }
    if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == d.FetchTimeout) && fc.Fetch.Timeout > 0 { cfg.FetchTimeout = time.Duration(fc.Fetch.Timeout) }
    if (cfg.FetchAttempts == 0 || cfg.FetchAttempts == d.FetchAttempts) && fc.Fetch.Attempts > 0 { cfg.FetchAttempts = fc.Fetch.Attempts }

    if fc.Browser.Enable != nil { cfg.BrowserEnabled = *fc.Browser.Enable }
    if cfg.BrowserPath == "" && fc.Browser.Path != "" { cfg.BrowserPath = fc.Browser.Path }
    if !cfg.BrowserNoSandbox && fc.Browser.NoSandbox { cfg.BrowserNoSandbox = true }
    if (cfg.BrowserNavTimeout == 0 || cfg.BrowserNavTimeout == d.BrowserNavTimeout) && fc.Browser.NavTimeout > 0 { cfg.BrowserNavTimeout = time.Duration(fc.Browser.NavTimeout) }
    if (cfg.BrowserSettleDelay == 0 || cfg.BrowserSettleDelay == d.BrowserSettleDelay) && fc.Browser.SettleDelay > 0 { cfg.BrowserSettleDelay = time.Duration(fc.Browser.SettleDelay) }
    if (cfg.BrowserMaxConcurrent == 0 || cfg.BrowserMaxConcurrent == d.BrowserMaxConcurrent) && fc.Browser.MaxConcurrent > 0 { cfg.BrowserMaxConcurrent = fc.Browser.MaxConcurrent }

    if (cfg.MaxContentChars == 0 || cfg.MaxContentChars == d.MaxContentChars) && fc.Content.MaxChars > 0 { cfg.MaxContentChars = fc.Content.MaxChars }
    if (cfg.MinContentChars == 0 || cfg.MinContentChars == d.MinContentChars) && fc.Content.MinChars > 0 { cfg.MinContentChars = fc.Content.MinChars }

    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }
}

// ValidateConfig performs minimal validation of required settings.
func ValidateConfig(cfg Config) error {
    switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
    case ProviderOpenAI:
        if strings.TrimSpace(cfg.LLMBaseURL) == "" && strings.TrimSpace(cfg.LLMAPIKey) == "" {
            return errors.New("config: llm.key is required for the hosted OpenAI API (or set LLM_BASE_URL)")
        }
    case ProviderGemini:
        if strings.TrimSpace(cfg.LLMAPIKey) == "" {
            return errors.New("config: llm.key is required for gemini (or set GEMINI_API_KEY)")
        }
    default:
        return fmt.Errorf("config: unknown llm.provider %q (want openai or gemini)", cfg.LLMProvider)
    }
    if strings.TrimSpace(cfg.LLMModel) == "" {
        return errors.New("config: llm.model is required (or set LLM_MODEL)")
    }
    if cfg.LLMMaxTokens < 0 || cfg.MaxContentChars < 0 || cfg.MinContentChars < 0 || cfg.BrowserMaxConcurrent < 0 || cfg.FetchAttempts < 0 {
        return errors.New("config: negative limits are not allowed")
    }
    if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 2 {
        return fmt.Errorf("config: llm.temperature %.2f out of range [0,2]", cfg.LLMTemperature)
    }
    return nil
}
