package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "ARXIV_TRANSLATOR_CONFIG"
	logLevelEnv      = "ARXIV_TRANSLATOR_LOG_LEVEL"
	historyDSNEnv    = "ARXIV_TRANSLATOR_HISTORY_DSN"
	chatGPTAPIKeyEnv = "OPENAI_API_KEY"
	chatGPTModelEnv  = "OPENAI_MODEL"
	chatGPTEndpoint  = "OPENAI_ENDPOINT"

	appDirName = "arxiv-translator"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Arxiv   ArxivConfig   `yaml:"arxiv"`
	ChatGPT ChatGPTConfig `yaml:"chatgpt"`
	Output  OutputConfig  `yaml:"output"`
	History HistoryConfig `yaml:"history"`
	Run     RunConfig     `yaml:"run"`
}

// LoggingConfig selects slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ArxivConfig describes where listings and detail pages are fetched from.
type ArxivConfig struct {
	BaseURL        string          `yaml:"baseUrl"`
	UserAgent      string          `yaml:"userAgent"`
	Timeout        time.Duration   `yaml:"timeout"`
	RecentPageSize int             `yaml:"recentPageSize"`
	Subjects       []SubjectConfig `yaml:"subjects"`
}

// SubjectConfig maps a short subject code (RO, CV) to an arXiv archive.
type SubjectConfig struct {
	Code    string `yaml:"code"`
	Archive string `yaml:"archive"`
	Name    string `yaml:"name"`
}

// ChatGPTConfig defines how to contact the chat completion API.
type ChatGPTConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	StylePrompt  string        `yaml:"stylePrompt"`
	MaxTokens    int           `yaml:"maxTokens"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
}

// OutputConfig points at the directory holding translation logs.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// HistoryConfig enables the optional run-history store when DSN is set.
// Driver is "sqlite3" or "postgres".
type HistoryConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Enabled reports whether run history should be persisted.
func (h HistoryConfig) Enabled() bool {
	return strings.TrimSpace(h.DSN) != ""
}

// RunConfig holds per-mode defaults for the paper limit; zero means unlimited.
type RunConfig struct {
	NewMaxCount    int `yaml:"newMaxCount"`
	RecentMaxCount int `yaml:"recentMaxCount"`
}

// DefaultPath returns the per-user config location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appDirName, "config.yaml")
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An empty path falls back to $ARXIV_TRANSLATOR_CONFIG and then DefaultPath.
func Load(path string) Config {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		if v := os.Getenv(configPathEnv); v != "" {
			path, explicit = v, true
		} else {
			path = DefaultPath()
		}
	}

	if raw, err := os.ReadFile(path); err != nil {
		if explicit || !os.IsNotExist(err) {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		}
	} else {
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
			cfg.Run = mergeRunLimits(cfg.Run, raw)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(historyDSNEnv); v != "" {
		c.History.DSN = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(chatGPTEndpoint); v != "" {
		c.ChatGPT.Endpoint = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Arxiv.BaseURL != "" {
		base.Arxiv.BaseURL = strings.TrimSuffix(override.Arxiv.BaseURL, "/")
	}
	if override.Arxiv.UserAgent != "" {
		base.Arxiv.UserAgent = override.Arxiv.UserAgent
	}
	if override.Arxiv.Timeout > 0 {
		base.Arxiv.Timeout = override.Arxiv.Timeout
	}
	if override.Arxiv.RecentPageSize > 0 {
		base.Arxiv.RecentPageSize = override.Arxiv.RecentPageSize
	}
	if len(override.Arxiv.Subjects) > 0 {
		base.Arxiv.Subjects = override.Arxiv.Subjects
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}
	if override.ChatGPT.StylePrompt != "" {
		base.ChatGPT.StylePrompt = override.ChatGPT.StylePrompt
	}
	if override.ChatGPT.MaxTokens > 0 {
		base.ChatGPT.MaxTokens = override.ChatGPT.MaxTokens
	}
	if override.ChatGPT.Temperature > 0 {
		base.ChatGPT.Temperature = override.ChatGPT.Temperature
	}
	if override.ChatGPT.Timeout > 0 {
		base.ChatGPT.Timeout = override.ChatGPT.Timeout
	}

	if override.Output.Dir != "" {
		base.Output.Dir = override.Output.Dir
	}

	if override.History.Driver != "" {
		base.History.Driver = override.History.Driver
	}
	if override.History.DSN != "" {
		base.History.DSN = override.History.DSN
	}

	return base
}

// runLimits mirrors the run section with pointers so an explicit zero
// (unlimited) is distinguishable from an absent key.
type runLimits struct {
	Run struct {
		NewMaxCount    *int `yaml:"newMaxCount"`
		RecentMaxCount *int `yaml:"recentMaxCount"`
	} `yaml:"run"`
}

func mergeRunLimits(base RunConfig, raw []byte) RunConfig {
	var limits runLimits
	if err := yaml.Unmarshal(raw, &limits); err != nil {
		return base
	}
	if v := limits.Run.NewMaxCount; v != nil && *v >= 0 {
		base.NewMaxCount = *v
	}
	if v := limits.Run.RecentMaxCount; v != nil && *v >= 0 {
		base.RecentMaxCount = *v
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Arxiv: ArxivConfig{
			BaseURL:        "https://arxiv.org",
			UserAgent:      "ArxivTranslator/1.0",
			Timeout:        20 * time.Second,
			RecentPageSize: 2000,
			Subjects: []SubjectConfig{
				{Code: "RO", Archive: "cs.RO", Name: "Robotics"},
				{Code: "CV", Archive: "cs.CV", Name: "Computer Vision"},
			},
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			MaxTokens:   1024,
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		Output:  OutputConfig{Dir: "daily-db"},
		History: HistoryConfig{Driver: "sqlite3"},
		Run:     RunConfig{NewMaxCount: 0, RecentMaxCount: 3},
	}
}
