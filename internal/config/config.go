package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "COINPRESS_CONFIG"
	ledgerPathEnv    = "COINPRESS_LEDGER_PATH"
	twitterTokenEnv  = "TWITTER_BEARER_TOKEN"
	llmAPIKeyEnv     = "LLM_API_KEY"
	llmModelEnv      = "LLM_MODEL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Ledger        LedgerConfig       `yaml:"ledger"`
	Dedup         DedupConfig        `yaml:"dedup"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Sources       []string           `yaml:"sources"`
	Twitter       TwitterConfig      `yaml:"twitter"`
	GitHub        GitHubConfig       `yaml:"github"`
	LLM           LLMConfig          `yaml:"llm"`
	Hugo          HugoConfig         `yaml:"hugo"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LedgerConfig selects and locates the processed-content ledger backend.
type LedgerConfig struct {
	Backend       string `yaml:"backend"` // "file" or "sqlite"
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retentionDays"`
}

// DedupConfig tunes the duplicate detector.
type DedupConfig struct {
	SimilarityThreshold float64  `yaml:"similarityThreshold"`
	ExtraStopwords      []string `yaml:"extraStopwords"`
}

// Duration wraps time.Duration so YAML values like "6h" or "30s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// PipelineConfig tunes the run loop.
type PipelineConfig struct {
	BatchSize     int      `yaml:"batchSize"`
	RetryAttempts int      `yaml:"retryAttempts"`
	RetryDelay    Duration `yaml:"retryDelay"`
	Interval      Duration `yaml:"interval"`
}

// TwitterConfig wires the recent-search source.
type TwitterConfig struct {
	BearerToken string `yaml:"bearerToken"`
	Query       string `yaml:"query"`
}

// GitHubConfig wires the trending-page source.
type GitHubConfig struct {
	TrendingURL string `yaml:"trendingUrl"`
}

// LLMConfig defines how to contact the chat-completion API used for
// translation and enhancement.
type LLMConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// HugoConfig locates the static site and its content directory.
type HugoConfig struct {
	BinPath    string `yaml:"binPath"`
	SiteDir    string `yaml:"siteDir"`
	ContentDir string `yaml:"contentDir"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(ledgerPathEnv); v != "" {
		c.Ledger.Path = v
	}

	if v := os.Getenv(twitterTokenEnv); v != "" {
		c.Twitter.BearerToken = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Ledger.Backend != "" {
		base.Ledger.Backend = override.Ledger.Backend
	}
	if override.Ledger.Path != "" {
		base.Ledger.Path = override.Ledger.Path
	}
	if override.Ledger.RetentionDays > 0 {
		base.Ledger.RetentionDays = override.Ledger.RetentionDays
	}

	if override.Dedup.SimilarityThreshold > 0 {
		base.Dedup.SimilarityThreshold = override.Dedup.SimilarityThreshold
	}
	if len(override.Dedup.ExtraStopwords) > 0 {
		base.Dedup.ExtraStopwords = override.Dedup.ExtraStopwords
	}

	if override.Pipeline.BatchSize > 0 {
		base.Pipeline.BatchSize = override.Pipeline.BatchSize
	}
	if override.Pipeline.RetryAttempts > 0 {
		base.Pipeline.RetryAttempts = override.Pipeline.RetryAttempts
	}
	if override.Pipeline.RetryDelay > 0 {
		base.Pipeline.RetryDelay = override.Pipeline.RetryDelay
	}
	if override.Pipeline.Interval > 0 {
		base.Pipeline.Interval = override.Pipeline.Interval
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	if override.Twitter.BearerToken != "" {
		base.Twitter.BearerToken = override.Twitter.BearerToken
	}
	if override.Twitter.Query != "" {
		base.Twitter.Query = override.Twitter.Query
	}

	if override.GitHub.TrendingURL != "" {
		base.GitHub.TrendingURL = override.GitHub.TrendingURL
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}

	if override.Hugo.BinPath != "" {
		base.Hugo.BinPath = override.Hugo.BinPath
	}
	if override.Hugo.SiteDir != "" {
		base.Hugo.SiteDir = override.Hugo.SiteDir
	}
	if override.Hugo.ContentDir != "" {
		base.Hugo.ContentDir = override.Hugo.ContentDir
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Ledger: LedgerConfig{
			Backend:       "file",
			Path:          "data/processed.json",
			RetentionDays: 30,
		},
		Dedup: DedupConfig{SimilarityThreshold: 0.85},
		Pipeline: PipelineConfig{
			BatchSize:     3,
			RetryAttempts: 3,
			RetryDelay:    Duration(2 * time.Second),
			Interval:      Duration(6 * time.Hour),
		},
		Sources: []string{"twitter", "github-trending"},
		Twitter: TwitterConfig{
			Query: "(bitcoin OR ethereum OR crypto) -is:retweet lang:en",
		},
		GitHub: GitHubConfig{},
		LLM: LLMConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
		},
		Hugo: HugoConfig{
			SiteDir:    "site",
			ContentDir: "site/content/posts",
		},
	}
}
