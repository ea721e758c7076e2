package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "PHARMACENTRAL_CONFIG"
	databasePathEnv   = "PHARMACENTRAL_DB"
	logLevelEnv       = "PHARMACENTRAL_LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Refresh       RefreshConfig      `yaml:"refresh"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Translation   TranslationConfig  `yaml:"translation"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sources       []SourceConfig     `yaml:"sources"`
	Relays        []RelayConfig      `yaml:"relays"`
}

// LoggingConfig controls the slog handler level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the embedded SQLite snapshot store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RefreshConfig defines the article store lifecycle windows.
type RefreshConfig struct {
	Interval     time.Duration `yaml:"interval"`
	SnapshotTTL  time.Duration `yaml:"snapshotTtl"`
	RunAtStartup bool          `yaml:"runAtStartup"`
	ServeForever bool          `yaml:"serveForever"`
}

// FetchConfig tunes the relay cascade.
type FetchConfig struct {
	RetryAttempts int           `yaml:"retryAttempts"`
	RetryDelay    time.Duration `yaml:"retryDelay"`
	Timeout       time.Duration `yaml:"timeout"`
	MinBodyBytes  int           `yaml:"minBodyBytes"`
}

// TranslationConfig wires the provider chain and queue pacing.
type TranslationConfig struct {
	PhraseEndpoint   string        `yaml:"phraseEndpoint"`
	SentenceEndpoint string        `yaml:"sentenceEndpoint"`
	LookupEndpoint   string        `yaml:"lookupEndpoint"`
	Timeout          time.Duration `yaml:"timeout"`
	BatchSize        int           `yaml:"batchSize"`
	BatchDelay       time.Duration `yaml:"batchDelay"`
	ItemDelay        time.Duration `yaml:"itemDelay"`
	QualityThreshold float64       `yaml:"qualityThreshold"`
	DefaultTarget    string        `yaml:"defaultTarget"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SourceConfig describes a single upstream feed.
type SourceConfig struct {
	Name              string `yaml:"name"`
	LocalizedName     string `yaml:"localizedName"`
	URL               string `yaml:"url"`
	Category          string `yaml:"category"`
	LocalizedCategory string `yaml:"localizedCategory"`
}

// RelayConfig describes one intermediary endpoint; list order defines trial
// precedence.
type RelayConfig struct {
	EndpointTemplate string `yaml:"endpointTemplate"`
	Shape            string `yaml:"shape"`
	Enveloped        bool   `yaml:"enveloped"`
	Description      string `yaml:"description"`
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
	if len(cfg.Relays) == 0 {
		cfg.Relays = defaultConfig().Relays
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Refresh.Interval > 0 {
		base.Refresh.Interval = override.Refresh.Interval
	}
	if override.Refresh.SnapshotTTL > 0 {
		base.Refresh.SnapshotTTL = override.Refresh.SnapshotTTL
	}
	if override.Refresh.RunAtStartup {
		base.Refresh.RunAtStartup = true
	}
	if override.Refresh.ServeForever {
		base.Refresh.ServeForever = true
	}

	if override.Fetch.RetryAttempts > 0 {
		base.Fetch.RetryAttempts = override.Fetch.RetryAttempts
	}
	if override.Fetch.RetryDelay > 0 {
		base.Fetch.RetryDelay = override.Fetch.RetryDelay
	}
	if override.Fetch.Timeout > 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.MinBodyBytes > 0 {
		base.Fetch.MinBodyBytes = override.Fetch.MinBodyBytes
	}

	if override.Translation.PhraseEndpoint != "" {
		base.Translation.PhraseEndpoint = override.Translation.PhraseEndpoint
	}
	if override.Translation.SentenceEndpoint != "" {
		base.Translation.SentenceEndpoint = override.Translation.SentenceEndpoint
	}
	if override.Translation.LookupEndpoint != "" {
		base.Translation.LookupEndpoint = override.Translation.LookupEndpoint
	}
	if override.Translation.Timeout > 0 {
		base.Translation.Timeout = override.Translation.Timeout
	}
	if override.Translation.BatchSize > 0 {
		base.Translation.BatchSize = override.Translation.BatchSize
	}
	if override.Translation.BatchDelay > 0 {
		base.Translation.BatchDelay = override.Translation.BatchDelay
	}
	if override.Translation.ItemDelay > 0 {
		base.Translation.ItemDelay = override.Translation.ItemDelay
	}
	if override.Translation.QualityThreshold > 0 {
		base.Translation.QualityThreshold = override.Translation.QualityThreshold
	}
	if override.Translation.DefaultTarget != "" {
		base.Translation.DefaultTarget = override.Translation.DefaultTarget
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}
	if len(override.Relays) > 0 {
		base.Relays = override.Relays
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Path: "pharmacentral.db"},
		Refresh: RefreshConfig{
			Interval:     30 * time.Minute,
			SnapshotTTL:  24 * time.Hour,
			RunAtStartup: true,
		},
		Fetch: FetchConfig{
			RetryAttempts: 3,
			RetryDelay:    time.Second,
			Timeout:       10 * time.Second,
			MinBodyBytes:  100,
		},
		Translation: TranslationConfig{
			PhraseEndpoint:   "https://lingva.ml/api/v1",
			SentenceEndpoint: "https://translate.googleapis.com/translate_a/single",
			LookupEndpoint:   "https://api.mymemory.translated.net/get",
			Timeout:          10 * time.Second,
			BatchSize:        3,
			BatchDelay:       2 * time.Second,
			ItemDelay:        1500 * time.Millisecond,
			QualityThreshold: 0.7,
			DefaultTarget:    "ar",
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Sources: []SourceConfig{
			{
				Name:              "fiercepharma",
				LocalizedName:     "فيرس فارما",
				URL:               "https://www.fiercepharma.com/rss/xml",
				Category:          "industry",
				LocalizedCategory: "صناعة الأدوية",
			},
			{
				Name:              "drugs-com",
				LocalizedName:     "دراغز دوت كوم",
				URL:               "https://www.drugs.com/feeds/medical_news.xml",
				Category:          "medical",
				LocalizedCategory: "أخبار طبية",
			},
			{
				Name:              "who-news",
				LocalizedName:     "منظمة الصحة العالمية",
				URL:               "https://www.who.int/rss-feeds/news-english.xml",
				Category:          "health",
				LocalizedCategory: "صحة عامة",
			},
		},
		Relays: []RelayConfig{
			{
				EndpointTemplate: "https://api.rss2json.com/v1/api.json?rss_url=%s",
				Shape:            "structured",
				Description:      "feed-to-JSON converter, pre-parsed item list",
			},
			{
				EndpointTemplate: "https://api.allorigins.win/get?url=%s",
				Shape:            "raw",
				Enveloped:        true,
				Description:      "generic proxy, raw body nested under a contents envelope",
			},
			{
				EndpointTemplate: "https://corsproxy.io/?%s",
				Shape:            "raw",
				Description:      "plain passthrough proxy",
			},
		},
	}
}
