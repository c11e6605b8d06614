// Package config reads the bot settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sukalov/lyricsbot/internal/utils"
)

const (
	SourceFile = "file"
	SourceDB   = "db"

	BackendFile  = "file"
	BackendRedis = "redis"
	BackendDB    = "db"

	PublisherBluesky  = "bluesky"
	PublisherTelegram = "telegram"
	PublisherConsole  = "console"

	// PolicyRetry leaves a line whose publish failed eligible for the next
	// cycle; PolicyMark records it as posted anyway.
	PolicyRetry = "retry"
	PolicyMark  = "mark"
)

type Config struct {
	LyricsFile   string
	CorpusSource string

	HistoryBackend string
	HistoryFile    string
	HistoryKey     string
	RedisURL       string
	RedisPassword  string

	TursoURL       string
	TursoAuthToken string
	SQLitePath     string

	Publisher       string
	BlueskyHost     string
	BlueskyHandle   string
	BlueskyPassword string
	BotToken        string
	ChannelID       string
	LogChannelID    int64

	LogFile  string
	LogLevel string

	Attribution          bool
	PublishFailurePolicy string
	PostInterval         time.Duration
	RetryInterval        time.Duration
	MaxAttempts          int
}

// Load reads every setting, applies overrides and checks that the
// credentials needed by the selected backends are present.
func Load(overrides ...func(*Config)) (*Config, error) {
	// loads .env as a side effect
	if _, err := utils.LoadEnv(nil); err != nil {
		return nil, err
	}

	cfg := &Config{
		LyricsFile:           utils.GetEnv("LYRICS_FILE", "el_mato_lyrics.json"),
		CorpusSource:         strings.ToLower(utils.GetEnv("CORPUS_SOURCE", SourceFile)),
		HistoryBackend:       strings.ToLower(utils.GetEnv("HISTORY_BACKEND", BackendFile)),
		HistoryFile:          utils.GetEnv("HISTORY_FILE", "posted_lines.json"),
		HistoryKey:           utils.GetEnv("HISTORY_KEY", ""),
		RedisURL:             utils.GetEnv("REDIS_URL", ""),
		RedisPassword:        utils.GetEnv("REDIS_PASSWORD", ""),
		TursoURL:             utils.GetEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:       utils.GetEnv("TURSO_AUTH_TOKEN", ""),
		SQLitePath:           utils.GetEnv("SQLITE_PATH", ""),
		Publisher:            strings.ToLower(utils.GetEnv("PUBLISHER", PublisherBluesky)),
		BlueskyHost:          utils.GetEnv("BLUESKY_HOST", ""),
		BlueskyHandle:        utils.GetEnv("BLUESKY_HANDLE", ""),
		BlueskyPassword:      utils.GetEnv("BLUESKY_PASSWORD", ""),
		BotToken:             utils.GetEnv("BOT_TOKEN", ""),
		ChannelID:            utils.GetEnv("CHANNEL_ID", ""),
		LogFile:              utils.GetEnv("LOG_FILE", ""),
		LogLevel:             utils.GetEnv("LOG_LEVEL", "info"),
		PublishFailurePolicy: strings.ToLower(utils.GetEnv("PUBLISH_FAILURE_POLICY", PolicyRetry)),
	}

	var err error
	if cfg.Attribution, err = utils.GetEnvBool("ATTRIBUTION", false); err != nil {
		return nil, err
	}
	if cfg.PostInterval, err = utils.GetEnvDuration("POST_INTERVAL", 3*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RetryInterval, err = utils.GetEnvDuration("RETRY_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = utils.GetEnvInt("MAX_ATTEMPTS", 100); err != nil {
		return nil, err
	}
	if raw := utils.GetEnv("LOG_CHANNEL_ID", ""); raw != "" {
		if cfg.LogChannelID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("failed to parse LOG_CHANNEL_ID: %w", err)
		}
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.CorpusSource {
	case SourceFile, SourceDB:
	default:
		return fmt.Errorf("unknown CORPUS_SOURCE %q", c.CorpusSource)
	}

	switch c.HistoryBackend {
	case BackendFile:
	case BackendRedis:
		if err := requireEnv("REDIS_URL", c.RedisURL, "REDIS_PASSWORD", c.RedisPassword); err != nil {
			return err
		}
	case BackendDB:
	default:
		return fmt.Errorf("unknown HISTORY_BACKEND %q", c.HistoryBackend)
	}

	if c.UsesDB() && c.TursoURL == "" && c.SQLitePath == "" {
		return fmt.Errorf("database backend needs TURSO_DATABASE_URL or SQLITE_PATH")
	}
	if c.TursoURL != "" && c.UsesDB() {
		if err := requireEnv("TURSO_AUTH_TOKEN", c.TursoAuthToken); err != nil {
			return err
		}
	}

	switch c.Publisher {
	case PublisherBluesky:
		if err := requireEnv("BLUESKY_HANDLE", c.BlueskyHandle, "BLUESKY_PASSWORD", c.BlueskyPassword); err != nil {
			return err
		}
	case PublisherTelegram:
		if err := requireEnv("BOT_TOKEN", c.BotToken, "CHANNEL_ID", c.ChannelID); err != nil {
			return err
		}
	case PublisherConsole:
	default:
		return fmt.Errorf("unknown PUBLISHER %q", c.Publisher)
	}

	if c.LogChannelID != 0 && c.BotToken == "" {
		return fmt.Errorf("LOG_CHANNEL_ID needs BOT_TOKEN")
	}

	switch c.PublishFailurePolicy {
	case PolicyRetry, PolicyMark:
	default:
		return fmt.Errorf("unknown PUBLISH_FAILURE_POLICY %q", c.PublishFailurePolicy)
	}

	if c.PostInterval <= 0 || c.RetryInterval <= 0 {
		return fmt.Errorf("POST_INTERVAL and RETRY_INTERVAL must be positive")
	}
	return nil
}

// UsesDB reports whether the corpus or the history lives in a SQL database.
func (c *Config) UsesDB() bool {
	return c.CorpusSource == SourceDB || c.HistoryBackend == BackendDB
}

// requireEnv takes key, value pairs and reports the first empty value.
func requireEnv(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("missing required environment variable: %s", pairs[i])
		}
	}
	return nil
}
