package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/sukalov/lyricsbot/internal/bot"
	"github.com/sukalov/lyricsbot/internal/config"
	"github.com/sukalov/lyricsbot/internal/corpus"
	"github.com/sukalov/lyricsbot/internal/db"
	"github.com/sukalov/lyricsbot/internal/history"
	"github.com/sukalov/lyricsbot/internal/logger"
	"github.com/sukalov/lyricsbot/internal/publisher"
	"github.com/sukalov/lyricsbot/internal/redis"
	"github.com/sukalov/lyricsbot/internal/scheduler"
	"github.com/sukalov/lyricsbot/internal/selector"
)

// app holds every collaborator built from the config.
type app struct {
	cfg       *config.Config
	source    corpus.Source
	store     history.Store
	publisher publisher.Publisher

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := a.setupLogger(); err != nil {
		return nil, err
	}

	var telegram *bot.Bot
	if cfg.BotToken != "" && (cfg.Publisher == config.PublisherTelegram || cfg.LogChannelID != 0) {
		if telegram, err = bot.New("lyricsbot", cfg.BotToken); err != nil {
			return nil, fmt.Errorf("failed to start telegram bot: %w", err)
		}
		if cfg.LogChannelID != 0 {
			logger.Init(telegram, cfg.LogChannelID)
		}
	}

	var database *sql.DB
	if cfg.UsesDB() {
		driver, dsn := db.DriverSQLite, cfg.SQLitePath
		if cfg.TursoURL != "" {
			driver, dsn = db.DriverLibSQL, db.TursoDSN(cfg.TursoURL, cfg.TursoAuthToken)
		}
		if database, err = db.Open(ctx, driver, dsn); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { db.Close(database) })
	}

	switch cfg.CorpusSource {
	case config.SourceDB:
		a.source = db.NewSongSource(database)
	default:
		a.source = corpus.NewFileSource(cfg.LyricsFile)
	}

	switch cfg.HistoryBackend {
	case config.BackendRedis:
		client, err := redis.NewClient(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { client.Close() })
		a.store = redis.NewHistoryStore(client, cfg.HistoryKey)
	case config.BackendDB:
		a.store = db.NewHistoryStore(database)
	default:
		a.store = history.NewFileStore(cfg.HistoryFile)
	}

	switch cfg.Publisher {
	case config.PublisherTelegram:
		a.publisher = publisher.NewTelegram(telegram, cfg.ChannelID)
	case config.PublisherConsole:
		a.publisher = publisher.NewConsole(os.Stdout)
	default:
		a.publisher = publisher.NewBluesky(cfg.BlueskyHost, cfg.BlueskyHandle, cfg.BlueskyPassword)
	}

	return a, nil
}

func (a *app) setupLogger() error {
	level, err := logger.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	if a.cfg.LogFile == "" {
		logger.SetOutput(os.Stdout)
		return nil
	}

	file, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.closers = append(a.closers, func() {
		logger.SetOutput(os.Stdout)
		file.Close()
	})
	logger.SetOutput(io.MultiWriter(os.Stdout, file))
	return nil
}

func (a *app) scheduler() *scheduler.Scheduler {
	sel := selector.New(a.store, a.cfg.MaxAttempts, nil)
	return scheduler.New(a.source, a.store, sel, a.publisher, scheduler.Options{
		PostInterval:         a.cfg.PostInterval,
		RetryInterval:        a.cfg.RetryInterval,
		Attribution:          a.cfg.Attribution,
		MarkOnPublishFailure: a.cfg.PublishFailurePolicy == config.PolicyMark,
	})
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
