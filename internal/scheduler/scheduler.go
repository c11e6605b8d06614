// Package scheduler runs the select-and-publish cycle forever.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sukalov/lyricsbot/internal/corpus"
	"github.com/sukalov/lyricsbot/internal/history"
	"github.com/sukalov/lyricsbot/internal/logger"
	"github.com/sukalov/lyricsbot/internal/publisher"
	"github.com/sukalov/lyricsbot/internal/selector"
	"github.com/sukalov/lyricsbot/internal/utils/e"
)

const (
	DefaultPostInterval  = 3 * time.Hour
	DefaultRetryInterval = 5 * time.Minute
)

type State int

const (
	StateCycle State = iota
	StateBackoff
)

func (s State) String() string {
	if s == StateBackoff {
		return "backoff"
	}
	return "cycle"
}

type Options struct {
	PostInterval  time.Duration
	RetryInterval time.Duration
	// Attribution appends the song title to every post.
	Attribution bool
	// MarkOnPublishFailure records a line as posted even when publishing it
	// failed, so it is not drawn again right away.
	MarkOnPublishFailure bool
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Scheduler owns the corpus and the in-memory history for the process
// lifetime. Cycles never overlap.
type Scheduler struct {
	source    corpus.Source
	store     history.Store
	selector  *selector.Selector
	publisher publisher.Publisher
	opts      Options
	sleep     Sleeper

	corpus  *corpus.Corpus
	history *history.History
	state   State
}

func New(source corpus.Source, store history.Store, sel *selector.Selector, pub publisher.Publisher, opts Options) *Scheduler {
	if opts.PostInterval <= 0 {
		opts.PostInterval = DefaultPostInterval
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	return &Scheduler{
		source:    source,
		store:     store,
		selector:  sel,
		publisher: pub,
		opts:      opts,
		sleep:     sleepContext,
		state:     StateCycle,
	}
}

// WithSleeper replaces the interval sleep, mostly for tests.
func (s *Scheduler) WithSleeper(sleep Sleeper) *Scheduler {
	s.sleep = sleep
	return s
}

func (s *Scheduler) State() State {
	return s.state
}

// Run alternates cycles and sleeps until ctx is cancelled. A failed cycle is
// logged and followed by the shorter retry interval; nothing else stops the
// loop.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Info(fmt.Sprintf("scheduler started: posting every %s, retrying after %s", s.opts.PostInterval, s.opts.RetryInterval))

	for {
		wait := s.opts.PostInterval
		if err := s.safeCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.state = StateBackoff
			wait = s.opts.RetryInterval
			logger.Error(fmt.Sprintf("cycle failed: %v", err))
			logger.Info(fmt.Sprintf("waiting %s before retry...", wait))
		} else {
			s.state = StateCycle
			logger.Info(fmt.Sprintf("waiting %s until next post...", wait))
		}

		if err := s.sleep(ctx, wait); err != nil {
			logger.Info("scheduler stopped")
			return err
		}
	}
}

func (s *Scheduler) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during cycle: %v", r)
		}
	}()
	return s.RunCycle(ctx)
}

// RunCycle loads what is missing, selects a line, publishes it and records
// it. An empty corpus is not an error: the cycle just ends.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	cycleID := uuid.NewString()[:8]

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	result, err := s.selector.Select(ctx, s.corpus, s.history)
	if errors.Is(err, selector.ErrNotFound) {
		logger.Warn(fmt.Sprintf("[%s] no line to post, skipping this cycle", cycleID))
		return nil
	}
	if err != nil {
		return e.Wrap("selecting line", err)
	}

	logger.Debug(fmt.Sprintf("[%s] selected %q from %q", cycleID, result.Line, result.SongTitle))

	text := publisher.Format(result.Line, result.SongTitle, s.opts.Attribution)
	if err := s.publisher.Publish(ctx, text); err != nil {
		if s.opts.MarkOnPublishFailure {
			_ = s.record(ctx, result)
		}
		return e.Wrap(fmt.Sprintf("[%s] publishing line", cycleID), err)
	}

	logger.Success(fmt.Sprintf("[%s] successfully posted: %s", cycleID, preview(text)))

	if err := s.record(ctx, result); err != nil {
		return e.Wrap(fmt.Sprintf("[%s] recording posted line", cycleID), err)
	}
	return nil
}

// History returns the in-memory history, nil before the first cycle.
func (s *Scheduler) History() *history.History {
	return s.history
}

func (s *Scheduler) ensureLoaded(ctx context.Context) error {
	if s.corpus == nil {
		c, err := s.source.Load(ctx)
		if err != nil {
			return e.Wrap("loading corpus", err)
		}
		logger.Info(fmt.Sprintf("loaded %d songs with %d lines", c.Len(), c.TotalLines()))
		s.corpus = c
	}

	if s.history == nil {
		// Stores report a missing or malformed history as empty. Any error
		// left is an outage, and saving over it would drop every fingerprint.
		h, err := s.store.Load(ctx)
		if err != nil {
			return e.Wrap("loading history", err)
		}
		if h == nil {
			h = history.New()
		}
		logger.Info(fmt.Sprintf("previously posted lines: %d", h.Len()))
		s.history = h
	}
	return nil
}

// record adds the line to the in-memory history first, so a failed write
// still keeps it out of this process's future draws.
func (s *Scheduler) record(ctx context.Context, result selector.Result) error {
	s.history.Add(result.Fingerprint)
	return logger.LogWithErr(
		fmt.Sprintf("history save (%d posted lines)", s.history.Len()),
		s.store.Save(ctx, s.history),
	)
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= 50 {
		return text
	}
	return string(runes[:50]) + "..."
}
