// Package selector draws lyric lines that have not been posted yet.
package selector

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sukalov/lyricsbot/internal/corpus"
	"github.com/sukalov/lyricsbot/internal/fingerprint"
	"github.com/sukalov/lyricsbot/internal/history"
	"github.com/sukalov/lyricsbot/internal/logger"
)

const DefaultMaxAttempts = 100

// ErrNotFound means the corpus has no line to offer at all.
var ErrNotFound = errors.New("no line available in corpus")

type Result struct {
	Line        string
	Fingerprint string
	SongTitle   string
}

type Selector struct {
	store       history.Store
	rng         *rand.Rand
	maxAttempts int
}

// New returns a selector persisting history resets through store. A nil rng
// is seeded from the clock; maxAttempts below 1 means DefaultMaxAttempts.
func New(store history.Store, maxAttempts int, rng *rand.Rand) *Selector {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Selector{store: store, rng: rng, maxAttempts: maxAttempts}
}

// Select draws a random song, then a random line of it, and returns the first
// draw whose fingerprint is not in h. When maxAttempts draws in a row all hit
// h, the corpus counts as exhausted: h is cleared and persisted, and one more
// draw is returned without checking it.
//
// Songs without lines are never drawn.
func (s *Selector) Select(ctx context.Context, c *corpus.Corpus, h *history.History) (Result, error) {
	songs := usableSongs(c)
	if len(songs) == 0 {
		return Result{}, ErrNotFound
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		result := s.draw(songs)
		if !h.Contains(result.Fingerprint) {
			return result, nil
		}
	}

	logger.Warn(fmt.Sprintf("no unique line found in %d attempts, clearing post history (%d entries)", s.maxAttempts, h.Len()))
	s.reset(ctx, h)

	return s.draw(songs), nil
}

func (s *Selector) reset(ctx context.Context, h *history.History) {
	if s.store == nil {
		h.Clear()
		return
	}
	if err := history.Clear(ctx, s.store, h); err != nil {
		logger.Error(fmt.Sprintf("failed to persist cleared history: %v", err))
	}
}

func (s *Selector) draw(songs []corpus.Song) Result {
	song := songs[s.rng.IntN(len(songs))]
	line := song.Lyrics[s.rng.IntN(len(song.Lyrics))]
	return Result{
		Line:        line,
		Fingerprint: fingerprint.Normalize(line),
		SongTitle:   song.Title,
	}
}

func usableSongs(c *corpus.Corpus) []corpus.Song {
	var songs []corpus.Song
	for i := range c.Len() {
		if song := c.Song(i); len(song.Lyrics) > 0 {
			songs = append(songs, song)
		}
	}
	return songs
}
