// Package corpus holds the immutable collection of songs lines are drawn from.
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrLoad marks a corpus that could not be read or parsed.
var ErrLoad = errors.New("corpus load failed")

// Lyrics is an ordered list of trimmed, non-empty lines. In JSON it may be
// written either as one newline-delimited string or as an array of strings.
type Lyrics []string

func (l *Lyrics) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*l = SplitLines(text)
		return nil
	}

	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("lyrics must be a string or an array of strings: %w", err)
	}
	*l = CleanLines(lines)
	return nil
}

// SplitLines splits a newline-delimited block into clean lines.
func SplitLines(text string) Lyrics {
	return CleanLines(strings.Split(text, "\n"))
}

// CleanLines trims every line and drops the empty ones.
func CleanLines(lines []string) Lyrics {
	cleaned := make(Lyrics, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

type Song struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
	Lyrics Lyrics `json:"lyrics"`
}

// Corpus is read-only once built.
type Corpus struct {
	songs []Song
}

func New(songs []Song) *Corpus {
	copied := make([]Song, len(songs))
	for i, song := range songs {
		song.Lyrics = CleanLines(song.Lyrics)
		copied[i] = song
	}
	return &Corpus{songs: copied}
}

func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.songs)
}

// Song returns the i-th song. The returned lines must not be modified.
func (c *Corpus) Song(i int) Song {
	return c.songs[i]
}

func (c *Corpus) Songs() []Song {
	if c == nil {
		return nil
	}
	return append([]Song(nil), c.songs...)
}

// TotalLines counts every line of every song, duplicates included.
func (c *Corpus) TotalLines() int {
	total := 0
	for i := range c.Len() {
		total += len(c.Song(i).Lyrics)
	}
	return total
}

type Source interface {
	Load(ctx context.Context) (*Corpus, error)
}

// FileSource reads the JSON array produced by the letras parser.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Load(ctx context.Context) (*Corpus, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrLoad, s.Path, err)
	}
	return Parse(data)
}

// Parse decodes a JSON array of songs.
func Parse(data []byte) (*Corpus, error) {
	var songs []Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return New(songs), nil
}
