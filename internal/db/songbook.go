package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sukalov/lyricsbot/internal/corpus"
)

// SongSource reads the corpus from the songs table. Lyrics are stored as one
// newline-delimited text per song.
type SongSource struct {
	db *sql.DB
}

func NewSongSource(database *sql.DB) *SongSource {
	return &SongSource{db: database}
}

func (s *SongSource) Load(ctx context.Context) (*corpus.Corpus, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT id, title, url, lyrics FROM songs ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute query: %v", corpus.ErrLoad, err)
	}
	defer rows.Close()

	var songs []corpus.Song
	for rows.Next() {
		var (
			song    corpus.Song
			id, url sql.NullString
			lyrics  string
		)
		if err := rows.Scan(&id, &song.Title, &url, &lyrics); err != nil {
			return nil, fmt.Errorf("%w: error scanning row: %v", corpus.ErrLoad, err)
		}
		song.ID = id.String
		song.URL = url.String
		song.Lyrics = corpus.SplitLines(lyrics)
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error during rows iteration: %v", corpus.ErrLoad, err)
	}

	return corpus.New(songs), nil
}

// ReplaceSongs swaps the whole songs table for songs in one transaction.
func ReplaceSongs(ctx context.Context, database *sql.DB, songs []corpus.Song) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM songs"); err != nil {
		return fmt.Errorf("failed to clear songs: %w", err)
	}

	for _, song := range songs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO songs (id, title, url, lyrics) VALUES (?, ?, ?, ?)",
			nullString(song.ID), song.Title, nullString(song.URL), strings.Join(song.Lyrics, "\n"),
		)
		if err != nil {
			return fmt.Errorf("failed to insert song %q: %w", song.Title, err)
		}
	}

	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
