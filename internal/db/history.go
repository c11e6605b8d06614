package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sukalov/lyricsbot/internal/history"
)

// HistoryStore keeps posted fingerprints in the posted_lines table.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(database *sql.DB) *HistoryStore {
	return &HistoryStore{db: database}
}

func (s *HistoryStore) Load(ctx context.Context) (*history.History, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT fingerprint FROM posted_lines")
	if err != nil {
		return history.New(), fmt.Errorf("%w: %v", history.ErrLoad, err)
	}
	defer rows.Close()

	h := history.New()
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return history.New(), fmt.Errorf("%w: error scanning row: %v", history.ErrLoad, err)
		}
		h.Add(fp)
	}
	if err := rows.Err(); err != nil {
		return history.New(), fmt.Errorf("%w: %v", history.ErrLoad, err)
	}
	return h, nil
}

// Save rewrites the table inside a transaction.
func (s *HistoryStore) Save(ctx context.Context, h *history.History) error {
	if err := s.save(ctx, h); err != nil {
		return fmt.Errorf("%w: %v", history.ErrPersist, err)
	}
	return nil
}

func (s *HistoryStore) save(ctx context.Context, h *history.History) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM posted_lines"); err != nil {
		return fmt.Errorf("failed to clear posted lines: %w", err)
	}
	for _, fp := range h.Fingerprints() {
		if _, err := tx.ExecContext(ctx, "INSERT INTO posted_lines (fingerprint) VALUES (?)", fp); err != nil {
			return fmt.Errorf("failed to insert fingerprint: %w", err)
		}
	}
	return tx.Commit()
}
