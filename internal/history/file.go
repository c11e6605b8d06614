package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sukalov/lyricsbot/internal/logger"
	"github.com/sukalov/lyricsbot/internal/utils/e"
)

// FileStore persists a history as a JSON array of fingerprints.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load treats a missing or malformed file as an empty history. Malformed
// content is logged.
func (s *FileStore) Load(ctx context.Context) (*History, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return New(), fmt.Errorf("%w: reading %s: %v", ErrLoad, s.Path, err)
	}

	var fingerprints []string
	if err := json.Unmarshal(data, &fingerprints); err != nil {
		logger.Warn(fmt.Sprintf("history file %s is malformed, starting from an empty history: %v", s.Path, err))
		return New(), nil
	}

	return New(fingerprints...), nil
}

// Save replaces the file through a rename so a failed write leaves the
// previous contents intact.
func (s *FileStore) Save(ctx context.Context, h *History) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h.Fingerprints()); err != nil {
		return e.Wrap("encoding history", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return e.Wrap("creating history dir", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+"-*.tmp")
	if err != nil {
		return e.Wrap("creating temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return e.Wrap("writing temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return e.Wrap("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return e.Wrap("closing temp file", err)
	}

	return e.WrapIfErr("replacing history file", os.Rename(tmp.Name(), s.Path))
}
