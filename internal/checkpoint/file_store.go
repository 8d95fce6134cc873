package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultPath is the checkpoint file used when none is configured.
const DefaultPath = "scraper_progress.json"

// FileStore keeps the checkpoint in a local JSON file.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a FileStore at path, creating parent directories.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create checkpoint directory: %w", err)
		}
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Path returns the live checkpoint path.
func (s *FileStore) Path() string { return s.path }

// ArchivePath returns where Archive moves the checkpoint.
func (s *FileStore) ArchivePath() string {
	return ArchiveName(s.path)
}

// ArchiveName maps name.json to name_completed.json.
func ArchiveName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_completed" + ext
}

// Load reads the checkpoint. Any failure logs a warning and yields an empty state.
func (s *FileStore) Load(_ context.Context) State {
	// #nosec G304 -- the checkpoint path comes from operator config.
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("no checkpoint found, starting fresh", zap.String("path", s.path))
		} else {
			s.logger.Warn("checkpoint unreadable, starting fresh", zap.String("path", s.path), zap.Error(err))
		}
		return State{}
	}
	state, err := Decode(data)
	if err != nil {
		s.logger.Warn("checkpoint corrupt, starting fresh", zap.String("path", s.path), zap.Error(err))
		return State{}
	}
	return state
}

// Save writes the checkpoint to a temp file (mode 0600) in the same
// directory, syncs it, and renames it over the live file.
func (s *FileStore) Save(_ context.Context, state State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Archive renames the checkpoint to its completed name, replacing any
// earlier archive.
func (s *FileStore) Archive(_ context.Context) error {
	if err := os.Rename(s.path, s.ArchivePath()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("archive %s: %w", s.path, ErrNotFound)
		}
		return fmt.Errorf("archive checkpoint: %w", err)
	}
	s.logger.Info("checkpoint archived", zap.String("path", s.ArchivePath()))
	return nil
}
