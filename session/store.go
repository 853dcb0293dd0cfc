// Package session persists the login session between CLI invocations
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/s0up4200/tmdbfav/tmdb"
)

const fileMode = 0o600

// Store reads and writes a session file
type Store struct {
	path   string
	logger zerolog.Logger
}

// NewStore creates a store for the file at path
func NewStore(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("session path is required")
	}
	return &Store{path: path, logger: logger}, nil
}

// Path returns the session file location
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored session. A missing file is an empty session.
func (s *Store) Load() (tmdb.Session, error) {
	var session tmdb.Session

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debug().Str("path", s.path).Msg("No stored session")
		return session, nil
	}
	if err != nil {
		return session, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := json.Unmarshal(data, &session); err != nil {
		return tmdb.Session{}, fmt.Errorf("failed to parse session file %s: %w", s.path, err)
	}

	s.logger.Debug().
		Str("path", s.path).
		Int64("user_id", session.UserID).
		Msg("Loaded stored session")

	return session, nil
}

// Save writes session, replacing any previous one
func (s *Store) Save(session tmdb.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	// Written to a temp file and renamed into place
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	s.logger.Debug().Str("path", s.path).Msg("Saved session")
	return nil
}

// Clear removes the stored session. A missing file is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	s.logger.Debug().Str("path", s.path).Msg("Cleared session")
	return nil
}
