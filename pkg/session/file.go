package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileState struct {
	Email      string    `json:"email"`
	SignedInAt time.Time `json:"signed_in_at"`
}

// FileStore persists the session as a small JSON file so it survives between
// CLI invocations.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) CurrentUserEmail(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session file: %w", err)
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return "", false, fmt.Errorf("failed to decode session file %s: %w", s.path, err)
	}
	return state.Email, state.Email != "", nil
}

func (s *FileStore) SetCurrentUserEmail(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(fileState{Email: email, SignedInAt: s.now().UTC()})
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
