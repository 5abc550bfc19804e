package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileCredentialStore keeps the durable credential as a bare token file.
type FileCredentialStore struct {
	path string
	mu   sync.Mutex
}

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

func (s *FileCredentialStore) Load(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	credential := strings.TrimSpace(string(data))
	return credential, credential != "", nil
}

func (s *FileCredentialStore) Save(ctx context.Context, credential string) error {
	credential, err := normalizeCredential(credential)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	file, err := os.CreateTemp(filepath.Dir(s.path), ".tmp-token-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(file.Name())
	}()
	if _, err := file.WriteString(credential + "\n"); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Chmod(0o600); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(file.Name(), s.path)
}

func (s *FileCredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeIfExists(s.path)
}

// FileSessionStore keeps the short-lived credential with an expiry stamp.
type FileSessionStore struct {
	path string
	ttl  time.Duration
	now  func() time.Time
	mu   sync.Mutex
}

func NewFileSessionStore(path string, ttl time.Duration) *FileSessionStore {
	return &FileSessionStore{path: path, ttl: ttl, now: time.Now}
}

func (s *FileSessionStore) Load(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored expiringCredential
	if err := readJSON(s.path, &stored); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	if !stored.valid(nowOrDefault(s.now)()) {
		_ = removeIfExists(s.path)
		return "", false, nil
	}
	return stored.Credential, true, nil
}

func (s *FileSessionStore) Save(ctx context.Context, credential string) error {
	credential, err := normalizeCredential(credential)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := expiringCredential{Credential: credential}
	if s.ttl > 0 {
		stored.ExpiresAt = nowOrDefault(s.now)().Add(s.ttl).UTC()
	}
	return writeJSONAtomic(s.path, stored)
}

func (s *FileSessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeIfExists(s.path)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
