package store

import (
	"errors"
	"strings"
	"time"
)

const (
	RepositoryBackendFile  = "file"
	RepositoryBackendBbolt = "bbolt"
)

// Repository groups the two places a credential is persisted: a durable copy
// read on boot and a short-lived session-scoped copy.
type Repository interface {
	Durable() CredentialStore
	Session() CredentialStore
	Backend() string
	Close() error
}

type RepositoryPaths struct {
	TokenPath        string
	SessionTokenPath string
	DBPath           string
}

type fileRepository struct {
	durable CredentialStore
	session CredentialStore
}

func NewFileRepository(paths RepositoryPaths, sessionTTL time.Duration) (Repository, error) {
	if strings.TrimSpace(paths.TokenPath) == "" || strings.TrimSpace(paths.SessionTokenPath) == "" {
		return nil, errors.New("token paths are required")
	}
	return &fileRepository{
		durable: NewFileCredentialStore(paths.TokenPath),
		session: NewFileSessionStore(paths.SessionTokenPath, sessionTTL),
	}, nil
}

func (r *fileRepository) Durable() CredentialStore {
	return r.durable
}

func (r *fileRepository) Session() CredentialStore {
	return r.session
}

func (r *fileRepository) Backend() string {
	return RepositoryBackendFile
}

func (r *fileRepository) Close() error {
	return nil
}

// OpenRepository picks the backend by name; unknown names fall back to bbolt.
func OpenRepository(backend string, paths RepositoryPaths, sessionTTL time.Duration) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case RepositoryBackendFile:
		return NewFileRepository(paths, sessionTTL)
	default:
		return NewBboltRepository(paths.DBPath, sessionTTL)
	}
}
