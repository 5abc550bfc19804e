package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketCredentials  = []byte("credentials")
	keyDurable         = []byte("durable")
	keySessionScoped   = []byte("session")
	errMissingDBBucket = errors.New("credentials bucket missing")
)

type bboltRepository struct {
	db      *bolt.DB
	durable CredentialStore
	session CredentialStore
}

func NewBboltRepository(path string, sessionTTL time.Duration) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltRepository{
		db:      db,
		durable: &bboltCredentialStore{db: db, key: keyDurable},
		session: &bboltCredentialStore{db: db, key: keySessionScoped, ttl: sessionTTL, expiring: true, now: time.Now},
	}, nil
}

func (r *bboltRepository) Durable() CredentialStore {
	return r.durable
}

func (r *bboltRepository) Session() CredentialStore {
	return r.session
}

func (r *bboltRepository) Backend() string {
	return RepositoryBackendBbolt
}

func (r *bboltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCredentials)
		return err
	})
}

type bboltCredentialStore struct {
	db       *bolt.DB
	key      []byte
	ttl      time.Duration
	expiring bool
	now      func() time.Time
}

func (s *bboltCredentialStore) Load(ctx context.Context) (string, bool, error) {
	var stored expiringCredential
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if b == nil {
			return errMissingDBBucket
		}
		data := b.Get(s.key)
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &stored)
	})
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	if !stored.valid(nowOrDefault(s.now)()) {
		_ = s.Clear(ctx)
		return "", false, nil
	}
	return stored.Credential, true, nil
}

func (s *bboltCredentialStore) Save(ctx context.Context, credential string) error {
	credential, err := normalizeCredential(credential)
	if err != nil {
		return err
	}
	stored := expiringCredential{Credential: credential}
	if s.expiring && s.ttl > 0 {
		stored.ExpiresAt = nowOrDefault(s.now)().Add(s.ttl).UTC()
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if b == nil {
			return errMissingDBBucket
		}
		return b.Put(s.key, data)
	})
}

func (s *bboltCredentialStore) Clear(ctx context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if b == nil {
			return nil
		}
		return b.Delete(s.key)
	})
}
