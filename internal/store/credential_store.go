package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrCredentialRequired = errors.New("credential is required")

// CredentialStore persists one bearer credential. Load reports ok=false when
// nothing is stored or the stored value has expired.
type CredentialStore interface {
	Load(ctx context.Context) (credential string, ok bool, err error)
	Save(ctx context.Context, credential string) error
	Clear(ctx context.Context) error
}

// expiringCredential is the on-disk shape of a session-scoped credential.
type expiringCredential struct {
	Credential string    `json:"credential"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (c expiringCredential) valid(now time.Time) bool {
	if strings.TrimSpace(c.Credential) == "" {
		return false
	}
	return c.ExpiresAt.IsZero() || now.Before(c.ExpiresAt)
}

func normalizeCredential(credential string) (string, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", ErrCredentialRequired
	}
	return credential, nil
}

func nowOrDefault(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return time.Now
}
