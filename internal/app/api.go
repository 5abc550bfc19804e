package app

import (
	"context"

	"peacock/internal/enrich"
	"peacock/internal/session"
	"peacock/internal/types"
)

type AuthAPI interface {
	session.Authenticator
	Profile(ctx context.Context) (*types.Profile, error)
}

type SessionAPI interface {
	Login(ctx context.Context, auth session.Authenticator, email, password string) error
	Register(ctx context.Context, auth session.Authenticator, req types.Registration) error
	Logout(ctx context.Context) bool
	Subscribe(fn func(session.Event)) func()
	State() session.State
}

type NoteAPI interface {
	Refresh(ctx context.Context) error
	Create(ctx context.Context, title, content string) error
	Update(ctx context.Context, id, title, content string) error
	Delete(ctx context.Context, id string) error
	Notes() []*types.Note
	Get(id string) (*types.Note, bool)
	Version() uint64
	Reset()
}

type EnrichAPI interface {
	Enrich(ctx context.Context, noteID string, kind types.EnrichmentKind) (enrich.Result, error)
	Open(id string) (*types.Note, error)
	Close()
	Viewing() (*types.Note, bool)
	LastText() string
}
