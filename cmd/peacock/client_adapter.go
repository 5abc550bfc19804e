package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"peacock/internal/app"
	"peacock/internal/client"
	"peacock/internal/config"
	"peacock/internal/enrich"
	"peacock/internal/logging"
	"peacock/internal/notes"
	"peacock/internal/session"
	"peacock/internal/store"
	"peacock/internal/types"
)

var errNotLoggedIn = errors.New("not logged in")

type commandClient interface {
	Restore(ctx context.Context) session.Route
	Register(ctx context.Context, req types.Registration) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) bool
	Profile(ctx context.Context) (*types.Profile, error)
	Notes(ctx context.Context) ([]*types.Note, error)
	Note(ctx context.Context, id string) (*types.Note, error)
	CreateNote(ctx context.Context, title, content string) error
	UpdateNote(ctx context.Context, id, title, content string) error
	DeleteNote(ctx context.Context, id string) error
	Enrich(ctx context.Context, id string, kind types.EnrichmentKind) (enrich.Result, error)
	RunUI(start session.Route) error
	Close() error
}

type clientFactory func() (commandClient, error)

// runtime wires the core packages for one CLI invocation.
type runtime struct {
	logger   logging.Logger
	repo     store.Repository
	closers  []io.Closer
	api      *client.Client
	sessions *session.Manager
	notes    *notes.Store
	enricher *enrich.Orchestrator
	cancel   func()
}

func newRuntimeFactory(notices io.Writer, debug bool) clientFactory {
	return func() (commandClient, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		logPath, err := config.LogPath()
		if err != nil {
			return nil, err
		}
		level := logging.ParseLevel(cfg.LogLevel())
		if debug {
			level = logging.Debug
		}
		logger, logCloser, err := logging.Open(logPath, level)
		if err != nil {
			return nil, err
		}
		repo, err := openRepository(cfg)
		if err != nil {
			_ = logCloser.Close()
			return nil, err
		}
		closers := []io.Closer{repo, logCloser}
		var scoped store.CredentialStore
		if cfg.SessionBackend() == config.BackendRedis {
			redisStore, err := store.NewRedisCredentialStore(cfg.RedisURL(), cfg.SessionTTL())
			if err != nil {
				closeAll(closers)
				return nil, err
			}
			scoped = redisStore
			closers = append([]io.Closer{redisStore}, closers...)
		}
		rt := newRuntime(cfg, repo, scoped, logger, notices)
		rt.closers = closers
		return rt, nil
	}
}

func openRepository(cfg config.Config) (store.Repository, error) {
	paths := store.RepositoryPaths{}
	var err error
	if paths.TokenPath, err = config.TokenPath(); err != nil {
		return nil, err
	}
	if paths.SessionTokenPath, err = config.SessionTokenPath(); err != nil {
		return nil, err
	}
	if paths.DBPath, err = config.DBPath(); err != nil {
		return nil, err
	}
	return store.OpenRepository(cfg.StorageBackend(), paths, cfg.SessionTTL())
}

// newRuntime builds the object graph. scoped overrides the repository's
// session-scoped store when non-nil. Session events are echoed to notices.
func newRuntime(cfg config.Config, repo store.Repository, scoped store.CredentialStore, logger logging.Logger, notices io.Writer) *runtime {
	if logger == nil {
		logger = logging.Nop()
	}
	if scoped == nil {
		scoped = repo.Session()
	}
	sessions := session.NewManager(repo.Durable(), scoped, session.WithLogger(logger))
	api := client.New(cfg.BaseURL(),
		client.WithTimeout(cfg.RequestTimeout()),
		client.WithLogger(logger),
		client.WithCredentials(sessions),
	)
	api.OnAuthFailure(sessions)
	noteStore := notes.NewStore(api, notes.WithLogger(logger))
	rt := &runtime{
		logger:   logger,
		repo:     repo,
		api:      api,
		sessions: sessions,
		notes:    noteStore,
		enricher: enrich.New(api, noteStore, enrich.WithLogger(logger)),
		cancel:   func() {},
	}
	if notices != nil {
		rt.cancel = sessions.Subscribe(func(event session.Event) {
			fmt.Fprintln(notices, event.Message)
		})
	}
	return rt
}

func (r *runtime) Restore(ctx context.Context) session.Route {
	return r.sessions.Restore(ctx)
}

func (r *runtime) Register(ctx context.Context, req types.Registration) error {
	return r.sessions.Register(ctx, r.api, req)
}

func (r *runtime) Login(ctx context.Context, email, password string) error {
	return r.sessions.Login(ctx, r.api, email, password)
}

func (r *runtime) Logout(ctx context.Context) bool {
	return r.sessions.Logout(ctx)
}

func (r *runtime) Profile(ctx context.Context) (*types.Profile, error) {
	return r.api.Profile(ctx)
}

func (r *runtime) Notes(ctx context.Context) ([]*types.Note, error) {
	if err := r.notes.Refresh(ctx); err != nil {
		return nil, err
	}
	return r.notes.Notes(), nil
}

func (r *runtime) Note(ctx context.Context, id string) (*types.Note, error) {
	if err := r.notes.Refresh(ctx); err != nil {
		return nil, err
	}
	note, ok := r.notes.Get(id)
	if !ok {
		return nil, fmt.Errorf("note %s not found", id)
	}
	return note, nil
}

func (r *runtime) CreateNote(ctx context.Context, title, content string) error {
	return r.notes.Create(ctx, title, content)
}

func (r *runtime) UpdateNote(ctx context.Context, id, title, content string) error {
	return r.notes.Update(ctx, id, title, content)
}

func (r *runtime) DeleteNote(ctx context.Context, id string) error {
	return r.notes.Delete(ctx, id)
}

// Enrich refreshes first; the orchestrator only works on mirrored notes.
func (r *runtime) Enrich(ctx context.Context, id string, kind types.EnrichmentKind) (enrich.Result, error) {
	if err := r.notes.Refresh(ctx); err != nil {
		return nil, err
	}
	return r.enricher.Enrich(ctx, id, kind)
}

func (r *runtime) RunUI(start session.Route) error {
	// The UI shows session transitions itself.
	r.cancel()
	r.cancel = func() {}
	return app.Run(app.Deps{
		Auth:     r.api,
		Session:  r.sessions,
		Notes:    r.notes,
		Enricher: r.enricher,
		Logger:   r.logger,
	}, start)
}

func (r *runtime) Close() error {
	r.cancel()
	return closeAll(r.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func requireSession(ctx context.Context, c commandClient) error {
	if c.Restore(ctx) != session.RouteNotes {
		return errNotLoggedIn
	}
	return nil
}
