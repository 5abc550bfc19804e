// Package devserver is an in-memory implementation of the notes backend. It
// backs end-to-end tests and the serve-dev command; nothing is persisted.
package devserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"peacock/internal/logging"
	"peacock/internal/types"
)

type account struct {
	name         string
	email        string
	passwordHash []byte
	createdAt    time.Time
}

type injectedFailure struct {
	status int
	body   string
}

type Server struct {
	logger logging.Logger
	now    func() time.Time
	router *mux.Router

	mu       sync.Mutex
	accounts map[string]*account
	tokens   map[string]string
	notes    map[string][]*types.Note
	failures []injectedFailure
	aiGate   chan struct{}
}

type Option func(*Server)

func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		logger:   logging.Nop(),
		now:      time.Now,
		accounts: map[string]*account{},
		tokens:   map[string]string{},
		notes:    map[string][]*types.Note{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter().UseEncodedPath()
	r.Use(s.injectFailures)
	r.HandleFunc("/register", s.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", s.Login).Methods(http.MethodPost)

	protected := r.NewRoute().Subrouter()
	protected.Use(s.requireToken)
	protected.HandleFunc("/user/profile", s.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/notes/get", s.ListNotes).Methods(http.MethodGet)
	protected.HandleFunc("/notes/create", s.CreateNote).Methods(http.MethodPost)
	protected.HandleFunc("/notes/update/{id}", s.UpdateNote).Methods(http.MethodPut)
	protected.HandleFunc("/notes/delete/{id}", s.DeleteNote).Methods(http.MethodDelete)
	protected.HandleFunc("/api/ai/{kind}/{id}", s.Enrich).Methods(http.MethodPost)
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("devserver_listening", logging.F("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Revoke invalidates every token issued so far; later requests carrying
// them are rejected as if they had expired.
func (s *Server) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]string{}
}

// FailNext makes the next routed request answer with status and body.
// Calls queue up.
func (s *Server) FailNext(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, injectedFailure{status: status, body: body})
}

// HoldAI blocks every AI request until the returned release func is called.
func (s *Server) HoldAI() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.aiGate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.aiGate == gate {
				s.aiGate = nil
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var failure *injectedFailure
		if len(s.failures) > 0 {
			f := s.failures[0]
			s.failures = s.failures[1:]
			failure = &f
		}
		s.mu.Unlock()
		if failure == nil {
			next.ServeHTTP(w, r)
			return
		}
		s.logger.Debug("devserver_injected_failure", logging.F("path", r.URL.Path), logging.F("status", failure.status))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(failure.status)
		_, _ = w.Write([]byte(failure.body))
	})
}
