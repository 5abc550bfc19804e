// Package notes keeps the client-side mirror of the user's notes. The mirror
// only ever holds what the server last returned; mutations round-trip and
// then re-read the full list.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"peacock/internal/logging"
	"peacock/internal/types"
)

var ErrValidation = errors.New("validation failed")

// API is the subset of the gateway the store talks to.
type API interface {
	ListNotes(ctx context.Context) ([]*types.Note, error)
	CreateNote(ctx context.Context, input types.NoteInput) error
	UpdateNote(ctx context.Context, id string, input types.NoteInput) error
	DeleteNote(ctx context.Context, id string) error
}

type Store struct {
	api    API
	logger logging.Logger

	mu      sync.RWMutex
	notes   []*types.Note
	loaded  bool
	version uint64
}

type Option func(*Store)

func WithLogger(logger logging.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewStore(api API, opts ...Option) *Store {
	s := &Store{api: api, logger: logging.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Refresh replaces the whole mirror with the server's list. On failure the
// previous mirror is left untouched.
func (s *Store) Refresh(ctx context.Context) error {
	notes, err := s.api.ListNotes(ctx)
	if err != nil {
		s.logger.Debug("notes_refresh_failed", logging.Err(err))
		return err
	}
	s.mu.Lock()
	s.notes = types.CloneNotes(notes)
	s.loaded = true
	s.version++
	count := len(s.notes)
	s.mu.Unlock()
	s.logger.Debug("notes_refreshed", logging.F("count", count))
	return nil
}

func (s *Store) Create(ctx context.Context, title, content string) error {
	input, err := validateInput(title, content)
	if err != nil {
		return err
	}
	if err := s.api.CreateNote(ctx, input); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *Store) Update(ctx context.Context, id, title, content string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: note id is required", ErrValidation)
	}
	input, err := validateInput(title, content)
	if err != nil {
		return err
	}
	if err := s.api.UpdateNote(ctx, id, input); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: note id is required", ErrValidation)
	}
	if err := s.api.DeleteNote(ctx, id); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Notes returns a deep copy of the mirror in server order.
func (s *Store) Notes() []*types.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.CloneNotes(s.notes)
}

func (s *Store) Get(id string) (*types.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if note := s.find(id); note != nil {
		return note.Clone(), true
	}
	return nil, false
}

// Patch applies fn to the mirrored note with id in place. It reports false
// when the note is no longer in the mirror.
func (s *Store) Patch(id string, fn func(*types.Note)) bool {
	if fn == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	note := s.find(id)
	if note == nil {
		return false
	}
	fn(note)
	s.version++
	return true
}

// Version increases on every change to the mirror.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Reset drops the mirror, used when the session ends.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = nil
	s.loaded = false
	s.version++
}

func (s *Store) find(id string) *types.Note {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	for _, note := range s.notes {
		if note.ID == id {
			return note
		}
	}
	return nil
}

func validateInput(title, content string) (types.NoteInput, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return types.NoteInput{}, fmt.Errorf("%w: title and content are required", ErrValidation)
	}
	return types.NoteInput{Title: title, Content: content}, nil
}
