// Package enrich runs AI enrichment requests for notes. At most one request
// is in flight across all notes; a second attempt while one is pending is
// rejected rather than queued.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"peacock/internal/logging"
	"peacock/internal/types"
)

var (
	ErrNoSelection  = errors.New("no note selected")
	ErrEmptyContent = errors.New("note content is empty")
	ErrBusy         = errors.New("an AI request is already in progress")
	ErrEmptyResult  = errors.New("no AI output received")
)

type API interface {
	Enrich(ctx context.Context, id string, kind types.EnrichmentKind) ([]byte, error)
}

// Notes is the mirror the orchestrator reads from and merges into.
type Notes interface {
	Get(id string) (*types.Note, bool)
	Patch(id string, fn func(*types.Note)) bool
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Request records one enrichment attempt that got past its preconditions.
type Request struct {
	ID         string
	NoteID     string
	Kind       types.EnrichmentKind
	Status     Status
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

type Orchestrator struct {
	api    API
	notes  Notes
	logger logging.Logger
	now    func() time.Time

	busy atomic.Bool

	mu       sync.Mutex
	viewing  *types.Note
	pending  *Request
	last     *Request
	lastText string
}

type Option func(*Orchestrator)

func WithLogger(logger logging.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func New(api API, notes Notes, opts ...Option) *Orchestrator {
	o := &Orchestrator{api: api, notes: notes, logger: logging.Nop(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Open makes a copy of the note the detail view shows.
func (o *Orchestrator) Open(id string) (*types.Note, error) {
	note, ok := o.notes.Get(id)
	if !ok {
		return nil, ErrNoSelection
	}
	o.mu.Lock()
	o.viewing = note
	o.mu.Unlock()
	return note.Clone(), nil
}

func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.viewing = nil
	o.mu.Unlock()
}

func (o *Orchestrator) Viewing() (*types.Note, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.viewing == nil {
		return nil, false
	}
	return o.viewing.Clone(), true
}

// Pending returns the in-flight request, if any.
func (o *Orchestrator) Pending() (Request, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return Request{}, false
	}
	return *o.pending, true
}

// Last returns the most recently finished request.
func (o *Orchestrator) Last() (Request, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return Request{}, false
	}
	return *o.last, true
}

// LastText is the display line for the most recent result.
func (o *Orchestrator) LastText() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastText
}

func (o *Orchestrator) EnrichViewing(ctx context.Context, kind types.EnrichmentKind) (Result, error) {
	o.mu.Lock()
	id := ""
	if o.viewing != nil {
		id = o.viewing.ID
	}
	o.mu.Unlock()
	return o.Enrich(ctx, id, kind)
}

// Enrich requests kind for noteID and merges the single matching field into
// the mirror and into the viewed copy. Gateway errors are returned as-is.
func (o *Orchestrator) Enrich(ctx context.Context, noteID string, kind types.EnrichmentKind) (Result, error) {
	if _, ok := schemas[kind]; !ok {
		return nil, fmt.Errorf("unknown enrichment kind %q", kind)
	}
	noteID = strings.TrimSpace(noteID)
	if noteID == "" {
		return nil, ErrNoSelection
	}
	note, ok := o.notes.Get(noteID)
	if !ok {
		return nil, ErrNoSelection
	}
	if strings.TrimSpace(note.Content) == "" {
		return nil, ErrEmptyContent
	}
	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.busy.Store(false)

	req := &Request{
		ID:        uuid.NewString(),
		NoteID:    noteID,
		Kind:      kind,
		Status:    StatusPending,
		StartedAt: o.now(),
	}
	o.mu.Lock()
	o.pending = req
	o.mu.Unlock()
	log := o.logger.With(logging.F("enrich_id", req.ID), logging.F("note_id", noteID), logging.F("kind", string(kind)))
	log.Debug("enrich_started")

	result, err := o.run(ctx, noteID, kind)

	o.mu.Lock()
	req.FinishedAt = o.now()
	if err != nil {
		req.Status = StatusFailed
		req.Err = err
		if errors.Is(err, ErrEmptyResult) {
			o.lastText = noOutputText
		}
	} else {
		req.Status = StatusSucceeded
		o.lastText = result.String()
		if o.viewing != nil && o.viewing.ID == noteID {
			result.apply(o.viewing)
		}
	}
	o.pending = nil
	o.last = req
	o.mu.Unlock()

	if err != nil {
		log.Info("enrich_failed", logging.Err(err), logging.F("duration", req.FinishedAt.Sub(req.StartedAt)))
		return nil, err
	}
	log.Info("enrich_completed", logging.F("duration", req.FinishedAt.Sub(req.StartedAt)))
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, noteID string, kind types.EnrichmentKind) (Result, error) {
	body, err := o.api.Enrich(ctx, noteID, kind)
	if err != nil {
		return nil, err
	}
	result, err := decodeResult(kind, body)
	if err != nil {
		return nil, err
	}
	if !o.notes.Patch(noteID, result.apply) {
		o.logger.Debug("enrich_note_gone", logging.F("note_id", noteID))
	}
	return result, nil
}
