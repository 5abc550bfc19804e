package devserver

import (
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"peacock/internal/types"
)

func (s *Server) ListNotes(w http.ResponseWriter, r *http.Request) {
	email := accountEmail(r.Context())
	s.mu.Lock()
	notes := types.CloneNotes(s.notes[email])
	s.mu.Unlock()
	// Newest first, matching the production backend.
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req types.NoteInput
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := validateNoteInput(req); err != nil {
		writeServiceError(w, err)
		return
	}
	note := &types.Note{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: s.now().UTC(),
	}
	email := accountEmail(r.Context())
	s.mu.Lock()
	s.notes[email] = append(s.notes[email], note)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Note created", "note": note.Clone()})
}

func (s *Server) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req types.NoteInput
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := validateNoteInput(req); err != nil {
		writeServiceError(w, err)
		return
	}
	var updated *types.Note
	err := s.withNote(r, func(note *types.Note) {
		note.Title = req.Title
		note.Content = req.Content
		updated = note.Clone()
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Note updated", "note": updated})
}

func (s *Server) DeleteNote(w http.ResponseWriter, r *http.Request) {
	email := accountEmail(r.Context())
	id := pathVar(r, "id")
	s.mu.Lock()
	notes := s.notes[email]
	found := false
	for i, note := range notes {
		if note.ID == id {
			s.notes[email] = append(notes[:i:i], notes[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		writeServiceError(w, notFoundError("Note not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}

// withNote runs fn on the caller's note named by the {id} route variable
// while holding the server lock.
func (s *Server) withNote(r *http.Request, fn func(*types.Note)) error {
	email := accountEmail(r.Context())
	id := pathVar(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, note := range s.notes[email] {
		if note.ID == id {
			fn(note)
			return nil
		}
	}
	return notFoundError("Note not found")
}

func validateNoteInput(req types.NoteInput) error {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return invalidError("Title and content are required")
	}
	return nil
}
