package notes

import (
	"strings"

	"peacock/internal/types"
)

// Project filters notes to those whose title or content contains term,
// ignoring case. A blank term returns notes unchanged.
func Project(notes []*types.Note, term string) []*types.Note {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return notes
	}
	out := make([]*types.Note, 0, len(notes))
	for _, note := range notes {
		if note == nil {
			continue
		}
		if strings.Contains(strings.ToLower(note.Title), term) || strings.Contains(strings.ToLower(note.Content), term) {
			out = append(out, note)
		}
	}
	return out
}
