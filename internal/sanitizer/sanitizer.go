// Package sanitizer cleans server-supplied text before it reaches a
// terminal. Note titles, bodies and AI output are untrusted: an escape
// sequence in them could move the cursor, retitle the window or write the
// clipboard.
package sanitizer

import "peacock/internal/types"

type Config struct {
	AllowNewlines      bool
	AllowTabs          bool
	ReplaceNewlineWith string
	// MaxRunes truncates the result when positive.
	MaxRunes int
}

type Sanitizer struct {
	config Config
}

func New(config Config) *Sanitizer {
	return &Sanitizer{config: config}
}

// Text keeps newlines and tabs; for note bodies.
func Text() *Sanitizer {
	return New(Config{AllowNewlines: true, AllowTabs: true})
}

// Line folds newlines into spaces; for titles, tags and table cells.
func Line() *Sanitizer {
	return New(Config{ReplaceNewlineWith: " "})
}

func (s *Sanitizer) Sanitize(input string) string {
	if input == "" {
		return input
	}
	input = RemoveEscapeSequences(input)

	result := make([]rune, 0, len(input))
	for _, r := range input {
		kept, replacement := s.shouldKeep(r)
		if kept {
			result = append(result, r)
		} else if replacement != "" {
			result = append(result, []rune(replacement)...)
		}
		if s.config.MaxRunes > 0 && len(result) >= s.config.MaxRunes {
			result = result[:s.config.MaxRunes]
			break
		}
	}
	return string(result)
}

func (s *Sanitizer) shouldKeep(r rune) (bool, string) {
	switch {
	case r == '\n':
		if s.config.AllowNewlines {
			return true, ""
		}
		return false, s.config.ReplaceNewlineWith
	case r == '\t':
		if s.config.AllowTabs {
			return true, ""
		}
		return false, " "
	case r < 32 || r == 127:
		return false, ""
	default:
		return true, ""
	}
}

var (
	textSanitizer = Text()
	lineSanitizer = Line()
)

// Note returns a cleaned copy of note for display.
func Note(note *types.Note) *types.Note {
	if note == nil {
		return nil
	}
	out := note.Clone()
	out.Title = lineSanitizer.Sanitize(out.Title)
	out.Content = textSanitizer.Sanitize(out.Content)
	out.AISummary = textSanitizer.Sanitize(out.AISummary)
	out.AIImprovedContent = textSanitizer.Sanitize(out.AIImprovedContent)
	for i, tag := range out.Tags {
		out.Tags[i] = lineSanitizer.Sanitize(tag)
	}
	return out
}

func Notes(notes []*types.Note) []*types.Note {
	out := make([]*types.Note, 0, len(notes))
	for _, note := range notes {
		if note != nil {
			out = append(out, Note(note))
		}
	}
	return out
}

func SanitizeLine(input string) string {
	return lineSanitizer.Sanitize(input)
}

func SanitizeText(input string) string {
	return textSanitizer.Sanitize(input)
}
