package devserver

import (
	"net/http"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"peacock/internal/logging"
	"peacock/internal/types"
)

const (
	summaryLimit = 120
	tagLimit     = 3
)

var stopWords = map[string]bool{
	"about": true, "after": true, "also": true, "been": true, "from": true,
	"have": true, "into": true, "just": true, "more": true, "that": true,
	"then": true, "there": true, "they": true, "this": true, "what": true,
	"when": true, "which": true, "will": true, "with": true, "your": true,
}

// Enrich answers the AI routes with deterministic text derived from the
// note content, and stores it on the note like the real backend does.
func (s *Server) Enrich(w http.ResponseWriter, r *http.Request) {
	kind := types.EnrichmentKind(pathVar(r, "kind"))
	if !knownKind(kind) {
		writeServiceError(w, notFoundError("Unknown AI action"))
		return
	}

	s.mu.Lock()
	gate := s.aiGate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	var payload map[string]any
	err := s.withNote(r, func(note *types.Note) {
		switch kind {
		case types.EnrichmentSummary:
			note.AISummary = summarize(note.Content)
			payload = map[string]any{"summary": note.AISummary}
		case types.EnrichmentImprove:
			note.AIImprovedContent = improve(note.Content)
			payload = map[string]any{"improved": note.AIImprovedContent}
		case types.EnrichmentTags:
			note.Tags = extractTags(note.Content)
			payload = map[string]any{"tags": note.Tags}
		}
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.logger.Debug("devserver_enriched", logging.F("kind", string(kind)))
	writeJSON(w, http.StatusOK, payload)
}

func knownKind(kind types.EnrichmentKind) bool {
	for _, k := range types.EnrichmentKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// summarize returns the first sentence, clipped to summaryLimit runes.
func summarize(content string) string {
	text := strings.Join(strings.Fields(content), " ")
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		text = text[:i+1]
	}
	if utf8.RuneCountInString(text) > summaryLimit {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:summaryLimit])) + "..."
	}
	return text
}

// improve normalizes whitespace, capitalizes and terminates the text.
func improve(content string) string {
	text := strings.Join(strings.Fields(content), " ")
	if text == "" {
		return text
	}
	r, size := utf8.DecodeRuneInString(text)
	text = string(unicode.ToUpper(r)) + text[size:]
	if last, _ := utf8.DecodeLastRuneInString(text); !strings.ContainsRune(".!?", last) {
		text += "."
	}
	return text
}

// extractTags picks the most frequent words of four letters or more.
func extractTags(content string) []string {
	counts := map[string]int{}
	words := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		if utf8.RuneCountInString(word) < 4 || stopWords[word] {
			continue
		}
		counts[word]++
	}
	tags := make([]string, 0, len(counts))
	for word := range counts {
		tags = append(tags, word)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > tagLimit {
		tags = tags[:tagLimit]
	}
	return tags
}
