package types

import (
	"fmt"
	"strings"
	"time"
)

type Note struct {
	ID                string    `json:"_id"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	CreatedAt         time.Time `json:"createdAt"`
	AISummary         string    `json:"aiSummary,omitempty"`
	AIImprovedContent string    `json:"aiImprovedContent,omitempty"`
	Tags              []string  `json:"tags,omitempty"`
}

// Clone returns a deep copy; Tags is never shared with the receiver and an
// empty tag list stays empty rather than becoming nil.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	copy := *n
	if n.Tags != nil {
		copy.Tags = append(make([]string, 0, len(n.Tags)), n.Tags...)
	}
	return &copy
}

func CloneNotes(notes []*Note) []*Note {
	out := make([]*Note, 0, len(notes))
	for _, note := range notes {
		if note == nil {
			continue
		}
		out = append(out, note.Clone())
	}
	return out
}

type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type EnrichmentKind string

const (
	EnrichmentSummary EnrichmentKind = "summary"
	EnrichmentImprove EnrichmentKind = "improve"
	EnrichmentTags    EnrichmentKind = "tags"
)

var EnrichmentKinds = []EnrichmentKind{EnrichmentSummary, EnrichmentImprove, EnrichmentTags}

func ParseEnrichmentKind(raw string) (EnrichmentKind, error) {
	switch EnrichmentKind(strings.ToLower(strings.TrimSpace(raw))) {
	case EnrichmentSummary:
		return EnrichmentSummary, nil
	case EnrichmentImprove, "improved":
		return EnrichmentImprove, nil
	case EnrichmentTags:
		return EnrichmentTags, nil
	default:
		return "", fmt.Errorf("unknown enrichment kind %q (want summary|improve|tags)", raw)
	}
}
