package enrich

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"peacock/internal/types"
)

const noOutputText = "No AI output received."

// Result is one decoded enrichment. Each kind writes exactly one note field.
type Result interface {
	Kind() types.EnrichmentKind
	String() string
	apply(note *types.Note)
}

type Summary struct {
	Text string
}

func (Summary) Kind() types.EnrichmentKind { return types.EnrichmentSummary }
func (r Summary) String() string { return "Summary: " + r.Text }
func (r Summary) apply(note *types.Note) { note.AISummary = r.Text }

type Improved struct {
	Text string
}

func (Improved) Kind() types.EnrichmentKind { return types.EnrichmentImprove }
func (r Improved) String() string { return "Improved Version: " + r.Text }
func (r Improved) apply(note *types.Note) { note.AIImprovedContent = r.Text }

type Tags struct {
	Tags []string
}

func (Tags) Kind() types.EnrichmentKind { return types.EnrichmentTags }
func (r Tags) String() string { return "Tags: " + strings.Join(r.Tags, ", ") }
func (r Tags) apply(note *types.Note) {
	note.Tags = append(make([]string, 0, len(r.Tags)), r.Tags...)
}

var schemaSources = map[types.EnrichmentKind]string{
	types.EnrichmentSummary: `{
		"type": "object",
		"required": ["summary"],
		"properties": {"summary": {"type": "string", "minLength": 1}}
	}`,
	types.EnrichmentImprove: `{
		"type": "object",
		"required": ["improved"],
		"properties": {"improved": {"type": "string", "minLength": 1}}
	}`,
	types.EnrichmentTags: `{
		"type": "object",
		"required": ["tags"],
		"properties": {
			"tags": {"type": "array", "items": {"type": "string"}}
		}
	}`,
}

var schemas = mustCompileSchemas()

func mustCompileSchemas() map[types.EnrichmentKind]*gojsonschema.Schema {
	out := make(map[types.EnrichmentKind]*gojsonschema.Schema, len(schemaSources))
	for kind, src := range schemaSources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			panic(fmt.Sprintf("enrich: compile %s schema: %v", kind, err))
		}
		out[kind] = schema
	}
	return out
}

type payload struct {
	Summary  string   `json:"summary"`
	Improved string   `json:"improved"`
	Tags     []string `json:"tags"`
}

// decodeResult validates body against the kind's schema and returns the
// matching variant. A missing field, an empty string or a body of the wrong
// shape is ErrEmptyResult; an empty tag list is a valid result.
func decodeResult(kind types.EnrichmentKind, body []byte) (Result, error) {
	schema, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown enrichment kind %q", kind)
	}
	validation, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyResult, err)
	}
	if !validation.Valid() {
		msgs := make([]string, 0, len(validation.Errors()))
		for _, e := range validation.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrEmptyResult, strings.Join(msgs, "; "))
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyResult, err)
	}
	switch kind {
	case types.EnrichmentSummary:
		return Summary{Text: p.Summary}, nil
	case types.EnrichmentImprove:
		return Improved{Text: p.Improved}, nil
	default:
		return Tags{Tags: p.Tags}, nil
	}
}
