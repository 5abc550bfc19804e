package app

import (
	"peacock/internal/enrich"
	"peacock/internal/session"
	"peacock/internal/types"
)

type loginMsg struct {
	err error
}

type registerMsg struct {
	email string
	err   error
}

type profileMsg struct {
	profile *types.Profile
	err     error
}

type notesMsg struct {
	err error
}

type noteMutation string

const (
	mutationCreate noteMutation = "created"
	mutationUpdate noteMutation = "updated"
	mutationDelete noteMutation = "deleted"
)

type noteMutatedMsg struct {
	action noteMutation
	err    error
}

type enrichMsg struct {
	noteID string
	kind   types.EnrichmentKind
	result enrich.Result
	err    error
}

type sessionEndedMsg struct {
	event session.Event
}
