package client

import (
	"encoding/json"

	"peacock/internal/types"
)

type LoginResponse struct {
	Token string `json:"token"`
}

type RegisterResponse struct {
	User    json.RawMessage `json:"user"`
	Message string          `json:"message,omitempty"`
}

type ProfileResponse struct {
	User *types.Profile `json:"user"`
}

type notesEnvelope struct {
	Notes []*types.Note `json:"notes"`
}
