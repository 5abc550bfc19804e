package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"peacock/internal/types"
)

func (c *Client) Register(ctx context.Context, req types.Registration) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.doJSON(ctx, http.MethodPost, "/register", req, false, &resp); err != nil {
		return nil, err
	}
	if raw := bytes.TrimSpace(resp.User); len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &Error{Category: CategoryServer, StatusCode: http.StatusOK, Message: "registration response missing user"}
	}
	return &resp, nil
}

// Login returns the credential issued for creds.
func (c *Client) Login(ctx context.Context, creds types.Credentials) (string, error) {
	var resp LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/login", creds, false, &resp); err != nil {
		return "", err
	}
	token := strings.TrimSpace(resp.Token)
	if token == "" {
		return "", &Error{Category: CategoryServer, StatusCode: http.StatusOK, Message: "login response missing token"}
	}
	return token, nil
}

func (c *Client) Profile(ctx context.Context) (*types.Profile, error) {
	var resp ProfileResponse
	if err := c.doJSON(ctx, http.MethodGet, "/user/profile", nil, true, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &Error{Category: CategoryServer, StatusCode: http.StatusOK, Message: "profile response missing user"}
	}
	return resp.User, nil
}

// ListNotes accepts either a bare JSON array or a {"notes": [...]} envelope.
func (c *Client) ListNotes(ctx context.Context) ([]*types.Note, error) {
	resp, err := c.Send(ctx, Request{Method: http.MethodGet, Path: "/notes/get", RequiresAuth: true})
	if err != nil {
		return nil, err
	}
	notes, err := decodeNotes(resp.Body)
	if err != nil {
		return nil, &Error{Category: CategoryServer, StatusCode: resp.StatusCode, Message: "unexpected notes payload", Err: err}
	}
	return notes, nil
}

func (c *Client) CreateNote(ctx context.Context, input types.NoteInput) error {
	return c.doJSON(ctx, http.MethodPost, "/notes/create", input, true, nil)
}

func (c *Client) UpdateNote(ctx context.Context, id string, input types.NoteInput) error {
	return c.doJSON(ctx, http.MethodPut, "/notes/update/"+url.PathEscape(strings.TrimSpace(id)), input, true, nil)
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/notes/delete/"+url.PathEscape(strings.TrimSpace(id)), nil, true, nil)
}

// Enrich requests one AI enrichment and returns the undecoded payload.
func (c *Client) Enrich(ctx context.Context, id string, kind types.EnrichmentKind) ([]byte, error) {
	path := "/api/ai/" + url.PathEscape(string(kind)) + "/" + url.PathEscape(strings.TrimSpace(id))
	resp, err := c.Send(ctx, Request{Method: http.MethodPost, Path: path, Body: struct{}{}, RequiresAuth: true})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func decodeNotes(body []byte) ([]*types.Note, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	switch trimmed[0] {
	case '[':
		var notes []*types.Note
		if err := json.Unmarshal(trimmed, &notes); err != nil {
			return nil, err
		}
		return compactNotes(notes), nil
	case '{':
		var envelope notesEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		return compactNotes(envelope.Notes), nil
	default:
		return nil, errors.New("notes payload is neither an array nor an object")
	}
}

func compactNotes(notes []*types.Note) []*types.Note {
	out := make([]*types.Note, 0, len(notes))
	for _, note := range notes {
		if note != nil {
			out = append(out, note)
		}
	}
	return out
}
