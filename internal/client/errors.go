package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Category is the classified outcome of a failed gateway call.
type Category string

const (
	CategoryAuth    Category = "auth"
	CategoryServer  Category = "server_fault"
	CategoryNetwork Category = "network"
	CategoryClient  Category = "client"
)

const (
	sessionExpiredMessage = "Session expired. Please log in again."
	serverFaultMessage    = "Something went wrong. Please try again later..."
	networkErrorMessage   = "Network error. Please check your internet connection."
	accessDeniedMarker    = "Access Denied"
)

// Sentinels for errors.Is; they match any *Error of the same category.
var (
	ErrAuth    = &Error{Category: CategoryAuth}
	ErrServer  = &Error{Category: CategoryServer}
	ErrNetwork = &Error{Category: CategoryNetwork}
	ErrClient  = &Error{Category: CategoryClient}
)

type Error struct {
	Category   Category
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(string(e.Category))
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.StatusCode == 0 && t.Message == "" && t.Err == nil && t.Category == e.Category
}

// UserMessage is the short notice shown for this failure. Client errors pass
// the server message through and use fallback when there is none.
func (e *Error) UserMessage(fallback string) string {
	if e == nil {
		return fallback
	}
	switch e.Category {
	case CategoryAuth:
		return sessionExpiredMessage
	case CategoryServer:
		return serverFaultMessage
	case CategoryNetwork:
		return networkErrorMessage
	default:
		if e.Message != "" {
			return e.Message
		}
		return fallback
	}
}

// CategoryOf returns the category of a gateway error anywhere in err's chain.
func CategoryOf(err error) Category {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Category
	}
	return ""
}

func asAPIError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// Classify maps a received response to its category. Credential rejections
// only count as auth failures on requests that carried a credential; a 401
// from the login endpoint is a client error.
func Classify(status int, body []byte, requiresAuth bool) Category {
	switch {
	case status >= 200 && status < 300:
		return ""
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if requiresAuth {
			return CategoryAuth
		}
		return CategoryClient
	case status >= 500:
		if requiresAuth && signalsAccessDenied(body) {
			return CategoryAuth
		}
		return CategoryServer
	default:
		return CategoryClient
	}
}

// signalsAccessDenied matches a body whose whole message is the marker; a
// fault that merely mentions it stays a server fault.
func signalsAccessDenied(body []byte) bool {
	message := decodeMessage(body)
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	return strings.EqualFold(message, accessDeniedMarker)
}

// decodeMessage extracts a human readable message from an error body:
// {"error": "..."}, {"message": "..."} or a bare JSON string.
func decodeMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
		return strings.TrimSpace(payload.Message)
	}
	var text string
	if err := json.Unmarshal([]byte(trimmed), &text); err == nil {
		return strings.TrimSpace(text)
	}
	return ""
}

func decodeAPIError(status int, body []byte, requiresAuth bool) *Error {
	return &Error{
		Category:   Classify(status, body, requiresAuth),
		StatusCode: status,
		Message:    decodeMessage(body),
	}
}
