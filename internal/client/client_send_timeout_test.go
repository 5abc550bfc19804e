package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendTimeoutIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Slower than the shared timeout below.
		time.Sleep(120 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"summary":"late"}`))
	}))
	defer server.Close()

	c := New(server.URL, WithTimeout(20*time.Millisecond), WithCredentials(staticCredentials("token")))

	_, err := c.Enrich(context.Background(), "note-1", "summary")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error on timeout, got %v", err)
	}
}

func TestDefaultTimeoutIsGenerous(t *testing.T) {
	c := New("")
	if c.http.Timeout != DefaultTimeout {
		t.Fatalf("expected default timeout %s, got %s", DefaultTimeout, c.http.Timeout)
	}
	if c.BaseURL() != defaultBaseURL {
		t.Fatalf("unexpected base url %q", c.BaseURL())
	}
}

func TestSendToClosedServerIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := New(url, WithTimeout(time.Second))
	_, err := c.Login(context.Background(), credentialsFixture())
	if CategoryOf(err) != CategoryNetwork {
		t.Fatalf("expected network category, got %v", err)
	}
}
