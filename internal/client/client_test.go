package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"peacock/internal/types"
)

type staticCredentials string

func (s staticCredentials) Current() (string, bool) {
	return string(s), s != ""
}

type recordingAuthHandler struct {
	mu          sync.Mutex
	credentials []string
	errs        []*Error
}

func (h *recordingAuthHandler) HandleAuthFailure(_ context.Context, credential string, err *Error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.credentials = append(h.credentials, credential)
	h.errs = append(h.errs, err)
}

func (h *recordingAuthHandler) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.errs)
}

func credentialsFixture() types.Credentials {
	return types.Credentials{Email: "ada@example.com", Password: "secret"}
}

func newTestClient(url string, credential string) *Client {
	return New(url, WithTimeout(2*time.Second), WithCredentials(staticCredentials(credential)))
}

func TestSendAttachesBearerCredential(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, "abc123")
	if _, err := c.ListNotes(context.Background()); err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if seenAuth != "Bearer abc123" {
		t.Fatalf("unexpected authorization header %q", seenAuth)
	}
}

func TestSendWithoutCredentialFailsBeforeNetwork(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	c := newTestClient(server.URL, "")
	handler := &recordingAuthHandler{}
	c.OnAuthFailure(handler)

	err := c.DeleteNote(context.Background(), "n1")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no network call, got %d", hits)
	}
	if handler.calls() != 1 || handler.credentials[0] != "" {
		t.Fatalf("expected one notification without credential, got %#v", handler.credentials)
	}
}

func TestAuthRejectionNotifiesHandlerBeforeReturning(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"token expired"}`))
		}))

		c := newTestClient(server.URL, "stale")
		handler := &recordingAuthHandler{}
		c.OnAuthFailure(handler)

		err := c.UpdateNote(context.Background(), "n1", types.NoteInput{Title: "t", Content: "c"})
		server.Close()
		apiErr := asAPIError(err)
		if apiErr == nil || apiErr.Category != CategoryAuth || apiErr.StatusCode != status {
			t.Fatalf("status %d: expected auth error, got %v", status, err)
		}
		if handler.calls() != 1 || handler.credentials[0] != "stale" {
			t.Fatalf("status %d: expected handler called with rejected credential, got %#v", status, handler.credentials)
		}
		if apiErr.UserMessage("") != sessionExpiredMessage {
			t.Fatalf("unexpected user message %q", apiErr.UserMessage(""))
		}
	}
}

func TestLoginRejectionIsClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid email or password"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, "")
	handler := &recordingAuthHandler{}
	c.OnAuthFailure(handler)

	_, err := c.Login(context.Background(), credentialsFixture())
	if !errors.Is(err, ErrClient) {
		t.Fatalf("expected client error, got %v", err)
	}
	if msg := asAPIError(err).UserMessage("Login failed"); msg != "Invalid email or password" {
		t.Fatalf("expected server message passthrough, got %q", msg)
	}
	if handler.calls() != 0 {
		t.Fatalf("login failures must not invalidate the session")
	}
}

func TestServerFaultAndAccessDenied(t *testing.T) {
	body := `{"error":"database down"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	c := newTestClient(server.URL, "token")
	handler := &recordingAuthHandler{}
	c.OnAuthFailure(handler)

	_, err := c.ListNotes(context.Background())
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected server fault, got %v", err)
	}
	if msg := asAPIError(err).UserMessage("ignored"); msg != serverFaultMessage {
		t.Fatalf("server faults use the generic notice, got %q", msg)
	}
	if handler.calls() != 0 {
		t.Fatalf("server fault must not notify auth handlers")
	}

	body = `"Access Denied"`
	_, err = c.ListNotes(context.Background())
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected access denied to fold into auth error, got %v", err)
	}
	if handler.calls() != 1 {
		t.Fatalf("expected one auth notification, got %d", handler.calls())
	}
}

func TestClientErrorCarriesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Note not found"}`))
	}))
	defer server.Close()

	err := newTestClient(server.URL, "token").DeleteNote(context.Background(), "missing")
	apiErr := asAPIError(err)
	if apiErr == nil || apiErr.Category != CategoryClient || apiErr.Message != "Note not found" {
		t.Fatalf("unexpected error %#v", apiErr)
	}
	if apiErr.UserMessage("Failed to delete note") != "Note not found" {
		t.Fatalf("unexpected user message %q", apiErr.UserMessage(""))
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		status       int
		body         string
		requiresAuth bool
		want         Category
	}{
		{200, "", true, ""},
		{204, "", true, ""},
		{401, "", true, CategoryAuth},
		{403, "", true, CategoryAuth},
		{403, "", false, CategoryClient},
		{400, `{"error":"bad"}`, true, CategoryClient},
		{404, "", true, CategoryClient},
		{500, `{"error":"boom"}`, true, CategoryServer},
		{500, `{"error":"Access Denied"}`, true, CategoryAuth},
		{500, `Access Denied`, false, CategoryServer},
		{500, `Access Denied`, true, CategoryAuth},
		{502, `{"message":"access denied"}`, true, CategoryAuth},
		{500, `{"error":"upstream model: access denied to bucket, retry later"}`, true, CategoryServer},
		{500, `proxy says Access Denied`, true, CategoryServer},
		{503, "", true, CategoryServer},
	}
	for _, tc := range cases {
		if got := Classify(tc.status, []byte(tc.body), tc.requiresAuth); got != tc.want {
			t.Fatalf("Classify(%d, %q, %v) = %q, want %q", tc.status, tc.body, tc.requiresAuth, got, tc.want)
		}
	}
}

func TestListNotesAcceptsArrayAndEnvelope(t *testing.T) {
	payload := `[{"_id":"a","title":"A","content":"x","tags":["t1"]},null]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/notes/get" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	c := newTestClient(server.URL, "token")
	notes, err := c.ListNotes(context.Background())
	if err != nil {
		t.Fatalf("ListNotes array: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != "a" || notes[0].Tags[0] != "t1" {
		t.Fatalf("unexpected notes %#v", notes)
	}

	payload = `{"notes":[{"_id":"b","title":"B","content":"y"}]}`
	notes, err = c.ListNotes(context.Background())
	if err != nil {
		t.Fatalf("ListNotes envelope: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != "b" {
		t.Fatalf("unexpected notes %#v", notes)
	}

	payload = `"nope"`
	if _, err := c.ListNotes(context.Background()); !errors.Is(err, ErrServer) {
		t.Fatalf("expected server fault for malformed payload, got %v", err)
	}
}

func TestLoginAndRegisterRequireRecognizedFields(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()
	c := newTestClient(server.URL, "")
	ctx := context.Background()

	body = `{"token":"jwt-1"}`
	token, err := c.Login(ctx, credentialsFixture())
	if err != nil || token != "jwt-1" {
		t.Fatalf("unexpected login result %q %v", token, err)
	}
	body = `{"ok":true}`
	if _, err := c.Login(ctx, credentialsFixture()); err == nil {
		t.Fatalf("expected missing token error")
	}

	body = `{"user":{"name":"Ada"}}`
	if _, err := c.Register(ctx, types.Registration{Name: "Ada", Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	body = `{"user":null}`
	if _, err := c.Register(ctx, types.Registration{Name: "Ada", Email: "a@b.c", Password: "pw"}); err == nil {
		t.Fatalf("expected missing user error")
	}
}

func TestEnrichPathAndBody(t *testing.T) {
	var seenPath, seenMethod, seenType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.EscapedPath()
		seenMethod = r.Method
		seenType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"tags":["a","b"]}`))
	}))
	defer server.Close()

	raw, err := newTestClient(server.URL, "token").Enrich(context.Background(), "note/1", types.EnrichmentTags)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if seenMethod != http.MethodPost || seenPath != "/api/ai/tags/note%2F1" || seenType != "application/json" {
		t.Fatalf("unexpected request %s %s %s", seenMethod, seenPath, seenType)
	}
	if string(raw) != `{"tags":["a","b"]}` {
		t.Fatalf("unexpected raw payload %s", raw)
	}
}
