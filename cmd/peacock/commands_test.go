package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"peacock/internal/client"
	"peacock/internal/config"
	"peacock/internal/devserver"
	"peacock/internal/enrich"
	"peacock/internal/session"
	"peacock/internal/store"
	"peacock/internal/types"
)

type fakeCommandClient struct {
	route    session.Route
	profile  *types.Profile
	notes    []*types.Note
	result   enrich.Result
	err      error
	loggedIn bool

	logins   []string
	creates  []types.NoteInput
	updates  map[string]types.NoteInput
	deletes  []string
	enriched []types.EnrichmentKind
	closed   int
}

func (f *fakeCommandClient) Restore(context.Context) session.Route {
	if f.route == "" {
		return session.RouteLogin
	}
	return f.route
}

func (f *fakeCommandClient) Register(_ context.Context, req types.Registration) error {
	return f.err
}

func (f *fakeCommandClient) Login(_ context.Context, email, password string) error {
	f.logins = append(f.logins, email+":"+password)
	return f.err
}

func (f *fakeCommandClient) Logout(context.Context) bool {
	return f.loggedIn
}

func (f *fakeCommandClient) Profile(context.Context) (*types.Profile, error) {
	return f.profile, f.err
}

func (f *fakeCommandClient) Notes(context.Context) ([]*types.Note, error) {
	return f.notes, f.err
}

func (f *fakeCommandClient) Note(_ context.Context, id string) (*types.Note, error) {
	for _, note := range f.notes {
		if note.ID == id {
			return note, nil
		}
	}
	return nil, errors.New("note " + id + " not found")
}

func (f *fakeCommandClient) CreateNote(_ context.Context, title, content string) error {
	f.creates = append(f.creates, types.NoteInput{Title: title, Content: content})
	return f.err
}

func (f *fakeCommandClient) UpdateNote(_ context.Context, id, title, content string) error {
	if f.updates == nil {
		f.updates = map[string]types.NoteInput{}
	}
	f.updates[id] = types.NoteInput{Title: title, Content: content}
	return f.err
}

func (f *fakeCommandClient) DeleteNote(_ context.Context, id string) error {
	f.deletes = append(f.deletes, id)
	return f.err
}

func (f *fakeCommandClient) Enrich(_ context.Context, id string, kind types.EnrichmentKind) (enrich.Result, error) {
	f.enriched = append(f.enriched, kind)
	return f.result, f.err
}

func (f *fakeCommandClient) RunUI(session.Route) error {
	return nil
}

func (f *fakeCommandClient) Close() error {
	f.closed++
	return nil
}

func fixedFactory(c commandClient) clientFactory {
	return func() (commandClient, error) {
		return c, nil
	}
}

func TestProtectedCommandsRequireSession(t *testing.T) {
	fake := &fakeCommandClient{route: session.RouteLogin}
	commands := map[string]commandRunner{
		"ls":     NewListCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake)),
		"whoami": NewWhoamiCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake)),
		"add":    NewAddCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake)),
		"rm":     NewRemoveCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake)),
	}
	args := map[string][]string{
		"add": {"--title", "t", "--content", "c"},
		"rm":  {"n1"},
	}
	for name, cmd := range commands {
		err := cmd.Run(args[name])
		if !errors.Is(err, errNotLoggedIn) {
			t.Fatalf("%s: expected not logged in, got %v", name, err)
		}
	}
	if len(fake.creates) != 0 || len(fake.deletes) != 0 {
		t.Fatalf("expected no mutations without a session")
	}
	if fake.closed != len(commands) {
		t.Fatalf("expected every client closed, got %d", fake.closed)
	}
}

func TestListCommandFiltersAndPrintsTable(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{
		route: session.RouteNotes,
		notes: []*types.Note{
			{ID: "n1", Title: "Groceries", Content: "milk", Tags: []string{"home"}},
			{ID: "n2", Title: "Work", Content: "ship it"},
		},
	}
	cmd := NewListCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run([]string{"--search", "MILK"}); err != nil {
		t.Fatalf("expected ls to succeed, got err=%v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "ID") || !strings.Contains(out, "Groceries") || !strings.Contains(out, "home") {
		t.Fatalf("unexpected output: %q", out)
	}
	if strings.Contains(out, "Work") {
		t.Fatalf("expected filtered output, got %q", out)
	}
}

func TestListCommandEmpty(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{route: session.RouteNotes}
	if err := NewListCommand(stdout, &bytes.Buffer{}, fixedFactory(fake)).Run(nil); err != nil {
		t.Fatalf("ls: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "No notes found." {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
}

func TestEditCommandKeepsUnchangedFields(t *testing.T) {
	fake := &fakeCommandClient{
		route: session.RouteNotes,
		notes: []*types.Note{{ID: "n1", Title: "Old", Content: "body"}},
	}
	cmd := NewEditCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run([]string{"n1", "--title", "New"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	got := fake.updates["n1"]
	if got.Title != "New" || got.Content != "body" {
		t.Fatalf("unexpected update: %#v", got)
	}
}

func TestEditCommandRequiresChange(t *testing.T) {
	fake := &fakeCommandClient{route: session.RouteNotes}
	err := NewEditCommand(&bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake)).Run([]string{"n1"})
	if err == nil || !strings.Contains(err.Error(), "nothing to change") {
		t.Fatalf("expected nothing-to-change error, got %v", err)
	}
}

func TestEnrichCommandParsesKind(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{
		route:  session.RouteNotes,
		result: enrich.Tags{Tags: []string{"go", "cli"}},
	}
	cmd := NewEnrichCommand(stdout, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run([]string{"n1", "--kind", "TAGS"}); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(fake.enriched) != 1 || fake.enriched[0] != types.EnrichmentTags {
		t.Fatalf("unexpected kinds: %#v", fake.enriched)
	}
	if strings.TrimSpace(stdout.String()) != "Tags: go, cli" {
		t.Fatalf("unexpected output: %q", stdout.String())
	}

	if err := cmd.Run([]string{"n1", "--kind", "poem"}); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
}

func TestLoginCommandReadsPasswordFromStdin(t *testing.T) {
	fake := &fakeCommandClient{}
	stdin := strings.NewReader("hunter2\n")
	cmd := NewLoginCommand(stdin, &bytes.Buffer{}, &bytes.Buffer{}, fixedFactory(fake))
	if err := cmd.Run([]string{"--email", "ann@example.com"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(fake.logins) != 1 || fake.logins[0] != "ann@example.com:hunter2" {
		t.Fatalf("unexpected logins: %#v", fake.logins)
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	stdout := &bytes.Buffer{}
	fake := &fakeCommandClient{}
	if err := NewLogoutCommand(stdout, fixedFactory(fake)).Run(nil); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "Not logged in." {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&client.Error{Category: client.CategoryAuth, StatusCode: 401}, "Session expired. Please log in again."},
		{&client.Error{Category: client.CategoryClient, StatusCode: 400, Message: "Invalid credentials"}, "Invalid credentials"},
		{&client.Error{Category: client.CategoryNetwork}, "Network error. Please check your internet connection."},
		{enrich.ErrEmptyResult, "No AI output received."},
		{errNotLoggedIn, "not logged in"},
	}
	for _, tc := range cases {
		if got := errorMessage(tc.err); got != tc.want {
			t.Fatalf("errorMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestConfigCommandFormats(t *testing.T) {
	t.Setenv("PEACOCK_DATA_DIR", t.TempDir())

	stdout := &bytes.Buffer{}
	cmd := NewConfigCommand(stdout, &bytes.Buffer{})
	if err := cmd.Run([]string{"--default", "--scope", "api"}); err != nil {
		t.Fatalf("config json: %v", err)
	}
	var out configOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if out.API == nil || out.API.BaseURL != "http://localhost:4000" {
		t.Fatalf("unexpected api section: %#v", out.API)
	}
	if out.Session != nil || out.Logging != nil {
		t.Fatalf("expected only the api scope, got %#v", out)
	}

	stdout.Reset()
	if err := cmd.Run([]string{"--default", "--format", "toml"}); err != nil {
		t.Fatalf("config toml: %v", err)
	}
	out = configOutput{}
	if err := toml.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode toml: %v", err)
	}
	if out.Storage == nil || out.Storage.Backend != config.BackendBbolt {
		t.Fatalf("unexpected storage section: %#v", out.Storage)
	}

	if err := cmd.Run([]string{"--format", "yaml"}); err == nil {
		t.Fatalf("expected invalid format error")
	}
	if err := cmd.Run([]string{"--scope", "daemon"}); err == nil {
		t.Fatalf("expected invalid scope error")
	}
}

func newDevRuntime(t *testing.T, notices *bytes.Buffer) (*devserver.Server, clientFactory) {
	t.Helper()
	srv := devserver.New()
	httpServer := httptest.NewServer(srv.Handler())
	t.Cleanup(httpServer.Close)

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = httpServer.URL
	paths := store.RepositoryPaths{
		TokenPath:        filepath.Join(dir, "token"),
		SessionTokenPath: filepath.Join(dir, "session.json"),
	}
	return srv, func() (commandClient, error) {
		repo, err := store.NewFileRepository(paths, time.Hour)
		if err != nil {
			return nil, err
		}
		rt := newRuntime(cfg, repo, nil, nil, notices)
		rt.closers = []io.Closer{repo}
		return rt, nil
	}
}

func TestCommandsAgainstDevServer(t *testing.T) {
	notices := &bytes.Buffer{}
	srv, factory := newDevRuntime(t, notices)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	run := func(cmd commandRunner, args ...string) {
		t.Helper()
		if err := cmd.Run(args); err != nil {
			t.Fatalf("%T %v: %v", cmd, args, err)
		}
	}

	run(NewRegisterCommand(nil, stdout, stderr, factory), "--name", "Ann", "--email", "ann@example.com", "--password", "pw")
	run(NewLoginCommand(nil, stdout, stderr, factory), "--email", "ann@example.com", "--password", "pw")
	run(NewAddCommand(stdout, stderr, factory), "--title", "Plan", "--content", "Ship the beta. Then rest.")

	stdout.Reset()
	run(NewListCommand(stdout, stderr, factory))
	if !strings.Contains(stdout.String(), "Plan") {
		t.Fatalf("expected note in listing, got %q", stdout.String())
	}

	c, err := factory()
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	ctx := context.Background()
	if c.Restore(ctx) != session.RouteNotes {
		t.Fatalf("expected stored session to restore")
	}
	list, err := c.Notes(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("notes: %v %d", err, len(list))
	}
	id := list[0].ID
	_ = c.Close()

	stdout.Reset()
	run(NewEnrichCommand(stdout, stderr, factory), id, "--kind", "summary")
	if !strings.HasPrefix(stdout.String(), "Summary: ") {
		t.Fatalf("unexpected enrich output: %q", stdout.String())
	}

	stdout.Reset()
	run(NewShowCommand(stdout, stderr, factory), id)
	if !strings.Contains(stdout.String(), "Summary: Ship the beta.") {
		t.Fatalf("expected persisted summary in show, got %q", stdout.String())
	}

	run(NewRemoveCommand(stdout, stderr, factory), id)

	srv.Revoke()
	err = NewListCommand(stdout, stderr, factory).Run(nil)
	if !errors.Is(err, client.ErrAuth) {
		t.Fatalf("expected auth error after revoke, got %v", err)
	}
	if strings.Count(notices.String(), "Session expired. Redirecting to login page...") != 1 {
		t.Fatalf("expected one expiry notice, got %q", notices.String())
	}
	err = NewListCommand(stdout, stderr, factory).Run(nil)
	if !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("expected credential cleared after expiry, got %v", err)
	}
}
