package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"peacock/internal/session"
	"peacock/internal/types"
)

// Commands carry no deadline of their own; the gateway's shared timeout
// bounds every request, including the refresh that follows a mutation.

func loginCmd(sessions SessionAPI, auth AuthAPI, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		return loginMsg{err: sessions.Login(ctx, auth, email, password)}
	}
}

func registerCmd(sessions SessionAPI, auth AuthAPI, req types.Registration) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		return registerMsg{email: req.Email, err: sessions.Register(ctx, auth, req)}
	}
}

func fetchProfileCmd(auth AuthAPI) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		profile, err := auth.Profile(ctx)
		return profileMsg{profile: profile, err: err}
	}
}

func refreshNotesCmd(notes NoteAPI) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		return notesMsg{err: notes.Refresh(ctx)}
	}
}

func createNoteCmd(notes NoteAPI, title, content string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		return noteMutatedMsg{action: mutationCreate, err: notes.Create(ctx, title, content)}
	}
}

func updateNoteCmd(notes NoteAPI, id, title, content string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		return noteMutatedMsg{action: mutationUpdate, err: notes.Update(ctx, id, title, content)}
	}
}

func deleteNoteCmd(notes NoteAPI, id string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		return noteMutatedMsg{action: mutationDelete, err: notes.Delete(ctx, id)}
	}
}

func enrichCmd(enricher EnrichAPI, noteID string, kind types.EnrichmentKind) tea.Cmd {
	return func() tea.Msg {
		result, err := enricher.Enrich(context.Background(), noteID, kind)
		return enrichMsg{noteID: noteID, kind: kind, result: result, err: err}
	}
}

// waitForSessionEndCmd delivers the next invalidation event to Update.
func waitForSessionEndCmd(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return sessionEndedMsg{event: event}
	}
}
