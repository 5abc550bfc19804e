package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-runewidth"

	"peacock/internal/client"
	"peacock/internal/enrich"
	"peacock/internal/notes"
	"peacock/internal/sanitizer"
	"peacock/internal/session"
	"peacock/internal/types"
)

const (
	titleColumnWidth = 40
	tagsColumnWidth  = 30
	timeLayout       = "2006-01-02 15:04"
)

func printNotes(output io.Writer, list []*types.Note) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tCREATED\tTITLE\tTAGS")
	for _, note := range sanitizer.Notes(list) {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			note.ID,
			formatTime(note.CreatedAt),
			truncate(sanitizer.SanitizeLine(note.Title), titleColumnWidth),
			truncate(strings.Join(note.Tags, ", "), tagsColumnWidth),
		)
	}
	_ = writer.Flush()
}

func printNote(output io.Writer, note *types.Note) {
	note = sanitizer.Note(note)
	fmt.Fprintf(output, "%s\n", note.Title)
	fmt.Fprintf(output, "id: %s  created: %s\n", note.ID, formatTime(note.CreatedAt))
	if len(note.Tags) > 0 {
		fmt.Fprintf(output, "tags: %s\n", strings.Join(note.Tags, ", "))
	}
	fmt.Fprintf(output, "\n%s\n", note.Content)
	if note.AISummary != "" {
		fmt.Fprintf(output, "\n%s\n", enrich.Summary{Text: note.AISummary})
	}
	if note.AIImprovedContent != "" {
		fmt.Fprintf(output, "\n%s\n", enrich.Improved{Text: note.AIImprovedContent})
	}
}

// truncate cuts s to width terminal cells, so wide runes do not break columns.
func truncate(s string, width int) string {
	if s == "" {
		return "-"
	}
	return runewidth.Truncate(s, width, "…")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// readSecret reads one line from in, used when --password is omitted.
func readSecret(in io.Reader, prompt string, stderr io.Writer) (string, error) {
	if in == nil {
		return "", errors.New("password is required")
	}
	fmt.Fprint(stderr, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// withClient opens a client for one command and closes it afterwards. When
// protected is set the stored session must restore first.
func withClient(newClient clientFactory, protected bool, fn func(ctx context.Context, c commandClient) error) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()
	ctx, cancel := commandContext()
	defer cancel()
	if protected {
		if err := requireSession(ctx, c); err != nil {
			return err
		}
	}
	return fn(ctx, c)
}

func errorMessage(err error) string {
	var apiErr *client.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.UserMessage(apiErr.Error())
	case errors.Is(err, enrich.ErrEmptyResult):
		return "No AI output received."
	case errors.Is(err, enrich.ErrBusy):
		return "an AI request is already running"
	case errors.Is(err, enrich.ErrEmptyContent):
		return "note has no content to enrich"
	case errors.Is(err, notes.ErrValidation), errors.Is(err, session.ErrValidation):
		if _, detail, ok := strings.Cut(err.Error(), ": "); ok {
			return detail
		}
	}
	return err.Error()
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(stderr, "%s error: %s\n", label, errorMessage(err))
	os.Exit(1)
}
