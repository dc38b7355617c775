package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"quill/internal/driver"
	"quill/internal/source"
	"quill/internal/ui"
)

type vetOutcome struct {
	interner *source.Interner
	results  []driver.VetResult
	err      error
}

// runVetWithUI drives the vet pipeline while a progress TUI consumes
// its events. The pipeline outcome is reported after the UI exits; a
// UI failure takes precedence over a pipeline error.
func runVetWithUI(ctx context.Context, title string, files []string, jobs int, opts driver.VetOptions) (*source.Interner, []driver.VetResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan vetOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		in, results, err := driver.VetFiles(ctx, files, jobs, optsCopy)
		outcomeCh <- vetOutcome{interner: in, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// Drain remaining events so the pipeline never blocks on a dead UI.
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.interner, outcome.results, uiErr
	}
	return outcome.interner, outcome.results, outcome.err
}
