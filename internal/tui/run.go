package tui

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/keyrush/internal/session"
)

// Run starts a session engine with opts and blocks until the user quits.
// Engine events are forwarded to the program from their own goroutines so
// timer and fetch callbacks never wait on the UI loop.
func Run(opts session.Options, history History, logger *slog.Logger) error {
	var program atomic.Pointer[tea.Program]
	opts.Logger = logger
	opts.Notify = func(ev session.Event) {
		if p := program.Load(); p != nil {
			go p.Send(engineMsg{event: ev})
		}
	}
	engine := session.New(opts)
	defer engine.Close()

	p := tea.NewProgram(NewModel(engine, history, logger), tea.WithAltScreen())
	program.Store(p)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
