package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/retrend/chat/internal/chat"
	"github.com/retrend/chat/internal/poll"
	"github.com/retrend/chat/internal/visibility"
)

// RunConfig wires a conversation view to its collaborators.
type RunConfig struct {
	Binding      poll.Binding
	Fetcher      poll.Fetcher
	Marker       poll.ReadMarker
	Sender       Sender
	PollInterval poll.Config
	NearBottom   int
}

// Run opens the conversation view and drives it from a sync scheduler
// until the user quits. Terminal focus and blur feed the visibility
// signal, so polling suspends while the window is in the background.
func Run(ctx context.Context, cfg RunConfig) error {
	vis := visibility.NewSignal()
	scheduler := poll.NewScheduler(cfg.PollInterval, cfg.Binding, cfg.Fetcher, cfg.Marker, vis)

	model := NewModel(scheduler, cfg.Sender, vis, cfg.Binding.Self, cfg.Binding.ConversationID, cfg.Binding.Counterpart, cfg.NearBottom)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())

	scheduler.OnUpdate(func(view chat.View, intent chat.ScrollIntent) {
		program.Send(syncMsg{view: view, intent: intent})
	})
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	_, err := program.Run()
	return err
}
