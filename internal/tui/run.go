package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"breakout-desk/internal/app"
)

// Run starts the terminal program and blocks until the user quits
func Run(ctx context.Context, o *app.Orchestrator) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, o), tea.WithAltScreen(), tea.WithContext(ctx))

	fwd := newForwarder()
	unsubscribe := o.Subscribe(fwd.push)
	defer unsubscribe()
	go fwd.run(ctx, p.Send)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}

// forwarder queues states from the orchestrator and hands them to the
// program in order. push never blocks: Loading is applied from inside
// Update, while the program loop is busy and cannot receive.
type forwarder struct {
	mu     sync.Mutex
	queue  []app.ViewState
	notify chan struct{}
}

func newForwarder() *forwarder {
	return &forwarder{notify: make(chan struct{}, 1)}
}

func (f *forwarder) push(state app.ViewState) {
	f.mu.Lock()
	f.queue = append(f.queue, state)
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
}

func (f *forwarder) run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.notify:
		}

		f.mu.Lock()
		pending := f.queue
		f.queue = nil
		f.mu.Unlock()

		for _, state := range pending {
			send(StateMsg{State: state})
		}
	}
}
