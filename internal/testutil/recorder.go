package testutil

import (
	"context"
	"sync"

	"github.com/roach88/storefront/internal/engine"
)

// Recorder captures every command that reaches the reducer, with the
// change flag it produced, and counts subscriber notifications.
//
// Install it with engine.WithMiddleware(rec.Middleware) and register
// rec.Notify with Store.Subscribe.
type Recorder struct {
	mu       sync.Mutex
	commands []Recorded
	notified int
}

// Recorded is one command observed by a Recorder.
type Recorded struct {
	Command engine.Command
	Changed bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Middleware records cmd in dispatch order. A command dispatched by a
// subscriber is recorded after the command that triggered the pass.
func (r *Recorder) Middleware(next engine.CommandFunc) engine.CommandFunc {
	return func(ctx context.Context, cmd engine.Command) bool {
		r.mu.Lock()
		idx := len(r.commands)
		r.commands = append(r.commands, Recorded{Command: cmd})
		r.mu.Unlock()

		changed := next(ctx, cmd)

		r.mu.Lock()
		r.commands[idx].Changed = changed
		r.mu.Unlock()
		return changed
	}
}

// Notify is a subscriber that counts notification passes.
func (r *Recorder) Notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified++
}

// Commands returns a copy of the recorded commands in dispatch order.
func (r *Recorder) Commands() []engine.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.Command, len(r.commands))
	for i, rec := range r.commands {
		out[i] = rec.Command
	}
	return out
}

// Records returns a copy of the recorded commands with their change flags.
func (r *Recorder) Records() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.commands...)
}

// Types returns the wire tags of the recorded commands.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.commands))
	for i, rec := range r.commands {
		out[i] = rec.Command.Type()
	}
	return out
}

// Notified returns the number of notification passes seen by Notify.
func (r *Recorder) Notified() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notified
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
	r.notified = 0
}
