package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// Store holds the current composite state and notifies subscribers of
// committed transitions.
//
// Dispatch interprets two kinds of action:
//   - Effect: Run is called synchronously with dispatch and getState
//     capabilities; its result is returned.
//   - Command: folded through the middleware chain and root reducer. If the
//     reducer reports a change, the new state is committed and one
//     notification pass is scheduled.
//
// Notification model:
//   - Passes run in FIFO order and never interleave. A Dispatch issued by a
//     subscriber commits its state immediately, but its pass is queued
//     behind the pass currently running.
//   - Each pass snapshots the subscriber list when it starts. A subscriber
//     removed mid-pass still runs in that pass; one added mid-pass first
//     runs in the next pass.
//
// Thread-safety model:
//   - Dispatch, Subscribe, GetState: safe from any goroutine
//   - Reduce+commit is serialized by an internal mutex
//   - Whichever caller finds the pass queue idle drains it; a concurrent
//     Dispatch may return before its own pass has been delivered by
//     another goroutine
type Store struct {
	mu          sync.Mutex
	reducer     Reducer
	state       State
	subscribers []subscriber
	passes      *passQueue
	draining    bool

	// logical counters, first value 1
	subIDs   atomic.Int64
	versions atomic.Int64

	middleware []Middleware
	handle     CommandFunc
}

type subscriber struct {
	id int64
	fn func()
}

// Option configures a Store.
type Option func(*Store)

// WithMiddleware appends middlewares around command handling. The first
// middleware given is the outermost.
func WithMiddleware(mws ...Middleware) Option {
	return func(s *Store) {
		s.middleware = append(s.middleware, mws...)
	}
}

// New creates a Store and initializes its state by folding InitCommand
// through reducer. Initialization bypasses middleware and notifies nobody.
func New(reducer Reducer, opts ...Option) *Store {
	s := &Store{
		reducer: reducer,
		passes:  newPassQueue(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.handle = chain(s.middleware, s.apply)
	s.state, _ = reducer(State{}, InitCommand)

	slog.Debug("store initialized", "slices", s.state.Names())
	return s
}

// GetState returns the current state snapshot.
func (s *Store) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Version returns the number of committed transitions so far.
func (s *Store) Version() int64 {
	return s.versions.Load()
}

// Subscribe registers fn to run after every committed transition and
// returns a function that removes this registration. Subscribing the same
// function twice registers it twice. Calling unsubscribe more than once is
// a no-op.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.subIDs.Add(1)
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscriber) bool {
				return sub.id == id
			})
		})
	}
}

// Dispatch runs an Effect or reduces a Command. See Store for semantics.
// Commands return nil; effects return whatever Run returns.
//
// Dispatch panics if action is neither an Effect nor a Command. When a
// value implements both, it is treated as an Effect.
func (s *Store) Dispatch(ctx context.Context, action Action) any {
	switch a := action.(type) {
	case Effect:
		return a.Run(ctx, s.Dispatch, s.GetState)
	case Command:
		s.handle(ctx, a)
		return nil
	default:
		panic(fmt.Sprintf("engine: cannot dispatch %T: not a Command or Effect", action))
	}
}

// apply is the innermost CommandFunc: reduce, commit, schedule, drain.
func (s *Store) apply(ctx context.Context, cmd Command) bool {
	s.mu.Lock()
	next, changed := s.reducer(s.state, cmd)
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.state = next
	s.passes.Enqueue(pass{version: s.versions.Add(1)})
	s.mu.Unlock()

	s.drain(ctx)
	return true
}

// drain runs queued notification passes until the queue is empty. Only one
// caller drains at a time; nested or concurrent callers return immediately
// and leave their passes to the active drainer.
func (s *Store) drain(ctx context.Context) {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	// A panicking subscriber must not leave the store thinking a drain is
	// still in progress.
	finished := false
	defer func() {
		if !finished {
			s.mu.Lock()
			s.draining = false
			s.mu.Unlock()
		}
	}()

	for {
		s.mu.Lock()
		p, ok := s.passes.TryDequeue()
		if !ok {
			s.draining = false
			s.mu.Unlock()
			finished = true
			return
		}
		subs := slices.Clone(s.subscribers)
		s.mu.Unlock()

		slog.DebugContext(ctx, "notifying subscribers",
			"version", p.version,
			"subscribers", len(subs),
		)
		for _, sub := range subs {
			sub.fn()
		}
	}
}
