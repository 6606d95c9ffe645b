package promise

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/ir"
	"github.com/roach88/storefront/internal/testutil"
)

func newStore(t *testing.T) (*engine.Store, *testutil.Recorder) {
	t.Helper()
	rec := testutil.NewRecorder()
	s := engine.New(engine.Combine(Slice()), engine.WithMiddleware(rec.Middleware))
	s.Subscribe(rec.Notify)
	return s, rec
}

func TestTrack_Fulfilled(t *testing.T) {
	ctx := context.Background()
	s, rec := newStore(t)

	result := s.Dispatch(ctx, Track("x", func(context.Context) (int, error) {
		return 42, nil
	}))

	assert.Equal(t, 42, result)
	assert.Equal(t, []engine.Command{
		Lifecycle{Name: "x", Status: StatusPending},
		Lifecycle{Name: "x", Status: StatusFulfilled, Payload: 42},
	}, rec.Commands())
	assert.Equal(t, 2, rec.Notified())

	got, ok := Lookup(s.GetState(), "x")
	require.True(t, ok)
	assert.Equal(t, Record{Status: StatusFulfilled, Payload: 42}, got)
}

func TestTrack_Rejected(t *testing.T) {
	ctx := context.Background()
	s, rec := newStore(t)
	boom := errors.New("boom")

	result := s.Dispatch(ctx, Track("x", func(context.Context) (string, error) {
		return "", boom
	}))

	assert.Nil(t, result, "a rejected operation resolves to nil")
	assert.Equal(t, []string{CommandType, CommandType}, rec.Types())
	assert.Equal(t, 2, rec.Notified())

	got, ok := Lookup(s.GetState(), "x")
	require.True(t, ok)
	assert.Equal(t, StatusRejected, got.Status)
	assert.ErrorIs(t, got.Err, boom)
	assert.Nil(t, got.Payload)
}

func TestTrack_PendingIsVisibleDuringOperation(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	var during Record
	s.Dispatch(ctx, Track("slow", func(context.Context) (bool, error) {
		during, _ = Lookup(s.GetState(), "slow")
		return true, nil
	}))

	assert.Equal(t, StatusPending, during.Status)
}

func TestTrack_ContextCancellationRejects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := newStore(t)

	result := s.Dispatch(ctx, Track("x", func(ctx context.Context) (int, error) {
		return 0, ctx.Err()
	}))

	assert.Nil(t, result)
	got, _ := Lookup(s.GetState(), "x")
	assert.ErrorIs(t, got.Err, context.Canceled)
}

func TestTrack_SameNameOverwrites(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	s.Dispatch(ctx, Track("x", func(context.Context) (int, error) { return 1, nil }))
	s.Dispatch(ctx, Track("x", func(context.Context) (int, error) { return 0, errors.New("second") }))

	st := engine.Select[State](s.GetState(), SliceName)
	require.Len(t, st, 1)
	assert.Equal(t, StatusRejected, st["x"].Status)
	assert.Nil(t, st["x"].Payload, "no history is kept")
}

// The slower of two overlapping runs writes the final record even though it
// was started first.
func TestTrack_LastCompletionWins(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Dispatch(ctx, Track("x", func(context.Context) (string, error) {
			<-release
			return "first", nil
		}))
	}()

	require.Eventually(t, func() bool {
		rec, ok := Lookup(s.GetState(), "x")
		return ok && rec.Status == StatusPending
	}, time.Second, time.Millisecond)

	s.Dispatch(ctx, Track("x", func(context.Context) (string, error) {
		return "second", nil
	}))
	rec, _ := Lookup(s.GetState(), "x")
	assert.Equal(t, "second", rec.Payload)

	close(release)
	<-done
	rec, _ = Lookup(s.GetState(), "x")
	assert.Equal(t, "first", rec.Payload)
}

func TestReducer_IgnoresOtherCommands(t *testing.T) {
	st := State{"x": {Status: StatusPending}}
	next, changed := Reducer{}.Reduce(st, engine.InitCommand)
	assert.False(t, changed)
	assert.Equal(t, st, next)
}

func TestReducer_DoesNotMutatePrevious(t *testing.T) {
	prev := State{"a": {Status: StatusPending}}
	next, changed := Reducer{}.Reduce(prev, Fulfilled("a", "ok"))

	require.True(t, changed)
	assert.Equal(t, StatusPending, prev["a"].Status)
	assert.Equal(t, StatusFulfilled, next["a"].Status)
}

func TestResult(t *testing.T) {
	v, ok := Result[int](42)
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = Result[int](nil)
	assert.False(t, ok)

	_, ok = Result[string](42)
	assert.False(t, ok)
}

type item struct {
	ID    string  `json:"_id"`
	Price float64 `json:"price"`
}

func TestState_Snapshot(t *testing.T) {
	st := State{
		"goods": {Status: StatusFulfilled, Payload: []item{{ID: "g1", Price: 9.5}}},
		"login": {Status: StatusRejected, Err: errors.New("bad password")},
		"wait":  {Status: StatusPending},
	}

	data, err := ir.MarshalCanonical(st.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"goods": {"status": "FULFILLED", "payload": [{"_id": "g1", "price": 9.5}]},
		"login": {"status": "REJECTED", "error": "bad password"},
		"wait":  {"status": "PENDING"}
	}`, string(data))
}
