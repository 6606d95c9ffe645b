// Package promise tracks the lifecycle of named asynchronous operations in
// the "promise" slice of the store.
//
// Each operation name maps to one Record that is overwritten wholesale on
// every lifecycle event. Concurrent runs of the same name race: whichever
// completes last writes the final record, regardless of call order.
package promise

import (
	"encoding/json"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/ir"
)

// SliceName is the store key of the promise slice.
const SliceName = "promise"

// CommandType is the wire tag of Lifecycle.
const CommandType = "PROMISE"

// Status is the lifecycle stage of an operation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusFulfilled Status = "FULFILLED"
	StatusRejected  Status = "REJECTED"
)

// Record is the latest lifecycle state of one named operation.
type Record struct {
	Status  Status
	Payload any
	Err     error
}

// State maps operation names to their latest Record.
type State map[string]Record

// Lifecycle reports a lifecycle event for the operation Name.
type Lifecycle struct {
	Name    string
	Status  Status
	Payload any
	Err     error
}

// Type implements engine.Command.
func (Lifecycle) Type() string { return CommandType }

// Pending builds the PENDING event for name.
func Pending(name string) Lifecycle {
	return Lifecycle{Name: name, Status: StatusPending}
}

// Fulfilled builds the FULFILLED event for name.
func Fulfilled(name string, payload any) Lifecycle {
	return Lifecycle{Name: name, Status: StatusFulfilled, Payload: payload}
}

// Rejected builds the REJECTED event for name.
func Rejected(name string, err error) Lifecycle {
	return Lifecycle{Name: name, Status: StatusRejected, Err: err}
}

// Reducer owns the promise slice.
type Reducer struct{}

var _ engine.SliceReducer[State] = Reducer{}

// Init returns an empty State.
func (Reducer) Init() State {
	return State{}
}

// Reduce replaces the record for a Lifecycle's name. Everything else is
// left untouched.
func (Reducer) Reduce(state State, cmd engine.Command) (State, bool) {
	lc, ok := cmd.(Lifecycle)
	if !ok {
		return state, false
	}

	next := make(State, len(state)+1)
	for k, v := range state {
		next[k] = v
	}
	next[lc.Name] = Record{Status: lc.Status, Payload: lc.Payload, Err: lc.Err}
	return next, true
}

// Slice binds Reducer to SliceName.
func Slice() engine.SliceSpec {
	return engine.Slice[State](SliceName, Reducer{})
}

// Lookup returns the record for name from the composite state.
func Lookup(st engine.State, name string) (Record, bool) {
	rec, ok := engine.Select[State](st, SliceName)[name]
	return rec, ok
}

// Snapshot renders the slice as an ir.Object for golden files. Errors are
// rendered by message.
func (s State) Snapshot() ir.Value {
	out := make(ir.Object, len(s))
	for name, rec := range s {
		obj := ir.Object{"status": ir.String(rec.Status)}
		if rec.Payload != nil {
			obj["payload"] = snapshotPayload(rec.Payload)
		}
		if rec.Err != nil {
			obj["error"] = ir.String(rec.Err.Error())
		}
		out[name] = obj
	}
	return out
}

// snapshotPayload converts typed payloads through their JSON form; payloads
// that cannot be encoded render as null.
func snapshotPayload(payload any) ir.Value {
	if v, err := ir.FromAny(payload); err == nil {
		return v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ir.Null{}
	}
	v, err := ir.UnmarshalValue(data)
	if err != nil {
		return ir.Null{}
	}
	return v
}
