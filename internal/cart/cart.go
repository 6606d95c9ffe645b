// Package cart owns the "cart" slice: goods the user intends to order,
// keyed by good id.
//
// Every present entry has Count >= 1. Commands that would leave a lower
// count remove the entry instead.
package cart

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/ir"
)

// SliceName is the store key of the cart slice.
const SliceName = "cart"

// Wire tags of the cart commands.
const (
	TypeAdd    = "CART_ADD"
	TypeChange = "CART_CHANGE"
	TypeDelete = "CART_DELETE"
	TypeClear  = "CART_CLEAR"
)

// Entry is the quantity of one good in the cart.
type Entry struct {
	Count int          `json:"count"`
	Good  catalog.Good `json:"good"`
}

// State maps good ids to entries.
type State map[string]Entry

// Add increases the count of Good by Count. A zero Count adds one.
type Add struct {
	Good  catalog.Good
	Count int
}

// Change sets the count of Good to exactly Count.
type Change struct {
	Good  catalog.Good
	Count int
}

// Delete removes Good from the cart.
type Delete struct {
	Good catalog.Good
}

// Clear empties the cart.
type Clear struct{}

func (Add) Type() string    { return TypeAdd }
func (Change) Type() string { return TypeChange }
func (Delete) Type() string { return TypeDelete }
func (Clear) Type() string  { return TypeClear }

// AddOne adds a single unit of good.
func AddOne(good catalog.Good) Add {
	return Add{Good: good, Count: 1}
}

// AddN adds count units of good.
func AddN(good catalog.Good, count int) Add {
	return Add{Good: good, Count: count}
}

// ChangeCount sets the count of good.
func ChangeCount(good catalog.Good, count int) Change {
	return Change{Good: good, Count: count}
}

// Remove deletes good from the cart.
func Remove(good catalog.Good) Delete {
	return Delete{Good: good}
}

// Empty clears the cart.
func Empty() Clear {
	return Clear{}
}

// Reducer owns the cart slice.
type Reducer struct{}

var _ engine.SliceReducer[State] = Reducer{}

// Init returns an empty cart.
func (Reducer) Init() State {
	return State{}
}

// Reduce applies cart commands. The previous State is never modified.
func (Reducer) Reduce(state State, cmd engine.Command) (State, bool) {
	switch c := cmd.(type) {
	case Add:
		count := c.Count
		if count == 0 {
			count = 1
		}
		return state.put(c.Good, state[c.Good.ID].Count+count)

	case Change:
		return state.put(c.Good, c.Count)

	case Delete:
		if _, ok := state[c.Good.ID]; !ok {
			return state, false
		}
		next := maps.Clone(state)
		delete(next, c.Good.ID)
		return next, true

	case Clear:
		if len(state) == 0 {
			return state, false
		}
		return State{}, true
	}
	return state, false
}

// put returns a copy of s with good at count. A count below one removes
// the entry; removing an absent entry is not a change.
func (s State) put(good catalog.Good, count int) (State, bool) {
	_, present := s[good.ID]
	if count < 1 && !present {
		return s, false
	}

	next := make(State, len(s)+1)
	maps.Copy(next, s)
	if count < 1 {
		delete(next, good.ID)
	} else {
		next[good.ID] = Entry{Count: count, Good: good}
	}
	return next, true
}

// Slice binds Reducer to SliceName.
func Slice() engine.SliceSpec {
	return engine.Slice[State](SliceName, Reducer{})
}

// From reads the cart slice from the composite state.
func From(st engine.State) State {
	return engine.Select[State](st, SliceName)
}

// IDs returns the good ids in the cart in sorted order.
func (s State) IDs() []string {
	return slices.Sorted(maps.Keys(s))
}

// Count returns the total number of units in the cart.
func (s State) Count() int {
	n := 0
	for _, e := range s {
		n += e.Count
	}
	return n
}

// Total sums count times price over all entries.
func Total(s State) float64 {
	total := 0.0
	for _, id := range s.IDs() {
		e := s[id]
		total += float64(e.Count) * e.Good.Price
	}
	return total
}

// OrderLines turns the cart into new-order lines, ordered by good id.
func OrderLines(s State) []catalog.OrderLine {
	lines := make([]catalog.OrderLine, 0, len(s))
	for _, id := range s.IDs() {
		lines = append(lines, catalog.OrderLine{Count: s[id].Count, Good: catalog.GoodRef{ID: id}})
	}
	return lines
}

// Snapshot renders the cart as an ir.Value for golden files.
func (s State) Snapshot() ir.Value {
	data, err := json.Marshal(s)
	if err != nil {
		return ir.Null{}
	}
	v, err := ir.UnmarshalValue(data)
	if err != nil {
		return ir.Null{}
	}
	return v
}
