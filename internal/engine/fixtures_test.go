package engine

// incr adds by to the counter slice; by == 0 is not handled.
type incr struct{ by int }

func (incr) Type() string { return "INCR" }

// tag adds a name to the tags slice.
type tag struct{ name string }

func (tag) Type() string { return "TAG" }

// unknown is handled by no slice.
type unknown struct{}

func (unknown) Type() string { return "UNKNOWN" }

type counter struct {
	inits *int
}

func (c counter) Init() int {
	if c.inits != nil {
		*c.inits++
	}
	return 0
}

func (counter) Reduce(state int, cmd Command) (int, bool) {
	if c, ok := cmd.(incr); ok && c.by != 0 {
		return state + c.by, true
	}
	return state, false
}

type tags map[string]bool

type tagger struct{}

func (tagger) Init() tags { return tags{} }

func (tagger) Reduce(state tags, cmd Command) (tags, bool) {
	c, ok := cmd.(tag)
	if !ok || state[c.name] {
		return state, false
	}
	next := make(tags, len(state)+1)
	for k, v := range state {
		next[k] = v
	}
	next[c.name] = true
	return next, true
}

func testReducer() Reducer {
	return Combine(
		Slice[int]("count", counter{}),
		Slice[tags]("tags", tagger{}),
	)
}
