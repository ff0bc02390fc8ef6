// Package claim models the structured assertions a PUT makes about its
// own internal state (transcript hash, keys derived, secrets exchanged),
// and the per-agent store the trace engine appends them to (spec.md §3
// "Claim", §4.G step 4).
package claim

import (
	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/invariant"
	"github.com/arkenfold/symterm/typeshape"
)

// Claim is one structured assertion emitted by a PUT via its registered
// callback (spec.md §9 "Claims via callback").
type Claim struct {
	Agent string
	Value dynfunc.Cell
}

// Store holds one agent's claims in arrival order. The trace engine
// drains an agent's ClaimSink into its Store after every step (spec.md
// §4.G step 4).
type Store struct {
	claims []Claim
}

// NewStore creates an empty claim store.
func NewStore() *Store { return &Store{} }

// Append records a newly-arrived claim.
func (s *Store) Append(c Claim) { s.claims = append(s.claims, c) }

// All returns every claim recorded so far, in arrival order.
func (s *Store) All() []Claim {
	out := make([]Claim, len(s.claims))
	copy(out, s.claims)
	return out
}

// FindByShape returns the first claim (in arrival order) whose declared
// type matches shape — the evaluator's fallback path when the knowledge
// base has no matching item for a variable query whose source is an
// agent (spec.md §4.E step 1).
func (s *Store) FindByShape(shape typeshape.Shape) (dynfunc.Cell, bool) {
	for _, c := range s.claims {
		if c.Value.Shape() == shape {
			return c.Value, true
		}
	}
	return dynfunc.Cell{}, false
}

// Sink is a single-producer queue a PUT's claim callback writes into.
// Buffered so the callback does not wait on the engine's step cadence
// while the buffer has room; once capacity claims are queued, the callback
// blocks until the next Drain. The trace engine drains it with Drain
// after each step (spec.md §9:
// "a single-producer queue per agent is the recommended discipline").
type Sink struct {
	ch chan Claim
}

// NewSink creates a claim sink with the given buffer capacity.
func NewSink(capacity int) *Sink {
	invariant.Positive(capacity, "capacity")
	return &Sink{ch: make(chan Claim, capacity)}
}

// Callback returns the func(Claim) handle to register with a PUT factory
// at agent construction.
func (s *Sink) Callback() func(Claim) {
	return func(c Claim) {
		s.ch <- c
	}
}

// Drain removes and returns every claim currently queued, without
// blocking.
func (s *Sink) Drain() []Claim {
	var out []Claim
	for {
		select {
		case c := <-s.ch:
			out = append(out, c)
		default:
			return out
		}
	}
}
