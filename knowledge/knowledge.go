// Package knowledge implements the append-only base of values recovered
// from prior protocol messages and claims, addressable by
// (type, agent, matcher, counter) as specified in spec.md §3 "Knowledge
// item" and §4.F.
package knowledge

import (
	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/invariant"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/typeshape"
)

// Item is one typed value recovered from an agent's traffic and appended
// to the Base after an Output step (spec.md §3 "Knowledge item").
type Item struct {
	Agent   string
	Matcher signature.Matcher // nil means "no matcher"
	Value   dynfunc.Cell
}

// Base is the ordered sequence of Items accumulated during one trace
// execution. It is mutated only by the trace engine immediately after an
// Output step (spec.md §4.F); everything else only reads it.
type Base struct {
	items []Item
}

// NewBase creates an empty knowledge base.
func NewBase() *Base { return &Base{} }

// Append adds item to the end of the base, preserving insertion order —
// the ordering the counter-based Query resolution depends on (spec.md §8
// "Knowledge base insertion-order preservation").
func (b *Base) Append(item Item) {
	prevLen := len(b.items)
	b.items = append(b.items, item)
	invariant.Invariant(len(b.items) == prevLen+1, "knowledge base must grow by exactly one item per Append, had %d now %d", prevLen, len(b.items))
}

// Len returns the number of items currently in the base.
func (b *Base) Len() int { return len(b.items) }

// Items returns a snapshot of the base's contents in insertion order.
func (b *Base) Items() []Item {
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}

// Find resolves a variable query against the base: filter by agent (if
// specified) and by type shape; among survivors, filter by matcher (if
// present, highest specificity wins, first-inserted wins ties per
// spec.md §9 Open Question ii); then select the item at position
// counter, 0-based in insertion order among the filtered set. Returns
// false if fewer than counter+1 candidates exist (spec.md §4.F).
func (b *Base) Find(shape typeshape.Shape, q signature.Query) (dynfunc.Cell, bool) {
	candidates := make([]Item, 0, len(b.items))
	for _, item := range b.items {
		if q.Agent != "" && item.Agent != q.Agent {
			continue
		}
		if item.Value.Shape() != shape {
			continue
		}
		candidates = append(candidates, item)
	}
	if len(candidates) == 0 {
		return dynfunc.Cell{}, false
	}

	if q.Matcher != nil {
		candidates = filterByBestMatcher(candidates, q.Matcher)
		if len(candidates) == 0 {
			return dynfunc.Cell{}, false
		}
	}

	counter := 0
	if q.HasCounter {
		counter = q.Counter
	}
	if counter >= len(candidates) {
		return dynfunc.Cell{}, false
	}
	return candidates[counter].Value, true
}

// filterByBestMatcher keeps only the items whose own Matcher (if any)
// accepts q, then narrows the surviving set to those tied for the
// highest specificity, preserving original order so "first inserted
// wins" on ties (spec.md §9 Open Question ii).
func filterByBestMatcher(items []Item, q signature.Matcher) []Item {
	type scored struct {
		item Item
		spec int
	}
	var scoredItems []scored
	for _, item := range items {
		if item.Matcher != nil && !item.Matcher.Matches(q) {
			continue
		}
		spec := 0
		if item.Matcher != nil {
			spec = item.Matcher.Specificity()
		}
		scoredItems = append(scoredItems, scored{item: item, spec: spec})
	}
	if len(scoredItems) == 0 {
		return nil
	}
	best := scoredItems[0].spec
	for _, s := range scoredItems[1:] {
		if s.spec > best {
			best = s.spec
		}
	}
	out := make([]Item, 0, len(scoredItems))
	for _, s := range scoredItems {
		if s.spec == best {
			out = append(out, s.item)
		}
	}
	return out
}
