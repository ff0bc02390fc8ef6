package trace

import (
	"github.com/arkenfold/symterm/claim"
	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/knowledge"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/typeshape"
)

// Context is the per-execution state a Trace reads and mutates: the
// knowledge base, every agent's claim store, and the live agents
// themselves (spec.md §3 "Lifecycles" — "scoped to a single trace
// execution; released on all exit paths of Trace::execute").
//
// Context implements eval.Resolver structurally, so the evaluator package
// never imports this one — it only declares the narrow interface it
// needs (see eval.Resolver's doc comment).
type Context struct {
	Knowledge *knowledge.Base
	Agents    map[string]*Agent

	// Types is the type registry opaque deframer output is tagged
	// through (spec.md §4.G step 3 "keep the opaque form as a knowledge
	// item keyed by type = opaque"). It should be the same registry the
	// trace's signature was built from, so opaque-byte knowledge items
	// share a shape with any []byte-typed variable the signature defines.
	Types *typeshape.Registry
}

// NewContext creates an empty trace context backed by types.
func NewContext(types *typeshape.Registry) *Context {
	return &Context{
		Knowledge: knowledge.NewBase(),
		Agents:    make(map[string]*Agent),
		Types:     types,
	}
}

// FindVariable satisfies eval.Resolver: query the knowledge base
// (spec.md §4.E step 1).
func (c *Context) FindVariable(shape typeshape.Shape, q signature.Query) (dynfunc.Cell, bool) {
	return c.Knowledge.Find(shape, q)
}

// FindClaim satisfies eval.Resolver: fall back to the named agent's claim
// store (spec.md §4.E step 1, second half).
func (c *Context) FindClaim(agent string, shape typeshape.Shape) (dynfunc.Cell, bool) {
	a, ok := c.Agents[agent]
	if !ok {
		return dynfunc.Cell{}, false
	}
	return a.Claims.FindByShape(shape)
}

// DrainAllClaims drains every agent's claim sink into its store, then
// returns the full set of claims accumulated so far across all agents in
// arrival order per agent (spec.md §4.G step 4). The per-agent ordering
// is preserved; cross-agent interleaving is not significant per spec.md
// §5 ("between agents within one step no ordering is required").
func (c *Context) DrainAllClaims() []claim.Claim {
	var all []claim.Claim
	for _, a := range c.Agents {
		a.DrainClaims()
		all = append(all, a.Claims.All()...)
	}
	return all
}

// CloseAgents tears down every agent's PUT, collecting (not stopping on)
// individual close errors so every agent gets a chance to release
// (spec.md §4.G step 2 "guaranteed release ... on every exit path").
func (c *Context) CloseAgents() error {
	var first error
	for _, a := range c.Agents {
		if err := a.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
