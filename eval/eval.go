// Package eval implements the term evaluator (spec.md §4.E): it walks a
// term, resolving Variables against a trace context and invoking
// Applications' dynamic functions left-to-right, producing a typed
// evaluated value or a structured ferr.Error.
package eval

import (
	"log/slog"

	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/ferr"
	"github.com/arkenfold/symterm/invariant"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/term"
	"github.com/arkenfold/symterm/typeshape"
)

// Resolver is everything the evaluator needs from a trace context to
// resolve a Variable: the knowledge base lookup, and — on a miss whose
// query names an agent — the agent's claim-store fallback (spec.md
// §4.E step 1). Accepting this narrow interface instead of a concrete
// *trace.Context avoids an eval <-> trace import cycle: the trace
// engine needs to call Evaluate on Input recipes, and Evaluate only
// needs this much of a trace.Context.
type Resolver interface {
	FindVariable(shape typeshape.Shape, q signature.Query) (dynfunc.Cell, bool)
	FindClaim(agent string, shape typeshape.Shape) (dynfunc.Cell, bool)
}

// Evaluate walks t against ctx and returns its evaluated value, or a
// structured error on the first failure (spec.md §4.E).
//
// Ordering guarantee: sub-terms of an Application are evaluated strictly
// left-to-right with no parallelism or reordering, because host
// functions may have non-commutative effects (spec.md §4.E, §5).
func Evaluate(t *term.Term, ctx Resolver, log *slog.Logger) (dynfunc.Cell, *ferr.Error) {
	if log == nil {
		log = slog.Default()
	}
	return evaluate(t, ctx, log)
}

func evaluate(t *term.Term, ctx Resolver, log *slog.Logger) (dynfunc.Cell, *ferr.Error) {
	if v, ok := t.Variable(); ok {
		log.Debug("evaluate variable", "type", v.TypeShape.Name(), "agent", v.Query.Agent)

		if cell, ok := ctx.FindVariable(v.TypeShape, v.Query); ok {
			return cell, nil
		}
		if v.Query.Agent != "" {
			if cell, ok := ctx.FindClaim(v.Query.Agent, v.TypeShape); ok {
				return cell, nil
			}
		}
		return dynfunc.Cell{}, ferr.Term("Unable to find variable of type %s for agent %q", v.TypeShape.Name(), v.Query.Agent)
	}

	fn, _ := t.Function()
	log.Debug("evaluate application", "fn", fn.Name())

	args := make([]dynfunc.Cell, len(t.Subterms()))
	for i, sub := range t.Subterms() {
		cell, err := evaluate(sub, ctx, log)
		if err != nil {
			return dynfunc.Cell{}, err
		}
		args[i] = cell
	}

	result, fnErr := fn.Call(args)
	if fnErr != nil {
		log.Debug("application failed", "fn", fn.Name(), "error", fnErr.Error())
		return dynfunc.Cell{}, ferr.Fn(fnErr).WithContext("fn", fn.Name())
	}
	invariant.Postcondition(result.Shape() == fn.Shape.ReturnType,
		"%s returned a value shaped %s, declared return type is %s", fn.Name(), result.Shape().Name(), fn.Shape.ReturnType.Name())
	return result, nil
}
