// Package termzoo generates a corpus of well-typed closed terms from a
// signature — one per root function symbol — as seed material for an
// external mutator (spec.md §4.H).
package termzoo

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/arkenfold/symterm/invariant"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/term"
)

// MaxTries bounds the number of construction attempts per root symbol
// (spec.md §4.H "MAX_TRIES = 100").
const MaxTries = 100

// MaxDepth bounds the recursion depth of a generated term (spec.md §4.H
// "MAX_DEPTH = 8").
const MaxDepth = 8

// Zoo is the collection of generated terms, at most one per root function
// symbol in the source signature (spec.md §4.H "collects at most one
// successful term per root symbol").
type Zoo struct {
	id    uuid.UUID
	terms []*term.Term
}

// ID identifies this generation run, for correlating its terms across
// logs and any corpus written to disk (spec.md §7 log correlation).
func (z *Zoo) ID() uuid.UUID { return z.id }

// Terms returns the generated terms, in the signature's function
// registration order.
func (z *Zoo) Terms() []*term.Term { return z.terms }

// Len returns the number of successfully generated terms.
func (z *Zoo) Len() int { return len(z.terms) }

// Generate builds a Zoo from sig, using rng as the only source of
// randomness. Deterministic given the same sig and an rng seeded
// identically (spec.md §8 "TermZoo::generate with the same seed is
// bit-equal"); math/rand/v2's seeded PCG source is the idiomatic Go
// analogue of the original's seedable ChaCha12Rng (SPEC_FULL.md
// supplemented feature 6). The zoo's own ID is independent of rng, since
// it tags the run for log correlation rather than the generated terms.
func Generate(sig *signature.Signature, rng *rand.Rand) *Zoo {
	z := &Zoo{id: uuid.New()}
	for _, root := range sig.Functions() {
		if t, ok := buildClosedTerm(sig, root, MaxDepth, rng); ok {
			z.terms = append(z.terms, t)
		}
	}
	return z
}

// NewSeededRand builds a deterministic *rand.Rand from a 2-word seed,
// the call-site idiom Generate's callers use for reproducible corpora.
func NewSeededRand(seed1, seed2 uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// buildClosedTerm attempts, up to MaxTries times, to construct a closed
// well-typed term rooted at root within depth (spec.md §4.H).
func buildClosedTerm(sig *signature.Signature, root *signature.FunctionSymbol, depth int, rng *rand.Rand) (*term.Term, bool) {
	for attempt := 0; attempt < MaxTries; attempt++ {
		if t, ok := tryBuild(sig, root, depth, rng); ok {
			return t, true
		}
	}
	return nil, false
}

// tryBuild makes one recursive construction attempt. For each of root's
// argument types, it draws uniformly from the candidates returned for
// that type and recurses with depth-1; if no candidate exists, or depth
// is exhausted while arguments remain, the attempt fails (spec.md §4.H).
func tryBuild(sig *signature.Signature, root *signature.FunctionSymbol, depth int, rng *rand.Rand) (*term.Term, bool) {
	if root.Shape.Arity() == 0 {
		return term.NewApplication(root, nil), true
	}
	if depth <= 0 {
		return nil, false
	}

	args := make([]*term.Term, root.Shape.Arity())
	for i, argType := range root.Shape.ArgTypes {
		candidates := sig.ByReturnType(argType)
		if len(candidates) == 0 {
			return nil, false
		}
		idx := rng.IntN(len(candidates))
		invariant.InRange(idx, 0, len(candidates)-1, "zoo candidate index")
		chosen := candidates[idx]
		sub, ok := tryBuild(sig, chosen, depth-1, rng)
		if !ok {
			return nil, false
		}
		args[i] = sub
	}
	return term.NewApplication(root, args), true
}
