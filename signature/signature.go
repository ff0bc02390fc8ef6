// Package signature holds the closed vocabulary of typed function and
// variable symbols a fuzzer run is built from (spec.md §4.C). Following
// the teacher's database/sql-style global registry
// (core/decorator.Registry / core/decorator.Register), a Signature is
// assembled once via a Builder and then treated as read-only for the rest
// of the process.
package signature

import (
	"fmt"
	"sync/atomic"

	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/typeshape"
)

// idCounter issues resistant ids: process-monotonic identifiers
// surviving rename-safe refactors, used for symbol equality and hashing
// (spec.md "Resistant id").
var idCounter atomic.Int64

func nextResistantID() int64 { return idCounter.Add(1) }

// FunctionSymbol pairs a dynfunc.Shape + erased callable with a stable
// resistant id (spec.md §3 "Function symbol").
type FunctionSymbol struct {
	ResistantID int64
	Shape       dynfunc.Shape
	Call        dynfunc.Fn
}

// Name returns the symbol's display name.
func (f *FunctionSymbol) Name() string { return f.Shape.Name }

// Query narrows a variable's knowledge-base lookup: agent identity plus
// an optional counter and protocol-specific matcher (spec.md §3
// "Variable symbol").
type Query struct {
	Agent   string
	Counter int
	HasCounter bool
	Matcher Matcher
}

// Matcher is a protocol-specific predicate narrowing knowledge lookup
// (spec.md §4.F). Implementations live outside this package (in the
// protocol-specific layer this module leaves external); the zero value
// AnyMatcher matches everything with the lowest specificity.
type Matcher interface {
	Matches(other any) bool
	Specificity() int
}

// AnyMatcher is the default, maximally-unspecific Matcher: it matches any
// value and reports specificity 0, so any matcher with a higher
// specificity outranks it.
type AnyMatcher struct{}

func (AnyMatcher) Matches(any) bool { return true }
func (AnyMatcher) Specificity() int { return 0 }

// VariableSymbol is a typed, queryable placeholder in a term (spec.md §3
// "Variable symbol").
type VariableSymbol struct {
	ResistantID int64
	TypeShape   typeshape.Shape
	Query       Query
}

// Signature is the closed, process-wide vocabulary a term tree is built
// against: the set of function definitions, indexed by name and by return
// type, plus the type registry that gives every symbol its Shape.
type Signature struct {
	Types *typeshape.Registry

	functions          []*FunctionSymbol
	byName             map[string]*FunctionSymbol
	byReturnType       map[typeshape.Shape][]*FunctionSymbol
}

// New creates an empty Signature backed by a fresh type registry. Use
// Builder for the common case of constructing a Signature from a flat
// list of described functions in one call (the Go analogue of the
// define_signature! macro in spec.md §4.C / §9).
func New() *Signature {
	return &Signature{
		Types:        typeshape.NewRegistry(),
		byName:       make(map[string]*FunctionSymbol),
		byReturnType: make(map[typeshape.Shape][]*FunctionSymbol),
	}
}

// NewFunction registers d under a fresh resistant id, indexes it by name
// and by return type, and returns the resulting FunctionSymbol
// (spec.md §4.C Signature::new_function).
func (s *Signature) NewFunction(d dynfunc.Described) (*FunctionSymbol, error) {
	if _, exists := s.byName[d.Shape.Name]; exists {
		return nil, fmt.Errorf("signature: function %q already registered", d.Shape.Name)
	}
	sym := &FunctionSymbol{
		ResistantID: nextResistantID(),
		Shape:       d.Shape,
		Call:        d.Call,
	}
	s.functions = append(s.functions, sym)
	s.byName[sym.Name()] = sym
	s.byReturnType[d.Shape.ReturnType] = append(s.byReturnType[d.Shape.ReturnType], sym)
	return sym, nil
}

// NewVar returns a fresh VariableSymbol typed T (spec.md §4.C
// Signature::new_var<T>).
func NewVar[T any](s *Signature, agent string, q Query) *VariableSymbol {
	q.Agent = agent
	return &VariableSymbol{
		ResistantID: nextResistantID(),
		TypeShape:   typeshape.For[T](s.Types),
		Query:       q,
	}
}

// Lookup resolves a function symbol by its display name.
func (s *Signature) Lookup(name string) (*FunctionSymbol, bool) {
	sym, ok := s.byName[name]
	return sym, ok
}

// ByReturnType returns every function symbol whose return type shape
// equals t, in registration order. Used by the term zoo generator
// (spec.md §4.H) to draw a candidate for a required argument type.
func (s *Signature) ByReturnType(t typeshape.Shape) []*FunctionSymbol {
	return s.byReturnType[t]
}

// Functions returns every registered function symbol in registration
// order.
func (s *Signature) Functions() []*FunctionSymbol {
	out := make([]*FunctionSymbol, len(s.functions))
	copy(out, s.functions)
	return out
}

// Builder provides a fluent construction API mirroring the teacher's
// decorator.DescriptorBuilder fluent style, and standing in for the Rust
// define_signature! macro noted in spec.md §4.C/§9: Go has no macros, so
// the idiomatic analogue is a builder whose Build/MustBuild call sites
// read like the macro's expansion would.
type Builder struct {
	sig *Signature
	err error
}

// NewBuilder starts building a Signature.
func NewBuilder() *Builder {
	return &Builder{sig: New()}
}

// Function registers one described function, recording the first error
// encountered so call chains can be written fluently and checked once at
// Build time.
func (b *Builder) Function(d dynfunc.Described) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := b.sig.NewFunction(d); err != nil {
		b.err = err
	}
	return b
}

// Build finalizes the Signature, returning the first registration error
// encountered, if any.
func (b *Builder) Build() (*Signature, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.sig, nil
}

// MustBuild is Build but panics on error; intended for package-level
// `var Sig = signature.NewBuilder().Function(...).MustBuild()` call
// sites, the Go shape of the Rust define_signature! macro.
func (b *Builder) MustBuild() *Signature {
	sig, err := b.Build()
	if err != nil {
		panic(err)
	}
	return sig
}
