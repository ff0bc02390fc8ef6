// Package term implements the typed expression tree mutators and the
// evaluator walk (spec.md §3 "Term", §4.D). A Term is either a Variable or
// an Application of a function symbol to an ordered list of sub-terms; it
// is always a tree — ownership of sub-terms belongs exclusively to the
// parent (spec.md §3 invariants, §9 "No cyclic term graphs").
package term

import (
	"fmt"
	"strings"

	"github.com/arkenfold/symterm/invariant"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/typeshape"
)

// Kind discriminates the two Term constructors.
type Kind int

const (
	KindVariable Kind = iota
	KindApplication
)

// Term is a node in a typed expression tree. The zero value is not a
// valid Term; construct with NewVariable or NewApplication.
type Term struct {
	kind     Kind
	variable *signature.VariableSymbol
	function *signature.FunctionSymbol
	subterms []*Term
}

// NewVariable builds a leaf Term around a variable symbol.
func NewVariable(v *signature.VariableSymbol) *Term {
	invariant.NotNil(v, "variable")
	return &Term{kind: KindVariable, variable: v}
}

// NewApplication builds a Term applying fn to args. Panics (via
// invariant.Precondition) if len(args) does not match fn's declared
// arity, or if any argument's return type does not match the
// corresponding parameter type — this is the builder-side half of
// spec.md §3's "Application has arity/types matching its function
// symbol" invariant; the evaluator re-checks at call time as
// defense-in-depth (spec.md §9).
func NewApplication(fn *signature.FunctionSymbol, args []*Term) *Term {
	invariant.NotNil(fn, "function symbol")
	invariant.Precondition(len(args) == fn.Shape.Arity(),
		"Application arity mismatch for %s: want %d, got %d", fn.Name(), fn.Shape.Arity(), len(args))
	for i, a := range args {
		invariant.Precondition(a.GetTypeShape() == fn.Shape.ArgTypes[i],
			"Application argument %d of %s has wrong type: want %s, got %s",
			i, fn.Name(), fn.Shape.ArgTypes[i].Name(), a.GetTypeShape().Name())
	}
	return &Term{kind: KindApplication, function: fn, subterms: args}
}

// IsVariable reports whether t is a Variable node.
func (t *Term) IsVariable() bool { return t.kind == KindVariable }

// Variable returns the underlying variable symbol and true, if t is a
// Variable node.
func (t *Term) Variable() (*signature.VariableSymbol, bool) {
	if t.kind != KindVariable {
		return nil, false
	}
	return t.variable, true
}

// Function returns the underlying function symbol and true, if t is an
// Application node.
func (t *Term) Function() (*signature.FunctionSymbol, bool) {
	if t.kind != KindApplication {
		return nil, false
	}
	return t.function, true
}

// Subterms returns t's ordered children (empty for Variables and nullary
// Applications).
func (t *Term) Subterms() []*Term {
	return t.subterms
}

// Size returns the total node count of the subtree rooted at t.
func (t *Term) Size() int {
	if t.kind == KindVariable {
		return 1
	}
	total := 1
	for _, sub := range t.subterms {
		total += sub.Size()
	}
	return total
}

// IsLeaf is true for Variables and nullary Applications (spec.md §4.D).
func (t *Term) IsLeaf() bool {
	return t.kind == KindVariable || len(t.subterms) == 0
}

// GetTypeShape returns t's result type.
func (t *Term) GetTypeShape() typeshape.Shape {
	if t.kind == KindVariable {
		return t.variable.TypeShape
	}
	return t.function.Shape.ReturnType
}

// Name returns the symbol name used to build t, for display.
func (t *Term) Name() string {
	if t.kind == KindVariable {
		return t.variable.TypeShape.Name()
	}
	return t.function.Name()
}

// Mutate replaces t's contents in place with other's — the mutator's
// primitive whole-subtree-replacement operation (spec.md §4.D).
func (t *Term) Mutate(other *Term) {
	*t = *other
}

// Iter returns every subterm of t in post-order (children before
// parent), matching spec.md §4.D and the testable property in §8 ("t.iter()
// yields exactly t.size() nodes, children strictly before parents").
func (t *Term) Iter() []*Term {
	out := make([]*Term, 0, t.Size())
	t.collectPostOrder(&out)
	return out
}

func (t *Term) collectPostOrder(out *[]*Term) {
	for _, sub := range t.subterms {
		sub.collectPostOrder(out)
	}
	*out = append(*out, t)
}

// FindSubtermSameShape returns the first subterm (including t itself) in
// post-order whose return type shape equals pattern's, excluding pattern
// itself by pointer identity. Used by swap/replace mutations (spec.md
// §4.D).
func (t *Term) FindSubtermSameShape(pattern *Term) (*Term, bool) {
	want := pattern.GetTypeShape()
	for _, candidate := range t.Iter() {
		if candidate == pattern {
			continue
		}
		if candidate.GetTypeShape() == want {
			return candidate, true
		}
	}
	return nil, false
}

// FilterGrandSubterms returns every subterm strictly below t's immediate
// children (i.e. grandchildren and deeper) satisfying pred, used by
// structural mutations that must not touch t's direct argument list
// (spec.md §4.D).
func (t *Term) FilterGrandSubterms(pred func(*Term) bool) []*Term {
	var out []*Term
	for _, child := range t.subterms {
		for _, grand := range child.subterms {
			for _, candidate := range grand.Iter() {
				if pred(candidate) {
					out = append(out, candidate)
				}
			}
		}
	}
	return out
}

// String pretty-prints t: one line per node indented by depth; nullary
// applications render as "name -> ReturnType"; n-ary as
// "name(\n  child_1,\n  ...\n) -> ReturnType" (spec.md §4.D, §8 boundary
// behavior "Arity-0 application prints as name -> ReturnType with no
// parentheses").
func (t *Term) String() string {
	return t.displayAtDepth(0)
}

func (t *Term) displayAtDepth(depth int) string {
	tabs := strings.Repeat("\t", depth)
	if t.kind == KindVariable {
		return fmt.Sprintf("%s%s", tabs, t.variable.TypeShape.Name())
	}

	opName := RemovePrefix(t.function.Name())
	returnType := RemovePrefix(t.function.Shape.ReturnType.Name())
	if len(t.subterms) == 0 {
		return fmt.Sprintf("%s%s -> %s", tabs, opName, returnType)
	}

	parts := make([]string, len(t.subterms))
	for i, sub := range t.subterms {
		parts[i] = sub.displayAtDepth(depth + 1)
	}
	return fmt.Sprintf("%s%s(\n%s\n%s) -> %s", tabs, opName, strings.Join(parts, ",\n"), tabs, returnType)
}

// DOT renders t as Graphviz DOT source for debugging (spec.md §4.D
// "Subgraph export: produces a DOT-format rendering for debugging").
func (t *Term) DOT() string {
	var b strings.Builder
	b.WriteString("digraph term {\n")
	counter := 0
	t.writeDOT(&b, &counter)
	b.WriteString("}\n")
	return b.String()
}

func (t *Term) writeDOT(b *strings.Builder, counter *int) int {
	id := *counter
	*counter++
	label := RemovePrefix(t.Name())
	b.WriteString(fmt.Sprintf("  n%d [label=%q];\n", id, label))
	for _, sub := range t.subterms {
		childID := sub.writeDOT(b, counter)
		b.WriteString(fmt.Sprintf("  n%d -> n%d;\n", id, childID))
	}
	return id
}

// RemovePrefix strips all leading module-path segments from a displayed
// type name, recursively through generic parameters, so human-facing
// output is stable across build environments (spec.md §4.D,
// §8 "remove_prefix('test::test::Test<asdf::Asdf>') returns 'Test<Asdf>'").
//
// Go type names use '.' as the package-qualifier separator and '[...]'
// for generic instantiations (the nearest analogue of Rust's '::' and
// '<...>'); RemovePrefix strips either convention so the same helper
// serves both.
func RemovePrefix(name string) string {
	return stripQualifiers(name)
}

func stripQualifiers(s string) string {
	var out strings.Builder
	var seg strings.Builder
	flush := func() {
		text := seg.String()
		if idx := lastSeparator(text); idx >= 0 {
			text = text[idx+1:]
		}
		out.WriteString(text)
		seg.Reset()
	}
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '<', '[':
			flush()
			out.WriteByte(openBracketFor(c))
			i++
		case '>', ']':
			flush()
			out.WriteByte(closeBracketFor(c))
			i++
		case ',':
			flush()
			out.WriteString(", ")
			i++
			for i < len(s) && s[i] == ' ' {
				i++
			}
		default:
			seg.WriteByte(c)
			i++
		}
	}
	flush()
	return out.String()
}

func openBracketFor(c byte) byte {
	if c == '[' {
		return '['
	}
	return '<'
}

func closeBracketFor(c byte) byte {
	if c == ']' {
		return ']'
	}
	return '>'
}

// lastSeparator finds the last occurrence of either "::" or "." acting as
// a module-path separator, returning its end index, or -1 if none.
func lastSeparator(s string) int {
	idx := strings.LastIndex(s, "::")
	if idx >= 0 {
		return idx + 1 // points at the second ':'
	}
	dotIdx := strings.LastIndex(s, ".")
	if dotIdx >= 0 {
		return dotIdx
	}
	return -1
}
