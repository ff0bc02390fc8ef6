// Package dynfunc turns typed, fixed-arity Go functions into arity-erased
// callables the term evaluator can invoke without knowing their concrete
// signature. This is the Go answer to spec.md §4.B: "describe(f) — given a
// reference to a typed host function of N arguments, return a pair
// (shape, erased callable)".
//
// Arity-specific wrappers are generated for 0..=6 arguments, the upper
// bound spec.md §9 observes in real signatures; a host function needing a
// 7th argument is treated as a signature-design smell: none of
// Describe0..Describe6 accepts it, so it cannot be wrapped.
package dynfunc

import (
	"fmt"

	"github.com/arkenfold/symterm/ferr"
	"github.com/arkenfold/symterm/typeshape"
)

// Cell is an erased typed value: the payload plus the Shape that was used
// to produce it. It is the "erased typed cell" of spec.md §9 — a pair of
// (opaque identity, opaque payload) with a downcast operation.
type Cell struct {
	shape typeshape.Shape
	value any
}

// NewCell wraps v, tagging it with its shape as resolved by r.
func NewCell(r *typeshape.Registry, v any) Cell {
	return Cell{shape: r.Of(v), value: v}
}

// NewCellFromShape wraps v under an already-resolved shape, for callers
// that cache a Shape instead of holding a registry (e.g. a PUT reporting
// a claim whose type was resolved once at construction time).
func NewCellFromShape(shape typeshape.Shape, v any) Cell {
	return Cell{shape: shape, value: v}
}

// Shape returns the cell's declared type shape.
func (c Cell) Shape() typeshape.Shape { return c.shape }

// Value returns the untyped payload. Downcast with a type assertion, or
// use the generic Downcast helper.
func (c Cell) Value() any { return c.value }

// Downcast attempts to recover a Cell's payload as T.
func Downcast[T any](c Cell) (T, bool) {
	v, ok := c.value.(T)
	return v, ok
}

// Shape describes a dynamic function's call contract: its ordered
// argument shapes, its return shape, and its name for display/lookup.
type Shape struct {
	Name       string
	ArgTypes   []typeshape.Shape
	ReturnType typeshape.Shape
}

// Arity returns the number of declared arguments.
func (s Shape) Arity() int { return len(s.ArgTypes) }

// Fn is the erased callable: an ordered sequence of Cells in, a Cell or a
// structured FnError out. Implementations MUST fail rather than panic on
// arity or type mismatch (spec.md §4.B).
type Fn func(args []Cell) (Cell, *ferr.FnError)

// Described is the (shape, erased callable) pair spec.md §4.B returns.
type Described struct {
	Shape Shape
	Call  Fn
}

// wrongArity builds the spec.md §4.B WrongArity failure.
func wrongArity(name string, expected, got int) *ferr.FnError {
	if got < expected {
		return ferr.NewFnError(ferr.FnImpl, "Missing argument #%d while calling %s", got+1, name)
	}
	return ferr.NewFnError(ferr.FnImpl, "too many arguments calling %s: expected %d, got %d", name, expected, got)
}

func typeMismatch(name string, index int, expectedName string, gotShape typeshape.Shape) *ferr.FnError {
	return ferr.NewFnError(ferr.FnMalformed,
		"argument #%d of %s: expected %s, got %s", index, name, expectedName, gotShape.Name())
}

func checkArgs(name string, argTypes []typeshape.Shape, args []Cell) *ferr.FnError {
	if len(args) != len(argTypes) {
		return wrongArity(name, len(argTypes), len(args))
	}
	for i, want := range argTypes {
		if args[i].shape != want {
			return typeMismatch(name, i+1, want.Name(), args[i].shape)
		}
	}
	return nil
}

// toFnError converts an arbitrary host error into the FnError taxonomy;
// a host function may already return *ferr.FnError to pick its own
// variant (Malformed/Crypto/Unknown), otherwise it is classified Impl.
func toFnError(err error) *ferr.FnError {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*ferr.FnError); ok {
		return fe
	}
	return ferr.NewFnError(ferr.FnImpl, "%v", err)
}

// Describe0..Describe6 wrap a typed host function of the matching arity.
// Each downcasts its positional arguments, invokes the typed function,
// and re-erases the result through the type registry.

func Describe0[R any](reg *typeshape.Registry, name string, f func() (R, error)) Described {
	shape := Shape{Name: name, ArgTypes: nil, ReturnType: typeshape.For[R](reg)}
	call := func(args []Cell) (Cell, *ferr.FnError) {
		if fe := checkArgs(name, shape.ArgTypes, args); fe != nil {
			return Cell{}, fe
		}
		r, err := f()
		if fe := toFnError(err); fe != nil {
			return Cell{}, fe
		}
		return NewCell(reg, r), nil
	}
	return Described{Shape: shape, Call: call}
}

func Describe1[A1, R any](reg *typeshape.Registry, name string, f func(A1) (R, error)) Described {
	shape := Shape{Name: name, ArgTypes: []typeshape.Shape{typeshape.For[A1](reg)}, ReturnType: typeshape.For[R](reg)}
	call := func(args []Cell) (Cell, *ferr.FnError) {
		if fe := checkArgs(name, shape.ArgTypes, args); fe != nil {
			return Cell{}, fe
		}
		a1, ok := Downcast[A1](args[0])
		if !ok {
			return Cell{}, typeMismatch(name, 1, shape.ArgTypes[0].Name(), args[0].shape)
		}
		r, err := f(a1)
		if fe := toFnError(err); fe != nil {
			return Cell{}, fe
		}
		return NewCell(reg, r), nil
	}
	return Described{Shape: shape, Call: call}
}

func Describe2[A1, A2, R any](reg *typeshape.Registry, name string, f func(A1, A2) (R, error)) Described {
	shape := Shape{Name: name, ArgTypes: []typeshape.Shape{typeshape.For[A1](reg), typeshape.For[A2](reg)}, ReturnType: typeshape.For[R](reg)}
	call := func(args []Cell) (Cell, *ferr.FnError) {
		if fe := checkArgs(name, shape.ArgTypes, args); fe != nil {
			return Cell{}, fe
		}
		a1, ok1 := Downcast[A1](args[0])
		a2, ok2 := Downcast[A2](args[1])
		if !ok1 {
			return Cell{}, typeMismatch(name, 1, shape.ArgTypes[0].Name(), args[0].shape)
		}
		if !ok2 {
			return Cell{}, typeMismatch(name, 2, shape.ArgTypes[1].Name(), args[1].shape)
		}
		r, err := f(a1, a2)
		if fe := toFnError(err); fe != nil {
			return Cell{}, fe
		}
		return NewCell(reg, r), nil
	}
	return Described{Shape: shape, Call: call}
}

func Describe3[A1, A2, A3, R any](reg *typeshape.Registry, name string, f func(A1, A2, A3) (R, error)) Described {
	argTypes := []typeshape.Shape{typeshape.For[A1](reg), typeshape.For[A2](reg), typeshape.For[A3](reg)}
	shape := Shape{Name: name, ArgTypes: argTypes, ReturnType: typeshape.For[R](reg)}
	call := func(args []Cell) (Cell, *ferr.FnError) {
		if fe := checkArgs(name, shape.ArgTypes, args); fe != nil {
			return Cell{}, fe
		}
		a1, ok1 := Downcast[A1](args[0])
		a2, ok2 := Downcast[A2](args[1])
		a3, ok3 := Downcast[A3](args[2])
		switch {
		case !ok1:
			return Cell{}, typeMismatch(name, 1, argTypes[0].Name(), args[0].shape)
		case !ok2:
			return Cell{}, typeMismatch(name, 2, argTypes[1].Name(), args[1].shape)
		case !ok3:
			return Cell{}, typeMismatch(name, 3, argTypes[2].Name(), args[2].shape)
		}
		r, err := f(a1, a2, a3)
		if fe := toFnError(err); fe != nil {
			return Cell{}, fe
		}
		return NewCell(reg, r), nil
	}
	return Described{Shape: shape, Call: call}
}

func Describe4[A1, A2, A3, A4, R any](reg *typeshape.Registry, name string, f func(A1, A2, A3, A4) (R, error)) Described {
	argTypes := []typeshape.Shape{typeshape.For[A1](reg), typeshape.For[A2](reg), typeshape.For[A3](reg), typeshape.For[A4](reg)}
	shape := Shape{Name: name, ArgTypes: argTypes, ReturnType: typeshape.For[R](reg)}
	call := func(args []Cell) (Cell, *ferr.FnError) {
		if fe := checkArgs(name, shape.ArgTypes, args); fe != nil {
			return Cell{}, fe
		}
		a1, ok1 := Downcast[A1](args[0])
		a2, ok2 := Downcast[A2](args[1])
		a3, ok3 := Downcast[A3](args[2])
		a4, ok4 := Downcast[A4](args[3])
		switch {
		case !ok1:
			return Cell{}, typeMismatch(name, 1, argTypes[0].Name(), args[0].shape)
		case !ok2:
			return Cell{}, typeMismatch(name, 2, argTypes[1].Name(), args[1].shape)
		case !ok3:
			return Cell{}, typeMismatch(name, 3, argTypes[2].Name(), args[2].shape)
		case !ok4:
			return Cell{}, typeMismatch(name, 4, argTypes[3].Name(), args[3].shape)
		}
		r, err := f(a1, a2, a3, a4)
		if fe := toFnError(err); fe != nil {
			return Cell{}, fe
		}
		return NewCell(reg, r), nil
	}
	return Described{Shape: shape, Call: call}
}

func Describe5[A1, A2, A3, A4, A5, R any](reg *typeshape.Registry, name string, f func(A1, A2, A3, A4, A5) (R, error)) Described {
	argTypes := []typeshape.Shape{typeshape.For[A1](reg), typeshape.For[A2](reg), typeshape.For[A3](reg), typeshape.For[A4](reg), typeshape.For[A5](reg)}
	shape := Shape{Name: name, ArgTypes: argTypes, ReturnType: typeshape.For[R](reg)}
	call := func(args []Cell) (Cell, *ferr.FnError) {
		if fe := checkArgs(name, shape.ArgTypes, args); fe != nil {
			return Cell{}, fe
		}
		a1, ok1 := Downcast[A1](args[0])
		a2, ok2 := Downcast[A2](args[1])
		a3, ok3 := Downcast[A3](args[2])
		a4, ok4 := Downcast[A4](args[3])
		a5, ok5 := Downcast[A5](args[4])
		switch {
		case !ok1:
			return Cell{}, typeMismatch(name, 1, argTypes[0].Name(), args[0].shape)
		case !ok2:
			return Cell{}, typeMismatch(name, 2, argTypes[1].Name(), args[1].shape)
		case !ok3:
			return Cell{}, typeMismatch(name, 3, argTypes[2].Name(), args[2].shape)
		case !ok4:
			return Cell{}, typeMismatch(name, 4, argTypes[3].Name(), args[3].shape)
		case !ok5:
			return Cell{}, typeMismatch(name, 5, argTypes[4].Name(), args[4].shape)
		}
		r, err := f(a1, a2, a3, a4, a5)
		if fe := toFnError(err); fe != nil {
			return Cell{}, fe
		}
		return NewCell(reg, r), nil
	}
	return Described{Shape: shape, Call: call}
}

func Describe6[A1, A2, A3, A4, A5, A6, R any](reg *typeshape.Registry, name string, f func(A1, A2, A3, A4, A5, A6) (R, error)) Described {
	argTypes := []typeshape.Shape{
		typeshape.For[A1](reg), typeshape.For[A2](reg), typeshape.For[A3](reg),
		typeshape.For[A4](reg), typeshape.For[A5](reg), typeshape.For[A6](reg),
	}
	shape := Shape{Name: name, ArgTypes: argTypes, ReturnType: typeshape.For[R](reg)}
	call := func(args []Cell) (Cell, *ferr.FnError) {
		if fe := checkArgs(name, shape.ArgTypes, args); fe != nil {
			return Cell{}, fe
		}
		a1, ok1 := Downcast[A1](args[0])
		a2, ok2 := Downcast[A2](args[1])
		a3, ok3 := Downcast[A3](args[2])
		a4, ok4 := Downcast[A4](args[3])
		a5, ok5 := Downcast[A5](args[4])
		a6, ok6 := Downcast[A6](args[5])
		switch {
		case !ok1:
			return Cell{}, typeMismatch(name, 1, argTypes[0].Name(), args[0].shape)
		case !ok2:
			return Cell{}, typeMismatch(name, 2, argTypes[1].Name(), args[1].shape)
		case !ok3:
			return Cell{}, typeMismatch(name, 3, argTypes[2].Name(), args[2].shape)
		case !ok4:
			return Cell{}, typeMismatch(name, 4, argTypes[3].Name(), args[3].shape)
		case !ok5:
			return Cell{}, typeMismatch(name, 5, argTypes[4].Name(), args[4].shape)
		case !ok6:
			return Cell{}, typeMismatch(name, 6, argTypes[5].Name(), args[5].shape)
		}
		r, err := f(a1, a2, a3, a4, a5, a6)
		if fe := toFnError(err); fe != nil {
			return Cell{}, fe
		}
		return NewCell(reg, r), nil
	}
	return Described{Shape: shape, Call: call}
}

// errUnsupportedArity documents why 7+-arity host functions are rejected
// rather than wrapped: spec.md §9 calls this a signature-design smell.
var errUnsupportedArity = fmt.Errorf("dynfunc: arities above 6 are not supported; refactor the host function")

// ErrUnsupportedArity is returned by hand-rolled describe helpers outside
// this package (e.g. reflection-based bulk registration) that encounter
// a function type with more than 6 parameters.
func ErrUnsupportedArity() error { return errUnsupportedArity }
