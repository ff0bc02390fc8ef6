// Package sigctx holds the single, process-wide signature anchor terms
// and traces rebind against on deserialization (spec.md §4.I). It is
// install-once: setting it twice is an error, not a silent overwrite.
package sigctx

import (
	"sync/atomic"

	"github.com/arkenfold/symterm/ferr"
	"github.com/arkenfold/symterm/signature"
)

var anchor atomic.Pointer[signature.Signature]

// Install sets the process-wide anchor to sig. Calling Install a second
// time — even with the same signature — returns an error rather than
// replacing or silently accepting the anchor (spec.md §4.I "Setting the
// anchor twice is an error at install time, not a silent overwrite").
func Install(sig *signature.Signature) error {
	if sig == nil {
		return ferr.Term("sigctx: cannot install a nil signature")
	}
	if !anchor.CompareAndSwap(nil, sig) {
		return ferr.Term("sigctx: signature anchor already installed")
	}
	return nil
}

// Current returns the installed signature, or false if none has been
// installed yet.
func Current() (*signature.Signature, bool) {
	sig := anchor.Load()
	return sig, sig != nil
}

// RebindFunction resolves name against the installed anchor, the
// operation persistence uses to turn a serialized function name back
// into a live *signature.FunctionSymbol (spec.md §4.I, §6 "Persistence").
// Rebinding is by name only: the persisted form carries no resistant id,
// and none is checked. Fails loudly on an unknown symbol or an
// uninstalled anchor.
func RebindFunction(name string) (*signature.FunctionSymbol, error) {
	sig, ok := Current()
	if !ok {
		return nil, ferr.Term("sigctx: no signature anchor installed")
	}
	fn, ok := sig.Lookup(name)
	if !ok {
		return nil, ferr.Term("unknown symbol %q", name)
	}
	return fn, nil
}
