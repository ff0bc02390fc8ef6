// Package ferr defines the error taxonomy shared by the term evaluator and
// the trace engine. Every error that crosses a package boundary in this
// module is one of the Kinds below, wrapped with enough context to explain
// itself in a fuzzer crash log without a debugger attached.
package ferr

import (
	"errors"
	"fmt"
)

// Kind identifies which part of the pipeline produced an Error.
type Kind string

const (
	// KindFn means a host function raised a structured FnError.
	KindFn Kind = "fn"
	// KindTerm means variable resolution, unknown-symbol-on-deserialize,
	// or a term shape mismatch.
	KindTerm Kind = "term"
	// KindPut means a PUT factory or reset call failed.
	KindPut Kind = "put"
	// KindIO means the underlying agent stream failed.
	KindIO Kind = "io"
	// KindAgent means an agent lifecycle contract was violated.
	KindAgent Kind = "agent"
	// KindStream means the deframer or a message codec failed.
	KindStream Kind = "stream"
	// KindExtraction means extract_knowledge could not decompose a
	// message. Recoverable: the opaque form is still retained.
	KindExtraction Kind = "extraction"
	// KindSecurityClaim is fatal: the security policy reported a
	// violation. The process terminates after logging.
	KindSecurityClaim Kind = "security_claim"
)

// FnKind enumerates the host-function failure variants a dynamic function
// may report, independent of the taxonomy Kind that wraps it.
type FnKind string

const (
	FnMalformed FnKind = "malformed"
	FnCrypto    FnKind = "crypto"
	FnUnknown   FnKind = "unknown"
	FnImpl      FnKind = "impl"
)

// FnError is the structured failure a host function (wrapped by dynfunc)
// may return instead of a value.
type FnError struct {
	Variant FnKind
	Message string
}

func (e *FnError) Error() string {
	if e.Message == "" {
		return string(e.Variant)
	}
	return fmt.Sprintf("%s: %s", e.Variant, e.Message)
}

// NewFnError builds an FnError with the given variant and message.
func NewFnError(variant FnKind, format string, args ...any) *FnError {
	return &FnError{Variant: variant, Message: fmt.Sprintf(format, args...)}
}

// Error is the taxonomy-tagged error type returned by the evaluator and
// trace engine. Fields beyond Kind/Message are optional context, not part
// of the public contract — callers dispatch on Kind, not on Context.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind, so callers
// can do errors.Is(err, ferr.Fatal) style checks via sentinel wrapping if
// desired; the primary dispatch mechanism remains errors.As + Kind switch.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

func new_(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Context: make(map[string]any)}
}

func wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause, Context: make(map[string]any)}
}

// Term builds a KindTerm error (variable resolution, unknown symbol, shape
// mismatch).
func Term(format string, args ...any) *Error { return new_(KindTerm, format, args...) }

// Fn wraps a host function's FnError into the taxonomy.
func Fn(cause *FnError) *Error {
	return wrap(KindFn, cause, "function call failed")
}

// Put builds a KindPut error.
func Put(format string, args ...any) *Error { return new_(KindPut, format, args...) }

// IO wraps a stream I/O failure.
func IO(cause error, format string, args ...any) *Error {
	return wrap(KindIO, cause, format, args...)
}

// Agent builds a KindAgent lifecycle-violation error.
func Agent(format string, args ...any) *Error { return new_(KindAgent, format, args...) }

// Stream builds a KindStream deframer/codec error.
func Stream(format string, args ...any) *Error { return new_(KindStream, format, args...) }

// Extraction builds the recoverable KindExtraction error.
func Extraction(format string, args ...any) *Error { return new_(KindExtraction, format, args...) }

// SecurityClaim builds the fatal KindSecurityClaim error.
func SecurityClaim(format string, args ...any) *Error {
	return new_(KindSecurityClaim, format, args...)
}

// WithContext attaches a diagnostic key/value and returns the receiver for
// chaining, mirroring the teacher's DevCmdError.WithContext.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// KindOf extracts the Kind from err, if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsFatal reports whether err represents a SecurityClaim finding — the
// only error kind the trace engine's caller must treat as terminal.
func IsFatal(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindSecurityClaim
}
