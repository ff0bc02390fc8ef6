// Package persist serializes a Term tree to and from a durable wire form
// (spec.md §6 "Persistence"): function symbols rebind by name against the
// process-wide signature anchor, and variable type shapes rebind by
// display name against the signature's type registry. Two codecs are
// offered side by side, following the teacher's own two-format split
// (human-readable JSON for its decorator descriptors, canonical CBOR for
// its plan format's deterministic hashing): JSON for inspection and
// tooling, CBOR for compact, byte-stable storage.
package persist

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/arkenfold/symterm/ferr"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/sigctx"
	"github.com/arkenfold/symterm/term"
	"github.com/arkenfold/symterm/typeshape"
)

// wireVersion tags the envelope format; bumped on any incompatible wire
// change so a future decoder can reject or migrate an old payload.
const wireVersion = 1

// Kind discriminates a WireTerm's two shapes on the wire, mirroring
// term.Kind without importing the term package's unexported
// representation.
type Kind string

const (
	KindVariable    Kind = "variable"
	KindApplication Kind = "application"
)

// WireQuery is the wire form of signature.Query. Query.Matcher is a
// protocol-specific predicate with no general serialization (spec.md
// leaves Matcher external to this module) — a round-tripped term always
// decodes with signature.AnyMatcher{}, the least specific matcher,
// rather than attempting to reconstruct whatever matcher produced the
// original term. Callers that need matcher-aware persistence must
// re-attach a matcher themselves after Decode.
type WireQuery struct {
	Agent      string `json:"agent,omitempty" cbor:"agent,omitempty"`
	Counter    int    `json:"counter,omitempty" cbor:"counter,omitempty"`
	HasCounter bool   `json:"has_counter,omitempty" cbor:"has_counter,omitempty"`
}

// WireTerm is the wire form of a *term.Term. Variable nodes carry their
// declared type's display name and query; Application nodes carry their
// function symbol's display name and an ordered argument list.
type WireTerm struct {
	Kind Kind `json:"kind" cbor:"kind"`

	TypeName string    `json:"type,omitempty" cbor:"type,omitempty"`
	Query    WireQuery `json:"query,omitempty" cbor:"query,omitempty"`

	Function string     `json:"function,omitempty" cbor:"function,omitempty"`
	Args     []WireTerm `json:"args,omitempty" cbor:"args,omitempty"`
}

// Envelope wraps a WireTerm with the format version, so Decode can reject
// a payload from an incompatible future version instead of misreading it.
type Envelope struct {
	Version int      `json:"version" cbor:"version"`
	Root    WireTerm `json:"root" cbor:"root"`
}

// ToWire converts a live Term tree into its wire form.
func ToWire(t *term.Term) WireTerm {
	if v, ok := t.Variable(); ok {
		return WireTerm{
			Kind:     KindVariable,
			TypeName: v.TypeShape.Name(),
			Query: WireQuery{
				Agent:      v.Query.Agent,
				Counter:    v.Query.Counter,
				HasCounter: v.Query.HasCounter,
			},
		}
	}

	fn, _ := t.Function()
	subterms := t.Subterms()
	args := make([]WireTerm, len(subterms))
	for i, sub := range subterms {
		args[i] = ToWire(sub)
	}
	return WireTerm{Kind: KindApplication, Function: fn.Name(), Args: args}
}

// FromWire rebinds a WireTerm against types (for variable type shapes)
// and the process-wide signature anchor (for function symbols), via
// sigctx.RebindFunction (spec.md §4.I, §6).
func FromWire(w WireTerm, types *typeshape.Registry) (*term.Term, error) {
	switch w.Kind {
	case KindVariable:
		shape, ok := types.Lookup(w.TypeName)
		if !ok {
			return nil, ferr.Term("persist: unknown type %q on deserialize", w.TypeName).WithContext("type", w.TypeName)
		}
		v := &signature.VariableSymbol{
			TypeShape: shape,
			Query: signature.Query{
				Agent:      w.Query.Agent,
				Counter:    w.Query.Counter,
				HasCounter: w.Query.HasCounter,
				Matcher:    signature.AnyMatcher{},
			},
		}
		return term.NewVariable(v), nil

	case KindApplication:
		fn, err := sigctx.RebindFunction(w.Function)
		if err != nil {
			return nil, err
		}
		args := make([]*term.Term, len(w.Args))
		for i, wArg := range w.Args {
			sub, err := FromWire(wArg, types)
			if err != nil {
				return nil, err
			}
			args[i] = sub
		}
		return term.NewApplication(fn, args), nil

	default:
		return nil, ferr.Term("persist: unknown wire term kind %q", w.Kind)
	}
}

// EncodeJSON serializes t to its JSON envelope form.
func EncodeJSON(t *term.Term) ([]byte, error) {
	env := Envelope{Version: wireVersion, Root: ToWire(t)}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("persist: encoding JSON: %w", err)
	}
	return data, nil
}

// DecodeJSON parses data as a JSON envelope, validates it against the
// envelope schema (see schema.go), and rebinds it into a live Term
// against types.
func DecodeJSON(data []byte, types *typeshape.Registry) (*term.Term, error) {
	if err := ValidateEnvelope(data); err != nil {
		return nil, fmt.Errorf("persist: schema validation: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("persist: decoding JSON: %w", err)
	}
	if env.Version != wireVersion {
		return nil, ferr.Term("persist: unsupported envelope version %d", env.Version)
	}
	return FromWire(env.Root, types)
}

// cborEncMode is the canonical, deterministic CBOR encoding mode: same
// term, same bytes, every time (grounded in the teacher's
// planfmt.CanonicalPlan.MarshalBinary, which reaches for
// cbor.CanonicalEncOptions for exactly this reason).
var cborEncMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("persist: building canonical CBOR encoder: %v", err))
	}
	return mode
}()

// EncodeCBOR serializes t to its canonical binary envelope form.
func EncodeCBOR(t *term.Term) ([]byte, error) {
	env := Envelope{Version: wireVersion, Root: ToWire(t)}
	data, err := cborEncMode.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("persist: encoding CBOR: %w", err)
	}
	return data, nil
}

// DecodeCBOR parses data as a CBOR envelope and rebinds it into a live
// Term against types. CBOR payloads skip JSON Schema validation (the
// schema is JSON-shaped); a malformed payload instead fails at
// cbor.Unmarshal or at FromWire's symbol rebinding.
func DecodeCBOR(data []byte, types *typeshape.Registry) (*term.Term, error) {
	var env Envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("persist: decoding CBOR: %w", err)
	}
	if env.Version != wireVersion {
		return nil, ferr.Term("persist: unsupported envelope version %d", env.Version)
	}
	return FromWire(env.Root, types)
}
