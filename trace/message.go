package trace

import "errors"

// Message is a structured, parsed protocol message a PUT can reconstitute
// into wire form (spec.md §6 "Opaque and structured messages").
type Message interface {
	CreateOpaque() OpaqueMessage
}

// OpaqueMessage is an unparsed (or unparseable) message: the form the
// deframer always produces, and the form every knowledge item keyed by
// type = opaque falls back to when structured parsing fails (spec.md
// §4.G step 3, §6).
type OpaqueMessage interface {
	Encode() ([]byte, error)
	IntoMessage() (Message, error)
}

// RawMessage is the trivial OpaqueMessage: an undecoded byte slice. It is
// what MessageDeframer.PopFrame yields when no protocol-specific codec is
// wired in (spec.md explicitly treats wire codecs as an external
// collaborator; this module only carries the opaque form).
type RawMessage struct {
	Bytes []byte
}

func (m RawMessage) Encode() ([]byte, error) { return m.Bytes, nil }

// IntoMessage always fails for RawMessage: there is no structured codec
// in this module, so extraction degrades to the opaque-only path
// (spec.md §4.G step 3 "irrespective of parse success, keep the opaque
// form").
func (m RawMessage) IntoMessage() (Message, error) {
	return nil, errNoStructuredCodec
}

var errNoStructuredCodec = errors.New("trace: no structured message codec registered for this PUT")
