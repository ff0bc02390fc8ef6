package trace

import "io"

// MessageDeframer splits a PUT's raw outbound byte stream into discrete
// messages (spec.md §6 "Message deframer"). Called by the trace engine on
// every Output step.
type MessageDeframer interface {
	// Read consumes bytes from src into the deframer's internal buffer,
	// returning the number of bytes consumed.
	Read(src io.Reader) (int, error)
	// PopFrame removes and returns the next complete message buffered by
	// Read, if any.
	PopFrame() (OpaqueMessage, bool)
	// Encode re-serializes whatever is left unconsumed in the internal
	// buffer, for diagnostics.
	Encode() []byte
}

// LengthPrefixedDeframer is a minimal MessageDeframer for PUTs that have
// no protocol-specific framing of their own: every Read call's bytes
// become exactly one frame. It exists so trace tests and the in-memory
// fake PUT have a deframer to exercise without a real wire codec
// (spec.md explicitly leaves TLS/SSH codecs external).
type LengthPrefixedDeframer struct {
	pending [][]byte
}

// NewLengthPrefixedDeframer creates an empty deframer.
func NewLengthPrefixedDeframer() *LengthPrefixedDeframer {
	return &LengthPrefixedDeframer{}
}

func (d *LengthPrefixedDeframer) Read(src io.Reader) (int, error) {
	buf, err := io.ReadAll(src)
	if err != nil {
		return 0, err
	}
	if len(buf) > 0 {
		d.pending = append(d.pending, buf)
	}
	return len(buf), nil
}

func (d *LengthPrefixedDeframer) PopFrame() (OpaqueMessage, bool) {
	if len(d.pending) == 0 {
		return nil, false
	}
	frame := d.pending[0]
	d.pending = d.pending[1:]
	return RawMessage{Bytes: frame}, true
}

func (d *LengthPrefixedDeframer) Encode() []byte {
	var total int
	for _, f := range d.pending {
		total += len(f)
	}
	out := make([]byte, 0, total)
	for _, f := range d.pending {
		out = append(out, f...)
	}
	return out
}
