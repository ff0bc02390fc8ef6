// Package fakeput is an in-memory PUT implementation satisfying
// trace.Put: an echo server used to exercise the trace engine without a
// real TLS/SSH implementation, which spec.md treats as an external
// collaborator reached only through the PUT interface (spec.md §6,
// "Non-goals: correctness of cryptographic primitives"). Used by the
// trace package's own tests and by termctl's "trace" command, which has
// no real PUT to drive.
package fakeput

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"

	"github.com/arkenfold/symterm/claim"
	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/trace"
	"github.com/arkenfold/symterm/typeshape"
)

// Put is a trivial in-memory PUT: every InboundWrite's bytes, XORed with
// a fixed mask, become available from the next OutboundRead. It reports
// claims through the registered callback once a configurable number of
// writes have occurred, to exercise the trace engine's claim-drain and
// policy-check path.
type Put struct {
	mu sync.Mutex

	agentName      string
	inbound        bytes.Buffer
	outboundQueued [][]byte
	writeCount     int

	claimAfterWrites int
	claimShape       typeshape.Shape
	claimValue       []byte
	claimed          bool

	onClaim func(claim.Claim)
	closed  bool
}

// Options keys recognized by New.
const (
	OptClaimAfterWrites = "claim_after_writes"
)

// New constructs a fakeput.Put, satisfying trace.PutFactory.
func New(desc trace.PutDescriptor, onClaim func(claim.Claim), types *typeshape.Registry) (*Put, error) {
	p := &Put{
		agentName:  desc.Options["agent_name"],
		onClaim:    onClaim,
		claimShape: typeshape.For[[]byte](types),
		claimValue: []byte("fakeput-transcript-claim"),
	}
	if v, ok := desc.Options[OptClaimAfterWrites]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("fakeput: option %s must be a positive integer, got %q", OptClaimAfterWrites, v)
		}
		p.claimAfterWrites = n
	}
	return p, nil
}

// Factory adapts New to trace.PutFactory, closing over a shared type
// registry so every spawned Put tags its claim with a consistent shape.
func Factory(types *typeshape.Registry) trace.PutFactory {
	return func(desc trace.PutDescriptor, onClaim func(claim.Claim)) (trace.Put, error) {
		return New(desc, onClaim, types)
	}
}

func (p *Put) Progress() error { return nil }

func (p *Put) Reset(desc trace.AgentDescriptor) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.agentName = desc.Name
	p.inbound.Reset()
	p.outboundQueued = nil
	p.writeCount = 0
	p.claimed = false
	return nil
}

func (p *Put) RenameAgent(newName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.agentName = newName
	return nil
}

func (p *Put) DescribeState() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("fakeput(agent=%s, writes=%d)", p.agentName, p.writeCount), nil
}

func (p *Put) InboundWrite(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, fmt.Errorf("fakeput: write to closed PUT")
	}
	echoed := make([]byte, len(b))
	for i, c := range b {
		echoed[i] = c ^ 0x55
	}
	p.outboundQueued = append(p.outboundQueued, echoed)
	p.writeCount++

	if p.onClaim != nil && p.claimAfterWrites > 0 && p.writeCount >= p.claimAfterWrites && !p.claimed {
		p.claimed = true
		p.onClaim(claim.Claim{
			Agent: p.agentName,
			Value: dynfunc.NewCellFromShape(p.claimShape, append([]byte(nil), p.claimValue...)),
		})
	}
	return len(b), nil
}

func (p *Put) OutboundRead() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.outboundQueued) == 0 {
		return nil, nil
	}
	next := p.outboundQueued[0]
	p.outboundQueued = p.outboundQueued[1:]
	return next, nil
}

func (p *Put) IsStateSuccessful() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeCount > 0
}

func (p *Put) Shutdown() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return "fakeput shutdown", nil
}

func (p *Put) Version() string { return "v1.0.0" }
