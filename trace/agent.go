package trace

import (
	"github.com/arkenfold/symterm/claim"
	"github.com/arkenfold/symterm/ferr"
)

// Role is an agent's protocol role.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// AgentDescriptor declares an agent's name, role, protocol version
// preference, and which PUT to spawn (spec.md §3 "Agent descriptor").
type AgentDescriptor struct {
	Name            string
	Role            Role
	ProtocolVersion string
	Put             PutDescriptor
}

// State is an agent's lifecycle state (spec.md §4.G
// "New -> Ready -> (Reading | Writing)* -> Closed").
type State int

const (
	StateNew State = iota
	StateReady
	StateReading
	StateWriting
	StateClosed
)

// Agent owns one PUT instance plus its claim queue/store, and enforces
// the state machine spec.md §4.G names.
type Agent struct {
	Descriptor AgentDescriptor
	Put        Put
	Sink       *claim.Sink
	Claims     *claim.Store

	state State
}

// NewAgent wraps a freshly-constructed Put and its claim sink under desc,
// ready for I/O. The caller registers sink.Callback() with the PUT
// factory before or as part of constructing put (spec.md §9 "Claims via
// callback").
func NewAgent(desc AgentDescriptor, put Put, sink *claim.Sink) *Agent {
	return &Agent{
		Descriptor: desc,
		Put:        put,
		Sink:       sink,
		Claims:     claim.NewStore(),
		state:      StateReady,
	}
}

// State returns the agent's current lifecycle state.
func (a *Agent) State() State { return a.state }

// Write transitions to Writing and pushes b into the PUT's inbound
// stream. Fails with ferr.Agent if the agent is Closed (spec.md §4.G
// "Writing an input in Closed fails Agent(\"agent closed\")").
func (a *Agent) Write(b []byte) (int, error) {
	if a.state == StateClosed {
		return 0, ferr.Agent("agent %q is closed", a.Descriptor.Name)
	}
	a.state = StateWriting
	n, err := a.Put.InboundWrite(b)
	if err != nil {
		return n, ferr.IO(err, "writing to agent %q", a.Descriptor.Name)
	}
	return n, nil
}

// Read transitions to Reading and pulls the next chunk of outbound bytes
// from the PUT. Fails with ferr.Agent if the agent is Closed.
func (a *Agent) Read() ([]byte, error) {
	if a.state == StateClosed {
		return nil, ferr.Agent("agent %q is closed", a.Descriptor.Name)
	}
	a.state = StateReading
	b, err := a.Put.OutboundRead()
	if err != nil {
		return nil, ferr.IO(err, "reading from agent %q", a.Descriptor.Name)
	}
	return b, nil
}

// DrainClaims moves every claim currently queued in the agent's Sink into
// its Store, in arrival order (spec.md §4.G step 4).
func (a *Agent) DrainClaims() {
	for _, c := range a.Sink.Drain() {
		a.Claims.Append(c)
	}
}

// Close shuts the agent's PUT down and marks it Closed. Safe to call more
// than once; only the first call invokes Shutdown.
func (a *Agent) Close() error {
	if a.state == StateClosed {
		return nil
	}
	a.state = StateClosed
	if _, err := a.Put.Shutdown(); err != nil {
		return ferr.Put("shutting down agent %q: %v", a.Descriptor.Name, err)
	}
	return nil
}
