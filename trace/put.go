// Package trace implements the engine that steps a sequence of
// Input/Output actions across agents, wiring evaluator output into PUT
// streams and harvesting knowledge and claims after each step (spec.md
// §4.G, §6).
package trace

import (
	"sync"

	"golang.org/x/mod/semver"

	"github.com/arkenfold/symterm/claim"
	"github.com/arkenfold/symterm/ferr"
)

// PutName is the identifier naming a registered PUT factory (spec.md §6
// "PUT registry"). It is a plain string: its width and character set are
// not checked.
type PutName string

// PutDescriptor names which PUT to spawn, with free-form options
// (spec.md §6).
type PutDescriptor struct {
	Name    PutName
	Options map[string]string
	// MinVersion, if set, must be <= the spawned PUT's Version() under
	// golang.org/x/mod/semver ordering, or New fails (spec.md §9's PUT
	// descriptor version pinning, carried into SPEC_FULL's domain stack).
	MinVersion string
}

// Put is the narrow PUT handle contract spec.md §6 specifies: a black
// box reached through progress/reset/I/O/state methods.
type Put interface {
	Progress() error
	Reset(desc AgentDescriptor) error
	RenameAgent(newName string) error
	DescribeState() (string, error)
	InboundWrite(b []byte) (int, error)
	OutboundRead() ([]byte, error)
	IsStateSuccessful() bool
	Shutdown() (string, error)
	Version() string
}

// PutFactory constructs a Put instance for desc, wiring claimCallback so
// the PUT can report claims (spec.md §9 "Claims via callback").
type PutFactory func(desc PutDescriptor, claimCallback func(claim.Claim)) (Put, error)

// PutRegistry is the set of PUT factories keyed by PutName (spec.md §6).
type PutRegistry struct {
	mu        sync.RWMutex
	factories map[PutName]PutFactory
}

// NewPutRegistry creates an empty registry.
func NewPutRegistry() *PutRegistry {
	return &PutRegistry{factories: make(map[PutName]PutFactory)}
}

// Register installs a factory under name, following the teacher's
// decorator.Register global-registration idiom.
func (r *PutRegistry) Register(name PutName, factory PutFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// New spawns a Put from desc, validating desc.MinVersion against the
// spawned instance's Version() when set.
func (r *PutRegistry) New(desc PutDescriptor, claimCallback func(claim.Claim)) (Put, error) {
	r.mu.RLock()
	factory, ok := r.factories[desc.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, ferr.Put("no PUT registered under name %q", desc.Name)
	}

	put, err := factory(desc, claimCallback)
	if err != nil {
		return nil, ferr.Put("constructing PUT %q: %v", desc.Name, err)
	}

	if desc.MinVersion != "" {
		v := put.Version()
		if !semver.IsValid(normalizeSemver(v)) || !semver.IsValid(normalizeSemver(desc.MinVersion)) {
			return nil, ferr.Put("PUT %q reports unparseable version %q (need >= %s)", desc.Name, v, desc.MinVersion)
		}
		if semver.Compare(normalizeSemver(v), normalizeSemver(desc.MinVersion)) < 0 {
			return nil, ferr.Put("PUT %q version %s below required minimum %s", desc.Name, v, desc.MinVersion)
		}
	}
	return put, nil
}

func normalizeSemver(v string) string {
	if len(v) > 0 && v[0] != 'v' {
		return "v" + v
	}
	return v
}
