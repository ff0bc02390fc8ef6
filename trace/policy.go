package trace

import "github.com/arkenfold/symterm/claim"

// SecurityPolicy is checked after every step against the accumulated
// claims of every agent (spec.md §6 "Security policy", §4.G step 4). A
// reported violation (found == true) is fatal: the engine fails the trace
// with ferr.SecurityClaim carrying the violation message.
type SecurityPolicy interface {
	Eval(claims []claim.Claim) (violation string, found bool)
}

// NoPolicy never reports a violation; used where no security claim is
// under test.
type NoPolicy struct{}

func (NoPolicy) Eval([]claim.Claim) (string, bool) { return "", false }

// PolicyFunc adapts a plain function to SecurityPolicy.
type PolicyFunc func(claims []claim.Claim) (string, bool)

func (f PolicyFunc) Eval(claims []claim.Claim) (string, bool) { return f(claims) }
