package trace_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arkenfold/symterm/claim"
	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/ferr"
	"github.com/arkenfold/symterm/internal/fakeput"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/term"
	"github.com/arkenfold/symterm/trace"
	"github.com/arkenfold/symterm/typeshape"
)

func buildWireSignature(t *testing.T) (*signature.Signature, *signature.FunctionSymbol) {
	t.Helper()
	sig := signature.New()
	sendHello, err := sig.NewFunction(dynfunc.Describe0(sig.Types, "fn_client_hello", func() ([]byte, error) {
		return []byte("client-hello"), nil
	}))
	require.NoError(t, err)
	return sig, sendHello
}

func putRegistryFor(types *typeshape.Registry) *trace.PutRegistry {
	reg := trace.NewPutRegistry()
	reg.Register("fake", fakeput.Factory(types))
	return reg
}

// testContext builds a derived, cancellable context for Execute: Execute
// rejects the raw context.Background() singleton (invariant.ContextNotBackground),
// since only a true root entry point — not an internal call — should
// ever hand it a fresh context with no derivation.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func TestExecuteSingleInputOutputStep(t *testing.T) {
	sig, sendHello := buildWireSignature(t)

	tr := &trace.Trace{
		ID: uuid.Nil,
		Agents: []trace.AgentDescriptor{
			{Name: "agent_0", Role: trace.RoleClient, Put: trace.PutDescriptor{Name: "fake", Options: map[string]string{"agent_name": "agent_0"}}},
		},
		Steps: []trace.Step{
			{Agent: "agent_0", Recipe: term.NewApplication(sendHello, nil)},
			{Agent: "agent_0", IsOutput: true},
		},
	}

	tc := trace.NewContext(sig.Types)
	registry := putRegistryFor(sig.Types)

	err := tr.Execute(testContext(t), tc, registry, trace.NoPolicy{}, nil, nil)
	require.Nil(t, err)
	require.Equal(t, 1, tc.Knowledge.Len())
}

func TestExecuteUnknownAgentFails(t *testing.T) {
	sig, sendHello := buildWireSignature(t)
	tr := &trace.Trace{
		ID:    uuid.Nil,
		Steps: []trace.Step{{Agent: "ghost", Recipe: term.NewApplication(sendHello, nil)}},
	}
	tc := trace.NewContext(sig.Types)
	registry := putRegistryFor(sig.Types)

	err := tr.Execute(testContext(t), tc, registry, trace.NoPolicy{}, nil, nil)
	require.NotNil(t, err)
}

func TestExecuteSecurityPolicyViolationIsFatal(t *testing.T) {
	sig, sendHello := buildWireSignature(t)
	tr := &trace.Trace{
		ID: uuid.Nil,
		Agents: []trace.AgentDescriptor{
			{Name: "agent_0", Put: trace.PutDescriptor{Name: "fake", Options: map[string]string{
				"agent_name":                  "agent_0",
				fakeput.OptClaimAfterWrites: "1",
			}}},
		},
		Steps: []trace.Step{
			{Agent: "agent_0", Recipe: term.NewApplication(sendHello, nil)},
		},
	}

	tc := trace.NewContext(sig.Types)
	registry := putRegistryFor(sig.Types)

	policy := trace.PolicyFunc(func(claims []claim.Claim) (string, bool) {
		for _, c := range claims {
			if c.Agent == "agent_0" {
				return "transcript claim observed", true
			}
		}
		return "", false
	})

	err := tr.Execute(testContext(t), tc, registry, policy, nil, nil)
	require.NotNil(t, err)
	require.True(t, ferr.IsFatal(err))
}

func TestExecutePriorTracesComposeBeforeSteps(t *testing.T) {
	sig, sendHello := buildWireSignature(t)
	registry := putRegistryFor(sig.Types)

	inner := &trace.Trace{
		ID: uuid.Nil,
		Agents: []trace.AgentDescriptor{
			{Name: "agent_0", Put: trace.PutDescriptor{Name: "fake", Options: map[string]string{"agent_name": "agent_0"}}},
		},
		Steps: []trace.Step{
			{Agent: "agent_0", Recipe: term.NewApplication(sendHello, nil)},
		},
	}
	outer := &trace.Trace{
		ID:          uuid.Nil,
		PriorTraces: []*trace.Trace{inner},
		Steps: []trace.Step{
			{Agent: "agent_0", IsOutput: true},
		},
	}

	tc := trace.NewContext(sig.Types)
	err := outer.Execute(testContext(t), tc, registry, trace.NoPolicy{}, nil, nil)
	require.Nil(t, err)
	require.Equal(t, 1, tc.Knowledge.Len())
}

func TestExecuteCycleDetected(t *testing.T) {
	a := &trace.Trace{ID: uuid.Nil}
	b := &trace.Trace{ID: uuid.Nil, PriorTraces: []*trace.Trace{a}}
	a.PriorTraces = []*trace.Trace{b}

	tc := trace.NewContext(typeshape.NewRegistry())
	registry := trace.NewPutRegistry()
	err := a.Execute(testContext(t), tc, registry, trace.NoPolicy{}, nil, nil)
	require.NotNil(t, err)
}
