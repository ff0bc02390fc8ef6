package eval_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/eval"
	"github.com/arkenfold/symterm/ferr"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/term"
	"github.com/arkenfold/symterm/typeshape"
)

// fakeResolver is a minimal eval.Resolver backed by plain maps, standing
// in for a trace.Context in isolation from the trace package.
type fakeResolver struct {
	byVar   map[typeshape.Shape]dynfunc.Cell
	byClaim map[string]map[typeshape.Shape]dynfunc.Cell
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		byVar:   make(map[typeshape.Shape]dynfunc.Cell),
		byClaim: make(map[string]map[typeshape.Shape]dynfunc.Cell),
	}
}

func (r *fakeResolver) FindVariable(shape typeshape.Shape, _ signature.Query) (dynfunc.Cell, bool) {
	c, ok := r.byVar[shape]
	return c, ok
}

func (r *fakeResolver) FindClaim(agent string, shape typeshape.Shape) (dynfunc.Cell, bool) {
	byShape, ok := r.byClaim[agent]
	if !ok {
		return dynfunc.Cell{}, false
	}
	c, ok := byShape[shape]
	return c, ok
}

// buildHMACSignature grounds spec.md §8 scenario 3 ("Evaluate HMAC"): a
// 2-ary function taking a key and a message, both []byte, returning a
// []byte MAC.
func buildHMACSignature(t *testing.T) (*signature.Signature, *signature.FunctionSymbol, *signature.FunctionSymbol) {
	t.Helper()
	sig := signature.New()

	newKey, err := sig.NewFunction(dynfunc.Describe0(sig.Types, "fn_hmac256_new_key", func() ([]byte, error) {
		return []byte("fixed-test-key"), nil
	}))
	require.NoError(t, err)

	hmac256, err := sig.NewFunction(dynfunc.Describe2(sig.Types, "fn_hmac256", func(key, msg []byte) ([]byte, error) {
		out := make([]byte, len(msg))
		for i := range msg {
			out[i] = msg[i] ^ 0xAA
		}
		return out, nil
	}))
	require.NoError(t, err)

	return sig, newKey, hmac256
}

func TestEvaluateHMACResolvesVariableFromKnowledge(t *testing.T) {
	sig, newKey, hmac256 := buildHMACSignature(t)

	byteShape := typeshape.For[[]byte](sig.Types)
	v := signature.NewVar[[]byte](sig, "agent_0", signature.Query{Counter: 0, HasCounter: true})

	tm := term.NewApplication(hmac256, []*term.Term{
		term.NewApplication(newKey, nil),
		term.NewVariable(v),
	})

	resolver := newFakeResolver()
	resolver.byVar[byteShape] = dynfunc.NewCell(sig.Types, []byte("hello"))

	result, evalErr := eval.Evaluate(tm, resolver, nil)
	require.Nil(t, evalErr)

	mac, ok := dynfunc.Downcast[[]byte](result)
	require.True(t, ok)
	require.Len(t, mac, len("hello"))
}

func TestEvaluateMissingVariableReturnsTermError(t *testing.T) {
	sig, newKey, hmac256 := buildHMACSignature(t)

	v := signature.NewVar[[]byte](sig, "agent_0", signature.Query{Counter: 0, HasCounter: true})
	tm := term.NewApplication(hmac256, []*term.Term{
		term.NewApplication(newKey, nil),
		term.NewVariable(v),
	})

	resolver := newFakeResolver()

	_, evalErr := eval.Evaluate(tm, resolver, nil)
	require.NotNil(t, evalErr)
	require.Equal(t, ferr.KindTerm, evalErr.Kind)
	require.Contains(t, evalErr.Error(), "Unable to find variable")
}

func TestEvaluateFallsBackToAgentClaimStore(t *testing.T) {
	sig, newKey, hmac256 := buildHMACSignature(t)
	byteShape := typeshape.For[[]byte](sig.Types)

	v := signature.NewVar[[]byte](sig, "agent_0", signature.Query{Counter: 0, HasCounter: true})
	tm := term.NewApplication(hmac256, []*term.Term{
		term.NewApplication(newKey, nil),
		term.NewVariable(v),
	})

	resolver := newFakeResolver()
	resolver.byClaim["agent_0"] = map[typeshape.Shape]dynfunc.Cell{
		byteShape: dynfunc.NewCell(sig.Types, []byte("claimed")),
	}

	result, evalErr := eval.Evaluate(tm, resolver, nil)
	require.Nil(t, evalErr)
	mac, ok := dynfunc.Downcast[[]byte](result)
	require.True(t, ok)
	require.Len(t, mac, len("claimed"))
}

func TestEvaluateSubtermFailurePropagates(t *testing.T) {
	sig := signature.New()
	boom, err := sig.NewFunction(dynfunc.Describe0(sig.Types, "fn_boom", func() (int, error) {
		return 0, ferr.NewFnError(ferr.FnCrypto, "simulated failure")
	}))
	require.NoError(t, err)
	wrap, err := sig.NewFunction(dynfunc.Describe1(sig.Types, "fn_wrap", func(n int) (int, error) {
		return n + 1, nil
	}))
	require.NoError(t, err)

	tm := term.NewApplication(wrap, []*term.Term{term.NewApplication(boom, nil)})

	_, evalErr := eval.Evaluate(tm, newFakeResolver(), nil)
	require.NotNil(t, evalErr)
	require.Equal(t, ferr.KindFn, evalErr.Kind)
}
