package persist_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkenfold/symterm/fixture"
	"github.com/arkenfold/symterm/persist"
	"github.com/arkenfold/symterm/signature"
	"github.com/arkenfold/symterm/sigctx"
	"github.com/arkenfold/symterm/term"
)

var anchorOnce sync.Once
var anchorSig *signature.Signature

// fixtureSignature installs the fixture signature as the process-wide
// anchor exactly once, since sigctx.Install errors on a second call
// (spec.md §4.I) and every test in this file needs the same anchor to
// rebind fn_* symbols on decode.
func fixtureSignature(t *testing.T) *signature.Signature {
	t.Helper()
	anchorOnce.Do(func() {
		sig, err := fixture.Build()
		require.NoError(t, err)
		require.NoError(t, sigctx.Install(sig))
		anchorSig = sig
	})
	return anchorSig
}

func TestJSONRoundTripPreservesClosedTerm(t *testing.T) {
	sig := fixtureSignature(t)

	keyTerm := term.NewApplication(lookupFn(t, sig, "fn_hmac256_new_key"), nil)
	msgTerm := term.NewApplication(lookupFn(t, sig, "fn_empty_bytes_vec"), nil)
	original := term.NewApplication(lookupFn(t, sig, "fn_hmac256"), []*term.Term{keyTerm, msgTerm})

	encoded, err := persist.EncodeJSON(original)
	require.NoError(t, err)

	decoded, err := persist.DecodeJSON(encoded, sig.Types)
	require.NoError(t, err)
	require.Equal(t, original.String(), decoded.String())

	reencoded, err := persist.EncodeJSON(decoded)
	require.NoError(t, err)
	require.JSONEq(t, string(encoded), string(reencoded))
}

func TestCBORRoundTripIsByteStable(t *testing.T) {
	sig := fixtureSignature(t)

	original := term.NewApplication(lookupFn(t, sig, "fn_finished"), nil)

	encoded1, err := persist.EncodeCBOR(original)
	require.NoError(t, err)
	encoded2, err := persist.EncodeCBOR(original)
	require.NoError(t, err)
	require.Equal(t, encoded1, encoded2)

	decoded, err := persist.DecodeCBOR(encoded1, sig.Types)
	require.NoError(t, err)
	require.Equal(t, original.String(), decoded.String())
}

func TestDecodeJSONRejectsUnknownFunction(t *testing.T) {
	sig := fixtureSignature(t)

	env := `{"version":1,"root":{"kind":"application","function":"fn_does_not_exist"}}`
	_, err := persist.DecodeJSON([]byte(env), sig.Types)
	require.Error(t, err)
}

func TestDecodeJSONRejectsSchemaViolation(t *testing.T) {
	sig := fixtureSignature(t)

	// "kind" missing entirely: fails the envelope schema before any
	// symbol rebinding is attempted.
	env := `{"version":1,"root":{"function":"fn_finished"}}`
	_, err := persist.DecodeJSON([]byte(env), sig.Types)
	require.Error(t, err)
}

func TestDecodeJSONRejectsUnsupportedVersion(t *testing.T) {
	sig := fixtureSignature(t)

	env := `{"version":99,"root":{"kind":"application","function":"fn_finished"}}`
	_, err := persist.DecodeJSON([]byte(env), sig.Types)
	require.Error(t, err)
}

func lookupFn(t *testing.T, sig *signature.Signature, name string) *signature.FunctionSymbol {
	t.Helper()
	fn, ok := sig.Lookup(name)
	require.True(t, ok, "missing function %s", name)
	return fn
}
