// Package fixture builds a small, fully-wired TLS-flavored Signature for
// exercising the evaluator, trace engine, and term zoo against something
// richer than a synthetic single-function signature. It is grounded in
// the original implementation's test_signature module (puffin's
// algebra/mod.rs): the same function names, arities, and nesting shape
// used by its own term-construction tests, plus a few more of that
// module's helper constructors (fn_new_cipher_suites, fn_compressions,
// fn_client_extensions_new, ...) needed to build a closed fn_client_hello
// term. Unlike the original's stub bodies (every fn_* there returns a
// zero-value marker struct), this package gives each function a real,
// deterministic body so the functions are fit to exercise the evaluator
// end to end rather than merely type-check.
package fixture

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/arkenfold/symterm/dynfunc"
	"github.com/arkenfold/symterm/ferr"
	"github.com/arkenfold/symterm/invariant"
	"github.com/arkenfold/symterm/primitives"
	"github.com/arkenfold/symterm/signature"
)

// Domain types, one per distinct return shape the fixture signature's
// functions produce. Each is a named slice/array rather than a bare
// []byte so the type registry gives fn_hmac256's key argument a shape
// distinct from fn_client_hello's session id, even though both are
// byte slices underneath.
type (
	HmacKey          []byte
	HandshakeMessage []byte
	ProtocolVersion  uint16
	Random           [32]byte
	SessionID        []byte
	CipherSuites     []uint16
	Compressions     []uint8
	ClientExtension  []byte
	ClientExtensions [][]byte
)

const protocolVersion12 ProtocolVersion = 0x0303

func fnHMAC256NewKey() (HmacKey, error) {
	key, err := primitives.NewHMACKey()
	if err != nil {
		return nil, err
	}
	return HmacKey(key), nil
}

func fnHMAC256(key HmacKey, msg []byte) ([]byte, error) {
	return primitives.HMAC256([]byte(key), msg)
}

func fnProtocolVersion12() (ProtocolVersion, error) {
	return protocolVersion12, nil
}

func fnNewSessionID() (SessionID, error) {
	id := make([]byte, 32)
	if _, err := rand.Read(id); err != nil {
		return nil, ferr.NewFnError(ferr.FnCrypto, "generating session id: %v", err)
	}
	return SessionID(id), nil
}

func fnNewRandom() (Random, error) {
	var r Random
	if _, err := rand.Read(r[:]); err != nil {
		return r, ferr.NewFnError(ferr.FnCrypto, "generating random: %v", err)
	}
	return r, nil
}

func fnClientExtensionsAppend(exts ClientExtensions, ext ClientExtension) (ClientExtensions, error) {
	out := make(ClientExtensions, 0, len(exts)+1)
	out = append(out, exts...)
	out = append(out, []byte(ext))
	return out, nil
}

func fnClientExtensionsNew() (ClientExtensions, error) {
	return ClientExtensions{}, nil
}

func fnNewCipherSuites() (CipherSuites, error) {
	return CipherSuites{}, nil
}

// fnCipherSuite12 is the one cipher suite value the fixture knows about:
// TLS_RSA_WITH_AES_128_CBC_SHA, chosen only because it is a recognizable
// non-zero constant, not because this module makes any claim about
// cipher suite correctness (spec.md's Non-goals exclude that).
func fnCipherSuite12() (uint16, error) {
	return 0x002F, nil
}

func fnAppendCipherSuite(suites CipherSuites, suite uint16) (CipherSuites, error) {
	out := make(CipherSuites, 0, len(suites)+1)
	out = append(out, suites...)
	out = append(out, suite)
	return out, nil
}

func fnCompressions() (Compressions, error) {
	return Compressions{0}, nil
}

func fnEmptyBytesVec() ([]byte, error) {
	return []byte{}, nil
}

func fnClientHello(version ProtocolVersion, random Random, id SessionID, suites CipherSuites, compressions Compressions, extensions ClientExtensions) (HandshakeMessage, error) {
	msg := make([]byte, 0, 2+len(random)+1+len(id)+2*len(suites)+len(compressions)+extensionsLen(extensions))
	msg = binary.BigEndian.AppendUint16(msg, uint16(version))
	msg = append(msg, random[:]...)
	msg = append(msg, byte(len(id)))
	msg = append(msg, id...)
	for _, suite := range suites {
		msg = binary.BigEndian.AppendUint16(msg, suite)
	}
	msg = append(msg, compressions...)
	for _, ext := range extensions {
		msg = append(msg, ext...)
	}
	return HandshakeMessage(msg), nil
}

func extensionsLen(exts ClientExtensions) int {
	total := 0
	for _, e := range exts {
		total += len(e)
	}
	return total
}

// finishedLabel is the fixed payload fn_finished emits: a handshake
// message has no preceding arguments to vary it, so the fixture uses a
// constant label rather than a per-call random, matching the original's
// fn_finished() -> Ok(HandshakeMessage) (a single, content-free marker).
var finishedLabel = []byte("finished")

func fnFinished() (HandshakeMessage, error) {
	out := make(HandshakeMessage, len(finishedLabel))
	copy(out, finishedLabel)
	return out, nil
}

// Build assembles the fixture signature: the original's test_signature
// function names (fn_hmac256_new_key, fn_hmac256, fn_client_hello,
// fn_finished, fn_protocol_version12, fn_new_session_id, fn_new_random,
// fn_client_extensions_append, fn_client_extensions_new,
// fn_new_cipher_suites, fn_cipher_suite12, fn_append_cipher_suite,
// fn_compressions, fn_empty_bytes_vec), each wired to a real body
// instead of a stub.
func Build() (*signature.Signature, error) {
	sig := signature.New()
	reg := sig.Types

	descriptions := []dynfunc.Described{
		dynfunc.Describe0(reg, "fn_hmac256_new_key", fnHMAC256NewKey),
		dynfunc.Describe2(reg, "fn_hmac256", fnHMAC256),
		dynfunc.Describe0(reg, "fn_protocol_version12", fnProtocolVersion12),
		dynfunc.Describe0(reg, "fn_new_session_id", fnNewSessionID),
		dynfunc.Describe0(reg, "fn_new_random", fnNewRandom),
		dynfunc.Describe2(reg, "fn_client_extensions_append", fnClientExtensionsAppend),
		dynfunc.Describe0(reg, "fn_client_extensions_new", fnClientExtensionsNew),
		dynfunc.Describe6(reg, "fn_client_hello", fnClientHello),
		dynfunc.Describe0(reg, "fn_finished", fnFinished),
		dynfunc.Describe0(reg, "fn_new_cipher_suites", fnNewCipherSuites),
		dynfunc.Describe0(reg, "fn_cipher_suite12", fnCipherSuite12),
		dynfunc.Describe2(reg, "fn_append_cipher_suite", fnAppendCipherSuite),
		dynfunc.Describe0(reg, "fn_compressions", fnCompressions),
		dynfunc.Describe0(reg, "fn_empty_bytes_vec", fnEmptyBytesVec),
	}
	for _, d := range descriptions {
		if _, err := sig.NewFunction(d); err != nil {
			return nil, err
		}
	}
	return sig, nil
}

// MustBuild is Build but panics on error, for package-level fixture
// wiring in tests that have no error path to return through.
func MustBuild() *signature.Signature {
	sig, err := Build()
	invariant.ExpectNoError(err, "building the fixture signature")
	return sig
}
