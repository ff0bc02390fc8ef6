// Package primitives provides the concrete cryptographic host functions
// the fixture signature builds on: HMAC-SHA256 key generation and
// tagging (spec.md §8 scenario 3 "Evaluate HMAC"). Spec.md's Non-goals
// exclude correctness of cryptographic primitives — this package wraps
// golang.org/x/crypto and stdlib crypto/hmac rather than reimplementing
// either, the same division of labor the teacher's planfmt.idfactory.go
// uses HKDF/SHA3 for key derivation instead of a hand-rolled KDF.
package primitives

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/arkenfold/symterm/ferr"
)

// HMACKeySize is the byte length of a generated HMAC-SHA256 key.
const HMACKeySize = 32

// NewHMACKey generates a fresh random HMAC-SHA256 key — the host function
// behind the fixture's fn_hmac256_new_key (spec.md §8 scenario 3).
func NewHMACKey() ([]byte, error) {
	key := make([]byte, HMACKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, ferr.NewFnError(ferr.FnCrypto, "generating HMAC key: %v", err)
	}
	return key, nil
}

// HMAC256 computes the HMAC-SHA256 tag of msg under key — the host
// function behind the fixture's fn_hmac256 (spec.md §8 scenario 3). key
// of zero length is rejected with FnMalformed, matching the dynfunc
// contract that host functions fail rather than panic on ill-formed
// input.
func HMAC256(key, msg []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ferr.NewFnError(ferr.FnMalformed, "HMAC key must not be empty")
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil), nil
}

// DeriveTranscriptKey derives a 32-byte key from an arbitrary-length
// transcript hash via HKDF-SHA3-256, grounded in the teacher's
// planfmt.NewPlanIDFactory's "digest -> HKDF -> derived key" pattern —
// repurposed here to ground claims that assert a derived secret, rather
// than a display-id namespace.
func DeriveTranscriptKey(transcriptHash []byte, info string) ([]byte, error) {
	if len(transcriptHash) == 0 {
		return nil, ferr.NewFnError(ferr.FnMalformed, "transcript hash must not be empty")
	}
	kdf := hkdf.New(sha3.New256, transcriptHash, nil, []byte(info))
	out := make([]byte, HMACKeySize)
	if _, err := kdf.Read(out); err != nil {
		return nil, ferr.NewFnError(ferr.FnCrypto, "deriving transcript key: %v", err)
	}
	return out, nil
}
