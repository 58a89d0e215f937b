// Package transcript implements the public-coin Fiat-Shamir transcript that
// seeds every challenge drawn by the sumcheck and HyperKZG verifiers. The
// transcript is a pure value: every operation returns the next state rather
// than mutating shared memory, so callers own their own copy end to end.
package transcript

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/sqlsnark-verify/field"
)

// State is the 32-byte accumulated Fiat-Shamir state.
type State [32]byte

// New seeds a transcript from an initial 32-byte value, typically
// keccak256(query || schema || commitments || sigma).
func New(seed [32]byte) State {
	return State(seed)
}

// AppendBytes folds an arbitrary byte range into the transcript:
// state' = keccak256(state || bytes).
func AppendBytes(s State, b []byte) State {
	buf := make([]byte, 0, len(s)+len(b))
	buf = append(buf, s[:]...)
	buf = append(buf, b...)
	return State(crypto.Keccak256Hash(buf))
}

// AppendCalldata is semantically identical to AppendBytes; it exists so
// callers that are walking a serialized calldata-shaped buffer (the proof,
// the plan) can name the operation the way the protocol names it.
func AppendCalldata(s State, b []byte) State {
	return AppendBytes(s, b)
}

// AppendUint64 appends n as 8 big-endian bytes.
func AppendUint64(s State, n uint64) State {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return AppendBytes(s, b[:])
}

// AppendElement appends a field element as its 32-byte big-endian encoding.
func AppendElement(s State, e field.Element) State {
	b := e.Bytes32()
	return AppendBytes(s, b[:])
}

// AppendElements appends each element in order.
func AppendElements(s State, es []field.Element) State {
	for _, e := range es {
		s = AppendElement(s, e)
	}
	return s
}

// DrawChallenge draws one field challenge and advances the transcript:
// c = (state & MODULUS_MASK) mod q, state' = keccak256(state).
func DrawChallenge(s State) (field.Element, State) {
	raw := new(big.Int).SetBytes(s[:])
	raw.And(raw, field.ModulusMask)
	c := field.FromBigInt(raw)
	next := State(crypto.Keccak256Hash(s[:]))
	return c, next
}

// DrawChallenges draws n successive challenges, returning them in draw
// order along with the resulting state. Equivalent to n calls to
// DrawChallenge.
func DrawChallenges(s State, n int) ([]field.Element, State) {
	out := make([]field.Element, n)
	for i := 0; i < n; i++ {
		out[i], s = DrawChallenge(s)
	}
	return out, s
}
