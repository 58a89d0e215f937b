// Package field implements arithmetic over the BN254 scalar field F_q, the
// field in which every verifier computation in this module takes place.
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Modulus is the BN254 scalar field prime q.
var Modulus = fr.Modulus()

// ModulusPlusOne is q+1.
var ModulusPlusOne = new(big.Int).Add(Modulus, big.NewInt(1))

// ModulusMinusOne is q-1.
var ModulusMinusOne = new(big.Int).Sub(Modulus, big.NewInt(1))

// ModulusMask is (1<<254)-1. A raw 256-bit hash output is ANDed with it to
// keep its low 254 bits; since q is below 2^254, the masked value can still
// be q or larger (about a quarter of the time), and converting it into an
// Element then reduces it modulo q.
var ModulusMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 254), big.NewInt(1))

// Element is an integer in [0, q). The zero value is the additive
// identity.
type Element struct {
	v big.Int
}

// Zero returns the additive identity.
func Zero() Element {
	return Element{}
}

// FromUint64 builds an element from a small unsigned integer.
func FromUint64(x uint64) Element {
	var e Element
	e.v.SetUint64(x)
	return e
}

// FromBigInt reduces x modulo q and returns the resulting element. x may be
// negative; negative plan literals are canonicalized this way.
func FromBigInt(x *big.Int) Element {
	var e Element
	e.v.Mod(x, Modulus)
	return e
}

// FromBytes reduces a big-endian byte string modulo q.
func FromBytes(b []byte) Element {
	return FromBigInt(new(big.Int).SetBytes(b))
}

// BigInt returns the element's canonical representative in [0, q).
func (e Element) BigInt() *big.Int {
	return new(big.Int).Set(&e.v)
}

// Bytes32 returns the element as a 32-byte big-endian array, the wire
// format used for every field element in the proof and plan streams.
func (e Element) Bytes32() [32]byte {
	var out [32]byte
	e.v.FillBytes(out[:])
	return out
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool {
	return e.v.Sign() == 0
}

// Equal reports whether e and o represent the same field element.
func (e Element) Equal(o Element) bool {
	return e.v.Cmp(&o.v) == 0
}

// Add returns e+o mod q.
func Add(a, b Element) Element {
	var out Element
	out.v.Add(&a.v, &b.v)
	out.v.Mod(&out.v, Modulus)
	return out
}

// Sub returns a-b mod q.
func Sub(a, b Element) Element {
	var out Element
	out.v.Sub(&a.v, &b.v)
	out.v.Mod(&out.v, Modulus)
	return out
}

// Mul returns a*b mod q.
func Mul(a, b Element) Element {
	var out Element
	out.v.Mul(&a.v, &b.v)
	out.v.Mod(&out.v, Modulus)
	return out
}

// Neg returns -a mod q.
func Neg(a Element) Element {
	var out Element
	out.v.Neg(&a.v)
	out.v.Mod(&out.v, Modulus)
	return out
}

// One returns the multiplicative identity.
func One() Element {
	return FromUint64(1)
}
