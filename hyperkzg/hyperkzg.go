// Package hyperkzg verifies a HyperKZG opening: a proof that a committed
// multilinear polynomial evaluates to a claimed value at a point, reduced
// to a single bilinear pairing check over BN254.
package hyperkzg

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/vocdoni/sqlsnark-verify/field"
	"github.com/vocdoni/sqlsnark-verify/transcript"
)

var (
	ErrInconsistentV       = errors.New("hyperkzg: inconsistent v-vector")
	ErrPairingCheckFailed  = errors.New("hyperkzg: pairing check failed")
	ErrEmptyPoint          = errors.New("hyperkzg: empty evaluation point")
	ErrBatchLengthMismatch = errors.New("hyperkzg: batch length mismatch")
	ErrMalformedSetup      = errors.New("hyperkzg: malformed verifier setup")
)

// Commitment is an affine G1 point committing to a multilinear polynomial.
type Commitment = bn254.G1Affine

// Triple is one row of the proof's v-vector: the polynomial's evaluations
// at (r, -r, r^2) for one folding level.
type Triple [3]field.Element

// Proof is the HyperKZG opening proof laid out as
// (com: [G1; ell-1], v: [F; 3*ell], w: [G1; 3]).
type Proof struct {
	Com []Commitment
	V   []Triple
	W   [3]Commitment
}

// VerifierSetup holds the verifier's half of the KZG trusted setup: the G2
// generator H and tau*H.
type VerifierSetup struct {
	H    bn254.G2Affine
	TauH bn254.G2Affine
}

// ParseSetup decodes a verifier setup from two BN254 G2 affine points encoded
// back to back in gnark-crypto's uncompressed form as produced by
// G2Affine.Marshal (128 bytes each, big-endian), H first then tau*H.
func ParseSetup(buf []byte) (VerifierSetup, error) {
	const pointSize = 128
	if len(buf) != 2*pointSize {
		return VerifierSetup{}, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedSetup, len(buf), 2*pointSize)
	}
	var setup VerifierSetup
	if _, err := setup.H.SetBytes(buf[:pointSize]); err != nil {
		return VerifierSetup{}, fmt.Errorf("%w: H: %v", ErrMalformedSetup, err)
	}
	if _, err := setup.TauH.SetBytes(buf[pointSize:]); err != nil {
		return VerifierSetup{}, fmt.Errorf("%w: tau*H: %v", ErrMalformedSetup, err)
	}
	return setup, nil
}

// Verify checks that commitment c opens to value y at point x.
func Verify(s transcript.State, setup VerifierSetup, proof Proof, c Commitment, x []field.Element, y field.Element) error {
	ell := len(x)
	if ell == 0 {
		return ErrEmptyPoint
	}
	if len(proof.Com) != ell-1 {
		return fmt.Errorf("%w: got %d auxiliary commitments, want %d", ErrInconsistentV, len(proof.Com), ell-1)
	}
	if len(proof.V) != ell {
		return fmt.Errorf("%w: got %d v-triples, want %d", ErrInconsistentV, len(proof.V), ell)
	}

	// Step 1: transcript absorb/draw chain.
	s = absorbCommitments(s, proof.Com)
	r, s := transcript.DrawChallenge(s)
	s = absorbTriples(s, proof.V)
	q, s := transcript.DrawChallenge(s)
	s = absorbCommitments(s, proof.W[:])
	d, _ := transcript.DrawChallenge(s)

	// Step 2: V-consistency.
	cur := y
	for i := 0; i < ell; i++ {
		v0, v1 := proof.V[i][0], proof.V[i][1]
		rx := field.Mul(r, field.Sub(field.One(), x[i]))
		lhs := field.Add(field.Mul(rx, field.Add(v0, v1)), field.Mul(x[i], field.Sub(v0, v1)))
		if !lhs.Equal(cur) {
			return fmt.Errorf("%w: variable %d", ErrInconsistentV, i)
		}
		if i < ell-1 {
			cur = proof.V[i][2]
		}
	}

	// Step 3: bivariate evaluation V(q,d) = sum_i sum_j v[i][j] * q^i * d^j.
	vqd := bivariateEval(proof.V, q, d)

	// Step 4: univariate group evaluation.
	l := univariateL(proof.Com, c, q)
	r2 := univariateR(proof.W, r, d)

	// Step 5: pairing check e(L - [V(q,d)]*G, H) * e(-R, tau*H - d*H) == 1.
	var g bn254.G1Affine
	g.ScalarMultiplicationBase(big.NewInt(1))
	var vg bn254.G1Affine
	vg.ScalarMultiplication(&g, vqd.BigInt())
	var lhsG1 bn254.G1Affine
	lhsG1.Sub(&l, &vg)

	var dH bn254.G2Affine
	dH.ScalarMultiplication(&setup.H, d.BigInt())
	var rhsG2 bn254.G2Affine
	rhsG2.Sub(&setup.TauH, &dH)

	var negR bn254.G1Affine
	negR.Neg(&r2)

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{lhsG1, negR},
		[]bn254.G2Affine{setup.H, rhsG2},
	)
	if err != nil {
		return fmt.Errorf("hyperkzg: pairing: %w", err)
	}
	if !ok {
		return ErrPairingCheckFailed
	}
	return nil
}

// BatchVerify folds m (commitment, evaluation) pairs into a single pair
// using m-1 fresh transcript challenges {beta_k}, then verifies the fold.
func BatchVerify(s transcript.State, setup VerifierSetup, proof Proof, cs []Commitment, ys []field.Element, x []field.Element) error {
	if len(cs) != len(ys) {
		return fmt.Errorf("%w: %d commitments, %d evaluations", ErrBatchLengthMismatch, len(cs), len(ys))
	}
	if len(cs) == 0 {
		return fmt.Errorf("%w: empty batch", ErrBatchLengthMismatch)
	}

	c := cs[0]
	y := ys[0]
	if len(cs) > 1 {
		betas, next := transcript.DrawChallenges(s, len(cs)-1)
		s = next
		for k := 1; k < len(cs); k++ {
			beta := betas[k-1]
			var scaled bn254.G1Affine
			scaled.ScalarMultiplication(&cs[k], beta.BigInt())
			c.Add(&c, &scaled)
			y = field.Add(y, field.Mul(beta, ys[k]))
		}
	}

	return Verify(s, setup, proof, c, x, y)
}

func absorbCommitments(s transcript.State, pts []Commitment) transcript.State {
	for _, p := range pts {
		s = transcript.AppendBytes(s, p.Marshal())
	}
	return s
}

func absorbTriples(s transcript.State, triples []Triple) transcript.State {
	for _, t := range triples {
		for _, v := range t {
			s = transcript.AppendElement(s, v)
		}
	}
	return s
}

func bivariateEval(v []Triple, q, d field.Element) field.Element {
	result := field.Zero()
	qPow := field.One()
	for i := range v {
		dPow := field.One()
		for j := 0; j < 3; j++ {
			term := field.Mul(field.Mul(v[i][j], qPow), dPow)
			result = field.Add(result, term)
			dPow = field.Mul(dPow, d)
		}
		qPow = field.Mul(qPow, q)
	}
	return result
}

// univariateL computes L = sum_{i<ell-1} com_i * q^{i+1} + C*(q^2+q+1).
func univariateL(com []Commitment, c Commitment, q field.Element) bn254.G1Affine {
	var l bn254.G1Affine // identity

	qPow := q
	for i := range com {
		var term bn254.G1Affine
		term.ScalarMultiplication(&com[i], qPow.BigInt())
		l.Add(&l, &term)
		qPow = field.Mul(qPow, q)
	}

	q2 := field.Mul(q, q)
	coeff := field.Add(field.Add(q2, q), field.One())
	var cTerm bn254.G1Affine
	cTerm.ScalarMultiplication(&c, coeff.BigInt())
	l.Add(&l, &cTerm)
	return l
}

// univariateR computes R = w_0 + r*w_1 - (r*d)*w_1 + (r*d)^2*w_2.
func univariateR(w [3]Commitment, r, d field.Element) bn254.G1Affine {
	rd := field.Mul(r, d)
	rd2 := field.Mul(rd, rd)

	var term1 bn254.G1Affine
	term1.ScalarMultiplication(&w[1], r.BigInt())

	var term2 bn254.G1Affine
	term2.ScalarMultiplication(&w[1], rd.BigInt())

	var term3 bn254.G1Affine
	term3.ScalarMultiplication(&w[2], rd2.BigInt())

	var acc bn254.G1Affine
	acc.Add(&w[0], &term1)
	acc.Sub(&acc, &term2)
	acc.Add(&acc, &term3)
	return acc
}
