// Package sumcheck verifies a multi-round sumcheck proof: a reduction of
// the claim sum_{b in {0,1}^numVars} g(b) = s0 down to a single evaluation
// g(r_0,...,r_{numVars-1}) at a transcript-derived random point.
package sumcheck

import (
	"errors"
	"fmt"

	"github.com/vocdoni/sqlsnark-verify/field"
	"github.com/vocdoni/sqlsnark-verify/transcript"
)

var (
	ErrInvalidProofSize        = errors.New("sumcheck: invalid proof size")
	ErrRoundEvaluationMismatch = errors.New("sumcheck: round evaluation mismatch")
)

// Proof holds, per round, the degree+1 coefficients of that round's
// polynomial in canonical (monomial) form. len(Rounds) must equal numVars
// and each round must carry degree+1 coefficients.
type Proof struct {
	Rounds [][]field.Element
}

// Subclaim is the output of a verified sumcheck: the random evaluation
// point drawn round by round, and the terminal expected evaluation the
// caller's polynomial identity must reproduce at that point.
type Subclaim struct {
	EvaluationPoint    []field.Element
	ExpectedEvaluation field.Element
}

// ParseProof splits the proof's flat coefficient buffer into per-round
// polynomials, validating that it contains exactly numVars*(degree+1)
// field elements.
func ParseProof(coeffs []field.Element, numVars, degree int) (Proof, error) {
	want := numVars * (degree + 1)
	if len(coeffs) != want {
		return Proof{}, fmt.Errorf("%w: got %d elements, want %d (numVars=%d, degree=%d)",
			ErrInvalidProofSize, len(coeffs), want, numVars, degree)
	}
	rounds := make([][]field.Element, numVars)
	for i := 0; i < numVars; i++ {
		rounds[i] = coeffs[i*(degree+1) : (i+1)*(degree+1)]
	}
	return Proof{Rounds: rounds}, nil
}

// Verify runs the sumcheck protocol over numVars rounds, appending each
// round's coefficients to the transcript before drawing that round's
// challenge, and returns the resulting subclaim along with the transcript
// state after the final draw.
func Verify(s transcript.State, proof Proof, numVars, degree int, claimedSum field.Element) (Subclaim, transcript.State, error) {
	if len(proof.Rounds) != numVars {
		return Subclaim{}, s, fmt.Errorf("%w: got %d rounds, want %d", ErrInvalidProofSize, len(proof.Rounds), numVars)
	}

	point := make([]field.Element, 0, numVars)
	cur := claimedSum

	for i := 0; i < numVars; i++ {
		round := proof.Rounds[i]
		if len(round) != degree+1 {
			return Subclaim{}, s, fmt.Errorf("%w: round %d has %d coefficients, want %d",
				ErrInvalidProofSize, i, len(round), degree+1)
		}

		s = transcript.AppendElements(s, round)

		var r field.Element
		r, s = transcript.DrawChallenge(s)

		g0plusg1 := roundSumAtZeroAndOne(round)
		if !g0plusg1.Equal(cur) {
			return Subclaim{}, s, fmt.Errorf("%w: round %d", ErrRoundEvaluationMismatch, i)
		}

		cur = hornerEval(round, r)
		point = append(point, r)
	}

	return Subclaim{EvaluationPoint: point, ExpectedEvaluation: cur}, s, nil
}

// roundSumAtZeroAndOne computes g(0)+g(1) = 2*g[0] + sum_{k>=1} g[k] for a
// round polynomial stored as monomial coefficients g[0],g[1],...,g[degree].
func roundSumAtZeroAndOne(coeffs []field.Element) field.Element {
	sum := field.Add(coeffs[0], coeffs[0])
	for k := 1; k < len(coeffs); k++ {
		sum = field.Add(sum, coeffs[k])
	}
	return sum
}

// hornerEval evaluates the monomial-form polynomial with the given
// coefficients (low-degree first) at r via Horner's method.
func hornerEval(coeffs []field.Element, r field.Element) field.Element {
	acc := field.Zero()
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = field.Add(field.Mul(acc, r), coeffs[i])
	}
	return acc
}
