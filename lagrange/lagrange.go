// Package lagrange computes multilinear Lagrange basis evaluations and the
// truncated sums over them that the orchestrator and result verifier need to
// turn a sumcheck evaluation point into a row-mask or column evaluation.
package lagrange

import "github.com/vocdoni/sqlsnark-verify/field"

// TruncatedSum computes T(length, x, numVars) = sum_{i=0}^{length-1} chi_i(x),
// the evaluation of the indicator for the first `length` rows of a table of
// 2^numVars rows, at point x. Implemented in O(numVars) by peeling one
// variable per bit of length, consuming x from the low-order variable
// outward.
func TruncatedSum(length uint64, x []field.Element, numVars int) field.Element {
	if length == 0 {
		return field.Zero()
	}
	t := field.Zero()
	l := length
	n := numVars
	xs := x
	for n > 0 {
		x0 := xs[0]
		if l&1 == 0 {
			// T <- T * (1 - x0)
			t = field.Mul(t, field.Sub(field.One(), x0))
		} else {
			// T <- 1 - (1-T) * x0
			t = field.Sub(field.One(), field.Mul(field.Sub(field.One(), t), x0))
		}
		l >>= 1
		xs = xs[1:]
		n--
	}
	if l == 0 {
		return t
	}
	return field.One()
}

// EvalVec returns [chi_0(x), ..., chi_{length-1}(x)] for x in F^numVars,
// length <= 2^numVars, via the standard halving/doubling construction: the
// vector for k variables is built from the vector for k-1 variables by
// scaling the low half by (1-x_k) and the high half by x_k, consuming x from
// the low-order variable outward (x[0] first), matching TruncatedSum.
//
// Once the doubled vector's size reaches length, every remaining (higher-
// order) variable has bit 0 for every surviving index, so rather than keep
// doubling and discarding half the work, the rest are folded in as a single
// running (1-x_j) scalar.
func EvalVec(length uint64, x []field.Element) []field.Element {
	if length == 0 {
		return nil
	}
	out := make([]field.Element, 1, nextPow2(length))
	out[0] = field.One()
	i := 0
	for ; i < len(x); i++ {
		if uint64(len(out)) >= length {
			break
		}
		xi := x[i]
		next := make([]field.Element, len(out)*2)
		for j, v := range out {
			next[j] = field.Mul(v, field.Sub(field.One(), xi))
			next[len(out)+j] = field.Mul(v, xi)
		}
		out = next
	}
	if uint64(len(out)) > length {
		out = out[:length]
	}
	scale := field.One()
	for ; i < len(x); i++ {
		scale = field.Mul(scale, field.Sub(field.One(), x[i]))
	}
	if !scale.Equal(field.One()) {
		for j := range out {
			out[j] = field.Mul(out[j], scale)
		}
	}
	return out
}

// InnerProduct computes the truncated Lagrange inner product of x and y:
// sum_{i=0}^{length-1} chi_i(x) * chi_i(y), in O(numVars).
//
// Processed most-significant-variable first (x[numVars-1] down to x[0]):
// splitting the index range at the half-point leaves at most one truncated
// recursive call per level (the other half, when fully included, collapses
// to the closed-form product of per-variable "agreement" terms
// x_j*y_j + (1-x_j)*(1-y_j)), which is what keeps this linear in numVars
// rather than exponential.
func InnerProduct(length uint64, x, y []field.Element, numVars int) field.Element {
	if numVars == 0 {
		if length >= 1 {
			return field.One()
		}
		return field.Zero()
	}

	// agree[j] = x_j*y_j + (1-x_j)*(1-y_j)
	agree := make([]field.Element, numVars)
	for j := 0; j < numVars; j++ {
		both1 := field.Mul(x[j], y[j])
		both0 := field.Mul(field.Sub(field.One(), x[j]), field.Sub(field.One(), y[j]))
		agree[j] = field.Add(both1, both0)
	}
	// prefixProd[k] = product of agree[0:k], the full (untruncated) sum over
	// the lowest k variables.
	prefixProd := make([]field.Element, numVars+1)
	prefixProd[0] = field.One()
	for k := 0; k < numVars; k++ {
		prefixProd[k+1] = field.Mul(prefixProd[k], agree[k])
	}

	return truncInnerRec(length, x, y, agree, prefixProd, numVars)
}

func truncInnerRec(length uint64, x, y, agree, prefixProd []field.Element, k int) field.Element {
	if k == 0 {
		if length >= 1 {
			return field.One()
		}
		return field.Zero()
	}
	half := uint64(1) << (k - 1)
	xTop, yTop := x[k-1], y[k-1]
	both0 := field.Mul(field.Sub(field.One(), xTop), field.Sub(field.One(), yTop))
	if length <= half {
		return field.Mul(both0, truncInnerRec(length, x, y, agree, prefixProd, k-1))
	}
	both1 := field.Mul(xTop, yTop)
	lowFull := field.Mul(both0, prefixProd[k-1])
	highPart := field.Mul(both1, truncInnerRec(length-half, x, y, agree, prefixProd, k-1))
	return field.Add(lowFull, highPart)
}

func nextPow2(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}
