package planproof_test

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/sqlsnark-verify/builder"
	"github.com/vocdoni/sqlsnark-verify/field"
	"github.com/vocdoni/sqlsnark-verify/planproof"
)

func fe(v int64) field.Element {
	return field.FromBigInt(big.NewInt(v))
}

func appendU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func appendU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func literalInt(buf *bytes.Buffer, v int32) {
	appendU32(buf, planproof.VariantLiteralExpr)
	appendU32(buf, planproof.LiteralInt)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

// TestFilterExecAggregatesThreeIdentities builds a FilterExec over table 0
// with where-literal 101 and select literals 102/103/104, and checks the
// aggregate matches the explicit three-identity combination.
func TestFilterExecAggregatesThreeIdentities(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	appendU32(&buf, planproof.VariantFilterExec)
	appendU64(&buf, 0)    // table index
	literalInt(&buf, 101) // where predicate
	appendU64(&buf, 3)    // n selects
	literalInt(&buf, 102)
	literalInt(&buf, 103)
	literalInt(&buf, 104)

	chiTbl := fe(7)
	chiOut := fe(11)
	alpha := fe(2)
	beta := fe(3)
	mu0, mu1, mu2 := fe(5), fe(6), fe(8)
	d0, d1, d2 := fe(20), fe(21), fe(22)
	cStar, dStar := fe(30), fe(40)
	rowMul := fe(9)

	b := builder.New(2,
		[]field.Element{alpha, beta},
		nil,
		[]field.Element{d0, d1, d2, cStar, dStar},
		[]field.Element{chiOut},
		nil,
		[]field.Element{chiTbl},
		[]field.Element{mu0, mu1, mu2},
		rowMul,
	)

	d := planproof.NewDecoder(buf.Bytes())
	var out planproof.FilterExecResult
	_, err := planproof.Eval(d, b, 0, &out)
	c.Assert(err, qt.IsNil)
	c.Assert(b.AllDrained(), qt.IsTrue)
	c.Assert(len(out.ColumnEvaluations), qt.Equals, 3)

	wEval := field.Mul(fe(101), chiTbl)
	c101 := field.Mul(fe(102), chiTbl)
	c102 := field.Mul(fe(103), chiTbl)
	c103 := field.Mul(fe(104), chiTbl)

	cFold := field.Add(field.Add(
		field.Mul(field.Mul(beta, beta), c101),
		field.Mul(beta, c102)),
		c103)
	dFold := field.Add(field.Add(
		field.Mul(field.Mul(beta, beta), d0),
		field.Mul(beta, d1)),
		d2)

	zeroSum := field.Mul(mu0, field.Sub(field.Mul(cStar, wEval), dStar))
	one := field.One()
	acFold := field.Add(one, field.Mul(alpha, cFold))
	id1 := field.Mul(mu1, field.Mul(rowMul, field.Sub(field.Mul(acFold, cStar), chiTbl)))
	adFold := field.Add(one, field.Mul(alpha, dFold))
	id2 := field.Mul(mu2, field.Mul(rowMul, field.Sub(field.Mul(adFold, dStar), chiOut)))

	want := field.Add(field.Add(zeroSum, id1), id2)
	c.Assert(b.AggregateEvaluation.Equal(want), qt.IsTrue)
}

func TestEvalRejectsUnknownVariant(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	appendU32(&buf, 999)
	d := planproof.NewDecoder(buf.Bytes())
	b := builder.New(1, nil, nil, nil, nil, nil, []field.Element{fe(0)}, nil, fe(0))
	_, err := planproof.Eval(d, b, 0, nil)
	c.Assert(err, qt.ErrorIs, planproof.ErrUnsupportedProofPlanVariant)
}
