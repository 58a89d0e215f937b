// Package planproof walks a serialized query plan, recursively evaluating
// each expression node to its multilinear evaluation at the sumcheck point
// while draining the verification builder's resource queues and folding
// polynomial identities into its aggregate accumulator.
package planproof

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/sqlsnark-verify/builder"
	"github.com/vocdoni/sqlsnark-verify/field"
)

var (
	ErrUnsupportedProofPlanVariant = errors.New("planproof: unsupported plan variant")
	ErrUnsupportedLiteralVariant   = errors.New("planproof: unsupported literal variant")
	ErrTruncatedPlan               = errors.New("planproof: truncated plan bytes")
	ErrUnknownTable                = errors.New("planproof: plan references unknown table")
)

// Plan-node variant codes. Wire constants; a producer must match these
// byte for byte.
const (
	VariantFilterExec uint32 = iota
	VariantLiteralExpr
	VariantColumnRef
	VariantEq
	VariantNe
	VariantLt
	VariantLe
	VariantGt
	VariantGe
	VariantAnd
	VariantOr
	VariantNot
	VariantAdd
	VariantSub
	VariantMul
)

// Literal sub-variants share the column variant codes defined in
// resultproof, since a literal's type tag is just the column type it
// stands in for.
const (
	LiteralBool uint32 = iota
	LiteralTinyInt
	LiteralSmallInt
	LiteralInt
	LiteralBigInt
	LiteralInt128
	LiteralDecimal75
	LiteralVarchar
	LiteralTimestamp
	LiteralFixedSizeBinary
)

// Decoder walks a plan byte stream left to right.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps a plan-node byte stream (positioned at the root node,
// past the table/column/output-name prefixes ParseHeader consumes).
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

func (d *Decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return ErrTruncatedPlan
	}
	return nil
}

func (d *Decoder) readU32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *Decoder) readU64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *Decoder) readBytes(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// FilterExecResult carries the output-column evaluations produced by a
// FilterExec node, for consumption by the result verifier.
type FilterExecResult struct {
	ColumnEvaluations []field.Element
}

// Eval recursively evaluates the plan rooted at the decoder's current
// position, against builder b, draining its resource queues and returning
// the sub-expression's evaluation at the sumcheck point. out, if non-nil,
// receives the output-column evaluations of any FilterExec node
// encountered.
func Eval(d *Decoder, b *builder.Builder, tableIdx int, out *FilterExecResult) (field.Element, error) {
	variant, err := d.readU32()
	if err != nil {
		return field.Element{}, err
	}

	switch variant {
	case VariantFilterExec:
		return evalFilterExec(d, b, out)
	case VariantLiteralExpr:
		return evalLiteral(d, b, tableIdx)
	case VariantColumnRef:
		return evalColumnRef(d, b)
	case VariantEq, VariantNe, VariantLt, VariantLe, VariantGt, VariantGe, VariantAnd, VariantOr:
		return evalBinaryOpaque(d, b, tableIdx, out)
	case VariantNot:
		return evalUnaryOpaque(d, b, tableIdx, out)
	case VariantAdd, VariantSub, VariantMul:
		return evalArithmetic(d, b, tableIdx, variant, out)
	default:
		return field.Element{}, fmt.Errorf("%w: %d", ErrUnsupportedProofPlanVariant, variant)
	}
}

// evalLiteral implements the literal-expr rule: literal_value *
// table_chi_evaluations[current_table].
func evalLiteral(d *Decoder, b *builder.Builder, tableIdx int) (field.Element, error) {
	typ, err := d.readU32()
	if err != nil {
		return field.Element{}, err
	}
	v, err := decodeLiteralValue(d, typ)
	if err != nil {
		return field.Element{}, err
	}
	if tableIdx < 0 || tableIdx >= b.NumTables() {
		return field.Element{}, fmt.Errorf("%w: %d", ErrUnknownTable, tableIdx)
	}
	return field.Mul(v, b.TableChiEvaluation(tableIdx)), nil
}

func decodeLiteralValue(d *Decoder, typ uint32) (field.Element, error) {
	switch typ {
	case LiteralBool:
		raw, err := d.readBytes(1)
		if err != nil {
			return field.Element{}, err
		}
		return field.FromUint64(uint64(raw[0])), nil
	case LiteralTinyInt:
		raw, err := d.readBytes(1)
		if err != nil {
			return field.Element{}, err
		}
		return field.FromBigInt(new(big.Int).SetInt64(int64(int8(raw[0])))), nil
	case LiteralSmallInt:
		raw, err := d.readBytes(2)
		if err != nil {
			return field.Element{}, err
		}
		return field.FromBigInt(big.NewInt(int64(int16(binary.BigEndian.Uint16(raw))))), nil
	case LiteralInt:
		raw, err := d.readBytes(4)
		if err != nil {
			return field.Element{}, err
		}
		return field.FromBigInt(big.NewInt(int64(int32(binary.BigEndian.Uint32(raw))))), nil
	case LiteralBigInt, LiteralTimestamp:
		raw, err := d.readBytes(8)
		if err != nil {
			return field.Element{}, err
		}
		return field.FromBigInt(big.NewInt(int64(binary.BigEndian.Uint64(raw)))), nil
	case LiteralInt128:
		raw, err := d.readBytes(16)
		if err != nil {
			return field.Element{}, err
		}
		return field.FromBigInt(twosComplementToBig(raw)), nil
	case LiteralDecimal75:
		raw, err := d.readBytes(32)
		if err != nil {
			return field.Element{}, err
		}
		return field.FromBigInt(twosComplementToBig(raw)), nil
	case LiteralVarchar, LiteralFixedSizeBinary:
		n, err := d.readU64()
		if err != nil {
			return field.Element{}, err
		}
		raw, err := d.readBytes(int(n))
		if err != nil {
			return field.Element{}, err
		}
		hash := crypto.Keccak256(raw)
		return field.FromBytes(hash), nil
	default:
		return field.Element{}, fmt.Errorf("%w: %d", ErrUnsupportedLiteralVariant, typ)
	}
}

// twosComplementToBig interprets a big-endian two's-complement buffer as a
// signed big.Int.
func twosComplementToBig(raw []byte) *big.Int {
	v := new(big.Int).SetBytes(raw)
	if raw[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(raw))*8)
		v.Sub(v, mod)
	}
	return v
}

// evalColumnRef returns the column's precomputed MLE evaluation at the
// sumcheck point, supplied by the prover as a rho evaluation.
func evalColumnRef(d *Decoder, b *builder.Builder) (field.Element, error) {
	if _, err := d.readU64(); err != nil { // column index, unused beyond positional bookkeeping
		return field.Element{}, err
	}
	return b.ConsumeRhoEvaluation()
}

// evalBinaryOpaque walks both operands (to drain their own queue
// consumption) and returns this node's own prover-supplied rho evaluation.
// Plan variants without an explicit polynomial identity follow the same
// queue-consumption order as FilterExec: operands first, left to right, then
// the node's own draw.
func evalBinaryOpaque(d *Decoder, b *builder.Builder, tableIdx int, out *FilterExecResult) (field.Element, error) {
	if _, err := Eval(d, b, tableIdx, out); err != nil {
		return field.Element{}, err
	}
	if _, err := Eval(d, b, tableIdx, out); err != nil {
		return field.Element{}, err
	}
	return b.ConsumeRhoEvaluation()
}

func evalUnaryOpaque(d *Decoder, b *builder.Builder, tableIdx int, out *FilterExecResult) (field.Element, error) {
	if _, err := Eval(d, b, tableIdx, out); err != nil {
		return field.Element{}, err
	}
	return b.ConsumeRhoEvaluation()
}

func evalArithmetic(d *Decoder, b *builder.Builder, tableIdx int, variant uint32, out *FilterExecResult) (field.Element, error) {
	left, err := Eval(d, b, tableIdx, out)
	if err != nil {
		return field.Element{}, err
	}
	right, err := Eval(d, b, tableIdx, out)
	if err != nil {
		return field.Element{}, err
	}
	switch variant {
	case VariantAdd:
		return field.Add(left, right), nil
	case VariantSub:
		return field.Sub(left, right), nil
	case VariantMul:
		return field.Mul(left, right), nil
	default:
		return field.Element{}, fmt.Errorf("%w: %d", ErrUnsupportedProofPlanVariant, variant)
	}
}

// evalFilterExec evaluates a filter node: the where predicate and select
// expressions over the input table, folded with transcript challenges into
// three polynomial identities added to the aggregate.
func evalFilterExec(d *Decoder, b *builder.Builder, out *FilterExecResult) (field.Element, error) {
	tableIdx64, err := d.readU64()
	if err != nil {
		return field.Element{}, err
	}
	if tableIdx64 >= uint64(b.NumTables()) {
		return field.Element{}, fmt.Errorf("%w: %d", ErrUnknownTable, tableIdx64)
	}
	tableIdx := int(tableIdx64)

	wEval, err := Eval(d, b, tableIdx, out)
	if err != nil {
		return field.Element{}, err
	}

	n64, err := d.readU64()
	if err != nil {
		return field.Element{}, err
	}
	n := int(n64)

	cEvals := make([]field.Element, n)
	for i := 0; i < n; i++ {
		cEvals[i], err = Eval(d, b, tableIdx, out)
		if err != nil {
			return field.Element{}, err
		}
	}

	alpha, err := b.ConsumeChallenge()
	if err != nil {
		return field.Element{}, err
	}
	beta, err := b.ConsumeChallenge()
	if err != nil {
		return field.Element{}, err
	}
	chiTbl := b.TableChiEvaluation(tableIdx)
	chiOut, err := b.ConsumeChiEvaluation()
	if err != nil {
		return field.Element{}, err
	}

	dEvals := make([]field.Element, n)
	for i := 0; i < n; i++ {
		dEvals[i], err = b.ConsumeFinalRoundMLE()
		if err != nil {
			return field.Element{}, err
		}
	}
	cStar, err := b.ConsumeFinalRoundMLE()
	if err != nil {
		return field.Element{}, err
	}
	dStar, err := b.ConsumeFinalRoundMLE()
	if err != nil {
		return field.Element{}, err
	}

	mu0, err := b.ConsumeConstraintMultiplier()
	if err != nil {
		return field.Element{}, err
	}
	mu1, err := b.ConsumeConstraintMultiplier()
	if err != nil {
		return field.Element{}, err
	}
	mu2, err := b.ConsumeConstraintMultiplier()
	if err != nil {
		return field.Element{}, err
	}

	cFold := foldWithPowers(cEvals, beta)
	dFold := foldWithPowers(dEvals, beta)

	// Zero-sum identity: mu0 * (c* * w_eval - d*).
	zeroSum := field.Mul(mu0, field.Sub(field.Mul(cStar, wEval), dStar))
	b.Aggregate(zeroSum)

	// Identity 1: mu1 * row_multipliers_evaluation * ((1 + alpha*c_fold)*c* - chi_tbl).
	one := field.One()
	acFold := field.Add(one, field.Mul(alpha, cFold))
	id1 := field.Mul(mu1, field.Mul(b.RowMultipliersEvaluation, field.Sub(field.Mul(acFold, cStar), chiTbl)))
	b.Aggregate(id1)

	// Identity 2: mu2 * row_multipliers_evaluation * ((1 + alpha*d_fold)*d* - chi_out).
	adFold := field.Add(one, field.Mul(alpha, dFold))
	id2 := field.Mul(mu2, field.Mul(b.RowMultipliersEvaluation, field.Sub(field.Mul(adFold, dStar), chiOut)))
	b.Aggregate(id2)

	if out != nil {
		out.ColumnEvaluations = dEvals
	}

	// The FilterExec node's own evaluation is not itself consumed further
	// up the tree in the canonical example; the output-column evaluations
	// are threaded out separately for the result verifier.
	if n == 0 {
		return dStar, nil
	}
	return dEvals[n-1], nil
}

// foldWithPowers computes sum_i beta^(n-1-i) * vals[i].
func foldWithPowers(vals []field.Element, beta field.Element) field.Element {
	n := len(vals)
	acc := field.Zero()
	for i := 0; i < n; i++ {
		power := n - 1 - i
		acc = field.Add(acc, field.Mul(powOf(beta, power), vals[i]))
	}
	return acc
}

func powOf(base field.Element, exp int) field.Element {
	result := field.One()
	for i := 0; i < exp; i++ {
		result = field.Mul(result, base)
	}
	return result
}
