// Package resultproof decodes a claimed result table and checks that each
// column's multilinear evaluation at the sumcheck point matches the
// evaluation the plan interpreter derived for that column.
package resultproof

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/sqlsnark-verify/field"
	"github.com/vocdoni/sqlsnark-verify/lagrange"
)

var (
	ErrInvalidResultColumnName         = errors.New("resultproof: invalid result column name")
	ErrUnsupportedColumnVariant        = errors.New("resultproof: unsupported column variant")
	ErrIncorrectResult                 = errors.New("resultproof: incorrect result")
	ErrInconsistentResultColumnLengths = errors.New("resultproof: inconsistent result column lengths")
	ErrResultColumnCountMismatch       = errors.New("resultproof: result column count mismatch")
	ErrTruncatedResult                 = errors.New("resultproof: truncated result bytes")
)

// Column variant codes, shared numbering with planproof's literal
// sub-variants.
const (
	Boolean uint32 = iota
	TinyInt
	SmallInt
	Int
	BigInt
	Int128
	Decimal75
	Varchar
	Timestamp
	FixedSizeBinary
)

func fixedWidth(variant uint32) (int, bool) {
	switch variant {
	case Boolean, TinyInt:
		return 1, true
	case SmallInt:
		return 2, true
	case Int:
		return 4, true
	case BigInt, Timestamp:
		return 8, true
	case Int128:
		return 16, true
	case Decimal75:
		return 32, true
	default:
		return 0, false
	}
}

// isVariableWidth reports whether variant is length-prefixed rather than
// fixed-width.
func isVariableWidth(variant uint32) bool {
	switch variant {
	case Varchar, FixedSizeBinary:
		return true
	default:
		return false
	}
}

// Column is a single decoded result column.
type Column struct {
	Name    string
	Variant uint32
	Values  []field.Element
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return ErrTruncatedResult
	}
	return nil
}

func (d *decoder) readU8() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) readU32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) readU64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *decoder) readBytes(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Decode parses a serialized result table:
// u64 n_cols, then per column (u64 name_len, bytes name, u8 quote_type,
// u32 column_variant, u64 n_rows, then n_rows values: fixed-width for the
// numeric/boolean variants, or u64 length + raw bytes (hashed to a field
// element) for Varchar/FixedSizeBinary.
func Decode(buf []byte) ([]Column, error) {
	d := &decoder{buf: buf}
	nCols, err := d.readU64()
	if err != nil {
		return nil, err
	}
	cols := make([]Column, nCols)
	for i := range cols {
		nameLen, err := d.readU64()
		if err != nil {
			return nil, err
		}
		nameBytes, err := d.readBytes(int(nameLen))
		if err != nil {
			return nil, err
		}
		if _, err := d.readU8(); err != nil { // quote_type, not interpreted here
			return nil, err
		}
		variant, err := d.readU32()
		if err != nil {
			return nil, err
		}
		nRows, err := d.readU64()
		if err != nil {
			return nil, err
		}

		values := make([]field.Element, nRows)
		switch {
		case isVariableWidth(variant):
			for r := uint64(0); r < nRows; r++ {
				n, err := d.readU64()
				if err != nil {
					return nil, err
				}
				raw, err := d.readBytes(int(n))
				if err != nil {
					return nil, err
				}
				values[r] = field.FromBytes(crypto.Keccak256(raw))
			}
		default:
			width, known := fixedWidth(variant)
			if !known {
				return nil, fmt.Errorf("%w: %d", ErrUnsupportedColumnVariant, variant)
			}
			for r := uint64(0); r < nRows; r++ {
				raw, err := d.readBytes(width)
				if err != nil {
					return nil, err
				}
				values[r] = fixedWidthValue(variant, raw)
			}
		}

		cols[i] = Column{Name: string(nameBytes), Variant: variant, Values: values}
	}
	return cols, nil
}

// fixedWidthValue canonicalizes a fixed-width row value into the field the
// same way the plan interpreter canonicalizes its literals: Boolean bytes
// are unsigned, every other fixed-width variant is big-endian
// two's-complement signed, reduced mod q.
func fixedWidthValue(variant uint32, raw []byte) field.Element {
	if variant == Boolean {
		return field.FromBytes(raw)
	}
	v := new(big.Int).SetBytes(raw)
	if raw[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(raw))*8)
		v.Sub(v, mod)
	}
	return field.FromBigInt(v)
}

// Verify checks the decoded columns against the plan's expected output
// column names (in order) and that every column declares the same row
// count.
func Verify(cols []Column, outputNames []string, planEvaluations []field.Element) error {
	if len(cols) != len(outputNames) {
		return fmt.Errorf("%w: got %d columns, plan declares %d", ErrResultColumnCountMismatch, len(cols), len(outputNames))
	}
	if len(planEvaluations) != len(cols) {
		return fmt.Errorf("%w: got %d plan evaluations, want %d", ErrResultColumnCountMismatch, len(planEvaluations), len(cols))
	}

	if len(cols) == 0 {
		return nil
	}
	rowCount := len(cols[0].Values)
	for i, col := range cols {
		if col.Name != outputNames[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrInvalidResultColumnName, i, col.Name, outputNames[i])
		}
		if len(col.Values) != rowCount {
			return ErrInconsistentResultColumnLengths
		}
	}

	return nil
}

// ColumnEvaluation computes a column's MLE at the sumcheck point x using
// eval_vec, for comparison against the plan interpreter's derived
// evaluation.
func ColumnEvaluation(col Column, x []field.Element) field.Element {
	weights := lagrange.EvalVec(uint64(len(col.Values)), x)
	acc := field.Zero()
	for i, w := range weights {
		acc = field.Add(acc, field.Mul(w, col.Values[i]))
	}
	return acc
}

// CheckColumnEvaluations compares each column's computed MLE evaluation
// against the plan-derived evaluation, failing IncorrectResult on the
// first mismatch.
func CheckColumnEvaluations(cols []Column, x []field.Element, planEvaluations []field.Element) error {
	for i, col := range cols {
		got := ColumnEvaluation(col, x)
		if !got.Equal(planEvaluations[i]) {
			return fmt.Errorf("%w: column %d (%s)", ErrIncorrectResult, i, col.Name)
		}
	}
	return nil
}
