package resultproof_test

import (
	"bytes"
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/sqlsnark-verify/field"
	"github.com/vocdoni/sqlsnark-verify/resultproof"
)

func fe(v int64) field.Element {
	return field.FromBigInt(big.NewInt(v))
}

func encodeResult(name string, variant uint32, rows []int64, width int) []byte {
	var buf bytes.Buffer
	writeU64 := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		buf.Write(b[:])
	}
	writeU32 := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}

	writeU64(1) // n_cols
	writeU64(uint64(len(name)))
	buf.WriteString(name)
	buf.WriteByte(0) // quote_type
	writeU32(variant)
	writeU64(uint64(len(rows)))
	for _, r := range rows {
		b := make([]byte, width)
		switch width {
		case 1:
			b[0] = byte(r)
		case 4:
			binary.BigEndian.PutUint32(b, uint32(r))
		case 8:
			binary.BigEndian.PutUint64(b, uint64(r))
		}
		buf.Write(b)
	}
	return buf.Bytes()
}

func encodeVarcharResult(name string, rows []string) []byte {
	var buf bytes.Buffer
	writeU64 := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		buf.Write(b[:])
	}
	writeU32 := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}

	writeU64(1) // n_cols
	writeU64(uint64(len(name)))
	buf.WriteString(name)
	buf.WriteByte(0) // quote_type
	writeU32(resultproof.Varchar)
	writeU64(uint64(len(rows)))
	for _, r := range rows {
		writeU64(uint64(len(r)))
		buf.WriteString(r)
	}
	return buf.Bytes()
}

// TestDecodeParsesVarcharColumn decodes a varchar column
// (["hello","world"]) as length-prefixed bytes hashed the same way
// planproof hashes VarChar literals.
func TestDecodeParsesVarcharColumn(t *testing.T) {
	c := qt.New(t)
	buf := encodeVarcharResult("b", []string{"hello", "world"})
	cols, err := resultproof.Decode(buf)
	c.Assert(err, qt.IsNil)
	c.Assert(len(cols), qt.Equals, 1)
	c.Assert(cols[0].Name, qt.Equals, "b")
	c.Assert(cols[0].Variant, qt.Equals, resultproof.Varchar)
	c.Assert(cols[0].Values[0].Equal(field.FromBytes(crypto.Keccak256([]byte("hello")))), qt.IsTrue)
	c.Assert(cols[0].Values[1].Equal(field.FromBytes(crypto.Keccak256([]byte("world")))), qt.IsTrue)
}

func TestDecodeParsesSingleColumn(t *testing.T) {
	c := qt.New(t)
	buf := encodeResult("b", resultproof.Int, []int64{5, 6}, 4)
	cols, err := resultproof.Decode(buf)
	c.Assert(err, qt.IsNil)
	c.Assert(len(cols), qt.Equals, 1)
	c.Assert(cols[0].Name, qt.Equals, "b")
	c.Assert(cols[0].Values[0].Equal(fe(5)), qt.IsTrue)
	c.Assert(cols[0].Values[1].Equal(fe(6)), qt.IsTrue)
}

// TestDecodeCanonicalizesNegativeValues checks that fixed-width integer
// row values are read as two's-complement signed, matching the literal
// canonicalization of the plan interpreter.
func TestDecodeCanonicalizesNegativeValues(t *testing.T) {
	c := qt.New(t)
	buf := encodeResult("n", resultproof.BigInt, []int64{-1, -42}, 8)
	cols, err := resultproof.Decode(buf)
	c.Assert(err, qt.IsNil)
	c.Assert(cols[0].Values[0].Equal(fe(-1)), qt.IsTrue)
	c.Assert(cols[0].Values[1].Equal(fe(-42)), qt.IsTrue)
}

func TestVerifyRejectsWrongColumnName(t *testing.T) {
	c := qt.New(t)
	buf := encodeResult("b", resultproof.Int, []int64{5}, 4)
	cols, err := resultproof.Decode(buf)
	c.Assert(err, qt.IsNil)

	err = resultproof.Verify(cols, []string{"c"}, []field.Element{fe(0)})
	c.Assert(err, qt.ErrorIs, resultproof.ErrInvalidResultColumnName)
}

func TestVerifyRejectsColumnCountMismatch(t *testing.T) {
	c := qt.New(t)
	buf := encodeResult("b", resultproof.Int, []int64{5}, 4)
	cols, err := resultproof.Decode(buf)
	c.Assert(err, qt.IsNil)

	err = resultproof.Verify(cols, []string{"b", "c"}, []field.Element{fe(0), fe(0)})
	c.Assert(err, qt.ErrorIs, resultproof.ErrResultColumnCountMismatch)
}

func TestCheckColumnEvaluationsMatchesEvalVec(t *testing.T) {
	c := qt.New(t)
	col := resultproof.Column{Name: "b", Variant: resultproof.Int, Values: []field.Element{fe(5), fe(6)}}
	x := []field.Element{fe(3)}
	want := resultproof.ColumnEvaluation(col, x)

	err := resultproof.CheckColumnEvaluations([]resultproof.Column{col}, x, []field.Element{want})
	c.Assert(err, qt.IsNil)

	err = resultproof.CheckColumnEvaluations([]resultproof.Column{col}, x, []field.Element{fe(999)})
	c.Assert(err, qt.ErrorIs, resultproof.ErrIncorrectResult)
}
