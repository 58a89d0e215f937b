package hyperkzg_test

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/sqlsnark-verify/field"
	"github.com/vocdoni/sqlsnark-verify/hyperkzg"
	"github.com/vocdoni/sqlsnark-verify/transcript"
)

func fe(v int64) field.Element {
	return field.FromBigInt(big.NewInt(v))
}

func genG2(scalar *big.Int) bn254.G2Affine {
	_, _, _, g2gen := bn254.Generators()
	var p bn254.G2Affine
	p.ScalarMultiplication(&g2gen, scalar)
	return p
}

func TestVerifyRejectsEmptyPoint(t *testing.T) {
	c := qt.New(t)
	var seed [32]byte
	s := transcript.New(seed)
	setup := hyperkzg.VerifierSetup{H: genG2(big.NewInt(1)), TauH: genG2(big.NewInt(7))}

	err := hyperkzg.Verify(s, setup, hyperkzg.Proof{}, hyperkzg.Commitment{}, nil, fe(0))
	c.Assert(err, qt.ErrorIs, hyperkzg.ErrEmptyPoint)
}

func TestVerifyRejectsWrongAuxCommitmentCount(t *testing.T) {
	c := qt.New(t)
	var seed [32]byte
	s := transcript.New(seed)
	setup := hyperkzg.VerifierSetup{H: genG2(big.NewInt(1)), TauH: genG2(big.NewInt(7))}

	proof := hyperkzg.Proof{
		Com: nil, // wrong: ell=2 needs 1 auxiliary commitment
		V:   []hyperkzg.Triple{{fe(1), fe(2), fe(3)}, {fe(4), fe(5), fe(6)}},
	}
	x := []field.Element{fe(1), fe(2)}
	err := hyperkzg.Verify(s, setup, proof, hyperkzg.Commitment{}, x, fe(0))
	c.Assert(err, qt.ErrorIs, hyperkzg.ErrInconsistentV)
}

func TestVerifyRejectsInconsistentV(t *testing.T) {
	c := qt.New(t)
	var seed [32]byte
	s := transcript.New(seed)
	setup := hyperkzg.VerifierSetup{H: genG2(big.NewInt(1)), TauH: genG2(big.NewInt(7))}

	proof := hyperkzg.Proof{
		Com: nil,
		V:   []hyperkzg.Triple{{fe(111), fe(222), fe(333)}},
		W:   [3]hyperkzg.Commitment{{}, {}, {}},
	}
	x := []field.Element{fe(5)}
	err := hyperkzg.Verify(s, setup, proof, hyperkzg.Commitment{}, x, fe(999))
	c.Assert(err, qt.ErrorIs, hyperkzg.ErrInconsistentV)
}

func TestBatchVerifyRejectsLengthMismatch(t *testing.T) {
	c := qt.New(t)
	var seed [32]byte
	s := transcript.New(seed)
	setup := hyperkzg.VerifierSetup{H: genG2(big.NewInt(1)), TauH: genG2(big.NewInt(7))}

	err := hyperkzg.BatchVerify(s, setup, hyperkzg.Proof{}, []hyperkzg.Commitment{{}}, nil, []field.Element{fe(1)})
	c.Assert(err, qt.ErrorIs, hyperkzg.ErrBatchLengthMismatch)
}

func TestParseSetupRoundtrips(t *testing.T) {
	c := qt.New(t)
	h := genG2(big.NewInt(1))
	tauH := genG2(big.NewInt(42))

	buf := append(h.Marshal(), tauH.Marshal()...)
	setup, err := hyperkzg.ParseSetup(buf)
	c.Assert(err, qt.IsNil)
	c.Assert(setup.H.Equal(&h), qt.IsTrue)
	c.Assert(setup.TauH.Equal(&tauH), qt.IsTrue)
}

func TestParseSetupRejectsWrongSize(t *testing.T) {
	c := qt.New(t)
	_, err := hyperkzg.ParseSetup([]byte{1, 2, 3})
	c.Assert(err, qt.ErrorIs, hyperkzg.ErrMalformedSetup)
}
