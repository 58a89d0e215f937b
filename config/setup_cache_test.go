package config_test

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/sqlsnark-verify/config"
)

func genG2(scalar int64) bn254.G2Affine {
	_, _, _, g2gen := bn254.Generators()
	var p bn254.G2Affine
	p.ScalarMultiplication(&g2gen, big.NewInt(scalar))
	return p
}

func TestSetupCacheParsesAndCaches(t *testing.T) {
	c := qt.New(t)
	h := genG2(1)
	tauH := genG2(42)
	buf := append(h.Marshal(), tauH.Marshal()...)

	cache, err := config.NewSetupCache(0)
	c.Assert(err, qt.IsNil)

	got, err := cache.Get("sigma-a", buf)
	c.Assert(err, qt.IsNil)
	c.Assert(got.H.Equal(&h), qt.IsTrue)
	c.Assert(got.TauH.Equal(&tauH), qt.IsTrue)

	// A second call with garbage bytes still returns the cached setup
	// because the sigma key already has an entry.
	got2, err := cache.Get("sigma-a", []byte{1, 2, 3})
	c.Assert(err, qt.IsNil)
	c.Assert(got2.H.Equal(&h), qt.IsTrue)
}

func TestSetupCacheRejectsMalformedOnMiss(t *testing.T) {
	c := qt.New(t)
	cache, err := config.NewSetupCache(4)
	c.Assert(err, qt.IsNil)

	_, err = cache.Get("sigma-b", []byte{1, 2, 3})
	c.Assert(err, qt.Not(qt.IsNil))
}
