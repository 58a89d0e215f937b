package config

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vocdoni/sqlsnark-verify/hyperkzg"
)

// defaultSetupCacheSize bounds the number of distinct parsed verifier
// setups a long-running HTTP service keeps warm at once (one per sigma the
// service has seen recently).
const defaultSetupCacheSize = 32

// SetupCache parses and caches hyperkzg.VerifierSetup blobs keyed by the
// query's sigma string, so a service handling repeated requests for the
// same circuit parameters does not reparse tau*H on every call.
type SetupCache struct {
	cache *lru.Cache[string, hyperkzg.VerifierSetup]
}

// NewSetupCache allocates a cache holding up to size parsed setups. A
// non-positive size falls back to defaultSetupCacheSize.
func NewSetupCache(size int) (*SetupCache, error) {
	if size <= 0 {
		size = defaultSetupCacheSize
	}
	c, err := lru.New[string, hyperkzg.VerifierSetup](size)
	if err != nil {
		return nil, fmt.Errorf("config: new setup cache: %w", err)
	}
	return &SetupCache{cache: c}, nil
}

// Get returns the parsed setup for sigma, parsing and caching raw on a
// miss. Callers pass the same raw bytes for a given sigma across calls;
// the cache does not validate that raw matches a previously cached sigma.
func (c *SetupCache) Get(sigma string, raw []byte) (hyperkzg.VerifierSetup, error) {
	if setup, ok := c.cache.Get(sigma); ok {
		return setup, nil
	}
	setup, err := hyperkzg.ParseSetup(raw)
	if err != nil {
		return hyperkzg.VerifierSetup{}, err
	}
	c.cache.Add(sigma, setup)
	return setup, nil
}
