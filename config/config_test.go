package config_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/sqlsnark-verify/config"
)

func TestLoadDefaults(t *testing.T) {
	c := qt.New(t)
	cfg, err := config.Load(nil)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Log.Level, qt.Equals, "info")
	c.Assert(cfg.API.Host, qt.Equals, "0.0.0.0")
	c.Assert(cfg.API.Port, qt.Equals, 8090)
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	c := qt.New(t)
	cfg, err := config.Load([]string{"--log.level=debug", "--api.port=9999"})
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Log.Level, qt.Equals, "debug")
	c.Assert(cfg.API.Port, qt.Equals, 9999)
}

func TestReadSetupMissingPath(t *testing.T) {
	c := qt.New(t)
	_, err := config.ReadSetup("")
	c.Assert(err, qt.ErrorMatches, "config: no verifier-setup path configured")
}

func TestReadSetupFromFile(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "setup.bin")
	want := make([]byte, 128)
	for i := range want {
		want[i] = byte(i)
	}
	c.Assert(os.WriteFile(path, want, 0o600), qt.IsNil)

	got, err := config.ReadSetup(path)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, want)
}
