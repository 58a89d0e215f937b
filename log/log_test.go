package log_test

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/sqlsnark-verify/log"
)

// TestPanicOnErrorHook tests that the panic-on-error hook fires on error
// level logs and stays quiet otherwise.
func TestPanicOnErrorHook(t *testing.T) {
	c := qt.New(t)

	c.Run("fires on log.Error", func(c *qt.C) {
		log.Error("this should not fire before installing hook")

		ch := make(chan string, 1)
		previousLogger := log.EnablePanicOnErrorWithHandler(c.Name(), 100*time.Millisecond, func(msg string) {
			ch <- msg
		})
		defer log.RestoreLogger(previousLogger)

		log.Error("test error message")

		select {
		case got := <-ch:
			c.Assert(got, qt.Matches, `ERROR found in logs during test TestPanicOnErrorHook/fires_on_log\.Error: test error message`)
		case <-time.After(500 * time.Millisecond):
			c.Fatalf("expected delayed handler to fire")
		}
	})

	c.Run("fires on log.Errorw", func(c *qt.C) {
		ch := make(chan string, 1)
		previousLogger := log.EnablePanicOnErrorWithHandler(c.Name(), 100*time.Millisecond, func(msg string) {
			ch <- msg
		})
		defer log.RestoreLogger(previousLogger)

		log.Errorw(nil, "test errorw message")

		select {
		case got := <-ch:
			c.Assert(got, qt.Matches, `ERROR found in logs during test TestPanicOnErrorHook/fires_on_log\.Errorw: test errorw message`)
		case <-time.After(500 * time.Millisecond):
			c.Fatalf("expected delayed handler to fire")
		}
	})

	c.Run("quiet on lower levels", func(c *qt.C) {
		ch := make(chan string, 1)
		previousLogger := log.EnablePanicOnErrorWithHandler(c.Name(), 100*time.Millisecond, func(msg string) {
			ch <- msg
		})
		defer log.RestoreLogger(previousLogger)

		log.Warn("test warning message")
		log.Info("test info message")
		log.Debug("test debug message")

		select {
		case got := <-ch:
			c.Fatalf("unexpected handler call: %s", got)
		case <-time.After(200 * time.Millisecond):
		}
	})

	c.Run("logger restoration", func(c *qt.C) {
		ch := make(chan string, 1)
		previousLogger := log.EnablePanicOnErrorWithHandler(c.Name(), 100*time.Millisecond, func(msg string) {
			ch <- msg
		})
		log.RestoreLogger(previousLogger)

		log.Error("this should not fire after restoration")

		select {
		case got := <-ch:
			c.Fatalf("unexpected handler call after restoration: %s", got)
		case <-time.After(200 * time.Millisecond):
		}
	})
}

func TestLevelRoundtrips(t *testing.T) {
	c := qt.New(t)
	previous := *log.Logger()
	defer log.RestoreLogger(previous)

	for _, level := range []string{log.LevelDebug, log.LevelInfo, log.LevelWarn, log.LevelError} {
		log.Init(level, "stderr")
		c.Assert(log.Level(), qt.Equals, level)
	}
}
