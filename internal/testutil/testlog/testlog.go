// Package testlog routes the global logger through the test runner so
// per-test log output lands next to the failures it explains.
package testlog

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/silogic/edactl/internal/logging"
)

type writer struct {
	t *testing.T
}

func (w writer) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Start wires the global logger into t for the duration of the test.
func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	previous := log.Logger
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: writer{t: t}, NoColor: true}).
		With().Str("test", t.Name()).Logger()
	t.Cleanup(func() { log.Logger = previous })
}
