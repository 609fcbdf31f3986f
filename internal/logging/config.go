// Package logging owns process-wide log configuration: level profiles
// plus environment overrides, applied once per binary.
package logging

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "EDACTL_LOG_LEVEL"
	EnvLogTimestamp = "EDACTL_LOG_TIMESTAMP"
	EnvLogNoColor   = "EDACTL_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure applies the profile's log level globally, honoring
// EDACTL_LOG_LEVEL when set. Only the first call takes effect.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		level := defaultLevel(profile)
		if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
			level = lvl
		}
		zerolog.SetGlobalLevel(level)
	})
}

func defaultLevel(profile Profile) zerolog.Level {
	if profile == ProfileTest {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// Timestamp reports whether console output should carry timestamps,
// honoring EDACTL_LOG_TIMESTAMP over the given default.
func Timestamp(fallback bool) bool {
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		return v
	}
	return fallback
}

// NoColor reports whether console color should be suppressed.
func NoColor() bool {
	v, ok := parseBool(os.Getenv(EnvLogNoColor))
	return ok && v
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace", "diagnostics":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none", "inactive":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
