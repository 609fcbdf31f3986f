// Package locate discovers tool installations on the host and, when the
// host search comes up empty, through the guest bridge.
package locate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/silogic/edactl/internal/bridge"
	"github.com/silogic/edactl/internal/tools"
)

var ErrNotFound = errors.New("locate: tool not found")

const defaultVerifyLimit = 10 * time.Second

// Handle is a verified tool installation. Bridged handles name a guest
// path and must be launched through the bridge.
type Handle struct {
	Tool    string
	Path    string
	Bridged bool
	Version string
}

// Spec describes where to look for a tool and how to confirm a hit
// actually runs.
type Spec struct {
	Tool        string
	Candidates  []string
	VerifyArgs  []string
	VerifyLimit time.Duration
}

// WithDefaults fills unset verification fields.
func (s Spec) WithDefaults() Spec {
	if len(s.VerifyArgs) == 0 {
		s.VerifyArgs = []string{"--version"}
	}
	if s.VerifyLimit <= 0 {
		s.VerifyLimit = defaultVerifyLimit
	}
	return s
}

// Locator searches candidate paths, then PATH, then the bridge.
type Locator struct {
	Bridge bridge.Bridge
	Runner tools.CommandRunner
}

// Find returns a verified handle for the tool or ErrNotFound. No
// process is spawned for a candidate that does not exist on disk.
func (l Locator) Find(ctx context.Context, spec Spec) (Handle, error) {
	spec.Tool = strings.TrimSpace(spec.Tool)
	if spec.Tool == "" {
		return Handle{}, errors.New("locate: tool name required")
	}
	spec = spec.WithDefaults()

	for _, candidate := range spec.Candidates {
		if !fileExists(candidate) {
			continue
		}
		if h, ok := l.verifyHost(ctx, spec, candidate); ok {
			return h, nil
		}
	}

	if path, err := exec.LookPath(spec.Tool); err == nil {
		if h, ok := l.verifyHost(ctx, spec, path); ok {
			return h, nil
		}
	}

	if h, ok := l.findBridged(ctx, spec); ok {
		return h, nil
	}

	return Handle{}, fmt.Errorf("%w: %s", ErrNotFound, spec.Tool)
}

func (l Locator) findBridged(ctx context.Context, spec Spec) (Handle, bool) {
	if err := l.Bridge.Probe(ctx); err != nil {
		log.Debug().Str("tool", spec.Tool).Err(err).Msg("bridge probe failed")
		return Handle{}, false
	}

	for _, candidate := range spec.Candidates {
		if !fileExists(candidate) {
			continue
		}
		guest, err := l.Bridge.GuestPath(candidate)
		if err != nil {
			continue
		}
		if h, ok := l.verifyBridged(ctx, spec, guest); ok {
			return h, true
		}
	}

	if guest, ok := l.whichBridged(ctx, spec); ok {
		if h, ok := l.verifyBridged(ctx, spec, guest); ok {
			return h, true
		}
	}

	return Handle{}, false
}

func (l Locator) verifyHost(ctx context.Context, spec Spec, path string) (Handle, bool) {
	verifyCtx, cancel := context.WithTimeout(ctx, spec.VerifyLimit)
	defer cancel()

	stdout, stderr, code, err := l.runner().Run(verifyCtx, path, spec.VerifyArgs...)
	if err != nil || code != 0 {
		log.Debug().
			Str("tool", spec.Tool).
			Str("path", path).
			Int("exit_code", code).
			Err(err).
			Msg("candidate failed verification")
		return Handle{}, false
	}

	h := Handle{Tool: spec.Tool, Path: path, Version: versionLine(stdout, stderr)}
	log.Debug().Str("tool", spec.Tool).Str("path", path).Str("version", h.Version).Msg("tool located")
	return h, true
}

// verifyBridged accepts a nonzero exit when the tool still identified
// itself on stdout; bridge launchers do not always relay exit codes.
func (l Locator) verifyBridged(ctx context.Context, spec Spec, guest string) (Handle, bool) {
	verifyCtx, cancel := context.WithTimeout(ctx, spec.VerifyLimit)
	defer cancel()

	argv := l.Bridge.Command(guest, spec.VerifyArgs)
	stdout, stderr, code, err := l.runner().Run(verifyCtx, argv[0], argv[1:]...)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Handle{}, false
		}
	}
	named := strings.Contains(strings.ToLower(string(stdout)), strings.ToLower(spec.Tool))
	if code != 0 && !named {
		return Handle{}, false
	}

	h := Handle{Tool: spec.Tool, Path: guest, Bridged: true, Version: versionLine(stdout, stderr)}
	log.Debug().Str("tool", spec.Tool).Str("path", guest).Str("version", h.Version).Msg("tool located via bridge")
	return h, true
}

func (l Locator) whichBridged(ctx context.Context, spec Spec) (string, bool) {
	whichCtx, cancel := context.WithTimeout(ctx, spec.VerifyLimit)
	defer cancel()

	argv := l.Bridge.Command("which", []string{spec.Tool})
	stdout, _, code, err := l.runner().Run(whichCtx, argv[0], argv[1:]...)
	if err != nil || code != 0 {
		return "", false
	}
	guest := firstLine(string(stdout))
	return guest, guest != ""
}

func (l Locator) runner() tools.CommandRunner {
	if l.Runner != nil {
		return l.Runner
	}
	return tools.ExecRunner{}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func versionLine(stdout, stderr []byte) string {
	if line := firstLine(string(stdout)); line != "" {
		return line
	}
	return firstLine(string(stderr))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
