// Package bridge wraps command lines for execution inside a host/guest
// compatibility subsystem such as WSL.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/silogic/edactl/internal/pathmap"
	"github.com/silogic/edactl/internal/tools"
)

var ErrUnavailable = errors.New("bridge: unavailable")

const probeTimeout = 10 * time.Second

// Bridge names the subsystem launcher and the shell used for wrapped
// invocations. The zero value is not usable; call WithDefaults first.
type Bridge struct {
	Executable string
	Shell      string
	Runner     tools.CommandRunner
}

// WithDefaults fills unset fields with the WSL invocation shape.
func (b Bridge) WithDefaults() Bridge {
	if strings.TrimSpace(b.Executable) == "" {
		b.Executable = "wsl"
	}
	if strings.TrimSpace(b.Shell) == "" {
		b.Shell = "bash"
	}
	return b
}

// Probe verifies the bridge launcher itself answers. A missing or
// broken launcher reports ErrUnavailable.
func (b Bridge) Probe(ctx context.Context) error {
	b = b.WithDefaults()
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if _, _, _, err := b.runner().Run(probeCtx, b.Executable, "--status"); err != nil {
		return fmt.Errorf("%w: %s --status: %v", ErrUnavailable, b.Executable, err)
	}
	return nil
}

// Wrap builds the argv for running tool with args inside the guest,
// working directory set before the tool starts:
//
//	wsl bash -c 'cd "<dir>" && "<tool>" <args...>'
func (b Bridge) Wrap(dir, tool string, args []string) []string {
	b = b.WithDefaults()
	command := fmt.Sprintf("cd %q && %q", dir, tool)
	if len(args) > 0 {
		command += " " + joinArgs(args)
	}
	return []string{b.Executable, b.Shell, "-c", command}
}

// Command builds the bare argv for running tool inside the guest with
// no working-directory change: wsl <tool> <args...>.
func (b Bridge) Command(tool string, args []string) []string {
	b = b.WithDefaults()
	argv := make([]string, 0, len(args)+2)
	argv = append(argv, b.Executable, tool)
	argv = append(argv, args...)
	return argv
}

// GuestPath translates a host drive-letter path to its guest mount
// equivalent. Paths already in guest form pass through unchanged.
func (b Bridge) GuestPath(p string) (string, error) {
	if !pathmap.HasDrive(p) {
		return p, nil
	}
	return pathmap.ToMount(p)
}

// GuestArgs translates every argument that names an existing host path
// into its guest form, leaving everything else untouched.
func (b Bridge) GuestArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg
		if !pathmap.HasDrive(arg) {
			continue
		}
		if _, err := os.Stat(arg); err != nil {
			continue
		}
		if mounted, err := pathmap.ToMount(arg); err == nil {
			out[i] = mounted
		}
	}
	return out
}

func (b Bridge) runner() tools.CommandRunner {
	if b.Runner != nil {
		return b.Runner
	}
	return tools.ExecRunner{}
}

func joinArgs(args []string) string {
	var builder strings.Builder
	for i, arg := range args {
		if i > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(shellEscape(arg))
	}
	return builder.String()
}

func shellEscape(value string) string {
	if value == "" {
		return "''"
	}
	if !strings.ContainsAny(value, " \t'\"\\$&|;<>()*?[]#~%") {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
