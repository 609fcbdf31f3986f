// Package invoke runs located tools as batch processes or blocking GUI
// sessions, on the host directly or through the guest bridge.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/silogic/edactl/internal/bridge"
	"github.com/silogic/edactl/internal/locate"
	"github.com/silogic/edactl/internal/observability"
)

var (
	ErrStart   = errors.New("invoke: process start failed")
	ErrTimeout = errors.New("invoke: run timed out")
)

const defaultBudget = 5 * time.Minute

// Output is everything captured from one run. On timeout the streams
// hold whatever the tool produced before it was killed.
type Output struct {
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	ExitCode int           `json:"exit_code"`
	Elapsed  time.Duration `json:"elapsed"`
	TimedOut bool          `json:"timed_out,omitempty"`
}

// Runner executes verified tool handles. Env entries are appended to
// the process environment.
type Runner struct {
	Bridge bridge.Bridge
	Env    []string
}

// Batch runs the tool to completion with both streams captured. A run
// that finishes with a nonzero exit is not an error here; the exit code
// travels in the Output. The error cases are start failure, the budget
// expiring, and context cancellation.
func (r Runner) Batch(ctx context.Context, h locate.Handle, dir string, args []string, budget time.Duration) (Output, error) {
	if strings.TrimSpace(h.Path) == "" {
		return Output{}, fmt.Errorf("%w: empty tool path", ErrStart)
	}
	if budget <= 0 {
		budget = defaultBudget
	}

	cmd, err := r.command(h, dir, args)
	if err != nil {
		return Output{}, err
	}
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().
		Str("tool", h.Tool).
		Bool("bridged", h.Bridged).
		Strs("argv", cmd.Args).
		Dur("budget", budget).
		Msg("batch run starting")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		observability.RecordInvocation(h.Tool, "batch", "start_error", time.Since(start))
		if h.Bridged && errors.Is(err, exec.ErrNotFound) {
			return Output{}, fmt.Errorf("%w: %v", bridge.ErrUnavailable, err)
		}
		return Output{}, fmt.Errorf("%w: %v", ErrStart, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	out := Output{}
	finish := func(waitErr error) {
		out.Stdout = stdout.String()
		out.Stderr = stderr.String()
		out.Elapsed = time.Since(start)
		out.ExitCode = exitCode(waitErr)
	}

	select {
	case waitErr := <-done:
		finish(waitErr)
	case <-timer.C:
		_ = cmd.Process.Kill()
		finish(<-done)
		out.TimedOut = true
		observability.RecordInvocation(h.Tool, "batch", "timeout", out.Elapsed)
		return out, fmt.Errorf("%w: %s after %s", ErrTimeout, h.Tool, budget)
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		finish(<-done)
		observability.RecordInvocation(h.Tool, "batch", "canceled", out.Elapsed)
		return out, ctx.Err()
	}

	outcome := "ok"
	if out.ExitCode != 0 {
		outcome = "failed"
	}
	observability.RecordInvocation(h.Tool, "batch", outcome, out.Elapsed)
	log.Debug().
		Str("tool", h.Tool).
		Int("exit_code", out.ExitCode).
		Dur("elapsed", out.Elapsed).
		Msg("batch run finished")
	return out, nil
}

// GUI runs the tool attached to the caller's terminal and blocks until
// the window closes. Nothing is captured.
func (r Runner) GUI(ctx context.Context, h locate.Handle, dir string, args []string) (Output, error) {
	if strings.TrimSpace(h.Path) == "" {
		return Output{}, fmt.Errorf("%w: empty tool path", ErrStart)
	}

	cmd, err := r.command(h, dir, args)
	if err != nil {
		return Output{}, err
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log.Debug().
		Str("tool", h.Tool).
		Bool("bridged", h.Bridged).
		Strs("argv", cmd.Args).
		Msg("gui run starting")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		observability.RecordInvocation(h.Tool, "gui", "start_error", time.Since(start))
		if h.Bridged && errors.Is(err, exec.ErrNotFound) {
			return Output{}, fmt.Errorf("%w: %v", bridge.ErrUnavailable, err)
		}
		return Output{}, fmt.Errorf("%w: %v", ErrStart, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		observability.RecordInvocation(h.Tool, "gui", "canceled", time.Since(start))
		return Output{Elapsed: time.Since(start)}, ctx.Err()
	}

	out := Output{ExitCode: exitCode(waitErr), Elapsed: time.Since(start)}
	outcome := "ok"
	if out.ExitCode != 0 {
		outcome = "failed"
	}
	observability.RecordInvocation(h.Tool, "gui", outcome, out.Elapsed)
	return out, nil
}

// command assembles the exec.Cmd for a handle. Bridged handles wrap the
// argv so the working directory changes inside the guest; direct
// handles use the host working directory.
func (r Runner) command(h locate.Handle, dir string, args []string) (*exec.Cmd, error) {
	var cmd *exec.Cmd
	if h.Bridged {
		guestDir, err := r.Bridge.GuestPath(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStart, err)
		}
		argv := r.Bridge.Wrap(guestDir, h.Path, r.Bridge.GuestArgs(args))
		cmd = exec.Command(argv[0], argv[1:]...)
	} else {
		cmd = exec.Command(h.Path, args...)
		cmd.Dir = dir
	}
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	return cmd, nil
}

func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
