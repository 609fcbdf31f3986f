// Package session drives one persistent interactive tool process as a
// command/reply channel with bounded waits.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/silogic/edactl/internal/bridge"
	"github.com/silogic/edactl/internal/locate"
	"github.com/silogic/edactl/internal/observability"
)

var (
	ErrStart        = errors.New("session: process start failed")
	ErrNotRunning   = errors.New("session: not running")
	ErrTimeout      = errors.New("session: reply timed out")
	ErrToolReported = errors.New("session: tool reported error")
)

// State is the session lifecycle. Running moves to Dead on timeout or
// process exit and to Closed on Close; neither is reversible.
type State string

const (
	StateCreated State = "created"
	StateRunning State = "running"
	StateClosed  State = "closed"
	StateDead    State = "dead"
)

const (
	defaultReplyTimeout   = 15 * time.Second
	defaultTerminateGrace = 2 * time.Second
	defaultQuitCommand    = "quit"
)

// Options tune one session. Zero values take the interactive-tool
// defaults.
type Options struct {
	Args           []string
	Dir            string
	QuitCommand    string
	ReplyTimeout   time.Duration
	TerminateGrace time.Duration
	LogPath        string
	Bridge         bridge.Bridge
}

func (o Options) withDefaults() Options {
	if len(o.Args) == 0 {
		o.Args = []string{"-noconsole"}
	}
	if strings.TrimSpace(o.QuitCommand) == "" {
		o.QuitCommand = defaultQuitCommand
	}
	if o.ReplyTimeout <= 0 {
		o.ReplyTimeout = defaultReplyTimeout
	}
	if o.TerminateGrace <= 0 {
		o.TerminateGrace = defaultTerminateGrace
	}
	return o
}

// Session owns exactly one live tool process. All commands serialize on
// an internal lock; the reply protocol has no correlation ids, so only
// one command may be in flight.
type Session struct {
	mu     sync.Mutex
	state  State
	handle locate.Handle
	opts   Options

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr *bufio.Reader

	waited  bool
	waitErr error
}

type lineResult struct {
	text string
	err  error
}

// Open spawns the tool process with piped streams and returns a
// Running session.
func Open(h locate.Handle, opts Options) (*Session, error) {
	if strings.TrimSpace(h.Path) == "" {
		return nil, fmt.Errorf("%w: empty tool path", ErrStart)
	}
	opts = opts.withDefaults()

	var cmd *exec.Cmd
	if h.Bridged {
		argv := opts.Bridge.Command(h.Path, opts.Args)
		cmd = exec.Command(argv[0], argv[1:]...)
	} else {
		cmd = exec.Command(h.Path, opts.Args...)
	}
	cmd.Dir = opts.Dir

	s := &Session{state: StateCreated, handle: h, opts: opts, cmd: cmd}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStart, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStart, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStart, err)
	}
	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.stderr = bufio.NewReader(stderr)

	if err := cmd.Start(); err != nil {
		if h.Bridged && errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", bridge.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrStart, err)
	}
	s.state = StateRunning

	log.Debug().
		Str("tool", h.Tool).
		Int("pid", cmd.Process.Pid).
		Strs("argv", cmd.Args).
		Msg("session started")
	return s, nil
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send writes one command line and waits for exactly one reply line on
// each stream. A missing line within the timeout kills the process and
// leaves the session Dead. A non-empty diagnostic line fails the call
// with ErrToolReported while the session stays usable. An empty reply
// line is a valid reply, not a timeout.
func (s *Session) Send(command string, timeout time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return "", fmt.Errorf("%w: state %s", ErrNotRunning, s.state)
	}
	if timeout <= 0 {
		timeout = s.opts.ReplyTimeout
	}

	if _, err := io.WriteString(s.stdin, command+"\n"); err != nil {
		s.reap()
		s.state = StateDead
		observability.RecordSessionCommand(s.handle.Tool, "died")
		return "", fmt.Errorf("%w: write failed: %v", ErrNotRunning, err)
	}

	outCh := make(chan lineResult, 1)
	errCh := make(chan lineResult, 1)
	go readLine(s.stdout, outCh)
	go readLine(s.stderr, errCh)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var out, diag lineResult
	gotOut, gotDiag := false, false
	for !gotOut || !gotDiag {
		select {
		case out = <-outCh:
			gotOut = true
		case diag = <-errCh:
			gotDiag = true
		case <-timer.C:
			_ = s.cmd.Process.Kill()
			s.reap()
			s.state = StateDead
			observability.RecordSessionCommand(s.handle.Tool, "timeout")
			return "", fmt.Errorf("%w: no reply to %q within %s", ErrTimeout, command, timeout)
		}
	}

	s.appendLog(command, out.text, diag.text)

	if out.err != nil || diag.err != nil {
		s.reap()
		s.state = StateDead
		observability.RecordSessionCommand(s.handle.Tool, "died")
		return "", fmt.Errorf("%w: process exited", ErrNotRunning)
	}

	if diagText := strings.TrimSpace(diag.text); diagText != "" {
		observability.RecordSessionCommand(s.handle.Tool, "tool_error")
		return "", fmt.Errorf("%w: %s", ErrToolReported, diagText)
	}

	observability.RecordSessionCommand(s.handle.Tool, "ok")
	return strings.TrimSpace(out.text), nil
}

// Close shuts the process down, politely first. It is idempotent, safe
// after the process has already died, and never fails.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return nil
	}
	s.state = StateClosed

	_, _ = io.WriteString(s.stdin, s.opts.QuitCommand+"\n")
	_ = s.stdin.Close()

	s.waited = true
	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	select {
	case s.waitErr = <-done:
	case <-time.After(s.opts.TerminateGrace):
		_ = s.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case s.waitErr = <-done:
		case <-time.After(s.opts.TerminateGrace):
			_ = s.cmd.Process.Kill()
			s.waitErr = <-done
		}
	}

	log.Debug().Str("tool", s.handle.Tool).Msg("session closed")
	return nil
}

// reap waits for the process exactly once. Callers hold the lock.
func (s *Session) reap() {
	if s.waited {
		return
	}
	s.waited = true
	s.waitErr = s.cmd.Wait()
}

// appendLog records one command exchange to the session log file,
// best-effort.
func (s *Session) appendLog(command, out, diag string) {
	if s.opts.LogPath == "" {
		return
	}
	f, err := os.OpenFile(s.opts.LogPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "Command: %s\nOutput: %s\nError: %s\n---\n",
		command, strings.TrimRight(out, "\r\n"), strings.TrimRight(diag, "\r\n"))
}

func readLine(r *bufio.Reader, ch chan<- lineResult) {
	text, err := r.ReadString('\n')
	ch <- lineResult{text: text, err: err}
}
