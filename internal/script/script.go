// Package script renders synthesis scripts and manages their scratch
// files on disk.
package script

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/silogic/edactl/internal/rtl"
)

var ErrInvalidInput = errors.New("script: invalid request")

// Profile selects the synthesis flavor. Profiles without a dedicated
// synth command fall back to the generic pass sequence.
type Profile string

const (
	ProfileGeneric Profile = "generic"
	ProfileICE40   Profile = "ice40"
	ProfileECP5    Profile = "ecp5"
	ProfileXilinx  Profile = "xilinx"
	ProfileIntel   Profile = "intel"
)

// combAbc avoids the ABC gate-library warning on purely combinational
// designs; sequential designs take the stock abc pass.
const combAbc = "abc -g AND,NAND,OR,NOR,XOR,XNOR,MUX -script +fraig_sweep;fraig;refactor;balance"

// Request describes one synthesis script to render.
type Request struct {
	Top       string
	Sources   []string
	Output    string
	Profile   Profile
	Kind      rtl.Kind
	ShowStats bool
}

// Script is a rendered synthesis script. Rendering is deterministic:
// the same request always produces the same lines.
type Script struct {
	Top   string
	Lines []string
}

// Text returns the script as newline-joined text with a trailing
// newline.
func (s Script) Text() string {
	return strings.Join(s.Lines, "\n") + "\n"
}

// Render validates the request and builds the script line sequence.
func Render(req Request) (Script, error) {
	top := CleanTop(req.Top)
	if top == "" {
		return Script{}, fmt.Errorf("%w: top module name required", ErrInvalidInput)
	}
	if strings.ContainsAny(top, " \t") {
		return Script{}, fmt.Errorf("%w: top module name %q contains whitespace", ErrInvalidInput, top)
	}
	if len(req.Sources) == 0 {
		return Script{}, fmt.Errorf("%w: at least one source file required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Output) == "" {
		return Script{}, fmt.Errorf("%w: output path required", ErrInvalidInput)
	}
	kind := req.Kind
	if kind == "" {
		kind = rtl.Combinational
	}

	lines := []string{
		fmt.Sprintf("# yosys synthesis script for module '%s'", top),
		fmt.Sprintf("# circuit kind: %s", kind),
		"",
		"# read design sources",
	}
	for _, source := range req.Sources {
		lines = append(lines, "read_verilog "+normalizePath(source))
	}
	lines = append(lines,
		"",
		"# hierarchy and basic synthesis",
		fmt.Sprintf("hierarchy -check -top %s", top),
		"proc",
		"opt",
		"memory",
		"opt",
	)

	if cmd := synthCommand(req.Profile); cmd != "" {
		lines = append(lines,
			fmt.Sprintf("# %s synthesis", req.Profile),
			fmt.Sprintf("%s -top %s", cmd, top),
		)
	} else {
		lines = append(lines,
			"# generic synthesis flow",
			"fsm",
			"opt",
			"techmap",
			"opt",
		)
		if kind == rtl.Combinational {
			lines = append(lines, combAbc)
		} else {
			lines = append(lines, "abc")
		}
		lines = append(lines, "clean")
	}

	if req.ShowStats {
		lines = append(lines, "", "stat")
	}
	lines = append(lines, "", "write_verilog -noattr "+normalizePath(req.Output))

	return Script{Top: top, Lines: lines}, nil
}

// WriteScratch writes the script to a fresh scratch file under dir and
// returns its path plus an idempotent cleanup func.
func (s Script) WriteScratch(dir string) (string, func(), error) {
	for attempt := 0; attempt < 10; attempt++ {
		name := fmt.Sprintf("synth_%d_%d.ys", time.Now().Unix(), os.Getpid())
		if attempt > 0 {
			name = fmt.Sprintf("synth_%d_%d_%d.ys", time.Now().Unix(), os.Getpid(), attempt)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", nil, fmt.Errorf("script: create scratch: %w", err)
		}
		_, writeErr := f.WriteString(s.Text())
		closeErr := f.Close()
		if writeErr != nil || closeErr != nil {
			os.Remove(path)
			if writeErr == nil {
				writeErr = closeErr
			}
			return "", nil, fmt.Errorf("script: write scratch: %w", writeErr)
		}

		var once sync.Once
		cleanup := func() { once.Do(func() { os.Remove(path) }) }
		return path, cleanup, nil
	}
	return "", nil, errors.New("script: scratch name collisions exhausted")
}

// CleanTop normalizes a user-supplied top module name: whitespace runs
// collapse, a leading "module " keyword drops, and port punctuation is
// trimmed.
func CleanTop(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	name = strings.TrimPrefix(name, "module ")
	name = strings.Trim(name, "();")
	return strings.TrimSpace(name)
}

func synthCommand(p Profile) string {
	switch p {
	case ProfileICE40:
		return "synth_ice40"
	case ProfileECP5:
		return "synth_ecp5"
	case ProfileXilinx:
		return "synth_xilinx"
	default:
		return ""
	}
}

// normalizePath rewrites separators for script consumption and quotes
// paths the parser would otherwise split.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if strings.ContainsAny(p, " &()[]{};|<>?*") {
		return `"` + p + `"`
	}
	return p
}
