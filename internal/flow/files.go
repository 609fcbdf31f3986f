package flow

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/silogic/edactl/internal/invoke"
)

var verilogSuffixes = []string{".v", ".sv", ".verilog", ".vh"}

func isVerilogFile(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range verilogSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// FindSources resolves a file or directory into a sorted list of
// verilog sources. A directory is walked recursively.
func FindSources(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if !info.IsDir() {
		if !isVerilogFile(path) {
			return nil, fmt.Errorf("%w: not a verilog source: %s", ErrInvalidJob, path)
		}
		return []string{path}, nil
	}

	var sources []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && isVerilogFile(p) {
			sources = append(sources, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("flow: scan %s: %w", path, err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no verilog sources under %s", ErrInvalidJob, path)
	}
	sort.Strings(sources)
	return sources, nil
}

// FindScripts lists the tcl scripts under dir, sorted.
func FindScripts(dir string) ([]string, error) {
	var scripts []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(p), ".tcl") {
			scripts = append(scripts, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("flow: scan %s: %w", dir, err)
	}
	sort.Strings(scripts)
	return scripts, nil
}

// backupExisting renames path out of the way, keeping the extension so
// the backup stays openable. Returns the backup path, or "" when there
// was nothing to move.
func backupExisting(path string) (string, error) {
	if !fileExists(path) {
		return "", nil
	}
	ext := filepath.Ext(path)
	backup := fmt.Sprintf("%s.backup_%d%s", strings.TrimSuffix(path, ext), time.Now().Unix(), ext)
	if err := os.Rename(path, backup); err != nil {
		return "", err
	}
	return backup, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// writeRunLog persists the combined tool output next to the artifact.
// Log writes never fail a run.
func writeRunLog(path string, out invoke.Output) {
	text := out.Stdout
	if out.Stderr != "" {
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += out.Stderr
	}
	_ = os.WriteFile(path, []byte(text), 0o644)
}
