// Package rtl holds the text-level helpers for working with Verilog
// sources and synthesized netlists.
package rtl

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Kind classifies a design by the elements it instantiates.
type Kind string

const (
	Combinational Kind = "combinational"
	Sequential    Kind = "sequential"
)

var sequentialMarkers = []string{
	"always @(posedge",
	"always @(negedge",
	"always @(edge",
	"reg ",
	"flip",
	"latch",
	"memory",
}

// DetectKind scans source text for sequential elements. Anything without a
// clocked process, register, latch, or memory counts as combinational.
func DetectKind(source string) Kind {
	lowered := strings.ToLower(source)
	for _, marker := range sequentialMarkers {
		if strings.Contains(lowered, marker) {
			return Sequential
		}
	}
	return Combinational
}

var modulePattern = regexp.MustCompile(`(?i)module\s+(\w+)`)

// Modules returns every module declared in the source text, in order.
func Modules(source string) []string {
	matches := modulePattern.FindAllStringSubmatch(source, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// ModulesInFiles maps each path to the modules it declares.
func ModulesInFiles(paths []string) (map[string][]string, error) {
	found := make(map[string][]string, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("rtl: reading %s: %w", path, err)
		}
		found[path] = Modules(string(content))
	}
	return found, nil
}

var (
	attributePattern = regexp.MustCompile(`(?s)\(\*.*?\*\)`)
	commentPattern   = regexp.MustCompile(`(?m)//.*$`)
	blankRunPattern  = regexp.MustCompile(`\n\s*\n+`)
)

// CleanNetlist strips synthesis attributes and line comments so the netlist
// can be consumed by downstream place-and-route tools.
func CleanNetlist(content string) string {
	cleaned := attributePattern.ReplaceAllString(content, "")
	cleaned = commentPattern.ReplaceAllString(cleaned, "")
	cleaned = blankRunPattern.ReplaceAllString(cleaned, "\n\n")
	lines := strings.Split(cleaned, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	cleaned = strings.Join(lines, "\n")
	return strings.TrimRight(cleaned, "\n \t") + "\n"
}

// CleanNetlistFile rewrites the file in place with CleanNetlist applied.
func CleanNetlistFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rtl: reading netlist %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(CleanNetlist(string(content))), 0o644); err != nil {
		return fmt.Errorf("rtl: rewriting netlist %s: %w", path, err)
	}
	return nil
}
