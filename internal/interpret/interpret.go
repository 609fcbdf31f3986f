// Package interpret extracts structured findings from synthesis tool
// output. Interpretation is total: any input yields a report, never an
// error.
package interpret

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies the dominant failure in a report. When several
// classifiable errors appear, the last one wins.
type Kind string

const (
	KindNone           Kind = ""
	KindModuleNotFound Kind = "module_not_found"
	KindSyntaxError    Kind = "syntax_error"
)

var (
	moduleRe  = regexp.MustCompile("module `\\\\(\\w+)")
	integerRe = regexp.MustCompile(`(\d+)`)
)

// Report is the structured view of one tool run's output.
type Report struct {
	Errors   []string       `json:"errors,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Passes   []string       `json:"passes,omitempty"`
	Stats    map[string]int `json:"stats,omitempty"`
	Modules  []string       `json:"modules,omitempty"`
	Kind     Kind           `json:"kind,omitempty"`
	Hints    []string       `json:"hints,omitempty"`
}

// HasErrors reports whether any error lines were found.
func (r Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// Interpret scans both output streams line by line. Each line lands in
// at most one category; statistics keep the value from the latest
// matching line.
func Interpret(stdout, stderr string) Report {
	report := Report{Stats: map[string]int{}}

	for _, line := range strings.Split(stdout+"\n"+stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		lower := strings.ToLower(line)

		switch {
		case strings.Contains(upper, "ERROR:") || strings.Contains(upper, "FATAL:") || strings.Contains(upper, "ABORT"):
			report.Errors = append(report.Errors, line)
			if strings.Contains(lower, "not found") {
				report.Kind = KindModuleNotFound
				report.Hints = append(report.Hints,
					"Check module name spelling",
					"Ensure module is defined in the Verilog files",
				)
			} else if strings.Contains(lower, "syntax error") {
				report.Kind = KindSyntaxError
				report.Hints = append(report.Hints,
					"Check Verilog syntax",
					"Look for missing semicolons or parentheses",
				)
			}
		case strings.Contains(upper, "WARNING:") || strings.Contains(upper, "WARN:"):
			report.Warnings = append(report.Warnings, line)
		case strings.Contains(lower, "executing") && strings.Contains(lower, "pass"):
			report.Passes = append(report.Passes, line)
		case strings.Contains(lower, "number of"):
			recordStat(report.Stats, line)
		case strings.Contains(lower, "generating rtlil representation for module"):
			if m := moduleRe.FindStringSubmatch(line); m != nil {
				report.Modules = append(report.Modules, m[1])
			}
		}
	}

	return report
}

// recordStat pulls the trailing integer off a statistics line.
func recordStat(stats map[string]int, line string) {
	var key string
	switch {
	case strings.Contains(line, "cells:"):
		key = "cells"
	case strings.Contains(line, "wires:"):
		key = "wires"
	case strings.Contains(line, "processes:"):
		key = "processes"
	default:
		return
	}

	matches := integerRe.FindAllString(line, -1)
	if len(matches) == 0 {
		return
	}
	value, err := strconv.Atoi(matches[len(matches)-1])
	if err != nil {
		return
	}
	stats[key] = value
}
