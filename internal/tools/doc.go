// Package tools provides the low-level command execution helper shared
// by tool discovery probes.
package tools
