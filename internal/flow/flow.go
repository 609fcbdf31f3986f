// Package flow orchestrates synthesis, place-and-route, and layout
// sessions over the configured tool drivers.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/silogic/edactl/internal/bridge"
	"github.com/silogic/edactl/internal/config"
	"github.com/silogic/edactl/internal/driver"
	"github.com/silogic/edactl/internal/interpret"
	"github.com/silogic/edactl/internal/invoke"
	"github.com/silogic/edactl/internal/script"
	"github.com/silogic/edactl/internal/session"
	"github.com/silogic/edactl/internal/tools"
)

var ErrInvalidJob = errors.New("flow: invalid job")

// Stage marks how far an operation got before finishing or failing.
type Stage string

const (
	StageValidation    Stage = "validation"
	StageScriptGen     Stage = "script_generation"
	StageToolDiscovery Stage = "tool_discovery"
	StageSynthesis     Stage = "synthesis"
	StagePlaceRoute    Stage = "place_route"
	StageCompleted     Stage = "completed"
)

// Result is the terminal record of one operation. Success requires a
// zero exit and, when the operation declares one, the output artifact
// on disk.
type Result struct {
	RunID    string           `json:"run_id"`
	Success  bool             `json:"success"`
	Stage    Stage            `json:"stage"`
	Artifact string           `json:"artifact,omitempty"`
	Report   interpret.Report `json:"report"`
	Output   invoke.Output    `json:"output"`
	Elapsed  time.Duration    `json:"elapsed"`
}

// Job is one synthesis request.
type Job struct {
	Sources   []string       `json:"sources"`
	Top       string         `json:"top"`
	Output    string         `json:"output,omitempty"`
	Profile   script.Profile `json:"profile,omitempty"`
	ShowStats bool           `json:"show_stats,omitempty"`
}

// PnRJob is one place-and-route request. With no explicit script a
// basic flow script is generated next to the netlist.
type PnRJob struct {
	Netlist string `json:"netlist"`
	Top     string `json:"top"`
	Script  string `json:"script,omitempty"`
	GUI     bool   `json:"gui,omitempty"`
}

// ToolStatus is one slot's discovery outcome.
type ToolStatus struct {
	Slot    string `json:"slot"`
	Driver  string `json:"driver"`
	Found   bool   `json:"found"`
	Bridged bool   `json:"bridged"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Engine runs flow operations against one configuration. Runner
// overrides discovery probes and exists for tests.
type Engine struct {
	Config config.Config
	Bridge bridge.Bridge
	Runner tools.CommandRunner
}

// NewEngine builds an engine over a defaulted configuration.
func NewEngine(cfg config.Config) *Engine {
	return &Engine{Config: cfg.WithDefaults(), Bridge: bridge.Bridge{}.WithDefaults()}
}

// driverFor builds the driver bound to a flow slot.
func (e *Engine) driverFor(slot string) (driver.Driver, error) {
	tool, ok := e.Config.Tools[slot]
	if !ok {
		return nil, fmt.Errorf("flow: no tool configured for slot %q", slot)
	}
	return driver.New(tool.Driver, driver.Deps{
		Config: tool,
		Bridge: e.Bridge,
		Runner: e.Runner,
	})
}

// OpenLayout starts an interactive layout session on the layout slot's
// driver. The caller owns the session and must close it.
func (e *Engine) OpenLayout(ctx context.Context, logPath string) (*session.Session, error) {
	drv, err := e.driverFor(config.SlotLayout)
	if err != nil {
		return nil, err
	}
	return drv.OpenSession(ctx, logPath)
}

// Tools probes every configured slot and reports what was found. A
// missing tool is a reported status, not an error.
func (e *Engine) Tools(ctx context.Context) []ToolStatus {
	slots := make([]string, 0, len(e.Config.Tools))
	for slot := range e.Config.Tools {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	statuses := make([]ToolStatus, 0, len(slots))
	for _, slot := range slots {
		tool := e.Config.Tools[slot]
		status := ToolStatus{Slot: slot, Driver: tool.Driver}

		drv, err := e.driverFor(slot)
		if err != nil {
			status.Error = err.Error()
			statuses = append(statuses, status)
			continue
		}
		h, err := drv.Locate(ctx)
		if err != nil {
			status.Error = err.Error()
			statuses = append(statuses, status)
			continue
		}
		status.Found = true
		status.Bridged = h.Bridged
		status.Path = h.Path
		status.Version = h.Version
		statuses = append(statuses, status)
	}
	return statuses
}
