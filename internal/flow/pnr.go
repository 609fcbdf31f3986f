package flow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/silogic/edactl/internal/config"
	"github.com/silogic/edactl/internal/driver"
	"github.com/silogic/edactl/internal/interpret"
	"github.com/silogic/edactl/internal/script"
)

// PlaceAndRoute runs one place-and-route job. With no explicit script
// a basic flow script is generated next to the netlist; a generated
// run additionally requires the timing report on disk to count as a
// success. GUI runs block until the window closes and capture nothing.
func (e *Engine) PlaceAndRoute(ctx context.Context, job PnRJob) (res Result, err error) {
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	res = Result{RunID: uuid.NewString(), Stage: StageValidation}

	scriptPath := strings.TrimSpace(job.Script)
	top := script.CleanTop(job.Top)
	if scriptPath != "" {
		if !fileExists(scriptPath) {
			return res, fmt.Errorf("%w: script not found: %s", ErrInvalidJob, scriptPath)
		}
	} else {
		if top == "" {
			return res, fmt.Errorf("%w: top module name required", ErrInvalidJob)
		}
		if strings.TrimSpace(job.Netlist) == "" {
			return res, fmt.Errorf("%w: netlist required", ErrInvalidJob)
		}
		if !fileExists(job.Netlist) {
			return res, fmt.Errorf("%w: netlist not found: %s", ErrInvalidJob, job.Netlist)
		}
	}

	res.Stage = StageToolDiscovery
	drv, err := e.driverFor(config.SlotPnR)
	if err != nil {
		return res, err
	}
	handle, err := drv.Locate(ctx)
	if err != nil {
		return res, err
	}

	generated := scriptPath == ""
	if generated {
		res.Stage = StageScriptGen
		scriptPath = filepath.Join(filepath.Dir(job.Netlist), top+"_flow.tcl")
		text := e.renderFlowTCL(top, job.Netlist, handle.Bridged)
		if writeErr := os.WriteFile(scriptPath, []byte(text), 0o644); writeErr != nil {
			return res, fmt.Errorf("flow: write %s: %w", scriptPath, writeErr)
		}
	}

	scriptDir := filepath.Dir(scriptPath)
	scriptName := filepath.Base(scriptPath)

	log.Info().
		Str("run_id", res.RunID).
		Str("script", scriptPath).
		Bool("gui", job.GUI).
		Bool("generated", generated).
		Msg("place and route started")

	res.Stage = StagePlaceRoute
	if job.GUI {
		gui, ok := drv.(driver.GUIRunner)
		if !ok {
			return res, fmt.Errorf("flow: driver %s has no gui mode", drv.Name())
		}
		out, runErr := gui.GUI(ctx, scriptDir, []string{scriptName})
		res.Output = out
		if runErr != nil {
			return res, runErr
		}
		res.Success = out.ExitCode == 0
		if res.Success {
			res.Stage = StageCompleted
		}
		return res, nil
	}

	out, runErr := drv.Batch(ctx, scriptDir, []string{scriptName})
	res.Output = out
	res.Report = interpret.Interpret(out.Stdout, out.Stderr)
	writeRunLog(filepath.Join(scriptDir, "openroad.log"), out)
	if runErr != nil {
		return res, runErr
	}

	staReport := filepath.Join(scriptDir, "sta_report.txt")
	if fileExists(staReport) {
		res.Artifact = staReport
	}
	res.Success = out.ExitCode == 0 && (!generated || res.Artifact != "")
	if res.Success {
		res.Stage = StageCompleted
		log.Info().
			Str("run_id", res.RunID).
			Str("artifact", res.Artifact).
			Dur("elapsed", time.Since(start)).
			Msg("place and route completed")
		return res, nil
	}

	log.Warn().
		Str("run_id", res.RunID).
		Int("exit_code", out.ExitCode).
		Int("errors", len(res.Report.Errors)).
		Msg("place and route failed")
	return res, nil
}

// renderFlowTCL builds the basic flow script. The netlist and any
// constraints file sit next to the script, so they are referenced by
// name and resolve against the run's working directory. Technology
// files are absolute and guest-translated when the tool is bridged.
func (e *Engine) renderFlowTCL(top, netlist string, bridged bool) string {
	root := e.Config.Tech.Root
	lines := []string{
		fmt.Sprintf("# openroad basic flow for module '%s'", top),
		fmt.Sprintf("read_lef %q", e.tclPath(filepath.Join(root, "Nangate45.tech.lef"), bridged)),
		fmt.Sprintf("read_lef %q", e.tclPath(filepath.Join(root, "Nangate45.macro.lef"), bridged)),
		fmt.Sprintf("read_liberty %q", e.tclPath(filepath.Join(root, "Nangate45_typ.lib"), bridged)),
		fmt.Sprintf("read_verilog %q", filepath.Base(netlist)),
		"link_design " + top,
	}
	sdc := filepath.Join(filepath.Dir(netlist), top+".sdc")
	if fileExists(sdc) {
		lines = append(lines, fmt.Sprintf("read_sdc %q", filepath.Base(sdc)))
	}
	lines = append(lines,
		`report_checks > "sta_report.txt"`,
		"exit",
	)
	return strings.Join(lines, "\n") + "\n"
}

// tclPath renders a host path for use inside a tcl script.
func (e *Engine) tclPath(p string, bridged bool) string {
	if bridged {
		if guest, err := e.Bridge.GuestPath(p); err == nil {
			p = guest
		}
	}
	return strings.ReplaceAll(p, "\\", "/")
}
