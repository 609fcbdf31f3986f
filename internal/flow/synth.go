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
	"github.com/silogic/edactl/internal/interpret"
	"github.com/silogic/edactl/internal/rtl"
	"github.com/silogic/edactl/internal/script"
)

// Synthesize runs one synthesis job: validate, render the script,
// discover the tool, run it, interpret the output. A run that executed
// but failed returns Success=false with a nil error; errors are
// reserved for jobs that never produced a tool run.
func (e *Engine) Synthesize(ctx context.Context, job Job) (res Result, err error) {
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	res = Result{RunID: uuid.NewString(), Stage: StageValidation}

	top := script.CleanTop(job.Top)
	if top == "" {
		return res, fmt.Errorf("%w: top module name required", ErrInvalidJob)
	}
	if len(job.Sources) == 0 {
		return res, fmt.Errorf("%w: at least one source file required", ErrInvalidJob)
	}
	for _, source := range job.Sources {
		if !isVerilogFile(source) {
			return res, fmt.Errorf("%w: not a verilog source: %s", ErrInvalidJob, source)
		}
		if _, statErr := os.Stat(source); statErr != nil {
			return res, fmt.Errorf("%w: source not readable: %v", ErrInvalidJob, statErr)
		}
	}

	firstSource, err := os.ReadFile(job.Sources[0])
	if err != nil {
		return res, fmt.Errorf("%w: read %s: %v", ErrInvalidJob, job.Sources[0], err)
	}
	kind := rtl.DetectKind(string(firstSource))

	workDir := e.Config.Work.Dir
	output := strings.TrimSpace(job.Output)
	if output == "" {
		output = filepath.Join(workDir, "out", top+"_synthesized.v")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return res, fmt.Errorf("flow: create work dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return res, fmt.Errorf("flow: create output dir: %w", err)
	}
	backup, err := backupExisting(output)
	if err != nil {
		return res, fmt.Errorf("flow: backup previous artifact: %w", err)
	}
	if backup != "" {
		log.Debug().Str("run_id", res.RunID).Str("backup", backup).Msg("previous artifact backed up")
	}

	res.Stage = StageScriptGen
	rendered, err := script.Render(script.Request{
		Top:       top,
		Sources:   job.Sources,
		Output:    output,
		Profile:   job.Profile,
		Kind:      kind,
		ShowStats: job.ShowStats,
	})
	if err != nil {
		return res, err
	}
	scratch, cleanup, err := rendered.WriteScratch(workDir)
	if err != nil {
		return res, err
	}
	defer cleanup()

	res.Stage = StageToolDiscovery
	drv, err := e.driverFor(config.SlotSynth)
	if err != nil {
		return res, err
	}
	if _, err := drv.Locate(ctx); err != nil {
		return res, err
	}

	log.Info().
		Str("run_id", res.RunID).
		Str("top", top).
		Int("sources", len(job.Sources)).
		Str("kind", string(kind)).
		Msg("synthesis started")

	res.Stage = StageSynthesis
	out, runErr := drv.Batch(ctx, workDir, []string{"-s", scratch})
	res.Output = out
	res.Report = interpret.Interpret(out.Stdout, out.Stderr)
	writeRunLog(filepath.Join(filepath.Dir(output), "yosys.log"), out)
	if runErr != nil {
		return res, runErr
	}

	if out.ExitCode == 0 && fileExists(output) {
		res.Success = true
		res.Stage = StageCompleted
		res.Artifact = output
		if cleanErr := rtl.CleanNetlistFile(output); cleanErr != nil {
			log.Warn().Str("run_id", res.RunID).Err(cleanErr).Msg("netlist cleanup failed")
		}
		log.Info().
			Str("run_id", res.RunID).
			Str("artifact", output).
			Dur("elapsed", time.Since(start)).
			Msg("synthesis completed")
		return res, nil
	}

	log.Warn().
		Str("run_id", res.RunID).
		Int("exit_code", out.ExitCode).
		Int("errors", len(res.Report.Errors)).
		Msg("synthesis failed")
	return res, nil
}
