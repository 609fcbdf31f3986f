package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/silogic/edactl/internal/config"
	"github.com/silogic/edactl/internal/script"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edactl.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadCLIConfigDefaults(t *testing.T) {
	cli, err := loadCLIConfig("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cli.Config.Work.Dir != "work" {
		t.Fatalf("unexpected workdir: %q", cli.Config.Work.Dir)
	}
	if cli.Profile != script.ProfileGeneric {
		t.Fatalf("unexpected profile: %q", cli.Profile)
	}
	if cli.ShowStats {
		t.Fatalf("expected stats off by default")
	}
	if cli.Config.Tools[config.SlotSynth].Driver != "yosys" {
		t.Fatalf("unexpected synth driver: %q", cli.Config.Tools[config.SlotSynth].Driver)
	}
}

func TestLoadCLIConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
workdir = "builds"
tech_root = "/opt/pdk/nangate45"
profile = "ice40"
show_stats = true

[tools.synth]
candidates = ["/opt/oss-cad/bin/yosys"]
budget = "2m"

[tools.pnr]
budget = "30m"
`)

	cli, err := loadCLIConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cli.Config.Work.Dir != "builds" {
		t.Fatalf("unexpected workdir: %q", cli.Config.Work.Dir)
	}
	if cli.Config.Tech.Root != "/opt/pdk/nangate45" {
		t.Fatalf("unexpected tech root: %q", cli.Config.Tech.Root)
	}
	if cli.Profile != script.ProfileICE40 {
		t.Fatalf("unexpected profile: %q", cli.Profile)
	}
	if !cli.ShowStats {
		t.Fatalf("expected stats enabled")
	}

	synth := cli.Config.Tools[config.SlotSynth]
	if synth.Driver != "yosys" {
		t.Fatalf("undefined keys must keep defaults, driver = %q", synth.Driver)
	}
	if len(synth.Candidates) != 1 || synth.Candidates[0] != "/opt/oss-cad/bin/yosys" {
		t.Fatalf("unexpected candidates: %+v", synth.Candidates)
	}
	if synth.RunBudget() != 2*time.Minute {
		t.Fatalf("unexpected budget: %v", synth.RunBudget())
	}
	if len(synth.VerifyArgs) != 1 || synth.VerifyArgs[0] != "-V" {
		t.Fatalf("unexpected verify args: %+v", synth.VerifyArgs)
	}

	if cli.Config.Tools[config.SlotPnR].RunBudget() != 30*time.Minute {
		t.Fatalf("unexpected pnr budget: %v", cli.Config.Tools[config.SlotPnR].RunBudget())
	}
	if cli.Config.Tools[config.SlotLayout].Driver != "magic" {
		t.Fatalf("untouched slots must keep defaults")
	}
}

func TestLoadCLIConfigRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
[tools.synth]
budget = "whenever"
`)
	if _, err := loadCLIConfig(path); err == nil {
		t.Fatalf("expected a duration error")
	}
}

func TestLoadCLIConfigMissingFile(t *testing.T) {
	if _, err := loadCLIConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestLoadCLIConfigTemplateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edactl.toml")
	if err := config.WriteTemplate(path, "cli", false); err != nil {
		t.Fatalf("write template: %v", err)
	}

	cli, err := loadCLIConfig(path)
	if err != nil {
		t.Fatalf("template must load cleanly: %v", err)
	}
	if cli.Profile != script.ProfileGeneric {
		t.Fatalf("unexpected template profile: %q", cli.Profile)
	}
	if !cli.ShowStats {
		t.Fatalf("template enables stats")
	}
	if len(cli.Config.Tools[config.SlotPnR].Candidates) != 3 {
		t.Fatalf("unexpected pnr candidates: %+v", cli.Config.Tools[config.SlotPnR].Candidates)
	}
}
