package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edactl.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HTTP.Addr != ":9040" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	for _, slot := range []string{SlotSynth, SlotLayout, SlotPnR} {
		if _, ok := cfg.Tools[slot]; !ok {
			t.Fatalf("default config missing tool slot %q", slot)
		}
	}
	if driver := cfg.Tools[SlotSynth].Driver; driver != "yosys" {
		t.Fatalf("synth driver = %q", driver)
	}
	if len(cfg.Tools[SlotPnR].Candidates) != 3 {
		t.Fatalf("pnr candidates = %v", cfg.Tools[SlotPnR].Candidates)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[http]
addr = ":7777"

[tools.synth]
driver = "yosys"
budget = "90s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTP.Addr != ":7777" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Work.Dir != "work" {
		t.Fatalf("work dir default missing: %q", cfg.Work.Dir)
	}

	synth := cfg.Tools[SlotSynth]
	if synth.Budget != "90s" {
		t.Fatalf("budget = %q", synth.Budget)
	}
	if len(synth.VerifyArgs) != 1 || synth.VerifyArgs[0] != "-V" {
		t.Fatalf("verify args not defaulted: %v", synth.VerifyArgs)
	}

	if _, ok := cfg.Tools[SlotLayout]; !ok {
		t.Fatal("layout slot not defaulted in")
	}
	if _, ok := cfg.Tools[SlotPnR]; !ok {
		t.Fatal("pnr slot not defaulted in")
	}
}

func TestWithDefaultsDerivesTechEnv(t *testing.T) {
	cfg := Config{Tech: TechConfig{Root: "/opt/tech/nangate45"}}.WithDefaults()
	pnr := cfg.Tools[SlotPnR]
	found := false
	for _, entry := range pnr.Env {
		if entry == "OPENROAD_TECH=/opt/tech/nangate45" {
			found = true
		}
	}
	if !found {
		t.Fatalf("tech env not derived: %v", pnr.Env)
	}
}

func TestWithDefaultsKeepsExplicitTechEnv(t *testing.T) {
	cfg := Config{
		Tools: map[string]ToolConfig{
			SlotPnR: {Driver: "openroad", Env: []string{"OPENROAD_TECH=/custom"}},
		},
	}.WithDefaults()

	count := 0
	for _, entry := range cfg.Tools[SlotPnR].Env {
		if strings.HasPrefix(entry, "OPENROAD_TECH=") {
			count++
			if entry != "OPENROAD_TECH=/custom" {
				t.Fatalf("explicit tech env replaced: %q", entry)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one tech env entry, got %v", cfg.Tools[SlotPnR].Env)
	}
}

func TestToolConfigDurations(t *testing.T) {
	tool := ToolConfig{VerifyLimit: "2s", Budget: "3m", ReplyTimeout: "250ms"}
	if tool.VerifyWindow() != 2*time.Second {
		t.Fatalf("verify window = %s", tool.VerifyWindow())
	}
	if tool.RunBudget() != 3*time.Minute {
		t.Fatalf("run budget = %s", tool.RunBudget())
	}
	if tool.ReplyWindow() != 250*time.Millisecond {
		t.Fatalf("reply window = %s", tool.ReplyWindow())
	}

	empty := ToolConfig{}
	if empty.VerifyWindow() != 10*time.Second {
		t.Fatalf("default verify window = %s", empty.VerifyWindow())
	}
	if empty.RunBudget() != 5*time.Minute {
		t.Fatalf("default run budget = %s", empty.RunBudget())
	}
	if empty.ReplyWindow() != 15*time.Second {
		t.Fatalf("default reply window = %s", empty.ReplyWindow())
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
[tools.synth]
driver = "yosys"
budget = "soon"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}

func TestValidateToolConfig(t *testing.T) {
	if err := ValidateToolConfig(ToolConfig{}); err == nil {
		t.Fatal("expected error for missing driver")
	}
	if err := ValidateToolConfig(ToolConfig{Driver: "yosys", Env: []string{"BROKEN"}}); err == nil {
		t.Fatal("expected error for malformed env entry")
	}
	if err := ValidateToolConfig(ToolConfig{Driver: "yosys", Env: []string{"KEY=value"}}); err != nil {
		t.Fatalf("valid tool rejected: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLocateSpec(t *testing.T) {
	tool := ToolConfig{
		Driver:      "openroad",
		Candidates:  []string{`D:\OpenROAD\bin\openroad`},
		VerifyArgs:  []string{"--version"},
		VerifyLimit: "4s",
	}
	spec := tool.LocateSpec()
	if spec.Tool != "openroad" {
		t.Fatalf("spec tool = %q", spec.Tool)
	}
	if len(spec.Candidates) != 1 {
		t.Fatalf("spec candidates = %v", spec.Candidates)
	}
	if spec.VerifyLimit != 4*time.Second {
		t.Fatalf("spec verify limit = %s", spec.VerifyLimit)
	}
}

func TestTemplates(t *testing.T) {
	for _, kind := range []string{"daemon", "cli"} {
		text, err := Template(kind)
		if err != nil {
			t.Fatalf("template %q failed: %v", kind, err)
		}
		if !strings.Contains(text, "[tools.synth]") {
			t.Fatalf("template %q missing synth section:\n%s", kind, text)
		}
	}
	if _, err := Template("ini"); err == nil {
		t.Fatal("expected error for unknown template kind")
	}
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edactl.toml")
	if err := WriteTemplate(path, "daemon", false); err != nil {
		t.Fatalf("write template failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("generated template does not load: %v", err)
	}
	if cfg.Tools[SlotPnR].Driver != "openroad" {
		t.Fatalf("template pnr driver = %q", cfg.Tools[SlotPnR].Driver)
	}

	if err := WriteTemplate(path, "daemon", false); err == nil {
		t.Fatal("expected overwrite to be rejected")
	}
	if err := WriteTemplate(path, "daemon", true); err != nil {
		t.Fatalf("forced overwrite failed: %v", err)
	}
}
