package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/silogic/edactl/internal/rtl"
)

func commands(s Script) []string {
	var out []string
	for _, line := range s.Lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func TestRenderGenericSequential(t *testing.T) {
	s, err := Render(Request{
		Top:     "counter",
		Sources: []string{"counter.v"},
		Output:  "counter_synthesized.v",
		Kind:    rtl.Sequential,
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	want := []string{
		"read_verilog counter.v",
		"hierarchy -check -top counter",
		"proc",
		"opt",
		"memory",
		"opt",
		"fsm",
		"opt",
		"techmap",
		"opt",
		"abc",
		"clean",
		"write_verilog -noattr counter_synthesized.v",
	}
	got := commands(s)
	if len(got) != len(want) {
		t.Fatalf("command sequence = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("command %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRenderCombinationalAbc(t *testing.T) {
	s, err := Render(Request{
		Top:     "mux4",
		Sources: []string{"mux4.v"},
		Output:  "mux4_synthesized.v",
		Kind:    rtl.Combinational,
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	text := s.Text()
	if !strings.Contains(text, combAbc) {
		t.Fatalf("combinational abc pass missing:\n%s", text)
	}
	for _, line := range s.Lines {
		if line == "abc" {
			t.Fatal("plain abc pass should not appear for combinational designs")
		}
	}
}

func TestRenderTargetProfile(t *testing.T) {
	s, err := Render(Request{
		Top:     "blinky",
		Sources: []string{"blinky.v"},
		Output:  "blinky_synthesized.v",
		Profile: ProfileICE40,
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	text := s.Text()
	if !strings.Contains(text, "synth_ice40 -top blinky") {
		t.Fatalf("target synth command missing:\n%s", text)
	}
	for _, generic := range []string{"fsm", "techmap", "clean"} {
		for _, line := range s.Lines {
			if line == generic {
				t.Fatalf("generic pass %q should be replaced by synth_ice40", generic)
			}
		}
	}
	if !strings.Contains(text, "hierarchy -check -top blinky") {
		t.Fatal("hierarchy check should run for every profile")
	}
}

func TestRenderIntelFallsBackToGeneric(t *testing.T) {
	s, err := Render(Request{
		Top:     "alu",
		Sources: []string{"alu.v"},
		Output:  "alu_synthesized.v",
		Profile: ProfileIntel,
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(s.Text(), "techmap") {
		t.Fatalf("intel profile should use the generic flow:\n%s", s.Text())
	}
}

func TestRenderDeterministic(t *testing.T) {
	req := Request{
		Top:       "counter",
		Sources:   []string{"a.v", "b.v"},
		Output:    "out.v",
		Kind:      rtl.Sequential,
		ShowStats: true,
	}
	first, err := Render(req)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	second, err := Render(req)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if first.Text() != second.Text() {
		t.Fatal("identical requests rendered different scripts")
	}
}

func TestRenderStats(t *testing.T) {
	req := Request{Top: "top", Sources: []string{"top.v"}, Output: "out.v"}

	withoutStats, err := Render(req)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	for _, line := range withoutStats.Lines {
		if line == "stat" {
			t.Fatal("stat pass present without ShowStats")
		}
	}

	req.ShowStats = true
	withStats, err := Render(req)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	found := false
	for _, line := range withStats.Lines {
		if line == "stat" {
			found = true
		}
	}
	if !found {
		t.Fatal("stat pass missing with ShowStats")
	}
}

func TestRenderNormalizesPaths(t *testing.T) {
	s, err := Render(Request{
		Top:     "top",
		Sources: []string{`C:\my designs\top.v`},
		Output:  `C:\my designs\out.v`,
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	text := s.Text()
	if !strings.Contains(text, `read_verilog "C:/my designs/top.v"`) {
		t.Fatalf("source path not normalized:\n%s", text)
	}
	if !strings.Contains(text, `write_verilog -noattr "C:/my designs/out.v"`) {
		t.Fatalf("output path not normalized:\n%s", text)
	}
}

func TestRenderValidation(t *testing.T) {
	cases := []Request{
		{Sources: []string{"a.v"}, Output: "out.v"},
		{Top: "top", Output: "out.v"},
		{Top: "top", Sources: []string{"a.v"}},
		{Top: "module ();", Sources: []string{"a.v"}, Output: "out.v"},
	}
	for i, req := range cases {
		if _, err := Render(req); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestCleanTop(t *testing.T) {
	cases := map[string]string{
		"counter":            "counter",
		"  counter  ":        "counter",
		"module counter":     "counter",
		"counter();":         "counter",
		"module counter ();": "counter",
		"counter\r\n":        "counter",
	}
	for in, want := range cases {
		if got := CleanTop(in); got != want {
			t.Fatalf("CleanTop(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteScratch(t *testing.T) {
	s, err := Render(Request{Top: "top", Sources: []string{"top.v"}, Output: "out.v"})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	dir := t.TempDir()
	path, cleanup, err := s.WriteScratch(dir)
	if err != nil {
		t.Fatalf("write scratch failed: %v", err)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "synth_") || !strings.HasSuffix(base, ".ys") {
		t.Fatalf("scratch name = %q", base)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read scratch: %v", err)
	}
	if string(content) != s.Text() {
		t.Fatalf("scratch content mismatch:\n%s", content)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("scratch survived cleanup: %v", err)
	}
	cleanup()
}

func TestWriteScratchCollision(t *testing.T) {
	s, err := Render(Request{Top: "top", Sources: []string{"top.v"}, Output: "out.v"})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	dir := t.TempDir()
	first, firstCleanup, err := s.WriteScratch(dir)
	if err != nil {
		t.Fatalf("first scratch failed: %v", err)
	}
	defer firstCleanup()

	second, secondCleanup, err := s.WriteScratch(dir)
	if err != nil {
		t.Fatalf("second scratch failed: %v", err)
	}
	defer secondCleanup()

	if first == second {
		t.Fatalf("scratch files collided: %q", first)
	}
}
