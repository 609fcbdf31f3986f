package rtl

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const muxSource = `module mux8_2to1(
    input  [7:0] a,
    input  [7:0] b,
    input        sel,
    output [7:0] y
);
    assign y = sel ? b : a;
endmodule
`

const counterSource = `module counter(input clk, input rst, output reg [3:0] q);
    always @(posedge clk) begin
        if (rst) q <= 0;
        else q <= q + 1;
    end
endmodule
`

func TestDetectKind(t *testing.T) {
	if kind := DetectKind(muxSource); kind != Combinational {
		t.Fatalf("mux detected as %s, want combinational", kind)
	}
	if kind := DetectKind(counterSource); kind != Sequential {
		t.Fatalf("counter detected as %s, want sequential", kind)
	}
	if kind := DetectKind("module m(); latch_cell u0(); endmodule"); kind != Sequential {
		t.Fatalf("latch instance detected as %s, want sequential", kind)
	}
}

func TestModules(t *testing.T) {
	source := muxSource + "\nmodule helper(input a, output y); assign y = a; endmodule\n"
	got := Modules(source)
	want := []string{"mux8_2to1", "helper"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Modules = %v, want %v", got, want)
	}
	if Modules("// nothing here") != nil {
		t.Fatal("expected nil for module-free source")
	}
}

func TestModulesInFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mux.v")
	if err := os.WriteFile(path, []byte(muxSource), 0o644); err != nil {
		t.Fatalf("writing source: %v", err)
	}

	found, err := ModulesInFiles([]string{path})
	if err != nil {
		t.Fatalf("ModulesInFiles: %v", err)
	}
	if !reflect.DeepEqual(found[path], []string{"mux8_2to1"}) {
		t.Fatalf("found %v", found[path])
	}

	if _, err := ModulesInFiles([]string{filepath.Join(dir, "missing.v")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCleanNetlist(t *testing.T) {
	raw := "(* top = 1 *)\nmodule mux(a, b, sel, y);  \n" +
		"  // autogenerated\n" +
		"  (* src = \"mux.v:3\" *)\n" +
		"  wire [7:0] a;\n\n\n\n" +
		"  assign y = sel ? b : a; // select\n" +
		"endmodule\n"

	cleaned := CleanNetlist(raw)

	if strings.Contains(cleaned, "(*") {
		t.Fatalf("attributes survived: %q", cleaned)
	}
	if strings.Contains(cleaned, "//") {
		t.Fatalf("comments survived: %q", cleaned)
	}
	if strings.Contains(cleaned, "\n\n\n") {
		t.Fatalf("blank runs survived: %q", cleaned)
	}
	if !strings.HasSuffix(cleaned, "endmodule\n") {
		t.Fatalf("trailing newline mangled: %q", cleaned)
	}
	if !strings.Contains(cleaned, "assign y = sel ? b : a;") {
		t.Fatalf("netlist body lost: %q", cleaned)
	}
}

func TestCleanNetlistFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.v")
	if err := os.WriteFile(path, []byte("(* attr *) module m(); endmodule // tail\n"), 0o644); err != nil {
		t.Fatalf("writing netlist: %v", err)
	}
	if err := CleanNetlistFile(path); err != nil {
		t.Fatalf("CleanNetlistFile: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if strings.Contains(string(content), "(*") || strings.Contains(string(content), "//") {
		t.Fatalf("file not cleaned: %q", content)
	}
}
