package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/silogic/edactl/internal/config"
	"github.com/silogic/edactl/internal/flow"
	"github.com/silogic/edactl/internal/observability"
	"github.com/silogic/edactl/internal/rtl"
	"github.com/silogic/edactl/internal/script"
	"github.com/silogic/edactl/internal/session"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	observability.InitLogger("edactl")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "synth":
		err = runSynth(ctx, os.Args[2:])
	case "pnr":
		err = runPnR(ctx, os.Args[2:])
	case "flow":
		err = runFlow(ctx, os.Args[2:])
	case "layout":
		err = runLayout(ctx, os.Args[2:])
	case "tools":
		err = runTools(ctx, os.Args[2:])
	case "config":
		err = runConfig(os.Args[2:])
	case "version":
		fmt.Println("edactl " + version)
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		fatalf("unknown command %q", os.Args[1])
	}
	if err != nil {
		fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: edactl <command> [flags] [args]

commands:
  synth    synthesize verilog sources into a netlist
  pnr      place and route a synthesized netlist
  flow     run synthesis and place-and-route in one go
  layout   open an interactive layout session
  tools    show which tools were found and where
  config   write or validate a config template
  version  print the version`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "edactl: "+format+"\n", args...)
	os.Exit(1)
}

func runSynth(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("synth", flag.ExitOnError)
	cfgPath := fs.String("config", "", "cli config file (toml)")
	top := fs.String("top", "", "top module name (derived when the sources hold exactly one)")
	out := fs.String("out", "", "netlist output path")
	profile := fs.String("profile", "", "synthesis profile: generic|ice40|ecp5|xilinx")
	stats := fs.Bool("stats", false, "append a stat pass to the script")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("synth: at least one verilog source or directory required")
	}

	cli, err := loadCLIConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *profile != "" {
		cli.Profile = script.Profile(*profile)
	}
	if *stats {
		cli.ShowStats = true
	}

	sources, err := collectSources(fs.Args())
	if err != nil {
		return err
	}
	topName, err := resolveTop(*top, sources)
	if err != nil {
		return err
	}

	eng := flow.NewEngine(cli.Config)
	res, err := eng.Synthesize(ctx, flow.Job{
		Sources:   sources,
		Top:       topName,
		Output:    *out,
		Profile:   cli.Profile,
		ShowStats: cli.ShowStats,
	})
	if err != nil {
		return err
	}
	printResult("synthesis", res)
	if !res.Success {
		os.Exit(1)
	}
	return nil
}

func runPnR(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pnr", flag.ExitOnError)
	cfgPath := fs.String("config", "", "cli config file (toml)")
	top := fs.String("top", "", "top module name")
	netlist := fs.String("netlist", "", "synthesized netlist (defaults to the workdir artifact for -top)")
	scriptPath := fs.String("script", "", "run this tcl script instead of generating one")
	gui := fs.Bool("gui", false, "open the tool gui and block until it closes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cli, err := loadCLIConfig(*cfgPath)
	if err != nil {
		return err
	}

	job := flow.PnRJob{Top: *top, Netlist: *netlist, Script: *scriptPath, GUI: *gui}
	if job.Script == "" && job.Netlist == "" && job.Top != "" {
		job.Netlist = filepath.Join(cli.Config.Work.Dir, "out", script.CleanTop(job.Top)+"_synthesized.v")
	}

	eng := flow.NewEngine(cli.Config)
	res, err := eng.PlaceAndRoute(ctx, job)
	if err != nil {
		return err
	}
	printResult("place and route", res)
	if !res.Success {
		os.Exit(1)
	}
	return nil
}

func runFlow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("flow", flag.ExitOnError)
	cfgPath := fs.String("config", "", "cli config file (toml)")
	top := fs.String("top", "", "top module name (derived when the sources hold exactly one)")
	profile := fs.String("profile", "", "synthesis profile: generic|ice40|ecp5|xilinx")
	gui := fs.Bool("gui", false, "open the place-and-route gui on success")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("flow: at least one verilog source or directory required")
	}

	cli, err := loadCLIConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *profile != "" {
		cli.Profile = script.Profile(*profile)
	}

	sources, err := collectSources(fs.Args())
	if err != nil {
		return err
	}
	topName, err := resolveTop(*top, sources)
	if err != nil {
		return err
	}

	eng := flow.NewEngine(cli.Config)
	fr, err := eng.Run(ctx, flow.Job{
		Sources:   sources,
		Top:       topName,
		Profile:   cli.Profile,
		ShowStats: cli.ShowStats,
	}, *gui)
	if err != nil {
		return err
	}

	printResult("synthesis", fr.Synthesis)
	if fr.PlaceRoute.RunID != "" {
		printResult("place and route", fr.PlaceRoute)
	}
	fmt.Printf("status: %s\n", fr.Status)
	if fr.Status != flow.StatusOK {
		os.Exit(1)
	}
	return nil
}

func runLayout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("layout", flag.ExitOnError)
	cfgPath := fs.String("config", "", "cli config file (toml)")
	logPath := fs.String("log", "", "append the command transcript to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cli, err := loadCLIConfig(*cfgPath)
	if err != nil {
		return err
	}

	eng := flow.NewEngine(cli.Config)
	sess, err := eng.OpenLayout(ctx, *logPath)
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Println("layout session ready, 'quit' to leave")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		reply, err := sess.Send(line, 0)
		switch {
		case errors.Is(err, session.ErrToolReported):
			fmt.Println(err.Error())
		case errors.Is(err, session.ErrTimeout), errors.Is(err, session.ErrNotRunning):
			fmt.Fprintf(os.Stderr, "edactl: %v\n", err)
			return sess.Close()
		case err != nil:
			return err
		default:
			if reply != "" {
				fmt.Println(reply)
			}
		}
	}
	return sess.Close()
}

func runTools(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tools", flag.ExitOnError)
	cfgPath := fs.String("config", "", "cli config file (toml)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cli, err := loadCLIConfig(*cfgPath)
	if err != nil {
		return err
	}

	eng := flow.NewEngine(cli.Config)
	for _, status := range eng.Tools(ctx) {
		if !status.Found {
			fmt.Printf("%-8s %-10s not found (%s)\n", status.Slot, status.Driver, status.Error)
			continue
		}
		where := status.Path
		if status.Bridged {
			where += " (bridged)"
		}
		if status.Version != "" {
			where += "  " + status.Version
		}
		fmt.Printf("%-8s %-10s %s\n", status.Slot, status.Driver, where)
	}
	return nil
}

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	kind := fs.String("kind", "cli", "config kind: cli|daemon")
	output := fs.String("output", "", "output path for the template")
	force := fs.Bool("force", false, "overwrite an existing file")
	validate := fs.Bool("validate", false, "validate an existing config instead of writing one")
	input := fs.String("input", "", "config path for validation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *validate {
		path := *input
		if path == "" {
			path = defaultConfigPath(*kind)
		}
		switch *kind {
		case "cli":
			if _, err := loadCLIConfig(path); err != nil {
				return err
			}
		case "daemon":
			if _, err := config.Load(path); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown config kind: %s", *kind)
		}
		fmt.Printf("validated %s config at %s\n", *kind, path)
		return nil
	}

	target := *output
	if target == "" {
		target = defaultConfigPath(*kind)
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		return err
	}
	fmt.Printf("wrote %s config template to %s\n", *kind, target)
	return nil
}

func defaultConfigPath(kind string) string {
	if kind == "daemon" {
		return "edad.toml"
	}
	return "edactl.toml"
}

func collectSources(args []string) ([]string, error) {
	var sources []string
	for _, arg := range args {
		found, err := flow.FindSources(arg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, found...)
	}
	return sources, nil
}

// resolveTop falls back to scanning the sources: with exactly one
// module declared across them, that module is the top.
func resolveTop(top string, sources []string) (string, error) {
	if strings.TrimSpace(top) != "" {
		return top, nil
	}
	byFile, err := rtl.ModulesInFiles(sources)
	if err != nil {
		return "", err
	}
	var modules []string
	for _, found := range byFile {
		modules = append(modules, found...)
	}
	if len(modules) == 1 {
		return modules[0], nil
	}
	sort.Strings(modules)
	return "", fmt.Errorf("top module required, sources declare %d modules %v", len(modules), modules)
}

func printResult(label string, res flow.Result) {
	if res.Success {
		if res.Artifact != "" {
			fmt.Printf("%s ok: %s (%s)\n", label, res.Artifact, res.Elapsed.Round(time.Millisecond))
		} else {
			fmt.Printf("%s ok (%s)\n", label, res.Elapsed.Round(time.Millisecond))
		}
	} else {
		fmt.Printf("%s failed at %s (exit %d)\n", label, res.Stage, res.Output.ExitCode)
	}
	for _, line := range res.Report.Errors {
		fmt.Println("  " + line)
	}
	for _, hint := range res.Report.Hints {
		fmt.Println("  hint: " + hint)
	}
	if len(res.Report.Stats) > 0 {
		keys := make([]string, 0, len(res.Report.Stats))
		for key := range res.Report.Stats {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("  %s: %d\n", key, res.Report.Stats[key])
		}
	}
}
