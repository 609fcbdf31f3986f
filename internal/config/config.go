// Package config defines the tool orchestration configuration surface:
// which driver serves each flow slot, where its binaries live, and the
// time limits its runs get.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Flow slots a tool configuration can bind to.
const (
	SlotSynth  = "synth"
	SlotLayout = "layout"
	SlotPnR    = "pnr"
)

const (
	defaultVerifyLimit  = 10 * time.Second
	defaultRunBudget    = 5 * time.Minute
	defaultReplyTimeout = 15 * time.Second
)

type Config struct {
	HTTP  HTTPConfig            `toml:"http"`
	Work  WorkConfig            `toml:"work"`
	Tech  TechConfig            `toml:"tech"`
	Tools map[string]ToolConfig `toml:"tools"`
}

type HTTPConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	APIToken    string   `toml:"api_token"`
}

type WorkConfig struct {
	Dir string `toml:"dir"`
}

// TechConfig points at the technology files place-and-route scripts
// expect through their environment.
type TechConfig struct {
	Root string `toml:"root"`
}

// ToolConfig describes one tool slot. Durations are strings in
// time.ParseDuration syntax so the file stays readable.
type ToolConfig struct {
	Driver       string   `toml:"driver"`
	Candidates   []string `toml:"candidates"`
	VerifyArgs   []string `toml:"verify_args"`
	VerifyLimit  string   `toml:"verify_limit"`
	Budget       string   `toml:"budget"`
	ReplyTimeout string   `toml:"reply_timeout"`
	Env          []string `toml:"env"`
}

// VerifyWindow bounds one discovery probe.
func (t ToolConfig) VerifyWindow() time.Duration {
	return durationOr(t.VerifyLimit, defaultVerifyLimit)
}

// RunBudget bounds one batch run.
func (t ToolConfig) RunBudget() time.Duration {
	return durationOr(t.Budget, defaultRunBudget)
}

// ReplyWindow bounds one interactive command reply.
func (t ToolConfig) ReplyWindow() time.Duration {
	return durationOr(t.ReplyTimeout, defaultReplyTimeout)
}

// DefaultConfig returns the stock tool bindings: yosys for synthesis,
// magic for interactive layout, openroad for place-and-route.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":9040", CorsOrigins: []string{}},
		Work: WorkConfig{Dir: "work"},
		Tech: TechConfig{Root: "D:/OpenROAD/flow/tech/nangate45"},
		Tools: map[string]ToolConfig{
			SlotSynth: {
				Driver:      "yosys",
				VerifyArgs:  []string{"-V"},
				VerifyLimit: "10s",
				Budget:      "5m",
			},
			SlotLayout: {
				Driver:       "magic",
				VerifyArgs:   []string{"--version"},
				VerifyLimit:  "10s",
				ReplyTimeout: "15s",
			},
			SlotPnR: {
				Driver: "openroad",
				Candidates: []string{
					`D:\OpenROAD\build\src\openroad`,
					`D:\OpenROAD\bin\openroad`,
					`D:\OpenROAD\openroad`,
				},
				VerifyArgs:  []string{"--version"},
				VerifyLimit: "10s",
				Budget:      "10m",
			},
		},
	}
}

// WithDefaults fills every unset field from DefaultConfig and derives
// the place-and-route tech environment from the tech root.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}
	if c.HTTP.CorsOrigins == nil {
		c.HTTP.CorsOrigins = def.HTTP.CorsOrigins
	}
	if strings.TrimSpace(c.Work.Dir) == "" {
		c.Work.Dir = def.Work.Dir
	}
	if strings.TrimSpace(c.Tech.Root) == "" {
		c.Tech.Root = def.Tech.Root
	}

	tools := make(map[string]ToolConfig, len(def.Tools)+len(c.Tools))
	for slot, tool := range c.Tools {
		tools[slot] = tool
	}
	for slot, defTool := range def.Tools {
		if tool, ok := tools[slot]; ok {
			tools[slot] = mergeTool(tool, defTool)
		} else {
			tools[slot] = defTool
		}
	}
	if pnr, ok := tools[SlotPnR]; ok && !hasEnvKey(pnr.Env, "OPENROAD_TECH") {
		pnr.Env = append(pnr.Env, "OPENROAD_TECH="+c.Tech.Root)
		tools[SlotPnR] = pnr
	}
	c.Tools = tools

	return c
}

// Load reads, defaults, and validates a configuration file.
func Load(path string) (Config, error) {
	var cfg Config
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	cfg = cfg.WithDefaults()
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return fmt.Errorf("config missing http addr")
	}
	if strings.TrimSpace(cfg.Work.Dir) == "" {
		return fmt.Errorf("config missing work dir")
	}
	for slot, tool := range cfg.Tools {
		if err := ValidateToolConfig(tool); err != nil {
			return fmt.Errorf("tool %q invalid: %w", slot, err)
		}
	}
	return nil
}

func ValidateToolConfig(tool ToolConfig) error {
	if strings.TrimSpace(tool.Driver) == "" {
		return fmt.Errorf("driver is required")
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"verify_limit", tool.VerifyLimit},
		{"budget", tool.Budget},
		{"reply_timeout", tool.ReplyTimeout},
	} {
		if err := checkDuration(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	for _, entry := range tool.Env {
		if !strings.Contains(entry, "=") {
			return fmt.Errorf("env entry %q must be KEY=VALUE", entry)
		}
	}
	return nil
}

func mergeTool(tool, def ToolConfig) ToolConfig {
	if strings.TrimSpace(tool.Driver) == "" {
		tool.Driver = def.Driver
	}
	if len(tool.Candidates) == 0 {
		tool.Candidates = def.Candidates
	}
	if len(tool.VerifyArgs) == 0 {
		tool.VerifyArgs = def.VerifyArgs
	}
	if strings.TrimSpace(tool.VerifyLimit) == "" {
		tool.VerifyLimit = def.VerifyLimit
	}
	if strings.TrimSpace(tool.Budget) == "" {
		tool.Budget = def.Budget
	}
	if strings.TrimSpace(tool.ReplyTimeout) == "" {
		tool.ReplyTimeout = def.ReplyTimeout
	}
	if len(tool.Env) == 0 {
		tool.Env = def.Env
	}
	return tool
}

func checkDuration(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value, err)
	}
	if d <= 0 {
		return fmt.Errorf("duration %q must be positive", value)
	}
	return nil
}

func durationOr(value string, fallback time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func hasEnvKey(env []string, key string) bool {
	for _, entry := range env {
		if strings.HasPrefix(entry, key+"=") {
			return true
		}
	}
	return false
}
