package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/silogic/edactl/internal/config"
	"github.com/silogic/edactl/internal/script"
)

// cliConfig is the resolved CLI configuration: the engine config plus
// the synthesis preferences that only matter on the command line.
type cliConfig struct {
	Config    config.Config
	Profile   script.Profile
	ShowStats bool
}

type fileConfig struct {
	Workdir   string                       `toml:"workdir"`
	TechRoot  string                       `toml:"tech_root"`
	Profile   string                       `toml:"profile"`
	ShowStats bool                         `toml:"show_stats"`
	Tools     map[string]config.ToolConfig `toml:"tools"`
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		Config:  config.DefaultConfig(),
		Profile: script.ProfileGeneric,
	}
}

// loadCLIConfig overlays a toml file onto the defaults. Only keys
// present in the file override; an empty path returns the defaults.
func loadCLIConfig(path string) (cliConfig, error) {
	out := defaultCLIConfig()
	if strings.TrimSpace(path) == "" {
		return out, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load cli config: %w", err)
	}

	if meta.IsDefined("workdir") {
		if dir := strings.TrimSpace(raw.Workdir); dir != "" {
			out.Config.Work.Dir = dir
		}
	}
	if meta.IsDefined("tech_root") {
		if root := strings.TrimSpace(raw.TechRoot); root != "" {
			out.Config.Tech.Root = root
		}
	}
	if meta.IsDefined("profile") {
		out.Profile = script.Profile(strings.TrimSpace(raw.Profile))
	}
	if meta.IsDefined("show_stats") {
		out.ShowStats = raw.ShowStats
	}

	for slot, in := range raw.Tools {
		tool := out.Config.Tools[slot]
		if meta.IsDefined("tools", slot, "driver") {
			tool.Driver = strings.TrimSpace(in.Driver)
		}
		if meta.IsDefined("tools", slot, "candidates") {
			tool.Candidates = in.Candidates
		}
		if meta.IsDefined("tools", slot, "verify_args") {
			tool.VerifyArgs = in.VerifyArgs
		}
		if meta.IsDefined("tools", slot, "verify_limit") {
			tool.VerifyLimit = strings.TrimSpace(in.VerifyLimit)
		}
		if meta.IsDefined("tools", slot, "budget") {
			tool.Budget = strings.TrimSpace(in.Budget)
		}
		if meta.IsDefined("tools", slot, "reply_timeout") {
			tool.ReplyTimeout = strings.TrimSpace(in.ReplyTimeout)
		}
		if meta.IsDefined("tools", slot, "env") {
			tool.Env = in.Env
		}
		out.Config.Tools[slot] = tool
	}

	if err := config.ValidateConfig(out.Config); err != nil {
		return cliConfig{}, err
	}
	return out, nil
}
