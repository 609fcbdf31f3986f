package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "daemon":
		return daemonTemplate, nil
	case "cli":
		return cliTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const daemonTemplate = `[http]
addr = ":9040"
cors_origins = ["http://localhost:3000"]
api_token = ""

[work]
dir = "work"

[tech]
root = "D:/OpenROAD/flow/tech/nangate45"

[tools.synth]
driver = "yosys"
verify_args = ["-V"]
verify_limit = "10s"
budget = "5m"

[tools.layout]
driver = "magic"
verify_args = ["--version"]
verify_limit = "10s"
reply_timeout = "15s"

[tools.pnr]
driver = "openroad"
candidates = [
  'D:\OpenROAD\build\src\openroad',
  'D:\OpenROAD\bin\openroad',
  'D:\OpenROAD\openroad',
]
verify_args = ["--version"]
verify_limit = "10s"
budget = "10m"
`

const cliTemplate = `workdir = "work"
tech_root = "D:/OpenROAD/flow/tech/nangate45"
profile = "generic"
show_stats = true

[tools.synth]
driver = "yosys"
verify_args = ["-V"]
budget = "5m"

[tools.layout]
driver = "magic"
reply_timeout = "15s"

[tools.pnr]
driver = "openroad"
candidates = [
  'D:\OpenROAD\build\src\openroad',
  'D:\OpenROAD\bin\openroad',
  'D:\OpenROAD\openroad',
]
budget = "10m"
`
