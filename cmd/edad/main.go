package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/silogic/edactl/internal/config"
	"github.com/silogic/edactl/internal/observability"
	"github.com/silogic/edactl/internal/server"
)

func main() {
	cfgPath := flag.String("config", "", "daemon config file (toml)")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	logger := observability.InitLogger("edad")

	cfg := config.DefaultConfig()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "edad: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	logger.Info().Str("addr", cfg.HTTP.Addr).Str("work_dir", cfg.Work.Dir).Msg("starting daemon")
	if err := server.New(cfg).Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "edad: %v\n", err)
		os.Exit(1)
	}
}
