package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/silogic/edactl/internal/logging"
)

// InitLogger configures the process-wide logger for one binary and
// returns it. Level and formatting honor the EDACTL_LOG_* environment.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    logging.NoColor(),
	}
	ctx := zerolog.New(output).With().Str("app", app)
	if logging.Timestamp(true) {
		ctx = ctx.Timestamp()
	}
	logger := ctx.Logger()
	log.Logger = logger
	return logger
}
