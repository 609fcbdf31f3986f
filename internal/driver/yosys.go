package driver

import (
	"context"
	"fmt"

	"github.com/silogic/edactl/internal/invoke"
	"github.com/silogic/edactl/internal/session"
)

// yosysDriver runs synthesis scripts in batch mode.
type yosysDriver struct {
	base
}

func init() {
	Register("yosys", func(deps Deps) Driver {
		return &yosysDriver{base: base{name: "yosys", deps: deps}}
	})
}

func (d *yosysDriver) Batch(ctx context.Context, dir string, args []string) (invoke.Output, error) {
	h, err := d.Locate(ctx)
	if err != nil {
		return invoke.Output{}, err
	}
	return d.runner().Batch(ctx, h, dir, args, d.deps.Config.RunBudget())
}

func (d *yosysDriver) OpenSession(ctx context.Context, logPath string) (*session.Session, error) {
	return nil, fmt.Errorf("%w: yosys runs batch only", ErrNotSupported)
}
