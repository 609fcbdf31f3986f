package driver

import (
	"context"
	"fmt"

	"github.com/silogic/edactl/internal/invoke"
	"github.com/silogic/edactl/internal/session"
)

// openroadDriver runs place-and-route scripts, batch or windowed.
type openroadDriver struct {
	base
}

func init() {
	Register("openroad", func(deps Deps) Driver {
		return &openroadDriver{base: base{name: "openroad", deps: deps}}
	})
}

func (d *openroadDriver) Batch(ctx context.Context, dir string, args []string) (invoke.Output, error) {
	h, err := d.Locate(ctx)
	if err != nil {
		return invoke.Output{}, err
	}
	return d.runner().Batch(ctx, h, dir, args, d.deps.Config.RunBudget())
}

// GUI opens the tool's window on the given script; the call blocks
// until the operator closes it.
func (d *openroadDriver) GUI(ctx context.Context, dir string, args []string) (invoke.Output, error) {
	h, err := d.Locate(ctx)
	if err != nil {
		return invoke.Output{}, err
	}
	return d.runner().GUI(ctx, h, dir, append([]string{"-gui"}, args...))
}

func (d *openroadDriver) OpenSession(ctx context.Context, logPath string) (*session.Session, error) {
	return nil, fmt.Errorf("%w: openroad has no line protocol", ErrNotSupported)
}
