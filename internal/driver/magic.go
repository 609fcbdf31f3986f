package driver

import (
	"context"
	"fmt"

	"github.com/silogic/edactl/internal/invoke"
	"github.com/silogic/edactl/internal/session"
)

// magicDriver drives the layout tool through a persistent interactive
// session.
type magicDriver struct {
	base
}

func init() {
	Register("magic", func(deps Deps) Driver {
		return &magicDriver{base: base{name: "magic", deps: deps}}
	})
}

func (d *magicDriver) Batch(ctx context.Context, dir string, args []string) (invoke.Output, error) {
	return invoke.Output{}, fmt.Errorf("%w: magic is session driven", ErrNotSupported)
}

func (d *magicDriver) OpenSession(ctx context.Context, logPath string) (*session.Session, error) {
	h, err := d.Locate(ctx)
	if err != nil {
		return nil, err
	}
	return session.Open(h, session.Options{
		ReplyTimeout: d.deps.Config.ReplyWindow(),
		LogPath:      logPath,
		Bridge:       d.deps.Bridge,
	})
}
