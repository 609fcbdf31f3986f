// Package driver binds tool families to the flow engine through a
// capability interface. Families register themselves at init and are
// selected by configuration, never by runtime code loading.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/silogic/edactl/internal/bridge"
	"github.com/silogic/edactl/internal/config"
	"github.com/silogic/edactl/internal/invoke"
	"github.com/silogic/edactl/internal/locate"
	"github.com/silogic/edactl/internal/session"
	"github.com/silogic/edactl/internal/tools"
)

var (
	ErrUnknownDriver = errors.New("driver: unknown driver")
	ErrNotSupported  = errors.New("driver: operation not supported")
)

// Driver is one tool family bound to its configuration. Families that
// lack a capability fail the call with ErrNotSupported.
type Driver interface {
	Name() string
	Locate(ctx context.Context) (locate.Handle, error)
	Batch(ctx context.Context, dir string, args []string) (invoke.Output, error)
	OpenSession(ctx context.Context, logPath string) (*session.Session, error)
}

// GUIRunner is implemented by families whose tool has a windowed mode.
type GUIRunner interface {
	GUI(ctx context.Context, dir string, args []string) (invoke.Output, error)
}

// Deps carries everything a family needs to run. Runner only overrides
// discovery probes and exists for tests.
type Deps struct {
	Config config.ToolConfig
	Bridge bridge.Bridge
	Runner tools.CommandRunner
}

// Factory builds one driver instance for a dependency set.
type Factory func(deps Deps) Driver

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs a family factory under its driver name.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
}

// New builds the named driver or fails with ErrUnknownDriver.
func New(name string, deps Deps) (Driver, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}
	return f(deps), nil
}

// Known lists registered driver names, sorted.
func Known() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// base carries the shared discovery logic. A successful locate is
// memoized for the driver's lifetime; failures are retried on the next
// call.
type base struct {
	name string
	deps Deps

	mu     sync.Mutex
	handle locate.Handle
	found  bool
}

func (b *base) Name() string { return b.name }

func (b *base) Locate(ctx context.Context) (locate.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.found {
		return b.handle, nil
	}

	loc := locate.Locator{Bridge: b.deps.Bridge, Runner: b.deps.Runner}
	h, err := loc.Find(ctx, b.deps.Config.LocateSpec())
	if err != nil {
		return locate.Handle{}, err
	}
	b.handle = h
	b.found = true
	return h, nil
}

func (b *base) runner() invoke.Runner {
	return invoke.Runner{Bridge: b.deps.Bridge, Env: b.deps.Config.Env}
}
