package vbox

import (
	"fmt"
	"sync"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// GateConfig is the configuration for the version gate.
type GateConfig struct {
	API    raw.API
	Logger log.Logger
}

func (c *GateConfig) defaults() error {
	if c.API == nil {
		return fmt.Errorf("api is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "vbox.Gate"})

	return nil
}

// Gate checks that the installed SDK belongs to the expected line. The verdict
// is computed once with a single foreign call and cached.
type Gate struct {
	api    raw.API
	line   raw.Line
	logger log.Logger

	once      sync.Once
	installed model.Version
	err       error
}

// NewGate returns a new version gate for the line the binary was compiled for.
func NewGate(cfg GateConfig) (*Gate, error) {
	return newGate(cfg, raw.Current())
}

func newGate(cfg GateConfig, line raw.Line) (*Gate, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Gate{
		api:    cfg.API,
		line:   line,
		logger: cfg.Logger,
	}, nil
}

// Check returns nil when the installed SDK is compatible. A *model.VersionMismatchError
// must be treated as fatal, no other foreign call is safe after it.
func (g *Gate) Check() error {
	g.once.Do(func() {
		g.err = g.check()
	})
	return g.err
}

func (g *Gate) check() error {
	packed, code := g.api.Version()
	if !code.Succeeded() {
		// The layout is unknown at this point, the error info can't be queried safely.
		return &model.ForeignError{Code: uint32(code), Method: "VBoxGetVersion", Message: code.String()}
	}

	g.installed = model.VersionFromPacked(packed)
	if !g.installed.Compatible(g.line.Version) {
		g.logger.Errorf("Installed SDK %s is not compatible with compiled line %s", g.installed, g.line)
		return &model.VersionMismatchError{
			Expected: g.line.Version,
			Found:    g.installed,
			Line:     g.line.Name,
		}
	}

	g.logger.Debugf("Installed SDK %s matches compiled line %s", g.installed, g.line)
	return nil
}

// Installed returns the installed version, running the check when it did not run yet.
func (g *Gate) Installed() model.Version {
	g.once.Do(func() {
		g.err = g.check()
	})
	return g.installed
}

// Line returns the compiled line the gate checks against.
func (g *Gate) Line() raw.Line { return g.line }
