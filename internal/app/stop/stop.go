package stop

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the stop service.
type ServiceConfig struct {
	Client *vbox.Client
	// PollInterval is the maximum time of a single foreign wait.
	PollInterval time.Duration
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Stop"})

	return nil
}

// Service powers off running machines.
type Service struct {
	client       *vbox.Client
	pollInterval time.Duration
	logger       log.Logger
}

// NewService creates a new stop service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client:       cfg.Client,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}, nil
}

// Request represents the stop request parameters.
type Request struct {
	// NameOrID is the machine name or UUID.
	NameOrID string
}

// Run powers off a running machine through the console of a shared session and
// returns the stopped machine. The power off can't be canceled once started.
func (s *Service) Run(ctx context.Context, req Request) (*model.MachineInfo, error) {
	s.logger.Debugf("Stopping machine %s", req.NameOrID)

	lock, err := s.client.NewSessionLock()
	if err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}
	defer lock.Close()

	m, err := lock.LockShared(req.NameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not lock machine: %w", err)
	}

	state, err := m.State()
	if err != nil {
		return nil, fmt.Errorf("could not read machine state: %w", err)
	}
	if !state.Online() {
		return nil, fmt.Errorf("cannot stop a %s machine, it must be running: %w", state, model.ErrNotValid)
	}

	p, err := m.PowerDown()
	if err != nil {
		return nil, fmt.Errorf("could not power down machine: %w", err)
	}
	defer func() { _ = p.Close() }()

	if _, err := p.Await(ctx, s.pollInterval); err != nil {
		return nil, fmt.Errorf("could not power down machine: %w", err)
	}

	info, err := m.Info()
	if err != nil {
		return nil, fmt.Errorf("could not read machine: %w", err)
	}

	s.logger.Infof("Stopped machine %s (ID: %s)", info.Name, info.ID)

	return &info, nil
}
