package remove

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the remove service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Remove"})

	return nil
}

// Service removes a machine.
type Service struct {
	client       *vbox.Client
	pollInterval time.Duration
	logger       log.Logger
}

// NewService creates a new remove service.
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

// Request represents the remove request parameters.
type Request struct {
	// NameOrID is the machine name or UUID to remove.
	NameOrID string
	// Mode selects what is detached and deleted with the machine, full cleanup by default.
	Mode model.CleanupMode
}

// Run unregisters a machine and deletes its files, waiting for the deletion to finish.
// Online machines can't be removed.
func (s *Service) Run(ctx context.Context, req Request) (*model.MachineInfo, error) {
	if req.Mode == 0 {
		req.Mode = model.CleanupModeFull
	}
	if req.Mode < model.CleanupModeUnregisterOnly || req.Mode > model.CleanupModeFull {
		return nil, fmt.Errorf("invalid cleanup mode %d: %w", req.Mode, model.ErrNotValid)
	}

	s.logger.Debugf("removing machine: %s (mode: %d)", req.NameOrID, req.Mode)

	m, err := s.client.VirtualBox().FindMachine(req.NameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not find machine: %w", err)
	}
	defer func() { _ = m.Close() }()

	info, err := m.Info()
	if err != nil {
		return nil, fmt.Errorf("could not read machine: %w", err)
	}

	if info.State.Online() {
		return nil, fmt.Errorf("cannot remove %s machine, it must be powered off: %w", info.State, model.ErrNotValid)
	}

	p, err := m.Delete(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("could not remove machine: %w", err)
	}
	defer func() { _ = p.Close() }()

	if _, err := p.Await(ctx, s.pollInterval); err != nil {
		return nil, fmt.Errorf("could not delete machine files: %w", err)
	}

	s.logger.Infof("removed machine: %s (ID: %s)", info.Name, info.ID)
	return &info, nil
}
