package modify

import (
	"context"
	"fmt"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the modify service.
type ServiceConfig struct {
	Client *vbox.Client
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Modify"})

	return nil
}

// Service changes the settings of a machine.
type Service struct {
	client *vbox.Client
	logger log.Logger
}

// NewService creates a new modify service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the modify request parameters, nil fields are left unchanged.
type Request struct {
	NameOrID    string
	Name        *string
	Description *string
	MemoryMB    *uint32
	CPUCount    *uint32
}

func (r Request) validate() error {
	if r.NameOrID == "" {
		return fmt.Errorf("machine name or id is required: %w", model.ErrNotValid)
	}

	if r.Name == nil && r.Description == nil && r.MemoryMB == nil && r.CPUCount == nil {
		return fmt.Errorf("at least one setting is required: %w", model.ErrNotValid)
	}

	if r.Name != nil {
		if err := model.ValidateMachineName(*r.Name); err != nil {
			return err
		}
	}

	return nil
}

// Run locks the machine exclusively, applies all the changes and saves them. Either
// all the changes are saved or none.
func (s *Service) Run(ctx context.Context, req Request) (*model.MachineInfo, error) {
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	lock, err := s.client.NewSessionLock()
	if err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}
	defer lock.Close()

	m, err := lock.LockExclusive(req.NameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not lock machine: %w", err)
	}

	if err := s.apply(m, req); err != nil {
		if derr := m.DiscardSettings(); derr != nil {
			s.logger.Warningf("could not discard settings: %v", derr)
		}
		return nil, err
	}

	if err := m.SaveSettings(); err != nil {
		return nil, fmt.Errorf("could not save settings: %w", err)
	}

	info, err := m.Info()
	if err != nil {
		return nil, fmt.Errorf("could not read machine: %w", err)
	}

	// The change is already committed, the deferred close retries the unlock.
	if err := lock.Unlock(); err != nil {
		s.logger.Warningf("Could not unlock machine %s after the change: %s", req.NameOrID, err)
	}

	s.logger.Infof("Modified machine %s (%s)", info.Name, info.ID)

	return &info, nil
}

func (s *Service) apply(m *vbox.MutableMachine, req Request) error {
	if req.Name != nil {
		if err := m.SetName(*req.Name); err != nil {
			return fmt.Errorf("could not set name: %w", err)
		}
	}

	if req.Description != nil {
		if err := m.SetDescription(*req.Description); err != nil {
			return fmt.Errorf("could not set description: %w", err)
		}
	}

	if req.MemoryMB != nil {
		if err := m.SetMemorySize(*req.MemoryMB); err != nil {
			return fmt.Errorf("could not set memory size: %w", err)
		}
	}

	if req.CPUCount != nil {
		if err := m.SetCPUCount(*req.CPUCount); err != nil {
			return fmt.Errorf("could not set cpu count: %w", err)
		}
	}

	return nil
}
