package status

import (
	"context"
	"fmt"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/storage"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	Client *vbox.Client
	// Operations is the optional operation history, without it no operations are returned.
	Operations storage.OperationRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Status"})

	return nil
}

// Service retrieves the details of a machine.
type Service struct {
	client *vbox.Client
	ops    storage.OperationRepository
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		ops:    cfg.Operations,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	// NameOrID is the machine name or UUID.
	NameOrID string
}

// Run retrieves the machine properties, its snapshot tree and its operation history.
func (s *Service) Run(ctx context.Context, req Request) (*model.MachineDetails, error) {
	if req.NameOrID == "" {
		return nil, fmt.Errorf("machine name or id is required: %w", model.ErrNotValid)
	}

	s.logger.Debugf("getting status for machine: %s", req.NameOrID)

	m, err := s.client.VirtualBox().FindMachine(req.NameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not find machine: %w", err)
	}
	defer func() { _ = m.Close() }()

	info, err := m.Info()
	if err != nil {
		return nil, fmt.Errorf("could not read machine: %w", err)
	}

	snaps, err := m.Snapshots()
	if err != nil {
		return nil, fmt.Errorf("could not read snapshots: %w", err)
	}

	details := &model.MachineDetails{
		Machine:    info,
		Snapshots:  snaps,
		Operations: []model.Operation{},
	}

	if s.ops != nil {
		ops, err := s.ops.ListOperations(ctx, info.ID)
		if err != nil {
			return nil, fmt.Errorf("could not list operations: %w", err)
		}
		details.Operations = ops
	}

	return details, nil
}
