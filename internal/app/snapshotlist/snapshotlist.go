package snapshotlist

import (
	"context"
	"fmt"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the snapshot list service.
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

	return nil
}

// Service lists snapshots.
type Service struct {
	client *vbox.Client
	logger log.Logger
}

// NewService creates a new snapshot list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the snapshot list request parameters.
type Request struct {
	// NameOrID is the machine name or UUID.
	NameOrID string
}

// Run lists the snapshot tree of a machine, parents before children.
func (s *Service) Run(ctx context.Context, req Request) ([]model.SnapshotInfo, error) {
	s.logger.Debugf("listing snapshots of %s", req.NameOrID)

	m, err := s.client.VirtualBox().FindMachine(req.NameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not find machine: %w", err)
	}
	defer func() { _ = m.Close() }()

	snapshots, err := m.Snapshots()
	if err != nil {
		return nil, fmt.Errorf("could not list snapshots: %w", err)
	}

	s.logger.Debugf("found %d snapshots", len(snapshots))
	return snapshots, nil
}
