package snapshotremove

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the snapshot remove service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.SnapshotRemove"})

	return nil
}

// Service removes snapshots.
type Service struct {
	client       *vbox.Client
	pollInterval time.Duration
	logger       log.Logger
}

// NewService creates a new snapshot remove service.
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

// Request represents the snapshot remove request parameters.
type Request struct {
	// NameOrID is the machine name or UUID.
	NameOrID string
	// SnapshotNameOrID is the snapshot name or UUID to remove.
	SnapshotNameOrID string
	// Recursive removes the children snapshots too, otherwise the snapshot is merged
	// into its only child.
	Recursive bool
}

// Run removes a snapshot of a machine and waits until the removal finishes.
func (s *Service) Run(ctx context.Context, req Request) (*model.SnapshotInfo, error) {
	if req.SnapshotNameOrID == "" {
		return nil, fmt.Errorf("snapshot name or id is required: %w", model.ErrNotValid)
	}

	s.logger.Debugf("removing snapshot %s of %s (recursive: %v)", req.SnapshotNameOrID, req.NameOrID, req.Recursive)

	m, err := s.client.VirtualBox().FindMachine(req.NameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not find machine: %w", err)
	}
	defer func() { _ = m.Close() }()

	snap, err := m.FindSnapshot(req.SnapshotNameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not find snapshot: %w", err)
	}
	info, err := snap.Info()
	_ = snap.Close()
	if err != nil {
		return nil, fmt.Errorf("could not read snapshot: %w", err)
	}

	lock, err := s.client.NewSessionLock()
	if err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}
	defer lock.Close()

	sm, err := lock.LockShared(req.NameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not lock machine: %w", err)
	}

	var p *vbox.Progress
	if req.Recursive {
		p, err = sm.DeleteSnapshotAndAllChildren(info.ID)
	} else {
		p, err = sm.DeleteSnapshot(info.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("could not remove snapshot: %w", err)
	}
	defer func() { _ = p.Close() }()

	if _, err := p.Await(ctx, s.pollInterval); err != nil {
		return nil, fmt.Errorf("could not remove snapshot: %w", err)
	}

	// The change is already committed, the deferred close retries the unlock.
	if err := lock.Unlock(); err != nil {
		s.logger.Warningf("Could not unlock machine %s after the change: %s", req.NameOrID, err)
	}

	s.logger.Infof("removed snapshot: %s (ID: %s)", info.Name, info.ID)
	return &info, nil
}
