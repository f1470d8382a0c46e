package snapshotrestore

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the snapshot restore service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.SnapshotRestore"})

	return nil
}

// Service restores machines to snapshots.
type Service struct {
	client       *vbox.Client
	pollInterval time.Duration
	logger       log.Logger
}

// NewService creates a new snapshot restore service.
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

// Request represents the snapshot restore request parameters.
type Request struct {
	// NameOrID is the machine name or UUID.
	NameOrID string
	// SnapshotNameOrID is the snapshot name or UUID to restore.
	SnapshotNameOrID string
}

// Run restores a machine to a snapshot under an exclusive lock and returns the
// restored machine. The restore can't be canceled once started.
func (s *Service) Run(ctx context.Context, req Request) (*model.MachineInfo, error) {
	if req.SnapshotNameOrID == "" {
		return nil, fmt.Errorf("snapshot name or id is required: %w", model.ErrNotValid)
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

	state, err := m.State()
	if err != nil {
		return nil, fmt.Errorf("could not read machine state: %w", err)
	}
	if state.Online() {
		return nil, fmt.Errorf("cannot restore a %s machine, it must be powered off: %w", state, model.ErrNotValid)
	}

	p, err := m.RestoreSnapshot(req.SnapshotNameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not restore snapshot: %w", err)
	}
	defer func() { _ = p.Close() }()

	if _, err := p.Await(ctx, s.pollInterval); err != nil {
		return nil, fmt.Errorf("could not restore snapshot: %w", err)
	}

	// The change is already committed, the deferred close retries the unlock.
	if err := lock.Unlock(); err != nil {
		s.logger.Warningf("Could not unlock machine %s after the change: %s", req.NameOrID, err)
	}

	machine, err := s.client.VirtualBox().FindMachine(req.NameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not find machine: %w", err)
	}
	defer func() { _ = machine.Close() }()

	info, err := machine.Info()
	if err != nil {
		return nil, fmt.Errorf("could not read machine: %w", err)
	}

	s.logger.Infof("Restored machine %s to snapshot %s", info.Name, info.CurrentSnapshotID)

	return &info, nil
}
