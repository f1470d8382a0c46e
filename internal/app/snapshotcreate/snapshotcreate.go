package snapshotcreate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the snapshot create service.
type ServiceConfig struct {
	Client *vbox.Client
	// PollInterval is the maximum time of a single foreign wait.
	PollInterval time.Duration
	TimeNow      func() time.Time
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}

	if c.TimeNow == nil {
		c.TimeNow = func() time.Time { return time.Now().UTC() }
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.SnapshotCreate"})
	return nil
}

// Service takes machine snapshots.
type Service struct {
	client       *vbox.Client
	pollInterval time.Duration
	timeNow      func() time.Time
	logger       log.Logger
}

// NewService creates a new snapshot create service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client:       cfg.Client,
		pollInterval: cfg.PollInterval,
		timeNow:      cfg.TimeNow,
		logger:       cfg.Logger,
	}, nil
}

// Request represents a snapshot creation request.
type Request struct {
	NameOrID string
	// SnapshotName is optional, a name based on the machine name and time is used when empty.
	SnapshotName string
	Description  string
	// Pause pauses an online machine while the snapshot is taken.
	Pause bool
}

// Run takes a snapshot of a machine under a shared lock, so online machines can be
// snapshotted too.
func (s *Service) Run(ctx context.Context, req Request) (*model.SnapshotInfo, error) {
	if req.SnapshotName != "" {
		if err := model.ValidateSnapshotName(req.SnapshotName); err != nil {
			return nil, fmt.Errorf("invalid snapshot name: %w", err)
		}
	}

	m, err := s.client.VirtualBox().FindMachine(req.NameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not find machine: %w", err)
	}
	defer func() { _ = m.Close() }()

	machineName, err := m.Name()
	if err != nil {
		return nil, fmt.Errorf("could not read machine: %w", err)
	}

	snapshotName, err := s.resolveSnapshotName(m, machineName, req.SnapshotName)
	if err != nil {
		return nil, err
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

	id, p, err := sm.TakeSnapshot(snapshotName, req.Description, req.Pause)
	if err != nil {
		return nil, fmt.Errorf("could not take snapshot: %w", err)
	}
	defer func() { _ = p.Close() }()

	if _, err := p.Await(ctx, s.pollInterval); err != nil {
		return nil, fmt.Errorf("could not take snapshot: %w", err)
	}

	// The change is already committed, the deferred close retries the unlock.
	if err := lock.Unlock(); err != nil {
		s.logger.Warningf("Could not unlock machine %s after the change: %s", req.NameOrID, err)
	}

	snap, err := m.FindSnapshot(id)
	if err != nil {
		return nil, fmt.Errorf("could not find new snapshot: %w", err)
	}
	defer func() { _ = snap.Close() }()

	info, err := snap.Info()
	if err != nil {
		return nil, fmt.Errorf("could not read new snapshot: %w", err)
	}

	s.logger.Infof("Created snapshot %s (%s) of machine %s", info.Name, info.ID, machineName)

	return &info, nil
}

func makeDefaultSnapshotName(machineName string, now time.Time) string {
	base := sanitizeSnapshotNamePart(machineName)
	if base == "" {
		base = "snapshot"
	}

	return fmt.Sprintf("%s-%s", base, now.UTC().Format("20060102-1504"))
}

func (s *Service) resolveSnapshotName(m *vbox.Machine, machineName, requestedName string) (string, error) {
	autoName := requestedName == ""
	name := requestedName
	if autoName {
		name = makeDefaultSnapshotName(machineName, s.timeNow())
	}

	if err := model.ValidateSnapshotName(name); err != nil {
		return "", fmt.Errorf("invalid snapshot name: %w", err)
	}

	exists, err := snapshotExists(m, name)
	if err != nil {
		return "", fmt.Errorf("could not check snapshot name uniqueness: %w", err)
	}
	if !exists {
		return name, nil
	}
	if !autoName {
		return "", fmt.Errorf("snapshot with name %q already exists: %w", name, model.ErrAlreadyExists)
	}

	name = fmt.Sprintf("%s-%d", name, s.timeNow().Unix())
	if err := model.ValidateSnapshotName(name); err != nil {
		return "", fmt.Errorf("invalid auto-generated snapshot name: %w", err)
	}

	exists, err = snapshotExists(m, name)
	if err != nil {
		return "", fmt.Errorf("could not check snapshot name uniqueness: %w", err)
	}
	if exists {
		return "", fmt.Errorf("snapshot with name %q already exists: %w", name, model.ErrAlreadyExists)
	}

	return name, nil
}

func snapshotExists(m *vbox.Machine, name string) (bool, error) {
	snap, err := m.FindSnapshot(name)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_ = snap.Close()

	return true, nil
}

func sanitizeSnapshotNamePart(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))

	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}

	return strings.Trim(b.String(), "-._")
}
