package clone

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the clone service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Clone"})

	return nil
}

// Service clones machines.
type Service struct {
	client       *vbox.Client
	pollInterval time.Duration
	logger       log.Logger
}

// NewService creates a new clone service.
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

// Request represents a clone request.
type Request struct {
	// NameOrID is the source machine name or UUID.
	NameOrID string
	// TargetName is the name of the new machine.
	TargetName string
	// Mode selects the snapshots to copy, only the current state by default.
	Mode model.CloneMode
	// KeepDiskNames keeps the source disk file names.
	KeepDiskNames bool
}

// Run clones a machine into a new registered machine.
func (s *Service) Run(ctx context.Context, req Request) (*model.MachineInfo, error) {
	if err := model.ValidateMachineName(req.TargetName); err != nil {
		return nil, fmt.Errorf("invalid target name: %w", err)
	}
	if req.Mode == 0 {
		req.Mode = model.CloneModeMachineState
	}
	if req.Mode < model.CloneModeMachineState || req.Mode > model.CloneModeAllStates {
		return nil, fmt.Errorf("invalid clone mode %d: %w", req.Mode, model.ErrNotValid)
	}

	vb := s.client.VirtualBox()

	existing, err := vb.FindMachine(req.TargetName)
	if err == nil {
		_ = existing.Close()
		return nil, fmt.Errorf("machine with name %q already exists: %w", req.TargetName, model.ErrAlreadyExists)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("could not check machine name uniqueness: %w", err)
	}

	src, err := vb.FindMachine(req.NameOrID)
	if err != nil {
		return nil, fmt.Errorf("could not find machine: %w", err)
	}
	defer func() { _ = src.Close() }()

	srcInfo, err := src.Info()
	if err != nil {
		return nil, fmt.Errorf("could not read machine: %w", err)
	}

	target, err := vb.CreateMachine(req.TargetName, srcInfo.OSTypeID)
	if err != nil {
		return nil, fmt.Errorf("could not create target machine: %w", err)
	}
	defer func() { _ = target.Close() }()

	var opts []raw.CloneOption
	if req.KeepDiskNames {
		opts = append(opts, raw.CloneOptionKeepDiskNames)
	}

	p, err := src.CloneTo(target, req.Mode, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not clone machine: %w", err)
	}
	defer func() { _ = p.Close() }()

	if _, err := p.Await(ctx, s.pollInterval); err != nil {
		return nil, fmt.Errorf("could not clone machine: %w", err)
	}

	if err := vb.RegisterMachine(target); err != nil {
		return nil, fmt.Errorf("could not register clone: %w", err)
	}

	info, err := target.Info()
	if err != nil {
		return nil, fmt.Errorf("could not read clone: %w", err)
	}

	s.logger.Infof("Cloned machine %s into %s (%s)", srcInfo.Name, info.Name, info.ID)

	return &info, nil
}
