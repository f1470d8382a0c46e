package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the export service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Export"})

	return nil
}

// Service exports machines as appliance descriptors.
type Service struct {
	client       *vbox.Client
	pollInterval time.Duration
	logger       log.Logger
}

// NewService creates a new export service.
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

// Request represents an export request.
type Request struct {
	NameOrID string
	// Path is the destination file of the appliance.
	Path string
	// Overwrite replaces an existing destination file.
	Overwrite bool
}

// Run exports a machine and waits until the appliance is written. It returns the
// absolute path of the appliance.
func (s *Service) Run(ctx context.Context, req Request) (string, error) {
	if req.Path == "" {
		return "", fmt.Errorf("export path is required: %w", model.ErrNotValid)
	}

	path, err := filepath.Abs(req.Path)
	if err != nil {
		return "", fmt.Errorf("could not resolve export path: %w", err)
	}

	_, err = os.Stat(path)
	switch {
	case err == nil && !req.Overwrite:
		return "", fmt.Errorf("export file %s already exists: %w", path, model.ErrAlreadyExists)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("could not check export file: %w", err)
	}

	m, err := s.client.VirtualBox().FindMachine(req.NameOrID)
	if err != nil {
		return "", fmt.Errorf("could not find machine: %w", err)
	}
	defer func() { _ = m.Close() }()

	p, err := m.ExportTo(path)
	if err != nil {
		return "", fmt.Errorf("could not export machine: %w", err)
	}
	defer func() { _ = p.Close() }()

	if _, err := p.Await(ctx, s.pollInterval); err != nil {
		return "", fmt.Errorf("could not export machine: %w", err)
	}

	s.logger.Infof("Exported machine %s to %s", req.NameOrID, path)

	return path, nil
}
