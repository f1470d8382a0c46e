package list

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the list service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.List"})

	return nil
}

// Service lists registered machines with optional filtering.
type Service struct {
	client *vbox.Client
	logger log.Logger
}

// NewService creates a new list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	// StateFilter is an optional filter to only show machines in this state.
	StateFilter *model.MachineState
}

// Run lists all registered machines sorted by name, optionally filtered by state.
func (s *Service) Run(ctx context.Context, req Request) ([]model.MachineInfo, error) {
	s.logger.Debugf("listing machines with filter: %v", req.StateFilter)

	machines, err := s.client.VirtualBox().Machines()
	if err != nil {
		return nil, fmt.Errorf("could not list machines: %w", err)
	}
	defer func() {
		for _, m := range machines {
			_ = m.Close()
		}
	}()

	infos := make([]model.MachineInfo, 0, len(machines))
	for _, m := range machines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := m.Info()
		if err != nil {
			return nil, fmt.Errorf("could not read machine: %w", err)
		}

		if req.StateFilter != nil && info.State != *req.StateFilter {
			continue
		}
		infos = append(infos, info)
	}

	slices.SortFunc(infos, func(a, b model.MachineInfo) int { return strings.Compare(a.Name, b.Name) })

	s.logger.Debugf("found %d machines", len(infos))
	return infos, nil
}
