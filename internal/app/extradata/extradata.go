package extradata

import (
	"context"
	"fmt"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the extra data service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.ExtraData"})

	return nil
}

// Service sets machine extra data entries.
type Service struct {
	client *vbox.Client
	logger log.Logger
}

// NewService creates a new extra data service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		client: cfg.Client,
		logger: cfg.Logger,
	}, nil
}

// Request represents the extra data request parameters.
type Request struct {
	NameOrID string
	Key      string
	// Value is the new value, empty removes the key.
	Value string
}

// Run sets an extra data entry of a machine. A shared lock is enough, so it works
// on running machines too. It returns the previous value.
func (s *Service) Run(ctx context.Context, req Request) (previous string, err error) {
	if req.NameOrID == "" {
		return "", fmt.Errorf("machine name or id is required: %w", model.ErrNotValid)
	}
	if req.Key == "" {
		return "", fmt.Errorf("extra data key is required: %w", model.ErrNotValid)
	}

	lock, err := s.client.NewSessionLock()
	if err != nil {
		return "", fmt.Errorf("could not create session: %w", err)
	}
	defer lock.Close()

	m, err := lock.LockShared(req.NameOrID)
	if err != nil {
		return "", fmt.Errorf("could not lock machine: %w", err)
	}

	previous, err = m.ExtraData(req.Key)
	if err != nil {
		return "", fmt.Errorf("could not get extra data: %w", err)
	}

	if err := m.SetExtraData(req.Key, req.Value); err != nil {
		return "", fmt.Errorf("could not set extra data: %w", err)
	}

	// The change is already committed, the deferred close retries the unlock.
	if err := lock.Unlock(); err != nil {
		s.logger.Warningf("Could not unlock machine %s after the change: %s", req.NameOrID, err)
	}

	if req.Value == "" {
		s.logger.Infof("Removed extra data %q of machine %s", req.Key, req.NameOrID)
	} else {
		s.logger.Infof("Set extra data %q of machine %s", req.Key, req.NameOrID)
	}

	return previous, nil
}
