package lib

import (
	"context"
	"fmt"

	"k8s.io/client-go/util/homedir"

	"github.com/slok/vbx/internal/app/doctor"
	"github.com/slok/vbx/internal/conventions"
	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/raw/sim"
	"github.com/slok/vbx/internal/storage/sqlite"
	"github.com/slok/vbx/internal/vbox"
)

// Config configures the SDK client.
//
// All fields are optional. An empty Config{} uses ~/.vbx/vbx.db as the
// hypervisor inventory and expects the installed SDK to match the compiled line.
type Config struct {
	// DBPath is the SQLite database path of the hypervisor inventory.
	// Default: ~/.vbx/vbx.db.
	DBPath string

	// SDKVersion is the installed SDK version the hypervisor reports (e.g. "7.1.4").
	// Default: the version of the compiled line.
	SDKVersion string

	// Inventory is registered on the hypervisor before connecting. Machines that
	// already exist are skipped.
	Inventory *Inventory

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.DBPath == "" {
		c.DBPath = conventions.DBPath(homedir.HomeDir())
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "lib.Client"})

	return nil
}

// Client is the SDK entry point for managing machines programmatically.
//
// Create a Client with [Connect] and release its resources with [Client.Close].
// Objects returned by the client must be closed before the client is.
type Client struct {
	client *vbox.Client
	repo   *sqlite.Repository
	logger log.Logger
}

// Connect opens the hypervisor inventory and connects to it through the version
// gate. A hypervisor whose SDK version doesn't match the compiled line fails with
// [ErrVersionMismatch] before any other SDK call is made.
//
//	client, err := lib.Connect(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	sdk, repo, err := openHypervisor(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := vbox.Connect(vbox.ClientConfig{
		API:    sdk,
		Logger: cfg.Logger,
	})
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("could not connect: %w", err)
	}

	return &Client{
		client: client,
		repo:   repo,
		logger: cfg.Logger,
	}, nil
}

// Doctor runs the preflight checks against the hypervisor. It doesn't go through
// the version gate, so it also reports on hypervisors [Connect] rejects.
func Doctor(ctx context.Context, cfg Config) ([]CheckResult, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	sdk, repo, err := openHypervisor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = repo.Close() }()

	svc, err := doctor.NewService(doctor.ServiceConfig{
		API:    sdk,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create doctor: %w", err)
	}

	return svc.Run(ctx), nil
}

// CompiledLine returns the name of the SDK line this binary was built for.
func CompiledLine() string { return raw.Current().Name }

// VirtualBox returns the VirtualBox object, owned by the client.
func (c *Client) VirtualBox() *VirtualBox { return c.client.VirtualBox() }

// NewSessionLock returns a new unlocked session lock. The caller must close it.
func (c *Client) NewSessionLock() (*SessionLock, error) { return c.client.NewSessionLock() }

// Line returns the name of the SDK line the client is connected with.
func (c *Client) Line() string { return c.client.Line().Name }

// Close releases the client objects and the inventory storage. After Close
// returns, the client must not be used.
func (c *Client) Close() error {
	cerr := c.client.Close()
	if err := c.repo.Close(); err != nil {
		return fmt.Errorf("could not close repository: %w", err)
	}
	if cerr != nil {
		return fmt.Errorf("could not close client: %w", cerr)
	}

	return nil
}

// openHypervisor opens the inventory storage, creates the SDK on it and registers
// the configured inventory.
func openHypervisor(ctx context.Context, cfg Config) (*sim.SDK, *sqlite.Repository, error) {
	var version model.Version
	if cfg.SDKVersion != "" {
		v, err := model.ParseVersion(cfg.SDKVersion)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid sdk version: %w", err)
		}
		version = v
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create repository: %w", err)
	}

	sdk, err := sim.NewSDK(sim.SDKConfig{
		Repository: repo,
		Version:    version,
		Logger:     cfg.Logger,
	})
	if err != nil {
		_ = repo.Close()
		return nil, nil, fmt.Errorf("could not create sdk: %w", err)
	}

	if cfg.Inventory != nil {
		n, err := sdk.Seed(ctx, *cfg.Inventory)
		if err != nil {
			_ = repo.Close()
			return nil, nil, fmt.Errorf("could not register inventory: %w", err)
		}
		cfg.Logger.Debugf("Registered %d machines from inventory", n)
	}

	return sdk, repo, nil
}
