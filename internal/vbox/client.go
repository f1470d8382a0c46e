package vbox

import (
	"fmt"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// ClientConfig is the configuration of the client.
type ClientConfig struct {
	API raw.API
	// Gate is the version gate to pass, a new one for the compiled line by default.
	// Sharing the gate caches the verdict for the whole process.
	Gate   *Gate
	Logger log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.API == nil {
		return fmt.Errorf("api is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "vbox.Client"})

	if c.Gate == nil {
		g, err := NewGate(GateConfig{API: c.API, Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create version gate: %w", err)
		}
		c.Gate = g
	}

	return nil
}

// Client is the gated entry point to the SDK. It owns the VirtualBoxClient and
// VirtualBox objects.
type Client struct {
	core   *core
	client object
	vbox   *VirtualBox
}

// Connect passes the version gate and initializes the SDK client. It is the only
// way of getting VirtualBox and Session objects. A version mismatch is returned
// before any other foreign call is made.
func Connect(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Gate.Check(); err != nil {
		return nil, fmt.Errorf("version gate failed: %w", err)
	}

	c := &core{api: cfg.API, line: cfg.Gate.Line(), logger: cfg.Logger}

	ptr, code := c.api.ClientInitialize()
	if !code.Succeeded() {
		return nil, fmt.Errorf("could not initialize client: %w", c.translate("VBoxClientInitialize", code))
	}
	if ptr.IsNull() {
		return nil, fmt.Errorf("could not initialize client: %w", model.ErrNullPointer)
	}
	h := newHandle(c.api, ptr, raw.KindVirtualBoxClient)
	client := object{core: c, handle: h}

	vh, err := callObject(c, client, raw.MethodClientGetVirtualBox, raw.KindVirtualBox)
	if err != nil {
		c.releaseAll(h)
		return nil, fmt.Errorf("could not get virtualbox object: %w", err)
	}

	cfg.Logger.Debugf("Connected to SDK line %s", c.line)

	return &Client{
		core:   c,
		client: client,
		vbox:   &VirtualBox{object: object{core: c, handle: vh}},
	}, nil
}

// VirtualBox returns the VirtualBox object, owned by the client.
func (c *Client) VirtualBox() *VirtualBox { return c.vbox }

// Line returns the SDK line the client is calling.
func (c *Client) Line() raw.Line { return c.core.line }

// NewSessionLock creates a new session object and its lock, unlocked.
func (c *Client) NewSessionLock() (*SessionLock, error) {
	sh, err := callObject(c.core, c.client, raw.MethodClientGetSession, raw.KindSession)
	if err != nil {
		return nil, fmt.Errorf("could not get session object: %w", err)
	}

	return newSessionLock(c.core, c.vbox, sh), nil
}

// Close releases the client objects.
func (c *Client) Close() error {
	vErr := c.vbox.Close()
	cErr := c.client.Close()
	if vErr != nil {
		return vErr
	}
	return cErr
}
