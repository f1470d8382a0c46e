package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/vbox"
)

// ServiceConfig is the configuration for the doctor service.
type ServiceConfig struct {
	API    raw.API
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.API == nil {
		return fmt.Errorf("api is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Doctor"})

	return nil
}

// Service runs preflight checks against the installed SDK.
type Service struct {
	api    raw.API
	line   raw.Line
	logger log.Logger
}

// NewService creates a new doctor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		api:    cfg.API,
		line:   raw.Current(),
		logger: cfg.Logger,
	}, nil
}

// Run runs all the checks. Checks that depend on a failed one are not run.
func (s *Service) Run(ctx context.Context) []model.CheckResult {
	var results []model.CheckResult

	gate, err := vbox.NewGate(vbox.GateConfig{API: s.api, Logger: s.logger})
	if err != nil {
		return append(results, errResult("sdk_version", fmt.Sprintf("could not create version gate: %s", err)))
	}

	result, ok := s.checkVersion(gate)
	results = append(results, result)
	if !ok {
		return results
	}

	client, err := vbox.Connect(vbox.ClientConfig{API: s.api, Gate: gate, Logger: s.logger})
	if err != nil {
		return append(results, errResult("client", fmt.Sprintf("could not connect: %s", err)))
	}
	defer func() { _ = client.Close() }()
	results = append(results, okResult("client", "SDK client initialized"))

	results = append(results, s.checkAPIVersion(client))
	results = append(results, s.checkProgressLookup())
	results = append(results, s.checkMachines(ctx, client))

	return results
}

func (s *Service) checkVersion(gate *vbox.Gate) (model.CheckResult, bool) {
	err := gate.Check()
	if err == nil {
		return okResult("sdk_version", fmt.Sprintf("installed %s matches line %s", gate.Installed(), s.line)), true
	}

	var mismatch *model.VersionMismatchError
	if errors.As(err, &mismatch) {
		msg := err.Error()
		if l, ok := raw.LineFor(mismatch.Found); ok {
			msg = fmt.Sprintf("%s, use a binary built for line %s", msg, l.Name)
		}
		return errResult("sdk_version", msg), false
	}

	return errResult("sdk_version", fmt.Sprintf("could not get installed version: %s", err)), false
}

func (s *Service) checkAPIVersion(client *vbox.Client) model.CheckResult {
	got, err := client.VirtualBox().APIVersion()
	if err != nil {
		return errResult("api_version", fmt.Sprintf("could not get api version: %s", err))
	}

	exp := fmt.Sprintf("%d_%d", s.line.Version.Major, s.line.Version.Minor)
	if got != exp {
		return warnResult("api_version", fmt.Sprintf("api version %s, expected %s", got, exp))
	}
	return okResult("api_version", fmt.Sprintf("api version %s", got))
}

func (s *Service) checkProgressLookup() model.CheckResult {
	if _, ok := s.line.Slots.Lookup(raw.MethodVirtualBoxFindProgressByID); !ok {
		return warnResult("progress_lookup", fmt.Sprintf("line %s can't look up running operations by ID", s.line.Name))
	}
	return okResult("progress_lookup", "running operations can be looked up by ID")
}

func (s *Service) checkMachines(ctx context.Context, client *vbox.Client) model.CheckResult {
	machines, err := client.VirtualBox().Machines()
	if err != nil {
		return errResult("machines", fmt.Sprintf("could not list machines: %s", err))
	}
	defer func() {
		for _, m := range machines {
			_ = m.Close()
		}
	}()

	locked := 0
	for _, m := range machines {
		if ctx.Err() != nil {
			return errResult("machines", ctx.Err().Error())
		}

		st, err := m.SessionState()
		if err != nil {
			return errResult("machines", fmt.Sprintf("could not read machine: %s", err))
		}
		if st != model.SessionStateUnlocked {
			locked++
		}
	}

	if locked > 0 {
		return warnResult("machines", fmt.Sprintf("%d machines registered, %d locked by other sessions", len(machines), locked))
	}
	return okResult("machines", fmt.Sprintf("%d machines registered", len(machines)))
}

func okResult(id, msg string) model.CheckResult {
	return model.CheckResult{ID: id, Message: msg, Status: model.CheckStatusOK}
}

func warnResult(id, msg string) model.CheckResult {
	return model.CheckResult{ID: id, Message: msg, Status: model.CheckStatusWarning}
}

func errResult(id, msg string) model.CheckResult {
	return model.CheckResult{ID: id, Message: msg, Status: model.CheckStatusError}
}
