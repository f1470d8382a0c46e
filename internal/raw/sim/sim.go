// Package sim is an in-process hypervisor implementing the raw SDK API.
//
// It keeps reference counted objects behind opaque pointers, dispatches calls
// through the vtable layout of the SDK line matching the installed version and
// persists the machine inventory on a storage repository. Asynchronous
// operations advance in steps when queried, never in the background.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/storage"
	"github.com/slok/vbx/internal/storage/memory"
)

// SDKConfig is the configuration of the simulated SDK.
type SDKConfig struct {
	// Repository persists the registered machines, in memory by default.
	Repository storage.Repository
	// Version is the installed SDK version, the compiled line by default.
	Version  model.Version
	Revision uint32
	// Steps is the number of progress steps of every operation.
	Steps int
	// StepDuration is the simulated time one step takes, used to translate wait timeouts.
	StepDuration time.Duration
	TimeNow      func() time.Time
	Logger       log.Logger
}

func (c *SDKConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "raw.Sim"})

	if c.Repository == nil {
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create memory repository: %w", err)
		}
		c.Repository = repo
	}

	if c.Version == (model.Version{}) {
		c.Version = raw.Current().Version
		c.Version.Build = 4
	}

	if c.Revision == 0 {
		c.Revision = 165100
	}

	if c.Steps <= 0 {
		c.Steps = 4
	}

	if c.StepDuration <= 0 {
		c.StepDuration = 100 * time.Millisecond
	}

	if c.TimeNow == nil {
		c.TimeNow = func() time.Time { return time.Now().UTC() }
	}

	return nil
}

// SDK is the simulated hypervisor. It is safe for concurrent use.
type SDK struct {
	repo     storage.Repository
	version  model.Version
	revision uint32
	line     raw.Line
	steps    int
	stepDur  time.Duration
	timeNow  func() time.Time
	logger   log.Logger

	mu          sync.Mutex
	objects     map[raw.Pointer]*object
	nextPtr     raw.Pointer
	sessions    map[*session]struct{}
	detached    map[string]*detachedMachine
	operations  map[string]*operation
	lastErrors  map[raw.ResultCode]string
	faults      map[raw.Method]raw.ResultCode
	lockFault   raw.ResultCode
	unlockFault raw.ResultCode
	opFault     *opFault
	dead        bool
}

// detachedMachine is a machine that is not registered: created and not yet
// registered, or unregistered and waiting for its files to be deleted.
type detachedMachine struct {
	info      model.MachineInfo
	snapshots []model.SnapshotInfo
	// created is true for machines that were never registered.
	created bool
}

type opFault struct {
	code raw.ResultCode
	text string
}

// NewSDK returns a new simulated SDK.
func NewSDK(cfg SDKConfig) (*SDK, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// An unsupported installed version still needs a layout to answer calls.
	line, ok := raw.LineFor(cfg.Version)
	if !ok {
		line = raw.Current()
	}

	return &SDK{
		repo:       cfg.Repository,
		version:    cfg.Version,
		revision:   cfg.Revision,
		line:       line,
		steps:      cfg.Steps,
		stepDur:    cfg.StepDuration,
		timeNow:    cfg.TimeNow,
		logger:     cfg.Logger,
		objects:    map[raw.Pointer]*object{},
		nextPtr:    0x1000,
		sessions:   map[*session]struct{}{},
		detached:   map[string]*detachedMachine{},
		operations: map[string]*operation{},
		lastErrors: map[raw.ResultCode]string{},
		faults:     map[raw.Method]raw.ResultCode{},
	}, nil
}

var _ raw.API = &SDK{}

// Version returns the packed installed version.
func (s *SDK) Version() (uint32, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dead {
		return 0, raw.RPCServerDied
	}
	return s.version.Packed(), raw.OK
}

// APIVersion returns the API version number of the installed line.
func (s *SDK) APIVersion() (uint32, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dead {
		return 0, raw.RPCServerDied
	}
	return s.line.APIVersion, raw.OK
}

// ClientInitialize creates a new VirtualBoxClient object.
func (s *SDK) ClientInitialize() (raw.Pointer, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dead {
		return raw.Null, raw.RPCServerDied
	}
	return s.newObject(&object{kind: raw.KindVirtualBoxClient}), raw.OK
}

// AddRef increments the reference count of an object.
func (s *SDK) AddRef(p raw.Pointer) (uint32, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, code := s.object(p)
	if code != raw.OK {
		return 0, code
	}
	obj.refs++
	return obj.refs, raw.OK
}

// Release decrements the reference count of an object, destroying it on zero.
func (s *SDK) Release(p raw.Pointer) (uint32, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[p]
	if !ok || s.dead {
		return 0, raw.RPCDisconnected
	}

	obj.refs--
	if obj.refs > 0 {
		return obj.refs, raw.OK
	}

	delete(s.objects, p)
	// A session destroyed while holding a lock gives the lock back.
	if obj.kind == raw.KindSession && obj.session.locked() {
		s.logger.Warningf("Session released while locking machine %s, unlocking", obj.session.machineID)
		s.unlockSession(obj.session)
	}
	if obj.kind == raw.KindSession {
		delete(s.sessions, obj.session)
	}

	return 0, raw.OK
}

// ErrorInfo returns the description of the last error with code.
func (s *SDK) ErrorInfo(code raw.ResultCode) (string, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.lastErrors[code]
	if !ok {
		return "", raw.EFail
	}
	return msg, raw.OK
}

// Line returns the SDK line whose layout the simulator answers with.
func (s *SDK) Line() raw.Line { return s.line }

// LiveObjects returns the number of objects still referenced.
func (s *SDK) LiveObjects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// InjectFault makes the next call of method m fail with code and no error info.
func (s *SDK) InjectFault(m raw.Method, code raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[m] = code
}

// InjectLockFault makes the next machine lock fail with code.
func (s *SDK) InjectLockFault(code raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockFault = code
}

// InjectUnlockFault makes the next machine unlock fail with code.
func (s *SDK) InjectUnlockFault(code raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlockFault = code
}

// InjectOperationFault makes the next started operation fail with code and text
// when it completes.
func (s *SDK) InjectOperationFault(code raw.ResultCode, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opFault = &opFault{code: code, text: text}
}

// Disconnect simulates the death of the hypervisor process, every later call fails.
func (s *SDK) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead = true
}

// Seed registers the machines and snapshots of an inventory, skipping the machines
// that already exist. It returns the number of registered machines.
func (s *SDK) Seed(ctx context.Context, inv model.Inventory) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, m := range inv.Machines {
		if _, err := s.repo.GetMachine(ctx, m.ID); err == nil {
			continue
		}

		m.SessionState = model.SessionStateUnlocked
		if err := s.repo.CreateMachine(ctx, m); err != nil {
			return count, fmt.Errorf("could not register machine %q: %w", m.Name, err)
		}
		for _, snap := range inv.MachineSnapshots(m.ID) {
			if err := s.repo.CreateSnapshot(ctx, snap); err != nil {
				return count, fmt.Errorf("could not register snapshot %q of machine %q: %w", snap.Name, m.Name, err)
			}
		}
		count++
	}

	s.logger.Debugf("Seeded %d machines", count)
	return count, nil
}

// fail records the error info of a failed call.
func (s *SDK) fail(code raw.ResultCode, format string, args ...any) raw.ResultCode {
	msg := fmt.Sprintf(format, args...)
	s.lastErrors[code] = msg
	s.logger.Debugf("Call failed with %s: %s", code, msg)
	return code
}

func (s *SDK) now() time.Time { return s.timeNow() }
