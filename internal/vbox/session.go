package vbox

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// SessionLock is the lock state machine of a session object. It starts unlocked
// and is the only route to machine mutations.
//
// A SessionLock and its machine views must be used by a single owner at a time,
// the mutex only protects the state machine itself.
type SessionLock struct {
	core    *core
	vbox    *VirtualBox
	session *Handle
	logger  log.Logger

	mu        sync.Mutex
	state     model.LockState
	machineID uuid.UUID
	// epoch increases on every successful lock, views of older epochs are invalid.
	epoch  uint64
	view   *Handle
	closed bool
}

func newSessionLock(c *core, vbox *VirtualBox, session *Handle) *SessionLock {
	return &SessionLock{
		core:    c,
		vbox:    vbox,
		session: session,
		logger:  c.logger.WithValues(log.Kv{"svc": "vbox.SessionLock"}),
		state:   model.LockStateUnlocked,
	}
}

// State returns the lock state.
func (l *SessionLock) State() model.LockState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// MachineID returns the locked machine ID, uuid.Nil when unlocked.
func (l *SessionLock) MachineID() uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.machineID
}

// LockExclusive takes the write lock of a machine and returns its mutable view.
func (l *SessionLock) LockExclusive(nameOrID string) (*MutableMachine, error) {
	v, err := l.lock(nameOrID, raw.LockTypeWrite, model.LockStateExclusive)
	if err != nil {
		return nil, err
	}
	return &MutableMachine{machineView: v}, nil
}

// LockShared takes a shared lock of a machine and returns its shared view, that
// only allows the mutations the hypervisor permits on shared sessions.
func (l *SessionLock) LockShared(nameOrID string) (*SharedMachine, error) {
	v, err := l.lock(nameOrID, raw.LockTypeShared, model.LockStateShared)
	if err != nil {
		return nil, err
	}
	return &SharedMachine{machineView: v}, nil
}

func (l *SessionLock) lock(nameOrID string, lockType raw.LockType, target model.LockState) (*machineView, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, fmt.Errorf("session lock closed: %w", model.ErrReleased)
	}
	if l.state != model.LockStateUnlocked {
		return nil, fmt.Errorf("can't lock %q, session is %s: %w", nameOrID, l.state, model.ErrInvalidLockState)
	}

	machine, err := l.vbox.FindMachine(nameOrID)
	if err != nil {
		return nil, err
	}
	defer l.core.releaseAll(machine.handle)

	mp, err := machine.handle.pointer()
	if err != nil {
		return nil, err
	}
	sp, err := l.session.pointer()
	if err != nil {
		return nil, err
	}

	code := l.core.api.LockMachine(mp, sp, lockType)
	l.logger.Debugf("Foreign lock machine %q (%s): %s", nameOrID, lockType, code)
	if err := l.core.translate("IMachine::lockMachine", code); err != nil {
		switch {
		case isForeignCode(err, raw.VBoxInvalidObjectState, raw.VBoxObjectInUse):
			return nil, fmt.Errorf("machine %q: %w: %w", nameOrID, model.ErrAlreadyLocked, err)
		case isForeignCode(err, raw.VBoxObjectNotFound):
			return nil, fmt.Errorf("machine %q: %w: %w", nameOrID, model.ErrNotFound, err)
		}
		return nil, err
	}

	view, id, err := l.sessionMachine()
	if err != nil {
		// Don't leave the machine locked by a session we can't use.
		if code := l.core.api.UnlockMachine(sp); !code.Succeeded() {
			l.logger.Errorf("Could not unlock machine %q after a failed lock: %s", nameOrID, code)
		}
		return nil, fmt.Errorf("could not get locked machine: %w", err)
	}

	l.state = target
	l.machineID = id
	l.view = view
	l.epoch++
	l.logger.Debugf("Machine %s locked (%s)", id, target)

	return &machineView{lock: l, epoch: l.epoch, obj: object{core: l.core, handle: view}}, nil
}

func (l *SessionLock) sessionMachine() (*Handle, uuid.UUID, error) {
	session := object{core: l.core, handle: l.session}
	h, err := callObject(l.core, session, raw.MethodSessionGetMachine, raw.KindMachine)
	if err != nil {
		return nil, uuid.Nil, err
	}

	sid, err := callValue[string](object{core: l.core, handle: h}, raw.MethodMachineGetID)
	if err != nil {
		l.core.releaseAll(h)
		return nil, uuid.Nil, err
	}

	id, err := uuid.Parse(sid)
	if err != nil {
		l.core.releaseAll(h)
		return nil, uuid.Nil, fmt.Errorf("invalid machine id %q: %w", sid, model.ErrUnexpectedOutput)
	}

	return h, id, nil
}

// Unlock releases the machine lock. On failure the lock is still held.
func (l *SessionLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Locked() {
		return fmt.Errorf("can't unlock, session is %s: %w", l.state, model.ErrInvalidLockState)
	}

	if err := l.unlock(); err != nil {
		return fmt.Errorf("could not unlock machine %s: %w", l.machineID, err)
	}
	l.reset()

	return nil
}

// Close unlocks the machine when locked and releases the session. Unlock failures
// are logged and the lock is considered released anyway. It is idempotent.
func (l *SessionLock) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true

	if l.state.Locked() {
		if err := l.unlock(); err != nil {
			l.logger.Errorf("Could not unlock machine %s on close: %s", l.machineID, err)
		}
		l.reset()
	}

	if err := l.session.Release(); err != nil {
		l.logger.Errorf("Could not release session: %s", err)
	}
}

// unlock issues the foreign unlock, it must be called with the mutex held.
func (l *SessionLock) unlock() error {
	sp, err := l.session.pointer()
	if err != nil {
		return err
	}

	code := l.core.api.UnlockMachine(sp)
	l.logger.Debugf("Foreign unlock machine %s: %s", l.machineID, code)
	return l.core.translate("ISession::unlockMachine", code)
}

// reset moves to unlocked and invalidates the current views.
func (l *SessionLock) reset() {
	l.core.releaseAll(l.view)
	l.view = nil
	l.state = model.LockStateUnlocked
	l.machineID = uuid.Nil
}
