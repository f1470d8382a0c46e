package sim

import (
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// session is the state of a session object.
type session struct {
	machineID string
	lockType  raw.LockType
	// epoch increases on every lock, session machines of older epochs are stale.
	epoch uint64
	// draft holds the unsaved settings of a write locked machine.
	draft *settings
}

// settings are the machine properties that need SaveSettings to persist.
type settings struct {
	name        string
	description string
	memoryMB    uint32
	cpuCount    uint32
}

func settingsOf(m model.MachineInfo) *settings {
	return &settings{name: m.Name, description: m.Description, memoryMB: m.MemoryMB, cpuCount: m.CPUCount}
}

func (st *settings) applyTo(m model.MachineInfo) model.MachineInfo {
	m.Name = st.name
	m.Description = st.description
	m.MemoryMB = st.memoryMB
	m.CPUCount = st.cpuCount
	return m
}

func (s *session) locked() bool { return s.lockType != raw.LockTypeNull }

// LockMachine locks a registered machine for a session.
//
// A write lock needs the machine to be unlocked. Shared locks can be taken
// next to other shared locks and next to the write lock of another session.
func (s *SDK) LockMachine(machine, sessionPtr raw.Pointer, lockType raw.LockType) raw.ResultCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	mobj, code := s.typedObject(machine, raw.KindMachine)
	if code != raw.OK {
		return code
	}
	sobj, code := s.typedObject(sessionPtr, raw.KindSession)
	if code != raw.OK {
		return code
	}

	if s.lockFault != raw.OK {
		code := s.lockFault
		s.lockFault = raw.OK
		delete(s.lastErrors, code)
		return code
	}

	sess := sobj.session
	if sess.locked() {
		return s.fail(raw.VBoxInvalidSessionState, "session is already locking machine %s", sess.machineID)
	}

	if !s.registered(mobj.machineID) {
		return s.fail(raw.VBoxObjectNotFound, "machine %s is not registered", mobj.machineID)
	}

	writer, shared := s.lockers(mobj.machineID)
	switch lockType {
	case raw.LockTypeWrite, raw.LockTypeVM:
		if writer != nil || shared > 0 {
			return s.fail(raw.VBoxInvalidObjectState, "machine %s is already locked for a session (or being unlocked)", mobj.machineID)
		}
	case raw.LockTypeShared:
	default:
		return s.fail(raw.EInvalidArg, "invalid lock type %d", lockType)
	}

	m, _ := s.loadMachine(mobj.machineID)
	sess.machineID = m.ID
	sess.lockType = lockType
	sess.epoch++
	if lockType != raw.LockTypeShared {
		sess.draft = settingsOf(m)
	}

	s.logger.Debugf("Machine %s locked (%s)", m.ID, lockType)
	return raw.OK
}

// UnlockMachine unlocks the machine locked by a session, discarding unsaved settings.
func (s *SDK) UnlockMachine(sessionPtr raw.Pointer) raw.ResultCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	sobj, code := s.typedObject(sessionPtr, raw.KindSession)
	if code != raw.OK {
		return code
	}

	if s.unlockFault != raw.OK {
		code := s.unlockFault
		s.unlockFault = raw.OK
		delete(s.lastErrors, code)
		return code
	}

	if !sobj.session.locked() {
		return s.fail(raw.VBoxInvalidSessionState, "session is not locked")
	}

	s.unlockSession(sobj.session)
	return raw.OK
}

func (s *SDK) unlockSession(sess *session) {
	s.logger.Debugf("Machine %s unlocked", sess.machineID)
	sess.machineID = ""
	sess.lockType = raw.LockTypeNull
	sess.draft = nil
}

// lockers returns the session holding the write lock of a machine and the
// number of shared locks.
func (s *SDK) lockers(machineID string) (writer *session, shared int) {
	for sess := range s.sessions {
		if !sess.locked() || sess.machineID != machineID {
			continue
		}
		if sess.lockType == raw.LockTypeShared {
			shared++
			continue
		}
		writer = sess
	}
	return writer, shared
}

func (s *SDK) sessionState(machineID string) raw.SessionState {
	writer, shared := s.lockers(machineID)
	if writer != nil || shared > 0 {
		return raw.SessionStateLocked
	}
	return raw.SessionStateUnlocked
}
