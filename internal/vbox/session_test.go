package vbox

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/raw/rawmock"
)

const (
	vboxPtr        = raw.Pointer(0x10)
	sessionPtr     = raw.Pointer(0x20)
	machinePtr     = raw.Pointer(0x40)
	sessMachinePtr = raw.Pointer(0x50)
)

var testMachineID = "5d3e4c1a-7f0b-4c52-9a1e-2b8f6d9c0a11"

func newTestSessionLock(m *rawmock.MockAPI) *SessionLock {
	c := newTestCore(m)
	vbox := &VirtualBox{object: object{core: c, handle: newHandle(m, vboxPtr, raw.KindVirtualBox)}}
	return newSessionLock(c, vbox, newHandle(m, sessionPtr, raw.KindSession))
}

// expectLock sets the foreign calls of a successful lock.
func expectLock(m *rawmock.MockAPI, lockType raw.LockType) {
	m.On("Invoke", vboxPtr, slot(raw.MethodVirtualBoxFindMachine), "web-1").Once().Return([]any{machinePtr}, raw.OK)
	m.On("LockMachine", machinePtr, sessionPtr, lockType).Once().Return(raw.OK)
	m.On("Invoke", sessionPtr, slot(raw.MethodSessionGetMachine)).Once().Return([]any{sessMachinePtr}, raw.OK)
	m.On("Invoke", sessMachinePtr, slot(raw.MethodMachineGetID)).Once().Return([]any{testMachineID}, raw.OK)
	m.On("Release", machinePtr).Once().Return(uint32(0), raw.OK)
}

func TestSessionLockLock(t *testing.T) {
	tests := map[string]struct {
		mock     func(m *rawmock.MockAPI)
		lock     func(l *SessionLock) error
		expState model.LockState
		expErr   error
	}{
		"An exclusive lock should lock the machine.": {
			mock: func(m *rawmock.MockAPI) { expectLock(m, raw.LockTypeWrite) },
			lock: func(l *SessionLock) error {
				_, err := l.LockExclusive("web-1")
				return err
			},
			expState: model.LockStateExclusive,
		},

		"A shared lock should lock the machine.": {
			mock: func(m *rawmock.MockAPI) { expectLock(m, raw.LockTypeShared) },
			lock: func(l *SessionLock) error {
				_, err := l.LockShared("web-1")
				return err
			},
			expState: model.LockStateShared,
		},

		"A machine locked by another session should fail as already locked.": {
			mock: func(m *rawmock.MockAPI) {
				m.On("Invoke", vboxPtr, slot(raw.MethodVirtualBoxFindMachine), "web-1").Once().Return([]any{machinePtr}, raw.OK)
				m.On("LockMachine", machinePtr, sessionPtr, raw.LockTypeWrite).Once().Return(raw.VBoxInvalidObjectState)
				m.On("ErrorInfo", raw.VBoxInvalidObjectState).Once().Return("machine is already locked", raw.OK)
				m.On("Release", machinePtr).Once().Return(uint32(0), raw.OK)
			},
			lock: func(l *SessionLock) error {
				_, err := l.LockExclusive("web-1")
				return err
			},
			expState: model.LockStateUnlocked,
			expErr:   model.ErrAlreadyLocked,
		},

		"A missing machine should fail as not found.": {
			mock: func(m *rawmock.MockAPI) {
				m.On("Invoke", vboxPtr, slot(raw.MethodVirtualBoxFindMachine), "web-1").Once().Return(nil, raw.VBoxObjectNotFound)
				m.On("ErrorInfo", raw.VBoxObjectNotFound).Once().Return("not found", raw.OK)
			},
			lock: func(l *SessionLock) error {
				_, err := l.LockExclusive("web-1")
				return err
			},
			expState: model.LockStateUnlocked,
			expErr:   model.ErrNotFound,
		},

		"A broken session machine should unlock the machine and fail.": {
			mock: func(m *rawmock.MockAPI) {
				m.On("Invoke", vboxPtr, slot(raw.MethodVirtualBoxFindMachine), "web-1").Once().Return([]any{machinePtr}, raw.OK)
				m.On("LockMachine", machinePtr, sessionPtr, raw.LockTypeWrite).Once().Return(raw.OK)
				m.On("Invoke", sessionPtr, slot(raw.MethodSessionGetMachine)).Once().Return([]any{raw.Null}, raw.OK)
				m.On("UnlockMachine", sessionPtr).Once().Return(raw.OK)
				m.On("Release", machinePtr).Once().Return(uint32(0), raw.OK)
			},
			lock: func(l *SessionLock) error {
				_, err := l.LockExclusive("web-1")
				return err
			},
			expState: model.LockStateUnlocked,
			expErr:   model.ErrNullPointer,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			m := rawmock.NewMockAPI(t)
			test.mock(m)

			l := newTestSessionLock(m)
			err := test.lock(l)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else {
				assert.NoError(err)
			}
			assert.Equal(test.expState, l.State())
			if test.expState.Locked() {
				assert.Equal(uuid.MustParse(testMachineID), l.MachineID())
			} else {
				assert.Equal(uuid.Nil, l.MachineID())
			}
		})
	}
}

func TestSessionLockTransitions(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m := rawmock.NewMockAPI(t)
	expectLock(m, raw.LockTypeWrite)
	l := newTestSessionLock(m)

	// Unlocking an unlocked session makes no foreign call.
	assert.ErrorIs(l.Unlock(), model.ErrInvalidLockState)

	mm, err := l.LockExclusive("web-1")
	require.NoError(err)

	// Locking a locked session makes no foreign call.
	_, err = l.LockExclusive("web-1")
	assert.ErrorIs(err, model.ErrInvalidLockState)
	_, err = l.LockShared("web-1")
	assert.ErrorIs(err, model.ErrInvalidLockState)
	assert.Equal(model.LockStateExclusive, l.State())

	m.On("UnlockMachine", sessionPtr).Once().Return(raw.OK)
	m.On("Release", sessMachinePtr).Once().Return(uint32(0), raw.OK)
	require.NoError(l.Unlock())
	assert.Equal(model.LockStateUnlocked, l.State())

	// The view of a released lock can't be used, no foreign call is made.
	assert.ErrorIs(mm.SetMemorySize(1024), model.ErrLockReleased)
	_, err = mm.Name()
	assert.ErrorIs(err, model.ErrLockReleased)

	m.On("Release", sessionPtr).Once().Return(uint32(0), raw.OK)
	l.Close()
	_, err = l.LockExclusive("web-1")
	assert.ErrorIs(err, model.ErrReleased)
}

func TestSessionLockOldEpochViews(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m := rawmock.NewMockAPI(t)
	expectLock(m, raw.LockTypeWrite)
	m.On("UnlockMachine", sessionPtr).Once().Return(raw.OK)
	m.On("Release", sessMachinePtr).Once().Return(uint32(0), raw.OK)
	l := newTestSessionLock(m)

	old, err := l.LockExclusive("web-1")
	require.NoError(err)
	require.NoError(l.Unlock())

	expectLock(m, raw.LockTypeShared)
	_, err = l.LockShared("web-1")
	require.NoError(err)

	// A view of a previous lock is not valid even if the session is locked again.
	assert.ErrorIs(old.SaveSettings(), model.ErrLockReleased)
}

func TestSessionLockUnlockFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	m := rawmock.NewMockAPI(t)
	expectLock(m, raw.LockTypeWrite)
	l := newTestSessionLock(m)

	_, err := l.LockExclusive("web-1")
	require.NoError(err)

	// A failed unlock keeps the lock.
	m.On("UnlockMachine", sessionPtr).Once().Return(raw.VBoxInvalidSessionState)
	m.On("ErrorInfo", raw.VBoxInvalidSessionState).Once().Return("session is busy", raw.OK)
	assert.Error(l.Unlock())
	assert.Equal(model.LockStateExclusive, l.State())

	// Close tries once and considers the lock released anyway.
	m.On("UnlockMachine", sessionPtr).Once().Return(raw.VBoxInvalidSessionState)
	m.On("ErrorInfo", raw.VBoxInvalidSessionState).Once().Return("session is busy", raw.OK)
	m.On("Release", sessMachinePtr).Once().Return(uint32(0), raw.OK)
	m.On("Release", sessionPtr).Once().Return(uint32(0), raw.OK)
	l.Close()
	l.Close()
	assert.Equal(model.LockStateUnlocked, l.State())
	m.AssertNumberOfCalls(t, "UnlockMachine", 2)
}
