package model

// LockState is the state of a session lock against a machine.
type LockState int

const (
	// LockStateUnlocked is the initial state, no machine is locked.
	LockStateUnlocked LockState = iota
	// LockStateExclusive means the session holds the write lock of a machine.
	LockStateExclusive
	// LockStateShared means the session holds a shared lock of a machine.
	LockStateShared
)

func (s LockState) String() string {
	switch s {
	case LockStateUnlocked:
		return "unlocked"
	case LockStateExclusive:
		return "locked-exclusive"
	case LockStateShared:
		return "locked-shared"
	}
	return "unknown"
}

// Locked returns true for any of the locked states.
func (s LockState) Locked() bool {
	return s == LockStateExclusive || s == LockStateShared
}

// SessionState is the foreign session state as reported by the hypervisor.
type SessionState string

const (
	SessionStateNull      SessionState = "null"
	SessionStateUnlocked  SessionState = "unlocked"
	SessionStateLocked    SessionState = "locked"
	SessionStateSpawning  SessionState = "spawning"
	SessionStateUnlocking SessionState = "unlocking"
)
