package raw

// MachineState is the foreign IMachine state enumeration.
type MachineState uint32

const (
	MachineStateNull             MachineState = 0
	MachineStatePoweredOff       MachineState = 1
	MachineStateSaved            MachineState = 2
	MachineStateTeleported       MachineState = 3
	MachineStateAborted          MachineState = 4
	MachineStateAbortedSaved     MachineState = 5
	MachineStateRunning          MachineState = 6
	MachineStatePaused           MachineState = 7
	MachineStateStuck            MachineState = 8
	MachineStateTeleporting      MachineState = 9
	MachineStateLiveSnapshotting MachineState = 10
	MachineStateStarting         MachineState = 11
	MachineStateStopping         MachineState = 12
	MachineStateSaving           MachineState = 13
	MachineStateRestoring        MachineState = 14
	MachineStateSnapshotting     MachineState = 18
	MachineStateDeletingSnapshot MachineState = 20
	MachineStateSettingUp        MachineState = 22
)

// SessionState is the foreign session state enumeration.
type SessionState uint32

const (
	SessionStateNull      SessionState = 0
	SessionStateUnlocked  SessionState = 1
	SessionStateLocked    SessionState = 2
	SessionStateSpawning  SessionState = 3
	SessionStateUnlocking SessionState = 4
)

// CloneOption is a foreign machine clone option.
type CloneOption uint32

const (
	CloneOptionLink          CloneOption = 1
	CloneOptionKeepAllMACs   CloneOption = 2
	CloneOptionKeepNATMACs   CloneOption = 3
	CloneOptionKeepDiskNames CloneOption = 4
)
