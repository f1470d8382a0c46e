package lib

import (
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	storageio "github.com/slok/vbx/internal/storage/io"
	"github.com/slok/vbx/internal/vbox"
)

// Object types. Every object holds a foreign reference and must be closed once
// the caller is done with it.
type (
	// VirtualBox is the hypervisor root object, owned by the [Client].
	VirtualBox = vbox.VirtualBox
	// Machine is a registered machine, read only.
	Machine = vbox.Machine
	// Snapshot is a machine snapshot.
	Snapshot = vbox.Snapshot
	// Medium is a hard disk attached to a machine.
	Medium = vbox.Medium
	// Progress tracks an asynchronous hypervisor operation.
	Progress = vbox.Progress
	// SessionLock locks one machine at a time, exclusively or shared.
	SessionLock = vbox.SessionLock
	// MutableMachine is the machine view of an exclusive lock.
	MutableMachine = vbox.MutableMachine
	// SharedMachine is the machine view of a shared lock.
	SharedMachine = vbox.SharedMachine
)

// Value types.
type (
	MachineInfo    = model.MachineInfo
	SnapshotInfo   = model.SnapshotInfo
	Inventory      = model.Inventory
	Version        = model.Version
	MachineState   = model.MachineState
	SessionState   = model.SessionState
	LockState      = model.LockState
	ProgressState  = model.ProgressState
	ProgressStatus = model.ProgressStatus
	CleanupMode    = model.CleanupMode
	CloneMode      = model.CloneMode
	CloneOption    = raw.CloneOption
	CheckResult    = model.CheckResult
	CheckStatus    = model.CheckStatus
)

const (
	MachineStatePoweredOff = model.MachineStatePoweredOff
	MachineStateSaved      = model.MachineStateSaved
	MachineStateAborted    = model.MachineStateAborted
	MachineStateRunning    = model.MachineStateRunning
	MachineStatePaused     = model.MachineStatePaused
	MachineStateStuck      = model.MachineStateStuck
	MachineStateStopping   = model.MachineStateStopping

	SessionStateUnlocked = model.SessionStateUnlocked
	SessionStateLocked   = model.SessionStateLocked

	LockStateUnlocked  = model.LockStateUnlocked
	LockStateExclusive = model.LockStateExclusive
	LockStateShared    = model.LockStateShared

	ProgressStatusRunning   = model.ProgressStatusRunning
	ProgressStatusSucceeded = model.ProgressStatusSucceeded
	ProgressStatusFailed    = model.ProgressStatusFailed
	ProgressStatusCanceled  = model.ProgressStatusCanceled

	CleanupModeUnregisterOnly               = model.CleanupModeUnregisterOnly
	CleanupModeDetachAllReturnNone          = model.CleanupModeDetachAllReturnNone
	CleanupModeDetachAllReturnHardDisksOnly = model.CleanupModeDetachAllReturnHardDisksOnly
	CleanupModeFull                         = model.CleanupModeFull

	CloneModeMachineState          = model.CloneModeMachineState
	CloneModeMachineAndChildStates = model.CloneModeMachineAndChildStates
	CloneModeAllStates             = model.CloneModeAllStates

	CloneOptionLink          = raw.CloneOptionLink
	CloneOptionKeepAllMACs   = raw.CloneOptionKeepAllMACs
	CloneOptionKeepNATMACs   = raw.CloneOptionKeepNATMACs
	CloneOptionKeepDiskNames = raw.CloneOptionKeepDiskNames

	CheckStatusOK      = model.CheckStatusOK
	CheckStatusWarning = model.CheckStatusWarning
	CheckStatusError   = model.CheckStatusError
)

// ParseVersion parses an SDK version string like "7.1.4r165100".
func ParseVersion(s string) (Version, error) { return model.ParseVersion(s) }

// DecodeInventory decodes a YAML inventory, the same format the CLI --inventory flag reads.
func DecodeInventory(data []byte) (Inventory, error) { return storageio.DecodeInventory(data) }
