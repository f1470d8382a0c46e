package model

import (
	"fmt"
	"regexp"
	"time"
)

var machineNameRegexp = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 ._-]*$`)

// MachineState is the execution state of a virtual machine.
type MachineState string

const (
	MachineStateNull             MachineState = "null"
	MachineStatePoweredOff       MachineState = "powered-off"
	MachineStateSaved            MachineState = "saved"
	MachineStateAborted          MachineState = "aborted"
	MachineStateRunning          MachineState = "running"
	MachineStatePaused           MachineState = "paused"
	MachineStateStuck            MachineState = "stuck"
	MachineStateStarting         MachineState = "starting"
	MachineStateStopping         MachineState = "stopping"
	MachineStateSaving           MachineState = "saving"
	MachineStateRestoring        MachineState = "restoring"
	MachineStateSnapshotting     MachineState = "snapshotting"
	MachineStateDeletingSnapshot MachineState = "deleting-snapshot"
	MachineStateSettingUp        MachineState = "setting-up"
)

// Online returns true when the machine has a running VM process.
func (s MachineState) Online() bool {
	switch s {
	case MachineStateRunning, MachineStatePaused, MachineStateStuck:
		return true
	}
	return false
}

// CleanupMode selects what a machine unregister detaches and returns.
type CleanupMode uint32

const (
	CleanupModeUnregisterOnly CleanupMode = iota + 1
	CleanupModeDetachAllReturnNone
	CleanupModeDetachAllReturnHardDisksOnly
	CleanupModeFull
)

// CloneMode selects which part of a snapshot tree a clone copies.
type CloneMode uint32

const (
	CloneModeMachineState CloneMode = iota + 1
	CloneModeMachineAndChildStates
	CloneModeAllStates
)

// MachineInfo is the set of machine properties read through a machine object.
type MachineInfo struct {
	ID                string
	Name              string
	Description       string
	OSTypeID          string
	State             MachineState
	SessionState      SessionState
	MemoryMB          uint32
	CPUCount          uint32
	SnapshotCount     uint32
	CurrentSnapshotID string
	// Media are the locations of the attached hard disks.
	Media     []string
	ExtraData map[string]string
	// LastStateChange is the time of the last machine state change.
	LastStateChange time.Time
}

// Validate validates the machine model.
func (m MachineInfo) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("machine id is required: %w", ErrNotValid)
	}

	if err := ValidateMachineName(m.Name); err != nil {
		return err
	}

	if m.CPUCount == 0 {
		return fmt.Errorf("cpu count must be positive: %w", ErrNotValid)
	}

	if m.MemoryMB == 0 {
		return fmt.Errorf("memory must be positive: %w", ErrNotValid)
	}

	return nil
}

// ValidateMachineName validates a machine name.
func ValidateMachineName(name string) error {
	if name == "" {
		return fmt.Errorf("machine name is required: %w", ErrNotValid)
	}

	if !machineNameRegexp.MatchString(name) {
		return fmt.Errorf("machine name %q is invalid (allowed: [a-zA-Z0-9 ._-]): %w", name, ErrNotValid)
	}

	return nil
}

// MachineDetails is a machine with its snapshot tree and operation history.
type MachineDetails struct {
	Machine   MachineInfo
	Snapshots []SnapshotInfo
	// Operations are the recorded asynchronous operations of the machine, newest first.
	Operations []Operation
}
