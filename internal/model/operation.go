package model

import "time"

// OperationKind is the kind of an asynchronous hypervisor operation.
type OperationKind string

const (
	OperationKindDeleteMachine   OperationKind = "delete-machine"
	OperationKindCloneMachine    OperationKind = "clone-machine"
	OperationKindExportMachine   OperationKind = "export-machine"
	OperationKindTakeSnapshot    OperationKind = "take-snapshot"
	OperationKindDeleteSnapshot  OperationKind = "delete-snapshot"
	OperationKindRestoreSnapshot OperationKind = "restore-snapshot"
	OperationKindPowerDown       OperationKind = "power-down"
)

// Operation is the record of an asynchronous hypervisor operation.
type Operation struct {
	ID          string
	MachineID   string
	Kind        OperationKind
	Description string
	Status      ProgressStatus
	// ResultCode is the foreign result code once the operation finished.
	ResultCode  uint32
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}
