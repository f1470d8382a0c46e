package storage

import (
	"context"

	"github.com/slok/vbx/internal/model"
)

// Repository is the interface for the hypervisor inventory persistence.
type Repository interface {
	MachineRepository
	SnapshotRepository
	OperationRepository
}

// MachineRepository persists registered machines.
type MachineRepository interface {
	CreateMachine(ctx context.Context, m model.MachineInfo) error
	GetMachine(ctx context.Context, id string) (*model.MachineInfo, error)
	GetMachineByName(ctx context.Context, name string) (*model.MachineInfo, error)
	ListMachines(ctx context.Context) ([]model.MachineInfo, error)
	UpdateMachine(ctx context.Context, m model.MachineInfo) error
	// DeleteMachine deletes a machine and all its snapshots.
	DeleteMachine(ctx context.Context, id string) error
}

// SnapshotRepository persists machine snapshots.
type SnapshotRepository interface {
	CreateSnapshot(ctx context.Context, s model.SnapshotInfo) error
	GetSnapshot(ctx context.Context, id string) (*model.SnapshotInfo, error)
	// ListSnapshots returns the snapshots of a machine, oldest first.
	ListSnapshots(ctx context.Context, machineID string) ([]model.SnapshotInfo, error)
	UpdateSnapshot(ctx context.Context, s model.SnapshotInfo) error
	DeleteSnapshot(ctx context.Context, id string) error
}

// OperationRepository persists the history of asynchronous operations.
type OperationRepository interface {
	CreateOperation(ctx context.Context, op model.Operation) error
	GetOperation(ctx context.Context, id string) (*model.Operation, error)
	// ListOperations returns the operations of a machine (all when machineID is empty), newest first.
	ListOperations(ctx context.Context, machineID string) ([]model.Operation, error)
	UpdateOperation(ctx context.Context, op model.Operation) error
}
