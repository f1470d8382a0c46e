package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/storage/memory"
)

func machineFixture(id, name string) model.MachineInfo {
	return model.MachineInfo{
		ID:              id,
		Name:            name,
		OSTypeID:        "Ubuntu_64",
		State:           model.MachineStatePoweredOff,
		MemoryMB:        2048,
		CPUCount:        2,
		Media:           []string{"/vms/" + name + "/disk.vdi"},
		ExtraData:       map[string]string{"owner": "ops"},
		LastStateChange: time.Now().UTC(),
	}
}

func snapshotFixture(id, name, machineID, parentID string) model.SnapshotInfo {
	return model.SnapshotInfo{
		ID:        id,
		Name:      name,
		MachineID: machineID,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRepositoryMachines(t *testing.T) {
	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo *memory.Repository) error
		expErr  error
	}{
		"Creating a machine should work.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateMachine(ctx, machineFixture("id-1", "vm-1")))

				got, err := repo.GetMachine(ctx, "id-1")
				require.NoError(t, err)
				assert.Equal(t, "vm-1", got.Name)
				assert.Equal(t, uint32(2048), got.MemoryMB)
				assert.Equal(t, "ops", got.ExtraData["owner"])

				return nil
			},
		},

		"Creating an invalid machine should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				m := machineFixture("id-1", "vm-1")
				m.CPUCount = 0
				return repo.CreateMachine(ctx, m)
			},
			expErr: model.ErrNotValid,
		},

		"Creating a duplicate ID should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateMachine(ctx, machineFixture("id-1", "vm-1")))
				return repo.CreateMachine(ctx, machineFixture("id-1", "vm-2"))
			},
			expErr: model.ErrAlreadyExists,
		},

		"Creating a duplicate name should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateMachine(ctx, machineFixture("id-1", "vm-1")))
				return repo.CreateMachine(ctx, machineFixture("id-2", "vm-1"))
			},
			expErr: model.ErrAlreadyExists,
		},

		"Getting a machine by name should work.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateMachine(ctx, machineFixture("id-1", "vm-1")))

				got, err := repo.GetMachineByName(ctx, "vm-1")
				require.NoError(t, err)
				assert.Equal(t, "id-1", got.ID)

				return nil
			},
		},

		"Getting a missing machine should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				_, err := repo.GetMachine(ctx, "missing")
				return err
			},
			expErr: model.ErrNotFound,
		},

		"Listing machines should be sorted by name.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				for _, i := range []int{2, 0, 1} {
					require.NoError(t, repo.CreateMachine(ctx, machineFixture(fmt.Sprintf("id-%d", i), fmt.Sprintf("vm-%d", i))))
				}

				ms, err := repo.ListMachines(ctx)
				require.NoError(t, err)
				require.Len(t, ms, 3)
				assert.Equal(t, "vm-0", ms[0].Name)
				assert.Equal(t, "vm-2", ms[2].Name)

				return nil
			},
		},

		"Returned machines should not share memory with the repository.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateMachine(ctx, machineFixture("id-1", "vm-1")))

				got, err := repo.GetMachine(ctx, "id-1")
				require.NoError(t, err)
				got.ExtraData["owner"] = "someone-else"

				again, err := repo.GetMachine(ctx, "id-1")
				require.NoError(t, err)
				assert.Equal(t, "ops", again.ExtraData["owner"])

				return nil
			},
		},

		"Updating a machine should work.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				m := machineFixture("id-1", "vm-1")
				require.NoError(t, repo.CreateMachine(ctx, m))

				m.Name = "vm-renamed"
				m.CPUCount = 4
				require.NoError(t, repo.UpdateMachine(ctx, m))

				got, err := repo.GetMachine(ctx, "id-1")
				require.NoError(t, err)
				assert.Equal(t, "vm-renamed", got.Name)
				assert.Equal(t, uint32(4), got.CPUCount)

				return nil
			},
		},

		"Updating a missing machine should fail.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				return repo.UpdateMachine(ctx, machineFixture("id-1", "vm-1"))
			},
			expErr: model.ErrNotFound,
		},

		"Deleting a machine should delete its snapshots.": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateMachine(ctx, machineFixture("id-1", "vm-1")))
				require.NoError(t, repo.CreateSnapshot(ctx, snapshotFixture("s-1", "base", "id-1", "")))

				require.NoError(t, repo.DeleteMachine(ctx, "id-1"))

				_, err := repo.GetSnapshot(ctx, "s-1")
				assert.ErrorIs(t, err, model.ErrNotFound)

				_, err = repo.GetMachine(ctx, "id-1")
				return err
			},
			expErr: model.ErrNotFound,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: log.Noop})
			require.NoError(t, err)

			err = test.actions(context.Background(), t, repo)
			if test.expErr != nil {
				assert.Error(err)
				assert.True(errors.Is(err, test.expErr))
			} else {
				assert.NoError(err)
			}
		})
	}
}

func TestRepositorySnapshots(t *testing.T) {
	ctx := context.Background()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	require.NoError(t, repo.CreateMachine(ctx, machineFixture("id-1", "vm-1")))

	// Snapshots need an existing machine.
	err = repo.CreateSnapshot(ctx, snapshotFixture("s-0", "orphan", "missing", ""))
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, repo.CreateSnapshot(ctx, snapshotFixture("s-1", "base", "id-1", "")))
	require.NoError(t, repo.CreateSnapshot(ctx, snapshotFixture("s-2", "child", "id-1", "s-1")))

	err = repo.CreateSnapshot(ctx, snapshotFixture("s-1", "dup", "id-1", ""))
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	list, err := repo.ListSnapshots(ctx, "id-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s-1", list[0].ID)
	assert.Equal(t, "s-2", list[1].ID)

	child := list[1]
	child.ParentID = ""
	require.NoError(t, repo.UpdateSnapshot(ctx, child))
	got, err := repo.GetSnapshot(ctx, "s-2")
	require.NoError(t, err)
	assert.Empty(t, got.ParentID)

	require.NoError(t, repo.DeleteSnapshot(ctx, "s-1"))
	err = repo.DeleteSnapshot(ctx, "s-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRepositoryOperations(t *testing.T) {
	ctx := context.Background()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	op1 := model.Operation{ID: "op-1", MachineID: "id-1", Kind: model.OperationKindTakeSnapshot, Status: model.ProgressStatusRunning}
	op2 := model.Operation{ID: "op-2", MachineID: "id-2", Kind: model.OperationKindExportMachine, Status: model.ProgressStatusRunning}
	require.NoError(t, repo.CreateOperation(ctx, op1))
	require.NoError(t, repo.CreateOperation(ctx, op2))
	assert.ErrorIs(t, repo.CreateOperation(ctx, op1), model.ErrAlreadyExists)

	now := time.Now().UTC()
	op1.Status = model.ProgressStatusSucceeded
	op1.CompletedAt = &now
	require.NoError(t, repo.UpdateOperation(ctx, op1))

	got, err := repo.GetOperation(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProgressStatusSucceeded, got.Status)
	assert.NotNil(t, got.CompletedAt)

	all, err := repo.ListOperations(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "op-2", all[0].ID)

	byMachine, err := repo.ListOperations(ctx, "id-1")
	require.NoError(t, err)
	require.Len(t, byMachine, 1)
	assert.Equal(t, "op-1", byMachine[0].ID)
}
