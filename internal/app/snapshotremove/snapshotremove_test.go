package snapshotremove_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/app/snapshotremove"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/raw/sim"
	"github.com/slok/vbx/internal/vbox/vboxtest"
)

// branchedInventory adds a second child to the "base" snapshot.
func branchedInventory() model.Inventory {
	inv := vboxtest.Inventory()
	inv.Snapshots = append(inv.Snapshots, model.SnapshotInfo{
		ID: "snap-3", Name: "alt", MachineID: vboxtest.WebID, ParentID: "snap-1", CreatedAt: vboxtest.T0,
	})
	return inv
}

func TestServiceRun(t *testing.T) {
	tests := map[string]struct {
		inventory    model.Inventory
		req          snapshotremove.Request
		expRemoved   string
		expSnapshots map[string]string
		expCurrent   string
		expErr       error
		expForeign   raw.ResultCode
	}{
		"Removing the current leaf should move the current snapshot to its parent.": {
			inventory:    vboxtest.Inventory(),
			req:          snapshotremove.Request{NameOrID: "web-1", SnapshotNameOrID: "configured"},
			expRemoved:   "snap-2",
			expSnapshots: map[string]string{"base": ""},
			expCurrent:   "snap-1",
		},

		"Removing a snapshot with one child should merge it into the child.": {
			inventory:    vboxtest.Inventory(),
			req:          snapshotremove.Request{NameOrID: vboxtest.WebID, SnapshotNameOrID: "snap-1"},
			expRemoved:   "snap-1",
			expSnapshots: map[string]string{"configured": ""},
			expCurrent:   "snap-2",
		},

		"A recursive removal should remove the whole subtree.": {
			inventory:    vboxtest.Inventory(),
			req:          snapshotremove.Request{NameOrID: "web-1", SnapshotNameOrID: "base", Recursive: true},
			expRemoved:   "snap-1",
			expSnapshots: map[string]string{},
			expCurrent:   "",
		},

		"Removing a snapshot with several children should fail.": {
			inventory:  branchedInventory(),
			req:        snapshotremove.Request{NameOrID: "web-1", SnapshotNameOrID: "base"},
			expForeign: raw.VBoxInvalidObjectState,
		},

		"A missing snapshot should fail as not found.": {
			inventory: vboxtest.Inventory(),
			req:       snapshotremove.Request{NameOrID: "web-1", SnapshotNameOrID: "nope"},
			expErr:    model.ErrNotFound,
		},

		"A missing snapshot name should fail.": {
			inventory: vboxtest.Inventory(),
			req:       snapshotremove.Request{NameOrID: "web-1"},
			expErr:    model.ErrNotValid,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			client, _ := vboxtest.NewClient(t, sim.SDKConfig{}, tc.inventory)
			svc, err := snapshotremove.NewService(snapshotremove.ServiceConfig{Client: client})
			require.NoError(err)

			removed, err := svc.Run(context.Background(), tc.req)
			switch {
			case tc.expErr != nil:
				assert.ErrorIs(err, tc.expErr)
				return
			case tc.expForeign != 0:
				ferr, ok := model.AsForeignError(err)
				if assert.True(ok) {
					assert.Equal(uint32(tc.expForeign), ferr.Code)
				}
				return
			}
			require.NoError(err)
			assert.Equal(tc.expRemoved, removed.ID)

			m, err := client.VirtualBox().FindMachine("web-1")
			require.NoError(err)
			defer m.Close()

			snaps, err := m.Snapshots()
			require.NoError(err)
			gotSnaps := map[string]string{}
			for _, s := range snaps {
				gotSnaps[s.Name] = s.ParentID
			}
			assert.Equal(tc.expSnapshots, gotSnaps)

			info, err := m.Info()
			require.NoError(err)
			assert.Equal(tc.expCurrent, info.CurrentSnapshotID)
			assert.Equal(model.MachineStatePoweredOff, info.State)
			assert.Equal(model.SessionStateUnlocked, info.SessionState)
		})
	}
}
