package snapshotlist_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/app/snapshotlist"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw/sim"
	"github.com/slok/vbx/internal/vbox/vboxtest"
)

func TestServiceRun(t *testing.T) {
	tests := map[string]struct {
		req     snapshotlist.Request
		expSnap []model.SnapshotInfo
		expErr  error
	}{
		"Snapshots should be listed parents first.": {
			req: snapshotlist.Request{NameOrID: "web-1"},
			expSnap: []model.SnapshotInfo{
				{ID: "snap-1", Name: "base", MachineID: vboxtest.WebID, CreatedAt: vboxtest.T0},
				{ID: "snap-2", Name: "configured", MachineID: vboxtest.WebID, ParentID: "snap-1", CreatedAt: vboxtest.T0.Add(time.Hour)},
			},
		},

		"A machine without snapshots should return an empty list.": {
			req:     snapshotlist.Request{NameOrID: vboxtest.DBID},
			expSnap: []model.SnapshotInfo{},
		},

		"A missing machine should fail as not found.": {
			req:    snapshotlist.Request{NameOrID: "nope"},
			expErr: model.ErrNotFound,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			client, _ := vboxtest.NewClient(t, sim.SDKConfig{}, vboxtest.Inventory())
			svc, err := snapshotlist.NewService(snapshotlist.ServiceConfig{Client: client})
			require.NoError(err)

			snaps, err := svc.Run(context.Background(), tc.req)
			if tc.expErr != nil {
				assert.ErrorIs(err, tc.expErr)
				return
			}
			require.NoError(err)
			assert.Equal(tc.expSnap, snaps)
		})
	}
}
