package snapshotcreate_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/app/snapshotcreate"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/raw/sim"
	"github.com/slok/vbx/internal/vbox"
	"github.com/slok/vbx/internal/vbox/vboxtest"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config snapshotcreate.ServiceConfig
		expErr bool
	}{
		"Missing client should fail.": {
			config: snapshotcreate.ServiceConfig{},
			expErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			svc, err := snapshotcreate.NewService(tc.config)
			if tc.expErr {
				require.Error(err)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestServiceRun(t *testing.T) {
	now := time.Date(2026, 2, 1, 15, 4, 5, 0, time.UTC)

	tests := map[string]struct {
		prepare    func(t *testing.T, svc *snapshotcreate.Service, sdk *sim.SDK)
		req        snapshotcreate.Request
		expName    string
		expParent  string
		expOnline  bool
		expErr     error
		expForeign raw.ResultCode
	}{
		"A named snapshot should be taken on top of the current one.": {
			req:       snapshotcreate.Request{NameOrID: "web-1", SnapshotName: "nightly", Description: "before upgrade"},
			expName:   "nightly",
			expParent: "snap-2",
		},

		"Without name a default name should be used.": {
			req:       snapshotcreate.Request{NameOrID: vboxtest.WebID},
			expName:   "web-1-20260201-1504",
			expParent: "snap-2",
		},

		"A default name already in use should get a suffix.": {
			prepare: func(t *testing.T, svc *snapshotcreate.Service, _ *sim.SDK) {
				_, err := svc.Run(context.Background(), snapshotcreate.Request{NameOrID: "web-1"})
				require.NoError(t, err)
			},
			req:     snapshotcreate.Request{NameOrID: "web-1"},
			expName: fmt.Sprintf("web-1-20260201-1504-%d", now.Unix()),
		},

		"An online machine should get a live snapshot.": {
			req:       snapshotcreate.Request{NameOrID: "db-1", SnapshotName: "live", Pause: true},
			expName:   "live",
			expOnline: true,
		},

		"A name already in use should fail.": {
			req:    snapshotcreate.Request{NameOrID: "web-1", SnapshotName: "base"},
			expErr: model.ErrAlreadyExists,
		},

		"An invalid name should fail.": {
			req:    snapshotcreate.Request{NameOrID: "web-1", SnapshotName: "../bad"},
			expErr: model.ErrNotValid,
		},

		"A failed operation should fail with the foreign error.": {
			prepare: func(t *testing.T, _ *snapshotcreate.Service, sdk *sim.SDK) {
				sdk.InjectOperationFault(raw.VBoxFileError, "could not write the saved state")
			},
			req:        snapshotcreate.Request{NameOrID: "web-1", SnapshotName: "nightly"},
			expForeign: raw.VBoxFileError,
		},

		"A missing machine should fail as not found.": {
			req:    snapshotcreate.Request{NameOrID: "nope", SnapshotName: "nightly"},
			expErr: model.ErrNotFound,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			client, sdk := vboxtest.NewClient(t, sim.SDKConfig{}, vboxtest.Inventory())
			svc, err := snapshotcreate.NewService(snapshotcreate.ServiceConfig{
				Client:  client,
				TimeNow: func() time.Time { return now },
			})
			require.NoError(err)
			if tc.prepare != nil {
				tc.prepare(t, svc, sdk)
			}

			snap, err := svc.Run(context.Background(), tc.req)
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

			assert.Equal(tc.expName, snap.Name)
			assert.Equal(tc.req.Description, snap.Description)
			assert.Equal(tc.expOnline, snap.Online)
			if tc.expParent != "" {
				assert.Equal(tc.expParent, snap.ParentID)
			}

			// The new snapshot is the current one and the machine is unlocked.
			info := readMachine(t, client, tc.req.NameOrID)
			assert.Equal(snap.ID, info.CurrentSnapshotID)
			assert.Equal(model.SessionStateUnlocked, info.SessionState)
		})
	}
}

func readMachine(t *testing.T, c *vbox.Client, nameOrID string) model.MachineInfo {
	t.Helper()

	m, err := c.VirtualBox().FindMachine(nameOrID)
	require.NoError(t, err)
	defer m.Close()

	info, err := m.Info()
	require.NoError(t, err)
	return info
}
