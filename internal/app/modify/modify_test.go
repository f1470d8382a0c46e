package modify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/app/modify"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/raw/sim"
	"github.com/slok/vbx/internal/vbox"
	"github.com/slok/vbx/internal/vbox/vboxtest"
)

func ptr[T any](v T) *T { return &v }

func TestNewService(t *testing.T) {
	_, err := modify.NewService(modify.ServiceConfig{})
	assert.Error(t, err)
}

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		prepare    func(t *testing.T, c *vbox.Client, sdk *sim.SDK)
		req        modify.Request
		expMachine func(m model.MachineInfo) model.MachineInfo
		expErr     error
		expForeign raw.ResultCode
	}{
		"all the settings should be saved": {
			req: modify.Request{
				NameOrID:    "web-1",
				Name:        ptr("web-2"),
				Description: ptr("frontend"),
				MemoryMB:    ptr(uint32(4096)),
				CPUCount:    ptr(uint32(8)),
			},
			expMachine: func(m model.MachineInfo) model.MachineInfo {
				m.Name = "web-2"
				m.Description = "frontend"
				m.MemoryMB = 4096
				m.CPUCount = 8
				return m
			},
		},

		"a single setting should be saved": {
			req: modify.Request{NameOrID: vboxtest.WebID, CPUCount: ptr(uint32(1))},
			expMachine: func(m model.MachineInfo) model.MachineInfo {
				m.CPUCount = 1
				return m
			},
		},

		"a failed unlock after saving should still return the saved machine": {
			prepare: func(t *testing.T, c *vbox.Client, sdk *sim.SDK) {
				sdk.InjectUnlockFault(raw.VBoxInvalidSessionState)
			},
			req: modify.Request{NameOrID: "web-1", MemoryMB: ptr(uint32(2048))},
			expMachine: func(m model.MachineInfo) model.MachineInfo {
				m.MemoryMB = 2048
				return m
			},
		},

		"an invalid setting should discard all the changes": {
			req:        modify.Request{NameOrID: "web-1", Name: ptr("web-2"), MemoryMB: ptr(uint32(2))},
			expForeign: raw.EInvalidArg,
		},

		"a name already in use should not be saved": {
			req:        modify.Request{NameOrID: "web-1", Name: ptr("db-1")},
			expForeign: raw.VBoxFileError,
		},

		"a running machine should not be modified": {
			req:        modify.Request{NameOrID: "db-1", MemoryMB: ptr(uint32(1024))},
			expForeign: raw.VBoxInvalidVMState,
		},

		"a machine locked by another session should fail as already locked": {
			prepare: func(t *testing.T, c *vbox.Client, sdk *sim.SDK) {
				lock, err := c.NewSessionLock()
				require.NoError(t, err)
				t.Cleanup(lock.Close)
				_, err = lock.LockShared("web-1")
				require.NoError(t, err)
			},
			req:    modify.Request{NameOrID: "web-1", CPUCount: ptr(uint32(1))},
			expErr: model.ErrAlreadyLocked,
		},

		"a missing machine should fail as not found": {
			req:    modify.Request{NameOrID: "nope", CPUCount: ptr(uint32(1))},
			expErr: model.ErrNotFound,
		},

		"a request without settings should fail": {
			req:    modify.Request{NameOrID: "web-1"},
			expErr: model.ErrNotValid,
		},

		"an invalid name should fail without locking": {
			req:    modify.Request{NameOrID: "web-1", Name: ptr("-bad/name")},
			expErr: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			client, sdk := vboxtest.NewClient(t, sim.SDKConfig{}, vboxtest.Inventory())
			if test.prepare != nil {
				test.prepare(t, client, sdk)
			}

			before := readMachine(t, client, test.req.NameOrID)

			svc, err := modify.NewService(modify.ServiceConfig{Client: client})
			require.NoError(err)

			got, err := svc.Run(context.Background(), test.req)
			switch {
			case test.expErr != nil:
				assert.ErrorIs(err, test.expErr)
			case test.expForeign != 0:
				ferr, ok := model.AsForeignError(err)
				if assert.True(ok) {
					assert.Equal(uint32(test.expForeign), ferr.Code)
				}
			default:
				require.NoError(err)
				exp := test.expMachine(before)
				assert.Equal(exp, readMachine(t, client, exp.ID))

				// The result is read while the machine is still locked.
				exp.SessionState = model.SessionStateLocked
				assert.Equal(exp, *got)
				return
			}

			// Failed modifications leave the machine untouched and unlocked.
			if before.ID != "" && test.prepare == nil {
				assert.Equal(before, readMachine(t, client, before.ID))
			}
		})
	}
}

// readMachine reads a machine, a zero machine when it doesn't exist.
func readMachine(t *testing.T, c *vbox.Client, nameOrID string) model.MachineInfo {
	t.Helper()

	m, err := c.VirtualBox().FindMachine(nameOrID)
	if err != nil {
		return model.MachineInfo{}
	}
	defer m.Close()

	info, err := m.Info()
	require.NoError(t, err)
	return info
}
