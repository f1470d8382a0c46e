package remove_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/app/remove"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/raw/sim"
	"github.com/slok/vbx/internal/vbox"
	"github.com/slok/vbx/internal/vbox/vboxtest"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config remove.ServiceConfig
		expErr bool
	}{
		"missing client should fail": {
			config: remove.ServiceConfig{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := remove.NewService(test.config)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		prepare    func(t *testing.T, c *vbox.Client, sdk *sim.SDK)
		req        remove.Request
		expRemoved bool
		expErr     error
		expForeign raw.ResultCode
	}{
		"a powered off machine should be removed with its snapshots": {
			req:        remove.Request{NameOrID: "web-1"},
			expRemoved: true,
		},
		"a machine should be removed by id with explicit mode": {
			req:        remove.Request{NameOrID: vboxtest.WebID, Mode: model.CleanupModeDetachAllReturnNone},
			expRemoved: true,
		},
		"a running machine should not be removed": {
			req:    remove.Request{NameOrID: "db-1"},
			expErr: model.ErrNotValid,
		},
		"unregister only should fail on machines with snapshots": {
			req:        remove.Request{NameOrID: "web-1", Mode: model.CleanupModeUnregisterOnly},
			expForeign: raw.VBoxInvalidObjectState,
		},
		"an invalid mode should fail": {
			req:    remove.Request{NameOrID: "web-1", Mode: 9},
			expErr: model.ErrNotValid,
		},
		"a locked machine should not be removed": {
			prepare: func(t *testing.T, c *vbox.Client, _ *sim.SDK) {
				lock, err := c.NewSessionLock()
				require.NoError(t, err)
				t.Cleanup(lock.Close)
				_, err = lock.LockExclusive("web-1")
				require.NoError(t, err)
			},
			req:        remove.Request{NameOrID: "web-1"},
			expForeign: raw.VBoxInvalidObjectState,
		},
		"a failed deletion should fail with the operation error": {
			prepare: func(t *testing.T, _ *vbox.Client, sdk *sim.SDK) {
				sdk.InjectOperationFault(raw.VBoxFileError, "permission denied on /vms/web-1")
			},
			req:        remove.Request{NameOrID: "web-1"},
			expForeign: raw.VBoxFileError,
		},
		"a missing machine should fail as not found": {
			req:    remove.Request{NameOrID: "nope"},
			expErr: model.ErrNotFound,
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

			svc, err := remove.NewService(remove.ServiceConfig{Client: client})
			require.NoError(err)

			info, err := svc.Run(context.Background(), test.req)
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
				assert.Equal(vboxtest.WebID, info.ID)
			}

			_, err = client.VirtualBox().FindMachine(test.req.NameOrID)
			if test.expRemoved {
				assert.ErrorIs(err, model.ErrNotFound)
			} else if test.expErr == nil && test.expForeign != raw.VBoxFileError {
				assert.NoError(err)
			}
		})
	}
}
