package stop_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/app/stop"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/raw/sim"
	"github.com/slok/vbx/internal/vbox"
	"github.com/slok/vbx/internal/vbox/vboxtest"
)

func TestNewService(t *testing.T) {
	_, err := stop.NewService(stop.ServiceConfig{})
	assert.Error(t, err)
}

func TestServiceRun(t *testing.T) {
	tests := map[string]struct {
		prepare        func(t *testing.T, c *vbox.Client, sdk *sim.SDK)
		req            stop.Request
		expErr         error
		expForeignCode raw.ResultCode
	}{
		"A running machine should be powered off.": {
			req: stop.Request{NameOrID: "db-1"},
		},

		"A running machine should be powered off by id.": {
			req: stop.Request{NameOrID: vboxtest.DBID},
		},

		"A running machine with another shared session should be powered off.": {
			prepare: func(t *testing.T, c *vbox.Client, _ *sim.SDK) {
				lock, err := c.NewSessionLock()
				require.NoError(t, err)
				t.Cleanup(lock.Close)
				_, err = lock.LockShared("db-1")
				require.NoError(t, err)
			},
			req: stop.Request{NameOrID: "db-1"},
		},

		"A powered off machine should not be stopped.": {
			req:    stop.Request{NameOrID: "web-1"},
			expErr: model.ErrNotValid,
		},

		"A missing machine should fail as not found.": {
			req:    stop.Request{NameOrID: "nope"},
			expErr: model.ErrNotFound,
		},

		"A failed power off should fail.": {
			prepare: func(t *testing.T, _ *vbox.Client, sdk *sim.SDK) {
				sdk.InjectOperationFault(raw.VBoxVMError, "the VM process crashed")
			},
			req:            stop.Request{NameOrID: "db-1"},
			expForeignCode: raw.VBoxVMError,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			client, sdk := vboxtest.NewClient(t, sim.SDKConfig{}, vboxtest.Inventory())
			if tc.prepare != nil {
				tc.prepare(t, client, sdk)
			}

			svc, err := stop.NewService(stop.ServiceConfig{Client: client})
			require.NoError(err)

			info, err := svc.Run(context.Background(), tc.req)
			if tc.expForeignCode != 0 {
				ferr, ok := model.AsForeignError(err)
				require.True(ok)
				assert.Equal(uint32(tc.expForeignCode), ferr.Code)
				return
			}
			if tc.expErr != nil {
				assert.ErrorIs(err, tc.expErr)
				return
			}
			require.NoError(err)

			assert.Equal("db-1", info.Name)
			assert.Equal(model.MachineStatePoweredOff, info.State)
		})
	}
}
