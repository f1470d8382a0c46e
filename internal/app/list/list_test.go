package list_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/app/list"
	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw/sim"
	"github.com/slok/vbx/internal/vbox/vboxtest"
)

func TestNewService(t *testing.T) {
	client, _ := vboxtest.NewClient(t, sim.SDKConfig{}, vboxtest.Inventory())

	tests := map[string]struct {
		config list.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: list.ServiceConfig{
				Client: client,
				Logger: log.Noop,
			},
			expErr: false,
		},
		"missing client should fail": {
			config: list.ServiceConfig{
				Logger: log.Noop,
			},
			expErr: true,
		},
		"nil logger should default to noop": {
			config: list.ServiceConfig{
				Client: client,
			},
			expErr: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := list.NewService(test.config)

			if test.expErr {
				require.Error(err)
				require.Nil(svc)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestService_Run(t *testing.T) {
	running := model.MachineStateRunning
	saved := model.MachineStateSaved

	tests := map[string]struct {
		sdk      func(sdk *sim.SDK)
		req      list.Request
		expNames []string
		expErr   error
	}{
		"list all machines without filter sorted by name": {
			req:      list.Request{},
			expNames: []string{"db-1", "web-1"},
		},
		"list machines filtered by state": {
			req:      list.Request{StateFilter: &running},
			expNames: []string{"db-1"},
		},
		"filter with no matches should return empty list": {
			req:      list.Request{StateFilter: &saved},
			expNames: []string{},
		},
		"a dead hypervisor should fail as stale": {
			sdk:    func(sdk *sim.SDK) { sdk.Disconnect() },
			req:    list.Request{},
			expErr: model.ErrStale,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			client, sdk := vboxtest.NewClient(t, sim.SDKConfig{}, vboxtest.Inventory())
			if test.sdk != nil {
				test.sdk(sdk)
			}

			svc, err := list.NewService(list.ServiceConfig{Client: client})
			require.NoError(err)

			machines, err := svc.Run(context.Background(), test.req)
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)

			names := []string{}
			for _, m := range machines {
				names = append(names, m.Name)
			}
			assert.Equal(test.expNames, names)
		})
	}
}

func TestService_RunReleasesMachines(t *testing.T) {
	require := require.New(t)

	client, sdk := vboxtest.NewClient(t, sim.SDKConfig{}, vboxtest.Inventory())
	before := sdk.LiveObjects()

	svc, err := list.NewService(list.ServiceConfig{Client: client})
	require.NoError(err)

	_, err = svc.Run(context.Background(), list.Request{})
	require.NoError(err)

	// Only the client objects stay alive.
	assert.Equal(t, before, sdk.LiveObjects())
}
