package doctor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/app/doctor"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/raw/rawmock"
	"github.com/slok/vbx/internal/raw/sim"
	"github.com/slok/vbx/internal/vbox"
	"github.com/slok/vbx/internal/vbox/vboxtest"
)

func TestNewService(t *testing.T) {
	_, err := doctor.NewService(doctor.ServiceConfig{})
	assert.Error(t, err)
}

// otherLine returns a supported line that is not the compiled one.
func otherLine() raw.Line {
	for _, l := range raw.Lines() {
		if l.Name != raw.Current().Name {
			return l
		}
	}
	panic("only one line supported")
}

func TestServiceRun(t *testing.T) {
	current := raw.Current()
	other := otherLine()

	// The progress lookup depends on the compiled layout.
	expProgress := model.CheckStatusOK
	if _, ok := current.Slots.Lookup(raw.MethodVirtualBoxFindProgressByID); !ok {
		expProgress = model.CheckStatusWarning
	}

	tests := map[string]struct {
		api       func(t *testing.T) raw.API
		expStatus map[string]model.CheckStatus
		expMsg    map[string]string
	}{
		"An SDK of the compiled line should pass all the checks.": {
			api: func(t *testing.T) raw.API {
				v := current.Version
				v.Build = 4
				return vboxtest.NewSDK(t, sim.SDKConfig{Version: v}, vboxtest.Inventory())
			},
			expStatus: map[string]model.CheckStatus{
				"sdk_version":     model.CheckStatusOK,
				"client":          model.CheckStatusOK,
				"api_version":     model.CheckStatusOK,
				"progress_lookup": expProgress,
				"machines":        model.CheckStatusOK,
			},
			expMsg: map[string]string{
				"api_version": fmt.Sprintf("api version %d_%d", current.Version.Major, current.Version.Minor),
				"machines":    "2 machines registered",
			},
		},

		"An SDK of another supported line should fail and suggest the matching line.": {
			api: func(t *testing.T) raw.API {
				v := other.Version
				v.Build = 20
				sdk, err := sim.NewSDK(sim.SDKConfig{Version: v})
				require.NoError(t, err)
				return sdk
			},
			expStatus: map[string]model.CheckStatus{
				"sdk_version": model.CheckStatusError,
			},
			expMsg: map[string]string{
				"sdk_version": fmt.Sprintf("sdk version mismatch: expected %s.x (line %s), found %s.20, use a binary built for line %s",
					current.Version.MajorMinor(), current.Name, other.Version.MajorMinor(), other.Name),
			},
		},

		"An unknown SDK should fail.": {
			api: func(t *testing.T) raw.API {
				sdk, err := sim.NewSDK(sim.SDKConfig{Version: model.Version{Major: 5, Minor: 2, Build: 44}})
				require.NoError(t, err)
				return sdk
			},
			expStatus: map[string]model.CheckStatus{
				"sdk_version": model.CheckStatusError,
			},
			expMsg: map[string]string{
				"sdk_version": fmt.Sprintf("sdk version mismatch: expected %s.x (line %s), found 5.2.44",
					current.Version.MajorMinor(), current.Name),
			},
		},

		"Locked machines should be warned.": {
			api: func(t *testing.T) raw.API {
				sdk := vboxtest.NewSDK(t, sim.SDKConfig{}, vboxtest.Inventory())

				c, err := vbox.Connect(vbox.ClientConfig{API: sdk})
				require.NoError(t, err)
				lock, err := c.NewSessionLock()
				require.NoError(t, err)
				t.Cleanup(lock.Close)
				_, err = lock.LockShared("db-1")
				require.NoError(t, err)

				return sdk
			},
			expStatus: map[string]model.CheckStatus{
				"sdk_version":     model.CheckStatusOK,
				"client":          model.CheckStatusOK,
				"api_version":     model.CheckStatusOK,
				"progress_lookup": expProgress,
				"machines":        model.CheckStatusWarning,
			},
			expMsg: map[string]string{
				"machines": "2 machines registered, 1 locked by other sessions",
			},
		},

		"A version query failure should fail.": {
			api: func(t *testing.T) raw.API {
				m := rawmock.NewMockAPI(t)
				m.On("Version").Once().Return(uint32(0), raw.RPCServerUnavailable)
				return m
			},
			expStatus: map[string]model.CheckStatus{
				"sdk_version": model.CheckStatusError,
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			svc, err := doctor.NewService(doctor.ServiceConfig{API: tc.api(t)})
			require.NoError(err)

			results := svc.Run(context.Background())

			gotStatus := map[string]model.CheckStatus{}
			gotMsg := map[string]string{}
			for _, r := range results {
				gotStatus[r.ID] = r.Status
				gotMsg[r.ID] = r.Message
			}
			assert.Equal(tc.expStatus, gotStatus)
			for id, msg := range tc.expMsg {
				assert.Equal(msg, gotMsg[id], id)
			}
		})
	}
}
