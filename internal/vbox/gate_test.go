package vbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/raw/rawmock"
)

// slot returns the 7.1 vtable slot of a method.
func slot(m raw.Method) raw.Slot {
	s, _ := raw.LineV7_1.Slots.Lookup(m)
	return s
}

func newTestCore(api raw.API) *core {
	return &core{api: api, line: raw.LineV7_1, logger: log.Noop}
}

func TestNewGate(t *testing.T) {
	tests := map[string]struct {
		config GateConfig
		expErr bool
	}{
		"Missing API should fail.": {
			config: GateConfig{},
			expErr: true,
		},

		"The gate should always check against the compiled line.": {
			config: GateConfig{API: &rawmock.MockAPI{}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			g, err := NewGate(test.config)
			if test.expErr {
				assert.Error(err)
				return
			}
			if assert.NoError(err) {
				assert.Equal(raw.Current().Name, g.Line().Name)
			}
		})
	}
}

func TestGateCheck(t *testing.T) {
	tests := map[string]struct {
		line         raw.Line
		mock         func(m *rawmock.MockAPI)
		expInstalled model.Version
		expErr       error
		expMismatch  *model.VersionMismatchError
	}{
		"The same line should pass.": {
			line: raw.LineV7_1,
			mock: func(m *rawmock.MockAPI) {
				m.On("Version").Once().Return(uint32(7001004), raw.OK)
			},
			expInstalled: model.Version{Major: 7, Minor: 1, Build: 4},
		},

		"A different build of the same line should pass.": {
			line: raw.LineV7_0,
			mock: func(m *rawmock.MockAPI) {
				m.On("Version").Once().Return(uint32(7000999), raw.OK)
			},
			expInstalled: model.Version{Major: 7, Minor: 0, Build: 999},
		},

		"A different minor should fail with a mismatch.": {
			line: raw.LineV7_1,
			mock: func(m *rawmock.MockAPI) {
				m.On("Version").Once().Return(uint32(7000020), raw.OK)
			},
			expInstalled: model.Version{Major: 7, Minor: 0, Build: 20},
			expErr:       model.ErrVersionMismatch,
			expMismatch: &model.VersionMismatchError{
				Expected: model.Version{Major: 7, Minor: 1},
				Found:    model.Version{Major: 7, Minor: 0, Build: 20},
				Line:     "v7_1",
			},
		},

		"A different major should fail with a mismatch.": {
			line: raw.LineV6_1,
			mock: func(m *rawmock.MockAPI) {
				m.On("Version").Once().Return(uint32(7001004), raw.OK)
			},
			expInstalled: model.Version{Major: 7, Minor: 1, Build: 4},
			expErr:       model.ErrVersionMismatch,
			expMismatch: &model.VersionMismatchError{
				Expected: model.Version{Major: 6, Minor: 1},
				Found:    model.Version{Major: 7, Minor: 1, Build: 4},
				Line:     "v6_1",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := rawmock.NewMockAPI(t)
			test.mock(m)

			g, err := newGate(GateConfig{API: m}, test.line)
			require.NoError(err)

			// The verdict is cached, only one foreign call is made.
			err1 := g.Check()
			err2 := g.Check()
			assert.Equal(err1, err2)
			assert.Equal(test.expInstalled, g.Installed())

			if test.expErr == nil {
				assert.NoError(err1)
				return
			}
			assert.ErrorIs(err1, test.expErr)
			var mismatch *model.VersionMismatchError
			require.True(errors.As(err1, &mismatch))
			assert.Equal(test.expMismatch, mismatch)
		})
	}
}

func TestGateCheckVersionQueryFailure(t *testing.T) {
	assert := assert.New(t)

	m := rawmock.NewMockAPI(t)
	m.On("Version").Once().Return(uint32(0), raw.RPCServerUnavailable)

	g, err := NewGate(GateConfig{API: m})
	assert.NoError(err)

	err = g.Check()
	ferr, ok := model.AsForeignError(err)
	if assert.True(ok) {
		assert.Equal(uint32(raw.RPCServerUnavailable), ferr.Code)
		assert.Equal("VBoxGetVersion", ferr.Method)
	}
	assert.NotErrorIs(err, model.ErrVersionMismatch)
}
