package vbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	"github.com/slok/vbx/internal/raw/rawmock"
)

func TestHandleRelease(t *testing.T) {
	assert := assert.New(t)

	m := rawmock.NewMockAPI(t)
	m.On("Release", raw.Pointer(0x10)).Once().Return(uint32(0), raw.OK)

	h := newHandle(m, 0x10, raw.KindMachine)
	assert.False(h.Released())

	// Only the first release reaches the foreign side.
	assert.NoError(h.Release())
	assert.NoError(h.Release())
	assert.True(h.Released())

	_, err := h.pointer()
	assert.ErrorIs(err, model.ErrReleased)
	_, err = h.Clone()
	assert.ErrorIs(err, model.ErrReleased)
}

func TestHandleClone(t *testing.T) {
	tests := map[string]struct {
		code   raw.ResultCode
		expErr error
	}{
		"A clone should take a new foreign reference.": {
			code: raw.OK,
		},

		"A stale object should fail as stale.": {
			code:   raw.RPCDisconnected,
			expErr: model.ErrStale,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			m := rawmock.NewMockAPI(t)
			m.On("AddRef", raw.Pointer(0x10)).Once().Return(uint32(2), test.code)

			h := newHandle(m, 0x10, raw.KindSnapshot)
			c, err := h.Clone()
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}

			if assert.NoError(err) {
				assert.Equal(raw.KindSnapshot, c.Kind())
				assert.NotSame(h, c)
			}
		})
	}
}

func TestCoreInvoke(t *testing.T) {
	tests := map[string]struct {
		line      raw.Line
		kind      raw.Kind
		method    raw.Method
		mock      func(m *rawmock.MockAPI)
		expOut    []any
		expErr    error
		expCode   uint32
		expErrMsg string
	}{
		"A successful call should return its outputs.": {
			line:   raw.LineV7_1,
			kind:   raw.KindMachine,
			method: raw.MethodMachineGetName,
			mock: func(m *rawmock.MockAPI) {
				m.On("Invoke", raw.Pointer(0x10), slot(raw.MethodMachineGetName)).Once().Return([]any{"web-1"}, raw.OK)
			},
			expOut: []any{"web-1"},
		},

		"A method of another interface should fail without foreign calls.": {
			line:   raw.LineV7_1,
			kind:   raw.KindSnapshot,
			method: raw.MethodMachineGetName,
			mock:   func(m *rawmock.MockAPI) {},
			expErr: model.ErrNotValid,
		},

		"A method missing in the line should fail as unsupported without foreign calls.": {
			line:   raw.LineV6_1,
			kind:   raw.KindVirtualBox,
			method: raw.MethodVirtualBoxFindProgressByID,
			mock:   func(m *rawmock.MockAPI) {},
			expErr: model.ErrUnsupportedMethod,
		},

		"A disconnected object should fail as stale.": {
			line:   raw.LineV7_1,
			kind:   raw.KindMachine,
			method: raw.MethodMachineGetName,
			mock: func(m *rawmock.MockAPI) {
				m.On("Invoke", mock.Anything, mock.Anything).Once().Return(nil, raw.RPCDisconnected)
			},
			expErr: model.ErrStale,
		},

		"A dead server should fail as stale.": {
			line:   raw.LineV7_1,
			kind:   raw.KindMachine,
			method: raw.MethodMachineGetName,
			mock: func(m *rawmock.MockAPI) {
				m.On("Invoke", mock.Anything, mock.Anything).Once().Return(nil, raw.RPCServerDied)
			},
			expErr: model.ErrStale,
		},

		"An access denied should be a foreign error, not stale.": {
			line:   raw.LineV7_1,
			kind:   raw.KindMachine,
			method: raw.MethodMachineGetName,
			mock: func(m *rawmock.MockAPI) {
				m.On("Invoke", mock.Anything, mock.Anything).Once().Return(nil, raw.EAccessDenied)
				m.On("ErrorInfo", raw.EAccessDenied).Once().Return("access denied", raw.OK)
			},
			expCode:   uint32(raw.EAccessDenied),
			expErrMsg: "access denied",
		},

		"A failure without error info should use a generic message.": {
			line:   raw.LineV7_1,
			kind:   raw.KindMachine,
			method: raw.MethodMachineGetName,
			mock: func(m *rawmock.MockAPI) {
				m.On("Invoke", mock.Anything, mock.Anything).Once().Return(nil, raw.VBoxObjectNotFound)
				m.On("ErrorInfo", raw.VBoxObjectNotFound).Once().Return("", raw.EFail)
			},
			expCode:   uint32(raw.VBoxObjectNotFound),
			expErrMsg: "unknown foreign error 0x80BB0001",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			m := rawmock.NewMockAPI(t)
			test.mock(m)

			c := &core{api: m, line: test.line, logger: log.Noop}
			out, err := c.invoke(newHandle(m, 0x10, test.kind), test.method)

			switch {
			case test.expErr != nil:
				assert.ErrorIs(err, test.expErr)
			case test.expCode != 0:
				ferr, ok := model.AsForeignError(err)
				if assert.True(ok) {
					assert.Equal(test.expCode, ferr.Code)
					assert.Equal(test.method.String(), ferr.Method)
					assert.Equal(test.expErrMsg, ferr.Message)
				}
				assert.NotErrorIs(err, model.ErrStale)
			default:
				assert.NoError(err)
				assert.Equal(test.expOut, out)
			}
		})
	}
}

func TestCoreInvokeReleasedHandle(t *testing.T) {
	assert := assert.New(t)

	m := rawmock.NewMockAPI(t)
	m.On("Release", raw.Pointer(0x10)).Once().Return(uint32(0), raw.OK)

	h := newHandle(m, 0x10, raw.KindMachine)
	assert.NoError(h.Release())

	_, err := newTestCore(m).invoke(h, raw.MethodMachineGetName)
	assert.ErrorIs(err, model.ErrReleased)
}

func TestCallOutputs(t *testing.T) {
	tests := map[string]struct {
		out    []any
		expErr error
	}{
		"A missing output should fail.": {
			out:    []any{},
			expErr: model.ErrUnexpectedOutput,
		},

		"An output of another type should fail.": {
			out:    []any{uint32(1)},
			expErr: model.ErrUnexpectedOutput,
		},

		"A null object should fail.": {
			out:    []any{raw.Null},
			expErr: model.ErrNullPointer,
		},

		"An object should be wrapped.": {
			out: []any{raw.Pointer(0x20)},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			m := rawmock.NewMockAPI(t)
			m.On("Invoke", raw.Pointer(0x10), slot(raw.MethodVirtualBoxFindMachine), "web-1").Once().Return(test.out, raw.OK)

			c := newTestCore(m)
			vbox := object{core: c, handle: newHandle(m, 0x10, raw.KindVirtualBox)}
			h, err := callObject(c, vbox, raw.MethodVirtualBoxFindMachine, raw.KindMachine, "web-1")
			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}

			if assert.NoError(err) {
				assert.Equal(raw.KindMachine, h.Kind())
			}
		})
	}
}

func TestCallObjectsReleasesOnNull(t *testing.T) {
	assert := assert.New(t)

	m := rawmock.NewMockAPI(t)
	m.On("Invoke", raw.Pointer(0x10), slot(raw.MethodVirtualBoxGetMachines)).Once().
		Return([]any{[]raw.Pointer{0x20, raw.Null, 0x30}}, raw.OK)
	m.On("Release", raw.Pointer(0x20)).Once().Return(uint32(0), raw.OK)
	m.On("Release", raw.Pointer(0x30)).Once().Return(uint32(0), raw.OK)

	c := newTestCore(m)
	vbox := object{core: c, handle: newHandle(m, 0x10, raw.KindVirtualBox)}
	_, err := callObjects(c, vbox, raw.MethodVirtualBoxGetMachines, raw.KindMachine)
	assert.ErrorIs(err, model.ErrNullPointer)
}
