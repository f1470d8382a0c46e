package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/vbx/internal/model"
)

func TestVersionMismatchError(t *testing.T) {
	assert := assert.New(t)

	err := fmt.Errorf("version gate failed: %w", &model.VersionMismatchError{
		Expected: model.Version{Major: 7, Minor: 1},
		Found:    model.Version{Major: 7, Minor: 0, Build: 20},
		Line:     "v7_1",
	})

	assert.ErrorIs(err, model.ErrVersionMismatch)
	assert.EqualError(err, "version gate failed: sdk version mismatch: expected 7.1.x (line v7_1), found 7.0.20")
}

func TestErrLockReleasedIsInvalidLockState(t *testing.T) {
	assert.ErrorIs(t, model.ErrLockReleased, model.ErrInvalidLockState)
}

func TestAsForeignError(t *testing.T) {
	tests := map[string]struct {
		err    error
		expOK  bool
		expMsg string
	}{
		"A wrapped foreign error should be found.": {
			err:    fmt.Errorf("could not lock: %w", &model.ForeignError{Code: 0x80BB0007, Method: "Machine.LockMachine", Message: "busy"}),
			expOK:  true,
			expMsg: "could not lock: foreign call Machine.LockMachine failed with 0x80BB0007: busy",
		},

		"A foreign error without method should not print it.": {
			err:    &model.ForeignError{Code: 0x80004005, Message: "disk full"},
			expOK:  true,
			expMsg: "foreign error 0x80004005: disk full",
		},

		"Other errors should not be foreign errors.": {
			err:    errors.New("boom"),
			expMsg: "boom",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			_, ok := model.AsForeignError(test.err)
			assert.Equal(test.expOK, ok)
			assert.EqualError(test.err, test.expMsg)
		})
	}
}

func TestProgressStateErr(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(model.ProgressState{Status: model.ProgressStatusSucceeded}.Err())
	assert.NoError(model.ProgressState{Status: model.ProgressStatusCanceled}.Err())

	err := model.ProgressState{Status: model.ProgressStatusFailed, ResultCode: 0x80004005, Description: "disk full"}.Err()
	ferr, ok := model.AsForeignError(err)
	if assert.True(ok) {
		assert.Equal(uint32(0x80004005), ferr.Code)
		assert.Equal("disk full", ferr.Message)
	}
}

func TestSummarizeChecks(t *testing.T) {
	assert := assert.New(t)

	sum := model.SummarizeChecks([]model.CheckResult{
		{ID: "sdk_version", Status: model.CheckStatusOK},
		{ID: "client", Status: model.CheckStatusOK},
		{ID: "progress_lookup", Status: model.CheckStatusWarning},
	})
	assert.Equal(model.CheckSummary{OK: 2, Warnings: 1}, sum)
	assert.False(sum.Failed())

	sum = model.SummarizeChecks([]model.CheckResult{{ID: "sdk_version", Status: model.CheckStatusError}})
	assert.True(sum.Failed())
}
