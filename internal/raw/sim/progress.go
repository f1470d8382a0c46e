package sim

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// operation is an asynchronous operation advanced in steps.
type operation struct {
	record     model.Operation
	step       int
	cancelable bool
	canceled   bool
	completed  bool
	result     raw.ResultCode
	errorText  string
	fault      *opFault
	// apply performs the operation effects once all the steps are done.
	apply func() (raw.ResultCode, string)
	// finish always runs on completion, whatever the result.
	finish func()
}

// startOperation registers a new operation and returns its progress object.
func (s *SDK) startOperation(machineID string, kind model.OperationKind, description string, cancelable bool, apply func() (raw.ResultCode, string)) raw.Pointer {
	op := &operation{
		record: model.Operation{
			ID:          ulid.MustNew(ulid.Timestamp(s.now()), rand.Reader).String(),
			MachineID:   machineID,
			Kind:        kind,
			Description: description,
			Status:      model.ProgressStatusRunning,
			CreatedAt:   s.now(),
		},
		cancelable: cancelable,
		fault:      s.opFault,
		apply:      apply,
	}
	s.opFault = nil

	if err := s.repo.CreateOperation(context.Background(), op.record); err != nil {
		s.logger.Errorf("Could not record operation %s: %s", op.record.ID, err)
	}

	s.operations[op.record.ID] = op
	s.logger.Debugf("Operation %s started: %s", op.record.ID, description)

	return s.newObject(&object{kind: raw.KindProgress, opID: op.record.ID})
}

// advance moves an operation n steps, completing it after the last one.
func (s *SDK) advance(op *operation, n int) {
	if op.completed {
		return
	}

	op.step += n
	if op.step < s.steps {
		return
	}
	op.step = s.steps

	switch {
	case op.fault != nil:
		op.result, op.errorText = op.fault.code, op.fault.text
	case op.apply != nil:
		op.result, op.errorText = op.apply()
	default:
		op.result = raw.OK
	}
	s.complete(op)
}

func (s *SDK) complete(op *operation) {
	op.completed = true
	if op.finish != nil {
		op.finish()
	}

	now := s.now()
	op.record.CompletedAt = &now
	op.record.ResultCode = uint32(op.result)
	op.record.Error = op.errorText
	switch {
	case op.canceled:
		op.record.Status = model.ProgressStatusCanceled
	case op.result.Succeeded():
		op.record.Status = model.ProgressStatusSucceeded
	default:
		op.record.Status = model.ProgressStatusFailed
	}

	if err := s.repo.UpdateOperation(context.Background(), op.record); err != nil {
		s.logger.Errorf("Could not record operation %s result: %s", op.record.ID, err)
	}
	s.logger.Debugf("Operation %s %s", op.record.ID, op.record.Status)
}

func (s *SDK) percent(op *operation) uint32 {
	if op.completed && !op.canceled {
		return 100
	}
	return uint32(op.step * 100 / s.steps)
}

func (s *SDK) progressOperation(p raw.Pointer) (*operation, raw.ResultCode) {
	obj, code := s.typedObject(p, raw.KindProgress)
	if code != raw.OK {
		return nil, code
	}

	op, ok := s.operations[obj.opID]
	if !ok {
		return nil, s.fail(raw.RPCDisconnected, "operation %s does not exist anymore", obj.opID)
	}
	return op, raw.OK
}

// ProgressCompleted returns the completion flag. Every query is one step of time.
func (s *SDK) ProgressCompleted(p raw.Pointer) (bool, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, code := s.progressOperation(p)
	if code != raw.OK {
		return false, code
	}
	s.advance(op, 1)
	return op.completed, raw.OK
}

// ProgressPercent returns the completion percentage.
func (s *SDK) ProgressPercent(p raw.Pointer) (uint32, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, code := s.progressOperation(p)
	if code != raw.OK {
		return 0, code
	}
	return s.percent(op), raw.OK
}

// ProgressResultCode returns the result of a completed operation.
func (s *SDK) ProgressResultCode(p raw.Pointer) (raw.ResultCode, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, code := s.progressOperation(p)
	if code != raw.OK {
		return 0, code
	}
	if !op.completed {
		return 0, s.fail(raw.VBoxInvalidObjectState, "operation %s is not completed", op.record.ID)
	}
	return op.result, raw.OK
}

// ProgressCanceled returns true when the operation was canceled.
func (s *SDK) ProgressCanceled(p raw.Pointer) (bool, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, code := s.progressOperation(p)
	if code != raw.OK {
		return false, code
	}
	return op.canceled, raw.OK
}

// ProgressCancelable returns true when the operation accepts cancellation.
func (s *SDK) ProgressCancelable(p raw.Pointer) (bool, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, code := s.progressOperation(p)
	if code != raw.OK {
		return false, code
	}
	return op.cancelable && !op.completed, raw.OK
}

// ProgressCancel cancels the operation, its effects are not applied.
func (s *SDK) ProgressCancel(p raw.Pointer) raw.ResultCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, code := s.progressOperation(p)
	if code != raw.OK {
		return code
	}
	if !op.cancelable {
		return s.fail(raw.EFail, "operation %s cannot be canceled", op.record.ID)
	}
	if op.completed {
		return raw.OK
	}

	op.canceled = true
	op.result = raw.EAbort
	op.errorText = "operation canceled by the user"
	s.complete(op)
	return raw.OK
}

// ProgressWait advances the operation the steps that fit in the timeout, -1 runs
// it to completion. VBOX_E_TIMEOUT is returned when it is still running.
func (s *SDK) ProgressWait(p raw.Pointer, timeoutMS int32) raw.ResultCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, code := s.progressOperation(p)
	if code != raw.OK {
		return code
	}

	switch {
	case timeoutMS < -1:
		return s.fail(raw.EInvalidArg, "invalid timeout %d", timeoutMS)
	case timeoutMS == -1:
		s.advance(op, s.steps)
	case timeoutMS > 0:
		n := int(time.Duration(timeoutMS) * time.Millisecond / s.stepDur)
		s.advance(op, max(n, 1))
	}

	if !op.completed {
		return raw.VBoxTimeout
	}
	return raw.OK
}
