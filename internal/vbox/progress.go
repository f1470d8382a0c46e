package vbox

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// Progress tracks an asynchronous hypervisor operation. Its state only changes
// through explicit foreign queries and terminal states are sticky.
type Progress struct {
	core   *core
	handle *Handle

	mu    sync.Mutex
	state model.ProgressState
}

func newProgress(c *core, h *Handle) *Progress {
	return &Progress{
		core:   c,
		handle: h,
		state:  model.ProgressState{Status: model.ProgressStatusRunning},
	}
}

func (p *Progress) call(m raw.Method, args ...any) ([]any, error) {
	return p.core.invoke(p.handle, m, args...)
}

// ID returns the operation ID.
func (p *Progress) ID() (string, error) { return callValue[string](p, raw.MethodProgressGetID) }

// Description returns the operation description.
func (p *Progress) Description() (string, error) {
	return callValue[string](p, raw.MethodProgressGetDescription)
}

// State returns the last queried state without any foreign call.
func (p *Progress) State() model.ProgressState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Poll queries the operation once without blocking.
func (p *Progress) Poll() (model.ProgressState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.refresh()
}

// Wait blocks until the operation completes or timeoutMS elapses, -1 waits
// forever. A timeout is not an error, the running state is returned.
func (p *Progress) Wait(timeoutMS int64) (model.ProgressState, error) {
	if timeoutMS < -1 {
		return model.ProgressState{}, fmt.Errorf("timeout must be -1 or positive, got %d: %w", timeoutMS, model.ErrNotValid)
	}
	if timeoutMS > math.MaxInt32 {
		timeoutMS = math.MaxInt32
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ptr, err := p.handle.pointer()
	if err != nil {
		return model.ProgressState{}, err
	}

	if p.state.IsTerminal() {
		return p.state, nil
	}

	code := p.core.api.ProgressWait(ptr, int32(timeoutMS))
	p.core.logger.Debugf("Foreign progress wait (%dms): %s", timeoutMS, code)
	if code != raw.VBoxTimeout {
		if err := p.core.translate("IProgress::waitForCompletion", code); err != nil {
			return p.state, err
		}
	}

	return p.refresh()
}

// WaitContext waits in steps of at most step until the operation completes or the
// context is done. An in flight foreign wait is never aborted, cancellation is
// noticed between steps.
func (p *Progress) WaitContext(ctx context.Context, step time.Duration) (model.ProgressState, error) {
	if step <= 0 {
		step = 100 * time.Millisecond
	}

	for {
		select {
		case <-ctx.Done():
			return p.State(), ctx.Err()
		default:
		}

		st, err := p.Wait(step.Milliseconds())
		if err != nil || st.IsTerminal() {
			return st, err
		}
	}
}

// Await waits for the operation like WaitContext and turns the terminal state
// into an error. When the context ends first, a best effort cancellation is requested.
func (p *Progress) Await(ctx context.Context, step time.Duration) (model.ProgressState, error) {
	st, err := p.WaitContext(ctx, step)
	if err != nil {
		if ctx.Err() != nil {
			if cerr := p.Cancel(); cerr != nil {
				p.core.logger.Warningf("Could not cancel operation: %s", cerr)
			}
		}
		return st, err
	}

	switch st.Status {
	case model.ProgressStatusFailed:
		return st, fmt.Errorf("operation failed: %w", st.Err())
	case model.ProgressStatusCanceled:
		return st, model.ErrCanceled
	}

	return st, nil
}

// Cancel requests the cancellation of the operation. Operations that don't allow
// it and finished operations return model.ErrNotCancelable.
func (p *Progress) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ptr, err := p.handle.pointer()
	if err != nil {
		return err
	}

	if p.state.IsTerminal() {
		return fmt.Errorf("operation already %s: %w", p.state.Status, model.ErrNotCancelable)
	}

	cancelable, code := p.core.api.ProgressCancelable(ptr)
	if err := p.core.translate("IProgress::getCancelable", code); err != nil {
		return err
	}
	if !cancelable {
		return fmt.Errorf("operation does not allow cancellation: %w", model.ErrNotCancelable)
	}

	code = p.core.api.ProgressCancel(ptr)
	return p.core.translate("IProgress::cancel", code)
}

// Close releases the progress object, any later query returns model.ErrReleased.
func (p *Progress) Close() error { return p.handle.Release() }

// refresh queries the foreign state, it must be called with the mutex held.
func (p *Progress) refresh() (model.ProgressState, error) {
	ptr, err := p.handle.pointer()
	if err != nil {
		return model.ProgressState{}, err
	}

	if p.state.IsTerminal() {
		return p.state, nil
	}

	completed, code := p.core.api.ProgressCompleted(ptr)
	if err := p.core.translate("IProgress::getCompleted", code); err != nil {
		return p.state, err
	}
	percent, code := p.core.api.ProgressPercent(ptr)
	if err := p.core.translate("IProgress::getPercent", code); err != nil {
		return p.state, err
	}

	if !completed {
		p.state.Percent = percent
		return p.state, nil
	}

	st, err := p.terminalState(ptr, percent)
	if err != nil {
		return p.state, err
	}
	p.state = st

	return p.state, nil
}

func (p *Progress) terminalState(ptr raw.Pointer, percent uint32) (model.ProgressState, error) {
	canceled, code := p.core.api.ProgressCanceled(ptr)
	if err := p.core.translate("IProgress::getCanceled", code); err != nil {
		return model.ProgressState{}, err
	}
	if canceled {
		return model.ProgressState{Status: model.ProgressStatusCanceled, Percent: percent, ResultCode: uint32(raw.EAbort)}, nil
	}

	result, code := p.core.api.ProgressResultCode(ptr)
	if err := p.core.translate("IProgress::getResultCode", code); err != nil {
		return model.ProgressState{}, err
	}
	if result.Succeeded() {
		return model.ProgressState{Status: model.ProgressStatusSucceeded, Percent: 100, ResultCode: uint32(result)}, nil
	}

	// The description query is best effort, a failure must not hide the result.
	desc, err := callValue[string](p, raw.MethodProgressGetErrorText)
	if err != nil || desc == "" {
		desc = fmt.Sprintf("unknown foreign error 0x%08X", uint32(result))
	}

	return model.ProgressState{
		Status:      model.ProgressStatusFailed,
		Percent:     percent,
		ResultCode:  uint32(result),
		Description: desc,
	}, nil
}
