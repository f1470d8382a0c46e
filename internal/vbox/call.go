package vbox

import (
	"errors"
	"fmt"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// core is shared by every object obtained from the same client.
type core struct {
	api    raw.API
	line   raw.Line
	logger log.Logger
}

// invoker is anything able to call methods on a foreign object.
type invoker interface {
	call(m raw.Method, args ...any) ([]any, error)
}

// object is the typed foreign object base, the kind is fixed by the call that produced it.
type object struct {
	core   *core
	handle *Handle
}

func (o object) call(m raw.Method, args ...any) ([]any, error) {
	return o.core.invoke(o.handle, m, args...)
}

// Close releases the foreign reference of the object.
func (o object) Close() error { return o.handle.Release() }

// invoke performs a vtable call and translates the result code.
func (c *core) invoke(h *Handle, m raw.Method, args ...any) ([]any, error) {
	if m.Kind() != h.Kind() {
		return nil, fmt.Errorf("%s called on %s: %w", m, h.Kind(), model.ErrNotValid)
	}

	slot, ok := c.line.Slots.Lookup(m)
	if !ok {
		return nil, fmt.Errorf("%s on line %s: %w", m, c.line.Name, model.ErrUnsupportedMethod)
	}

	ptr, err := h.pointer()
	if err != nil {
		return nil, err
	}

	out, code := c.api.Invoke(ptr, slot, args...)
	c.logger.Debugf("Foreign call %s (slot %d): %s", m, slot, code)
	if err := c.translate(m.String(), code); err != nil {
		return nil, err
	}

	return out, nil
}

// translate maps a foreign result code into an error, nil on success.
func (c *core) translate(method string, code raw.ResultCode) error {
	if code.Succeeded() {
		return nil
	}

	if code.Stale() {
		return fmt.Errorf("%s: %w", method, model.ErrStale)
	}

	return &model.ForeignError{Code: uint32(code), Method: method, Message: c.errorMessage(code)}
}

func (c *core) errorMessage(code raw.ResultCode) string {
	msg, infoCode := c.api.ErrorInfo(code)
	if !infoCode.Succeeded() || msg == "" {
		return fmt.Sprintf("unknown foreign error 0x%08X", uint32(code))
	}
	return msg
}

// wrap takes ownership of a pointer returned by m as the declared kind.
func (c *core) wrap(m raw.Method, ptr raw.Pointer, kind raw.Kind) (*Handle, error) {
	if ptr.IsNull() {
		return nil, fmt.Errorf("%s returned %s: %w", m, kind, model.ErrNullPointer)
	}
	return newHandle(c.api, ptr, kind), nil
}

// output gets the i output of a call with the declared type.
func output[T any](m raw.Method, out []any, i int) (T, error) {
	var zero T
	if i >= len(out) {
		return zero, fmt.Errorf("%s returned %d outputs, missing output %d: %w", m, len(out), i, model.ErrUnexpectedOutput)
	}

	v, ok := out[i].(T)
	if !ok {
		return zero, fmt.Errorf("%s output %d is %T, expected %T: %w", m, i, out[i], zero, model.ErrUnexpectedOutput)
	}

	return v, nil
}

// callValue is the single output call helper.
func callValue[T any](inv invoker, m raw.Method, args ...any) (T, error) {
	out, err := inv.call(m, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return output[T](m, out, 0)
}

// callObject calls a method returning one foreign object of the declared kind.
func callObject(c *core, inv invoker, m raw.Method, kind raw.Kind, args ...any) (*Handle, error) {
	ptr, err := callValue[raw.Pointer](inv, m, args...)
	if err != nil {
		return nil, err
	}
	return c.wrap(m, ptr, kind)
}

// callOptionalObject is like callObject but a null output is not an error.
func callOptionalObject(c *core, inv invoker, m raw.Method, kind raw.Kind, args ...any) (*Handle, error) {
	ptr, err := callValue[raw.Pointer](inv, m, args...)
	if err != nil {
		return nil, err
	}
	if ptr.IsNull() {
		return nil, nil
	}
	return c.wrap(m, ptr, kind)
}

// callObjects calls a method returning a list of foreign objects of the declared kind.
func callObjects(c *core, inv invoker, m raw.Method, kind raw.Kind, args ...any) ([]*Handle, error) {
	ptrs, err := callValue[[]raw.Pointer](inv, m, args...)
	if err != nil {
		return nil, err
	}
	return c.wrapAll(m, ptrs, kind)
}

func (c *core) wrapAll(m raw.Method, ptrs []raw.Pointer, kind raw.Kind) ([]*Handle, error) {
	hs := make([]*Handle, 0, len(ptrs))
	for _, p := range ptrs {
		h, err := c.wrap(m, p, kind)
		if err != nil {
			// Every pointer is owned by us once returned, don't leak the valid ones.
			for _, other := range ptrs {
				if !other.IsNull() {
					_ = newHandle(c.api, other, kind).Release()
				}
			}
			return nil, err
		}
		hs = append(hs, h)
	}
	return hs, nil
}

// releaseAll releases handles logging the failures.
func (c *core) releaseAll(hs ...*Handle) {
	for _, h := range hs {
		if h == nil {
			continue
		}
		if err := h.Release(); err != nil {
			c.logger.Errorf("Could not release %s: %s", h.Kind(), err)
		}
	}
}

// isForeignCode returns true when err carries any of the foreign codes.
func isForeignCode(err error, codes ...raw.ResultCode) bool {
	var ferr *model.ForeignError
	if !errors.As(err, &ferr) {
		return false
	}
	for _, c := range codes {
		if ferr.Code == uint32(c) {
			return true
		}
	}
	return false
}
