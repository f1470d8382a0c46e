package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")

	// ErrVersionMismatch is returned when the installed SDK line is not the one
	// the binary was compiled for. It must be treated as fatal.
	ErrVersionMismatch = errors.New("sdk version mismatch")
	// ErrStale is returned when the foreign object behind a handle is no longer valid.
	// Re-fetching the object is the way to recover.
	ErrStale = errors.New("stale foreign object")
	// ErrAlreadyLocked is returned when a machine is already locked by another session.
	ErrAlreadyLocked = errors.New("machine already locked")
	// ErrInvalidLockState is returned when a lock transition is not legal from the current state.
	ErrInvalidLockState = errors.New("invalid lock state")
	// ErrLockReleased is returned when a machine view is used after its lock was released.
	ErrLockReleased = fmt.Errorf("machine lock released: %w", ErrInvalidLockState)
	// ErrNotCancelable is returned when a progress operation does not allow cancellation.
	ErrNotCancelable = errors.New("operation is not cancelable")
	// ErrCanceled is returned when an awaited operation ended canceled.
	ErrCanceled = errors.New("operation canceled")
	// ErrReleased is returned when an object is used after its handle was released.
	ErrReleased = errors.New("handle released")
	// ErrNullPointer is returned when a successful foreign call yields a null interface.
	ErrNullPointer = errors.New("null foreign pointer")
	// ErrUnexpectedOutput is returned when a foreign call output does not match its declaration.
	ErrUnexpectedOutput = errors.New("unexpected foreign call output")
	// ErrUnsupportedMethod is returned when a method is not available in the compiled SDK line.
	ErrUnsupportedMethod = errors.New("method not supported by the sdk line")
)

// VersionMismatchError carries both sides of a failed version gate.
type VersionMismatchError struct {
	Expected Version
	Found    Version
	// Line is the compiled SDK line name (e.g. "v7_1").
	Line string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("sdk version mismatch: expected %s.x (line %s), found %s", e.Expected.MajorMinor(), e.Line, e.Found)
}

// Is makes the error match ErrVersionMismatch.
func (e *VersionMismatchError) Is(target error) bool { return target == ErrVersionMismatch }

// ForeignError is an opaque hypervisor error not otherwise classified.
type ForeignError struct {
	// Code is the raw foreign result code.
	Code uint32
	// Method is the foreign method that failed.
	Method string
	// Message is the description extracted from the foreign error info.
	Message string
}

func (e *ForeignError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("foreign error 0x%08X: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("foreign call %s failed with 0x%08X: %s", e.Method, e.Code, e.Message)
}

// AsForeignError returns the foreign error in the chain, if any.
func AsForeignError(err error) (*ForeignError, bool) {
	var ferr *ForeignError
	if errors.As(err, &ferr) {
		return ferr, true
	}
	return nil, false
}
