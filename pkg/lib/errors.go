package lib

import "github.com/slok/vbx/internal/model"

// Errors returned by the SDK, match them with errors.Is.
var (
	ErrNotFound          = model.ErrNotFound
	ErrAlreadyExists     = model.ErrAlreadyExists
	ErrNotValid          = model.ErrNotValid
	ErrVersionMismatch   = model.ErrVersionMismatch
	ErrStale             = model.ErrStale
	ErrAlreadyLocked     = model.ErrAlreadyLocked
	ErrInvalidLockState  = model.ErrInvalidLockState
	ErrLockReleased      = model.ErrLockReleased
	ErrNotCancelable     = model.ErrNotCancelable
	ErrCanceled          = model.ErrCanceled
	ErrReleased          = model.ErrReleased
	ErrUnsupportedMethod = model.ErrUnsupportedMethod
)

// VersionMismatchError carries both sides of a failed version gate, use errors.As
// to get it.
type VersionMismatchError = model.VersionMismatchError

// ForeignError is a hypervisor error not mapped to any of the SDK errors.
type ForeignError = model.ForeignError

// AsForeignError returns the foreign error in the chain, if any.
func AsForeignError(err error) (*ForeignError, bool) { return model.AsForeignError(err) }
