// Package raw is the boundary with the hypervisor SDK bindings.
//
// Everything the safe core needs from the foreign side goes through the API
// interface, one method per foreign operation category. The generated vtable
// bindings implement it; the vtable slot of every method is supplied by the
// compiled SDK line (see Line).
package raw

import "fmt"

// Pointer is an opaque foreign interface address. Zero is the null pointer.
type Pointer uintptr

// Null is the null foreign pointer.
const Null Pointer = 0

// IsNull returns true for the null pointer.
func (p Pointer) IsNull() bool { return p == Null }

func (p Pointer) String() string { return fmt.Sprintf("0x%x", uintptr(p)) }

// Kind is the foreign interface identity of an object.
type Kind int

const (
	KindUnknown Kind = iota
	KindVirtualBoxClient
	KindVirtualBox
	KindSession
	KindMachine
	KindSnapshot
	KindMedium
	KindProgress
	KindConsole
)

func (k Kind) String() string {
	switch k {
	case KindVirtualBoxClient:
		return "IVirtualBoxClient"
	case KindVirtualBox:
		return "IVirtualBox"
	case KindSession:
		return "ISession"
	case KindMachine:
		return "IMachine"
	case KindSnapshot:
		return "ISnapshot"
	case KindMedium:
		return "IMedium"
	case KindProgress:
		return "IProgress"
	case KindConsole:
		return "IConsole"
	}
	return "IUnknown"
}

// LockType is the foreign lock type used when locking a machine.
type LockType uint32

const (
	LockTypeNull   LockType = 0
	LockTypeShared LockType = 1
	LockTypeWrite  LockType = 2
	LockTypeVM     LockType = 3
)

func (l LockType) String() string {
	switch l {
	case LockTypeShared:
		return "Shared"
	case LockTypeWrite:
		return "Write"
	case LockTypeVM:
		return "VM"
	}
	return "Null"
}

// API is the foreign SDK surface consumed by the safe core.
//
// Implementations perform the unsafe calls. None of the methods may be called
// before the version gate has passed.
type API interface {
	// Version returns the packed installed SDK version (major*1000000 + minor*1000 + build).
	Version() (uint32, ResultCode)
	// APIVersion returns the SDK API version number (e.g. 7001 for 7.1).
	APIVersion() (uint32, ResultCode)
	// ClientInitialize creates the VirtualBoxClient root object.
	ClientInitialize() (Pointer, ResultCode)

	// AddRef increments the reference count of an object and returns the new count.
	AddRef(p Pointer) (uint32, ResultCode)
	// Release decrements the reference count of an object and returns the new count.
	Release(p Pointer) (uint32, ResultCode)

	// Invoke calls the method at the given vtable slot of the object.
	Invoke(p Pointer, slot Slot, args ...any) ([]any, ResultCode)
	// ErrorInfo extracts the human readable description of the last error
	// produced by a call that returned code.
	ErrorInfo(code ResultCode) (string, ResultCode)

	// LockMachine locks the machine for the session with the requested lock type.
	LockMachine(machine, session Pointer, lockType LockType) ResultCode
	// UnlockMachine unlocks the machine currently locked by the session.
	UnlockMachine(session Pointer) ResultCode

	// ProgressCompleted returns the completion flag of a progress object.
	ProgressCompleted(p Pointer) (bool, ResultCode)
	// ProgressPercent returns the completion percentage of a progress object.
	ProgressPercent(p Pointer) (uint32, ResultCode)
	// ProgressResultCode returns the result of a completed progress object.
	ProgressResultCode(p Pointer) (ResultCode, ResultCode)
	// ProgressCanceled returns true when the operation was canceled.
	ProgressCanceled(p Pointer) (bool, ResultCode)
	// ProgressCancelable returns true when the operation accepts cancellation.
	ProgressCancelable(p Pointer) (bool, ResultCode)
	// ProgressCancel requests the cancellation of the operation.
	ProgressCancel(p Pointer) ResultCode
	// ProgressWait blocks until the operation completes or timeoutMS elapses (-1 waits forever).
	ProgressWait(p Pointer, timeoutMS int32) ResultCode
}
