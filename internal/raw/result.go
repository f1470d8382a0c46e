package raw

import "fmt"

// ResultCode is a foreign COM/XPCOM result code.
type ResultCode uint32

// Generic COM result codes.
const (
	OK                   ResultCode = 0x00000000
	ENotImpl             ResultCode = 0x80004001
	ENoInterface         ResultCode = 0x80004002
	EPointer             ResultCode = 0x80004003
	EAbort               ResultCode = 0x80004004
	EFail                ResultCode = 0x80004005
	EUnexpected          ResultCode = 0x8000FFFF
	EAccessDenied        ResultCode = 0x80070005
	EOutOfMemory         ResultCode = 0x8007000E
	EInvalidArg          ResultCode = 0x80070057
	RPCServerDied        ResultCode = 0x80010007
	RPCDisconnected      ResultCode = 0x80010108
	RPCServerUnavailable ResultCode = 0x800706BA
)

// VirtualBox specific result codes.
const (
	VBoxObjectNotFound      ResultCode = 0x80BB0001
	VBoxInvalidVMState      ResultCode = 0x80BB0002
	VBoxVMError             ResultCode = 0x80BB0003
	VBoxFileError           ResultCode = 0x80BB0004
	VBoxIPRTError           ResultCode = 0x80BB0005
	VBoxPDMError            ResultCode = 0x80BB0006
	VBoxInvalidObjectState  ResultCode = 0x80BB0007
	VBoxHostError           ResultCode = 0x80BB0008
	VBoxNotSupported        ResultCode = 0x80BB0009
	VBoxXMLError            ResultCode = 0x80BB000A
	VBoxInvalidSessionState ResultCode = 0x80BB000B
	VBoxObjectInUse         ResultCode = 0x80BB000C
	VBoxPasswordIncorrect   ResultCode = 0x80BB000D
	VBoxMaximumReached      ResultCode = 0x80BB000E
	VBoxGuestControlError   ResultCode = 0x80BB000F
	VBoxTimeout             ResultCode = 0x80BB0010
	VBoxDnDError            ResultCode = 0x80BB0011
)

var resultCodeNames = map[ResultCode]string{
	OK:                      "S_OK",
	ENotImpl:                "E_NOTIMPL",
	ENoInterface:            "E_NOINTERFACE",
	EPointer:                "E_POINTER",
	EAbort:                  "E_ABORT",
	EFail:                   "E_FAIL",
	EUnexpected:             "E_UNEXPECTED",
	EAccessDenied:           "E_ACCESSDENIED",
	EOutOfMemory:            "E_OUTOFMEMORY",
	EInvalidArg:             "E_INVALIDARG",
	RPCServerDied:           "RPC_E_SERVER_DIED",
	RPCDisconnected:         "RPC_E_DISCONNECTED",
	RPCServerUnavailable:    "RPC_S_SERVER_UNAVAILABLE",
	VBoxObjectNotFound:      "VBOX_E_OBJECT_NOT_FOUND",
	VBoxInvalidVMState:      "VBOX_E_INVALID_VM_STATE",
	VBoxVMError:             "VBOX_E_VM_ERROR",
	VBoxFileError:           "VBOX_E_FILE_ERROR",
	VBoxIPRTError:           "VBOX_E_IPRT_ERROR",
	VBoxPDMError:            "VBOX_E_PDM_ERROR",
	VBoxInvalidObjectState:  "VBOX_E_INVALID_OBJECT_STATE",
	VBoxHostError:           "VBOX_E_HOST_ERROR",
	VBoxNotSupported:        "VBOX_E_NOT_SUPPORTED",
	VBoxXMLError:            "VBOX_E_XML_ERROR",
	VBoxInvalidSessionState: "VBOX_E_INVALID_SESSION_STATE",
	VBoxObjectInUse:         "VBOX_E_OBJECT_IN_USE",
	VBoxPasswordIncorrect:   "VBOX_E_PASSWORD_INCORRECT",
	VBoxMaximumReached:      "VBOX_E_MAXIMUM_REACHED",
	VBoxGuestControlError:   "VBOX_E_GSTCTL_GUEST_ERROR",
	VBoxTimeout:             "VBOX_E_TIMEOUT",
	VBoxDnDError:            "VBOX_E_DND_ERROR",
}

// Succeeded returns true for success codes (severity bit unset).
func (c ResultCode) Succeeded() bool { return c&0x80000000 == 0 }

// Stale returns true for the codes meaning the foreign object is no longer valid.
func (c ResultCode) Stale() bool {
	switch c {
	case RPCDisconnected, RPCServerDied, RPCServerUnavailable:
		return true
	}
	return false
}

// Name returns the symbolic name of the code, empty when unknown.
func (c ResultCode) Name() string { return resultCodeNames[c] }

func (c ResultCode) String() string {
	if name, ok := resultCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%08X", uint32(c))
}
