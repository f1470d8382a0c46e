package model

// ProgressStatus is the status of a long-running hypervisor operation.
type ProgressStatus string

const (
	ProgressStatusRunning   ProgressStatus = "running"
	ProgressStatusSucceeded ProgressStatus = "succeeded"
	ProgressStatusFailed    ProgressStatus = "failed"
	ProgressStatusCanceled  ProgressStatus = "canceled"
)

// ProgressState is a snapshot of a progress operation as last queried.
type ProgressState struct {
	Status ProgressStatus
	// Percent is the completion percentage (0-100).
	Percent uint32
	// ResultCode is the foreign result code, only meaningful on terminal states.
	ResultCode uint32
	// Description is the foreign error description when the operation failed.
	Description string
}

// IsTerminal returns true when the operation will not change state anymore.
func (p ProgressState) IsTerminal() bool {
	switch p.Status {
	case ProgressStatusSucceeded, ProgressStatusFailed, ProgressStatusCanceled:
		return true
	}
	return false
}

// Err returns the operation failure as a ForeignError, nil otherwise.
func (p ProgressState) Err() error {
	if p.Status != ProgressStatusFailed {
		return nil
	}
	return &ForeignError{Code: p.ResultCode, Message: p.Description}
}
