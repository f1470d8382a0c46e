package vbox

import "github.com/slok/vbx/internal/raw"

// Medium is a storage medium object (hard disk, optical or floppy image).
type Medium struct {
	object
}

// ID returns the medium UUID.
func (m *Medium) ID() (string, error) { return callValue[string](m, raw.MethodMediumGetID) }

// Location returns the medium file location.
func (m *Medium) Location() (string, error) {
	return callValue[string](m, raw.MethodMediumGetLocation)
}
