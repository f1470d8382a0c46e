package vbox

import "github.com/slok/vbx/internal/raw"

// NewGateForLine returns a gate that checks against line instead of the compiled one.
func NewGateForLine(api raw.API, line raw.Line) (*Gate, error) {
	return newGate(GateConfig{API: api}, line)
}
