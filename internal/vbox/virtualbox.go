package vbox

import (
	"fmt"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// VirtualBox is the root hypervisor object. Its calls are reentrant and it can be
// shared between goroutines.
type VirtualBox struct {
	object
}

// Version returns the hypervisor version.
func (v *VirtualBox) Version() (model.Version, error) {
	s, err := callValue[string](v, raw.MethodVirtualBoxGetVersion)
	if err != nil {
		return model.Version{}, err
	}

	version, err := model.ParseVersion(s)
	if err != nil {
		return model.Version{}, fmt.Errorf("invalid hypervisor version %q: %w", s, err)
	}

	rev, err := v.Revision()
	if err != nil {
		return model.Version{}, err
	}
	version.Revision = int(rev)

	return version, nil
}

// Revision returns the hypervisor build revision.
func (v *VirtualBox) Revision() (uint32, error) {
	return callValue[uint32](v, raw.MethodVirtualBoxGetRevision)
}

// APIVersion returns the API version string (e.g. "7_1").
func (v *VirtualBox) APIVersion() (string, error) {
	return callValue[string](v, raw.MethodVirtualBoxGetAPIVersion)
}

// Machines returns all the registered machines.
func (v *VirtualBox) Machines() ([]*Machine, error) {
	hs, err := callObjects(v.core, v, raw.MethodVirtualBoxGetMachines, raw.KindMachine)
	if err != nil {
		return nil, err
	}

	ms := make([]*Machine, 0, len(hs))
	for _, h := range hs {
		ms = append(ms, &Machine{object: object{core: v.core, handle: h}})
	}
	return ms, nil
}

// FindMachine returns a registered machine by name or ID.
func (v *VirtualBox) FindMachine(nameOrID string) (*Machine, error) {
	h, err := callObject(v.core, v, raw.MethodVirtualBoxFindMachine, raw.KindMachine, nameOrID)
	if err != nil {
		if isForeignCode(err, raw.VBoxObjectNotFound) {
			return nil, fmt.Errorf("machine %q: %w: %w", nameOrID, model.ErrNotFound, err)
		}
		return nil, err
	}
	return &Machine{object: object{core: v.core, handle: h}}, nil
}

// CreateMachine creates a new unregistered machine. It needs to be registered to
// be persisted.
func (v *VirtualBox) CreateMachine(name, osTypeID string) (*Machine, error) {
	if err := model.ValidateMachineName(name); err != nil {
		return nil, err
	}

	h, err := callObject(v.core, v, raw.MethodVirtualBoxCreateMachine, raw.KindMachine, "", name, osTypeID)
	if err != nil {
		return nil, err
	}
	return &Machine{object: object{core: v.core, handle: h}}, nil
}

// RegisterMachine registers a created machine.
func (v *VirtualBox) RegisterMachine(m *Machine) error {
	ptr, err := m.handle.pointer()
	if err != nil {
		return err
	}

	_, err = v.call(raw.MethodVirtualBoxRegisterMachine, ptr)
	return err
}

// FindProgress returns a running operation by ID. Not available on 6.1 SDKs.
func (v *VirtualBox) FindProgress(id string) (*Progress, error) {
	h, err := callObject(v.core, v, raw.MethodVirtualBoxFindProgressByID, raw.KindProgress, id)
	if err != nil {
		if isForeignCode(err, raw.VBoxObjectNotFound) {
			return nil, fmt.Errorf("progress %q: %w: %w", id, model.ErrNotFound, err)
		}
		return nil, err
	}
	return newProgress(v.core, h), nil
}
