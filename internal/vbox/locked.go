package vbox

import (
	"fmt"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// machineView is a machine object bound to one lock epoch. Every call checks the
// lock is still the one that produced the view.
type machineView struct {
	lock  *SessionLock
	epoch uint64
	obj   object
}

func (v *machineView) call(m raw.Method, args ...any) ([]any, error) {
	v.lock.mu.Lock()
	defer v.lock.mu.Unlock()

	if v.lock.epoch != v.epoch || !v.lock.state.Locked() {
		return nil, fmt.Errorf("%s: %w", m, model.ErrLockReleased)
	}

	return v.obj.call(m, args...)
}

// ID returns the machine UUID.
func (v *machineView) ID() (string, error) { return callValue[string](v, raw.MethodMachineGetID) }

// Name returns the machine name, including unsaved changes.
func (v *machineView) Name() (string, error) { return callValue[string](v, raw.MethodMachineGetName) }

// State returns the machine execution state.
func (v *machineView) State() (model.MachineState, error) { return machineState(v) }

// Info reads all the machine properties, including unsaved changes.
func (v *machineView) Info() (model.MachineInfo, error) { return readMachineInfo(v.obj.core, v) }

// ExtraData returns an extra data value, empty when the key is not set.
func (v *machineView) ExtraData(key string) (string, error) {
	return callValue[string](v, raw.MethodMachineGetExtraData, key)
}

// SetExtraData sets an extra data value, an empty value removes the key.
// Extra data is persisted right away, it doesn't need SaveSettings.
func (v *machineView) SetExtraData(key, value string) error {
	if key == "" {
		return fmt.Errorf("extra data key is required: %w", model.ErrNotValid)
	}
	_, err := v.call(raw.MethodMachineSetExtraData, key, value)
	return err
}

// TakeSnapshot starts taking a snapshot, pause stops an online machine while
// the snapshot is taken. It returns the new snapshot ID.
func (v *machineView) TakeSnapshot(name, description string, pause bool) (string, *Progress, error) {
	if err := model.ValidateSnapshotName(name); err != nil {
		return "", nil, err
	}

	out, err := v.call(raw.MethodMachineTakeSnapshot, name, description, pause)
	if err != nil {
		return "", nil, err
	}

	// Progress first, it's owned even if the id is broken.
	ptr, err := output[raw.Pointer](raw.MethodMachineTakeSnapshot, out, 1)
	if err != nil {
		return "", nil, err
	}
	ph, err := v.obj.core.wrap(raw.MethodMachineTakeSnapshot, ptr, raw.KindProgress)
	if err != nil {
		return "", nil, err
	}
	progress := newProgress(v.obj.core, ph)

	id, err := output[string](raw.MethodMachineTakeSnapshot, out, 0)
	if err != nil {
		v.obj.core.releaseAll(ph)
		return "", nil, err
	}

	return id, progress, nil
}

// DeleteSnapshot starts deleting a snapshot by ID.
func (v *machineView) DeleteSnapshot(id string) (*Progress, error) {
	return v.progressCall(raw.MethodMachineDeleteSnapshot, id)
}

// DeleteSnapshotAndAllChildren starts deleting a snapshot and its subtree.
func (v *machineView) DeleteSnapshotAndAllChildren(id string) (*Progress, error) {
	return v.progressCall(raw.MethodMachineDeleteSnapshotAndAllChildren, id)
}

func (v *machineView) progressCall(m raw.Method, args ...any) (*Progress, error) {
	h, err := callObject(v.obj.core, v, m, raw.KindProgress, args...)
	if err != nil {
		return nil, err
	}
	return newProgress(v.obj.core, h), nil
}

// SharedMachine is the machine view of a shared lock. It allows runtime
// operations only.
type SharedMachine struct {
	*machineView
}

// PowerDown starts powering off the running machine through the console of
// the session. The machine must be running, paused or stuck.
func (m *SharedMachine) PowerDown() (*Progress, error) {
	l := m.lock
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.epoch != m.epoch || !l.state.Locked() {
		return nil, fmt.Errorf("%s: %w", raw.MethodConsolePowerDown, model.ErrLockReleased)
	}

	session := object{core: l.core, handle: l.session}
	ch, err := callOptionalObject(l.core, session, raw.MethodSessionGetConsole, raw.KindConsole)
	if err != nil {
		return nil, fmt.Errorf("could not get console: %w", err)
	}
	if ch == nil {
		return nil, fmt.Errorf("machine %s has no console, it is not running: %w", l.machineID, model.ErrNotValid)
	}
	defer l.core.releaseAll(ch)

	ph, err := callObject(l.core, object{core: l.core, handle: ch}, raw.MethodConsolePowerDown, raw.KindProgress)
	if err != nil {
		return nil, err
	}
	return newProgress(l.core, ph), nil
}

// MutableMachine is the machine view of an exclusive lock. Setting changes are
// kept as a draft until SaveSettings.
type MutableMachine struct {
	*machineView
}

// SetName renames the machine.
func (m *MutableMachine) SetName(name string) error {
	if err := model.ValidateMachineName(name); err != nil {
		return err
	}
	_, err := m.call(raw.MethodMachineSetName, name)
	return err
}

// SetDescription sets the machine description.
func (m *MutableMachine) SetDescription(description string) error {
	_, err := m.call(raw.MethodMachineSetDescription, description)
	return err
}

// SetMemorySize sets the machine RAM in MiB.
func (m *MutableMachine) SetMemorySize(mb uint32) error {
	if mb == 0 {
		return fmt.Errorf("memory must be positive: %w", model.ErrNotValid)
	}
	_, err := m.call(raw.MethodMachineSetMemorySize, mb)
	return err
}

// SetCPUCount sets the number of virtual CPUs.
func (m *MutableMachine) SetCPUCount(count uint32) error {
	if count == 0 {
		return fmt.Errorf("cpu count must be positive: %w", model.ErrNotValid)
	}
	_, err := m.call(raw.MethodMachineSetCPUCount, count)
	return err
}

// SaveSettings persists the setting changes.
func (m *MutableMachine) SaveSettings() error {
	_, err := m.call(raw.MethodMachineSaveSettings)
	return err
}

// DiscardSettings drops the unsaved setting changes.
func (m *MutableMachine) DiscardSettings() error {
	_, err := m.call(raw.MethodMachineDiscardSettings)
	return err
}

// RestoreSnapshot starts restoring the machine to a snapshot by name or ID.
func (m *MutableMachine) RestoreSnapshot(nameOrID string) (*Progress, error) {
	sh, err := findSnapshot(m.obj.core, m, nameOrID)
	if err != nil {
		return nil, err
	}
	defer m.obj.core.releaseAll(sh)

	sp, err := sh.pointer()
	if err != nil {
		return nil, err
	}

	return m.progressCall(raw.MethodMachineRestoreSnapshot, sp)
}
