package vbox

import (
	"fmt"
	"sort"
	"time"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// Machine is a read view of a machine, usable without holding a lock. Mutations
// are only reachable through a SessionLock.
type Machine struct {
	object
}

// ID returns the machine UUID.
func (m *Machine) ID() (string, error) { return callValue[string](m, raw.MethodMachineGetID) }

// Name returns the machine name.
func (m *Machine) Name() (string, error) { return callValue[string](m, raw.MethodMachineGetName) }

// State returns the machine execution state.
func (m *Machine) State() (model.MachineState, error) { return machineState(m) }

// SessionState returns the machine session state.
func (m *Machine) SessionState() (model.SessionState, error) { return sessionState(m) }

// Info reads all the machine properties.
func (m *Machine) Info() (model.MachineInfo, error) { return readMachineInfo(m.core, m) }

// Snapshots returns the machine snapshot tree, parents before children.
func (m *Machine) Snapshots() ([]model.SnapshotInfo, error) {
	id, err := m.ID()
	if err != nil {
		return nil, err
	}

	count, err := callValue[uint32](m, raw.MethodMachineGetSnapshotCount)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []model.SnapshotInfo{}, nil
	}

	// An empty name returns the root snapshot.
	rh, err := callObject(m.core, m, raw.MethodMachineFindSnapshot, raw.KindSnapshot, "")
	if err != nil {
		return nil, fmt.Errorf("could not get root snapshot: %w", err)
	}

	return walkSnapshots(&Snapshot{object: object{core: m.core, handle: rh}, machineID: id})
}

// FindSnapshot returns a snapshot of the machine by name or ID.
func (m *Machine) FindSnapshot(nameOrID string) (*Snapshot, error) {
	id, err := m.ID()
	if err != nil {
		return nil, err
	}

	h, err := findSnapshot(m.core, m, nameOrID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{object: object{core: m.core, handle: h}, machineID: id}, nil
}

// Delete unregisters the machine and deletes its files. The machine object
// becomes stale once the returned operation completes.
func (m *Machine) Delete(mode model.CleanupMode) (*Progress, error) {
	media, err := callObjects(m.core, m, raw.MethodMachineUnregister, raw.KindMedium, uint32(mode))
	if err != nil {
		return nil, fmt.Errorf("could not unregister machine: %w", err)
	}
	defer m.core.releaseAll(media...)

	ptrs := make([]raw.Pointer, 0, len(media))
	for _, h := range media {
		p, err := h.pointer()
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, p)
	}

	ph, err := callObject(m.core, m, raw.MethodMachineDeleteConfig, raw.KindProgress, ptrs)
	if err != nil {
		return nil, fmt.Errorf("could not delete machine config: %w", err)
	}

	return newProgress(m.core, ph), nil
}

// CloneTo clones the machine into target, a created and not registered machine.
func (m *Machine) CloneTo(target *Machine, mode model.CloneMode, options ...raw.CloneOption) (*Progress, error) {
	tp, err := target.handle.pointer()
	if err != nil {
		return nil, err
	}

	opts := make([]uint32, 0, len(options))
	for _, o := range options {
		opts = append(opts, uint32(o))
	}

	ph, err := callObject(m.core, m, raw.MethodMachineCloneTo, raw.KindProgress, tp, uint32(mode), opts)
	if err != nil {
		return nil, err
	}
	return newProgress(m.core, ph), nil
}

// ExportTo exports the machine as an appliance descriptor at path.
func (m *Machine) ExportTo(path string) (*Progress, error) {
	ph, err := callObject(m.core, m, raw.MethodMachineExportTo, raw.KindProgress, path)
	if err != nil {
		return nil, err
	}
	return newProgress(m.core, ph), nil
}

// Media returns the attached hard disks.
func (m *Machine) Media() ([]*Medium, error) {
	hs, err := callObjects(m.core, m, raw.MethodMachineGetMedia, raw.KindMedium)
	if err != nil {
		return nil, err
	}

	media := make([]*Medium, 0, len(hs))
	for _, h := range hs {
		media = append(media, &Medium{object: object{core: m.core, handle: h}})
	}
	return media, nil
}

// Clone returns a new reference to the same machine.
func (m *Machine) Clone() (*Machine, error) {
	h, err := m.handle.Clone()
	if err != nil {
		return nil, err
	}
	return &Machine{object: object{core: m.core, handle: h}}, nil
}

func findSnapshot(c *core, inv invoker, nameOrID string) (*Handle, error) {
	h, err := callObject(c, inv, raw.MethodMachineFindSnapshot, raw.KindSnapshot, nameOrID)
	if err != nil {
		if isForeignCode(err, raw.VBoxObjectNotFound) {
			return nil, fmt.Errorf("snapshot %q: %w: %w", nameOrID, model.ErrNotFound, err)
		}
		return nil, err
	}
	return h, nil
}

func machineState(inv invoker) (model.MachineState, error) {
	s, err := callValue[uint32](inv, raw.MethodMachineGetState)
	if err != nil {
		return "", err
	}
	return machineStateFromRaw(raw.MachineState(s)), nil
}

func sessionState(inv invoker) (model.SessionState, error) {
	s, err := callValue[uint32](inv, raw.MethodMachineGetSessionState)
	if err != nil {
		return "", err
	}
	return sessionStateFromRaw(raw.SessionState(s)), nil
}

// readMachineInfo reads the machine properties through any machine invoker.
func readMachineInfo(c *core, inv invoker) (info model.MachineInfo, err error) {
	get := func(m raw.Method, dst *string) {
		if err == nil {
			*dst, err = callValue[string](inv, m)
		}
	}
	getU := func(m raw.Method, dst *uint32) {
		if err == nil {
			*dst, err = callValue[uint32](inv, m)
		}
	}

	get(raw.MethodMachineGetID, &info.ID)
	get(raw.MethodMachineGetName, &info.Name)
	get(raw.MethodMachineGetDescription, &info.Description)
	get(raw.MethodMachineGetOSTypeID, &info.OSTypeID)
	getU(raw.MethodMachineGetMemorySize, &info.MemoryMB)
	getU(raw.MethodMachineGetCPUCount, &info.CPUCount)
	getU(raw.MethodMachineGetSnapshotCount, &info.SnapshotCount)
	if err != nil {
		return model.MachineInfo{}, err
	}

	if info.State, err = machineState(inv); err != nil {
		return model.MachineInfo{}, err
	}
	if info.SessionState, err = sessionState(inv); err != nil {
		return model.MachineInfo{}, err
	}

	ms, err := callValue[int64](inv, raw.MethodMachineGetLastStateChange)
	if err != nil {
		return model.MachineInfo{}, err
	}
	info.LastStateChange = time.UnixMilli(ms).UTC()

	snap, err := callOptionalObject(c, inv, raw.MethodMachineGetCurrentSnapshot, raw.KindSnapshot)
	if err != nil {
		return model.MachineInfo{}, err
	}
	if snap != nil {
		info.CurrentSnapshotID, err = callValue[string](object{core: c, handle: snap}, raw.MethodSnapshotGetID)
		c.releaseAll(snap)
		if err != nil {
			return model.MachineInfo{}, err
		}
	}

	media, err := callObjects(c, inv, raw.MethodMachineGetMedia, raw.KindMedium)
	if err != nil {
		return model.MachineInfo{}, err
	}
	defer c.releaseAll(media...)
	for _, h := range media {
		medium := &Medium{object: object{core: c, handle: h}}
		loc, err := medium.Location()
		if err != nil {
			return model.MachineInfo{}, err
		}
		info.Media = append(info.Media, loc)
	}

	keys, err := callValue[[]string](inv, raw.MethodMachineGetExtraDataKeys)
	if err != nil {
		return model.MachineInfo{}, err
	}
	sort.Strings(keys)
	info.ExtraData = make(map[string]string, len(keys))
	for _, k := range keys {
		v, err := callValue[string](inv, raw.MethodMachineGetExtraData, k)
		if err != nil {
			return model.MachineInfo{}, err
		}
		info.ExtraData[k] = v
	}

	return info, nil
}

var machineStates = map[raw.MachineState]model.MachineState{
	raw.MachineStatePoweredOff:       model.MachineStatePoweredOff,
	raw.MachineStateSaved:            model.MachineStateSaved,
	raw.MachineStateAborted:          model.MachineStateAborted,
	raw.MachineStateAbortedSaved:     model.MachineStateAborted,
	raw.MachineStateRunning:          model.MachineStateRunning,
	raw.MachineStatePaused:           model.MachineStatePaused,
	raw.MachineStateStuck:            model.MachineStateStuck,
	raw.MachineStateStarting:         model.MachineStateStarting,
	raw.MachineStateStopping:         model.MachineStateStopping,
	raw.MachineStateSaving:           model.MachineStateSaving,
	raw.MachineStateRestoring:        model.MachineStateRestoring,
	raw.MachineStateSnapshotting:     model.MachineStateSnapshotting,
	raw.MachineStateLiveSnapshotting: model.MachineStateSnapshotting,
	raw.MachineStateDeletingSnapshot: model.MachineStateDeletingSnapshot,
	raw.MachineStateSettingUp:        model.MachineStateSettingUp,
}

func machineStateFromRaw(s raw.MachineState) model.MachineState {
	if ms, ok := machineStates[s]; ok {
		return ms
	}
	return model.MachineStateNull
}

func sessionStateFromRaw(s raw.SessionState) model.SessionState {
	switch s {
	case raw.SessionStateUnlocked:
		return model.SessionStateUnlocked
	case raw.SessionStateLocked:
		return model.SessionStateLocked
	case raw.SessionStateSpawning:
		return model.SessionStateSpawning
	case raw.SessionStateUnlocking:
		return model.SessionStateUnlocking
	}
	return model.SessionStateNull
}
