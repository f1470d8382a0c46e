package sim

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
	storageio "github.com/slok/vbx/internal/storage/io"
)

func (s *SDK) machineGetSessionState(obj *object, _ []any) ([]any, raw.ResultCode) {
	return result(uint32(s.sessionState(obj.machineID)))
}

func (s *SDK) machineGetSnapshotCount(obj *object, _ []any) ([]any, raw.ResultCode) {
	return result(uint32(len(s.loadSnapshots(obj.machineID))))
}

func (s *SDK) machineGetCurrentSnapshot(obj *object, _ []any) ([]any, raw.ResultCode) {
	m := s.machineView(obj)
	if m.CurrentSnapshotID == "" {
		return result(raw.Null)
	}

	snap, found := s.loadSnapshot(m.ID, m.CurrentSnapshotID)
	if !found {
		return result(raw.Null)
	}
	return result(s.newSnapshotObject(snap))
}

func (s *SDK) machineGetMedia(obj *object, _ []any) ([]any, raw.ResultCode) {
	return result(s.newMediumObjects(s.machineView(obj).Media))
}

func (s *SDK) newMediumObjects(locations []string) []raw.Pointer {
	ptrs := make([]raw.Pointer, 0, len(locations))
	for _, loc := range locations {
		ptrs = append(ptrs, s.newObject(&object{kind: raw.KindMedium, location: loc}))
	}
	return ptrs
}

func (s *SDK) machineGetExtraDataKeys(obj *object, _ []any) ([]any, raw.ResultCode) {
	m := s.machineView(obj)
	keys := make([]string, 0, len(m.ExtraData))
	for k := range m.ExtraData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return result(keys)
}

func (s *SDK) machineGetExtraData(obj *object, args []any) ([]any, raw.ResultCode) {
	key, valid := arg[string](args, 0)
	if !valid {
		return s.badArgs(args)
	}
	return result(s.machineView(obj).ExtraData[key])
}

// machineSetExtraData is allowed on any machine object and persisted right away.
func (s *SDK) machineSetExtraData(obj *object, args []any) ([]any, raw.ResultCode) {
	key, valid1 := arg[string](args, 0)
	value, valid2 := arg[string](args, 1)
	if !valid1 || !valid2 {
		return s.badArgs(args)
	}
	if key == "" {
		return nil, s.fail(raw.EInvalidArg, "extra data key cannot be empty")
	}

	m, _ := s.loadMachine(obj.machineID)
	m = copyMachine(m)
	if m.ExtraData == nil {
		m.ExtraData = map[string]string{}
	}
	if value == "" {
		delete(m.ExtraData, key)
	} else {
		m.ExtraData[key] = value
	}

	if code := s.storeMachine(m); code != raw.OK {
		return nil, code
	}
	return result()
}

// mutable returns the settings draft of a write locked session machine.
func (s *SDK) mutable(obj *object) (*settings, raw.ResultCode) {
	if obj.session == nil {
		return nil, s.fail(raw.VBoxInvalidObjectState, "The machine is not mutable, it is not locked by a session")
	}
	if obj.session.draft == nil {
		return nil, s.fail(raw.VBoxInvalidVMState, "The machine is not mutable from a shared session")
	}

	m, _ := s.loadMachine(obj.machineID)
	if m.State.Online() {
		return nil, s.fail(raw.VBoxInvalidVMState, "The machine is not mutable (state is %s)", m.State)
	}
	return obj.session.draft, raw.OK
}

func (s *SDK) machineSetName(obj *object, args []any) ([]any, raw.ResultCode) {
	name, valid := arg[string](args, 0)
	if !valid {
		return s.badArgs(args)
	}
	draft, code := s.mutable(obj)
	if code != raw.OK {
		return nil, code
	}
	if err := model.ValidateMachineName(name); err != nil {
		return nil, s.fail(raw.EInvalidArg, "%s", err)
	}

	draft.name = name
	return result()
}

func (s *SDK) machineSetDescription(obj *object, args []any) ([]any, raw.ResultCode) {
	desc, valid := arg[string](args, 0)
	if !valid {
		return s.badArgs(args)
	}
	draft, code := s.mutable(obj)
	if code != raw.OK {
		return nil, code
	}

	draft.description = desc
	return result()
}

func (s *SDK) machineSetMemorySize(obj *object, args []any) ([]any, raw.ResultCode) {
	mb, valid := arg[uint32](args, 0)
	if !valid {
		return s.badArgs(args)
	}
	draft, code := s.mutable(obj)
	if code != raw.OK {
		return nil, code
	}
	if mb < 4 || mb > 2_097_152 {
		return nil, s.fail(raw.EInvalidArg, "Invalid RAM size: %d MB (must be in range [4, 2097152] MB)", mb)
	}

	draft.memoryMB = mb
	return result()
}

func (s *SDK) machineSetCPUCount(obj *object, args []any) ([]any, raw.ResultCode) {
	count, valid := arg[uint32](args, 0)
	if !valid {
		return s.badArgs(args)
	}
	draft, code := s.mutable(obj)
	if code != raw.OK {
		return nil, code
	}
	if count < 1 || count > 64 {
		return nil, s.fail(raw.EInvalidArg, "Invalid virtual CPU count: %d (must be in range [1, 64])", count)
	}

	draft.cpuCount = count
	return result()
}

func (s *SDK) machineSaveSettings(obj *object, _ []any) ([]any, raw.ResultCode) {
	draft, code := s.mutable(obj)
	if code != raw.OK {
		return nil, code
	}

	m, _ := s.loadMachine(obj.machineID)
	if other, found := s.findMachine(draft.name); found && other.ID != m.ID {
		return nil, s.fail(raw.VBoxFileError, "Machine settings file for '%s' already exists", draft.name)
	}

	if code := s.storeMachine(draft.applyTo(m)); code != raw.OK {
		return nil, code
	}
	return result()
}

func (s *SDK) machineDiscardSettings(obj *object, _ []any) ([]any, raw.ResultCode) {
	if _, code := s.mutable(obj); code != raw.OK {
		return nil, code
	}

	m, _ := s.loadMachine(obj.machineID)
	obj.session.draft = settingsOf(m)
	return result()
}

func (s *SDK) machineUnregister(obj *object, args []any) ([]any, raw.ResultCode) {
	mode, valid := arg[uint32](args, 0)
	if !valid {
		return s.badArgs(args)
	}
	cleanup := model.CleanupMode(mode)
	if cleanup < model.CleanupModeUnregisterOnly || cleanup > model.CleanupModeFull {
		return nil, s.fail(raw.EInvalidArg, "invalid cleanup mode %d", mode)
	}

	if obj.session != nil {
		return nil, s.fail(raw.VBoxInvalidObjectState, "Cannot unregister the machine from its own session")
	}
	if !s.registered(obj.machineID) {
		return nil, s.fail(raw.VBoxInvalidObjectState, "machine %s is not registered", obj.machineID)
	}
	if s.sessionState(obj.machineID) != raw.SessionStateUnlocked {
		return nil, s.fail(raw.VBoxInvalidObjectState, "Cannot unregister the machine because it is locked by a session")
	}

	m, _ := s.loadMachine(obj.machineID)
	if m.State.Online() {
		return nil, s.fail(raw.VBoxInvalidVMState, "Cannot unregister the machine while it is %s", m.State)
	}
	snaps := s.loadSnapshots(m.ID)
	if len(snaps) > 0 && cleanup == model.CleanupModeUnregisterOnly {
		return nil, s.fail(raw.VBoxInvalidObjectState, "Cannot unregister the machine '%s' because it has %d snapshots", m.Name, len(snaps))
	}

	if err := s.repo.DeleteMachine(context.Background(), m.ID); err != nil {
		return nil, s.fail(raw.EFail, "could not unregister machine: %s", err)
	}
	s.detached[m.ID] = &detachedMachine{info: m, snapshots: snaps}
	s.logger.Debugf("Machine %s unregistered (cleanup mode %d)", m.ID, mode)

	if cleanup < model.CleanupModeDetachAllReturnHardDisksOnly {
		return result([]raw.Pointer{})
	}
	return result(s.newMediumObjects(m.Media))
}

func (s *SDK) machineDeleteConfig(obj *object, args []any) ([]any, raw.ResultCode) {
	media, valid := arg[[]raw.Pointer](args, 0)
	if !valid {
		return s.badArgs(args)
	}

	d, found := s.detached[obj.machineID]
	if !found || d.created {
		return nil, s.fail(raw.VBoxInvalidObjectState, "Cannot delete the settings of a registered machine")
	}
	for _, p := range media {
		if _, code := s.typedObject(p, raw.KindMedium); code != raw.OK {
			return nil, code
		}
	}

	id, name := d.info.ID, d.info.Name
	ptr := s.startOperation(id, model.OperationKindDeleteMachine, fmt.Sprintf("Deleting files of machine %q (%d media)", name, len(media)), true,
		func() (raw.ResultCode, string) {
			delete(s.detached, id)
			return raw.OK, ""
		})
	return result(ptr)
}

func (s *SDK) machineCloneTo(obj *object, args []any) ([]any, raw.ResultCode) {
	target, valid1 := arg[raw.Pointer](args, 0)
	mode, valid2 := arg[uint32](args, 1)
	options, valid3 := arg[[]uint32](args, 2)
	if !valid1 || !valid2 || !valid3 {
		return s.badArgs(args)
	}
	cloneMode := model.CloneMode(mode)
	if cloneMode < model.CloneModeMachineState || cloneMode > model.CloneModeAllStates {
		return nil, s.fail(raw.EInvalidArg, "invalid clone mode %d", mode)
	}

	tobj, code := s.typedObject(target, raw.KindMachine)
	if code != raw.OK {
		return nil, code
	}
	d, found := s.detached[tobj.machineID]
	if !found || !d.created {
		return nil, s.fail(raw.VBoxInvalidObjectState, "The clone target must be a new unregistered machine")
	}

	src := s.machineView(obj)
	targetID := tobj.machineID
	keepNames := slices.Contains(options, uint32(raw.CloneOptionKeepDiskNames))

	ptr := s.startOperation(src.ID, model.OperationKindCloneMachine, fmt.Sprintf("Cloning machine %q into %q", src.Name, d.info.Name), true,
		func() (raw.ResultCode, string) {
			d, found := s.detached[targetID]
			if !found {
				return s.fail(raw.VBoxObjectNotFound, "clone target %s does not exist anymore", targetID), "clone target does not exist anymore"
			}
			d.info, d.snapshots = s.cloneMachine(src, d.info, cloneMode, keepNames)
			return raw.OK, ""
		})
	return result(ptr)
}

// cloneMachine copies the settings and snapshots of src into target.
func (s *SDK) cloneMachine(src, target model.MachineInfo, mode model.CloneMode, keepNames bool) (model.MachineInfo, []model.SnapshotInfo) {
	target.Description = src.Description
	target.OSTypeID = src.OSTypeID
	target.MemoryMB = src.MemoryMB
	target.CPUCount = src.CPUCount
	target.ExtraData = copyMachine(src).ExtraData
	target.State = model.MachineStatePoweredOff
	target.LastStateChange = s.now()
	target.CurrentSnapshotID = ""

	target.Media = make([]string, 0, len(src.Media))
	for _, loc := range src.Media {
		if !keepNames {
			loc = strings.ReplaceAll(loc, src.Name, target.Name)
		}
		target.Media = append(target.Media, loc)
	}

	if mode == model.CloneModeMachineState {
		return target, nil
	}

	ids := map[string]string{"": ""}
	snaps := []model.SnapshotInfo{}
	for _, snap := range s.loadSnapshots(src.ID) {
		ids[snap.ID] = uuid.NewString()
		snap.ID = ids[snap.ID]
		snap.ParentID = ids[snap.ParentID]
		snap.MachineID = target.ID
		snaps = append(snaps, snap)
	}
	target.CurrentSnapshotID = ids[src.CurrentSnapshotID]

	return target, snaps
}

func (s *SDK) machineExportTo(obj *object, args []any) ([]any, raw.ResultCode) {
	path, valid := arg[string](args, 0)
	if !valid {
		return s.badArgs(args)
	}
	if path == "" {
		return nil, s.fail(raw.EInvalidArg, "export path cannot be empty")
	}

	m := s.machineView(obj)
	ptr := s.startOperation(m.ID, model.OperationKindExportMachine, fmt.Sprintf("Exporting machine %q to %s", m.Name, path), true,
		func() (raw.ResultCode, string) {
			inv := model.Inventory{Machines: []model.MachineInfo{m}, Snapshots: s.loadSnapshots(m.ID)}
			data, err := storageio.EncodeInventory(inv)
			if err != nil {
				return raw.EFail, fmt.Sprintf("could not render appliance: %s", err)
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return raw.VBoxFileError, fmt.Sprintf("could not write appliance %s: %s", path, err)
			}
			return raw.OK, ""
		})
	return result(ptr)
}

func (s *SDK) machineFindSnapshot(obj *object, args []any) ([]any, raw.ResultCode) {
	nameOrID, valid := arg[string](args, 0)
	if !valid {
		return s.badArgs(args)
	}

	snap, found := s.findSnapshot(obj.machineID, nameOrID)
	if !found {
		if nameOrID == "" {
			return nil, s.fail(raw.VBoxObjectNotFound, "This machine does not have any snapshots")
		}
		return nil, s.fail(raw.VBoxObjectNotFound, "Could not find a snapshot named '%s'", nameOrID)
	}
	return result(s.newSnapshotObject(snap))
}

// sessionMachine checks the object comes from a locked session.
func (s *SDK) sessionMachine(obj *object) raw.ResultCode {
	if obj.session == nil {
		return s.fail(raw.VBoxInvalidObjectState, "The machine is not locked by a session")
	}
	return raw.OK
}

// transition moves a machine into a transient state until an operation ends.
func (s *SDK) transition(m model.MachineInfo, state model.MachineState) (restore func()) {
	prev := m.State
	s.setState(m.ID, state)
	return func() { s.setState(m.ID, prev) }
}

func (s *SDK) setState(id string, state model.MachineState) {
	m, found := s.loadMachine(id)
	if !found || m.State == state {
		return
	}
	m.State = state
	m.LastStateChange = s.now()
	s.storeMachine(m)
}

func (s *SDK) machineTakeSnapshot(obj *object, args []any) ([]any, raw.ResultCode) {
	name, valid1 := arg[string](args, 0)
	desc, valid2 := arg[string](args, 1)
	_, valid3 := arg[bool](args, 2)
	if !valid1 || !valid2 || !valid3 {
		return s.badArgs(args)
	}
	if code := s.sessionMachine(obj); code != raw.OK {
		return nil, code
	}
	if err := model.ValidateSnapshotName(name); err != nil {
		return nil, s.fail(raw.EInvalidArg, "%s", err)
	}

	m := s.machineView(obj)
	if !m.State.Online() && m.State != model.MachineStatePoweredOff && m.State != model.MachineStateSaved && m.State != model.MachineStateAborted {
		return nil, s.fail(raw.VBoxInvalidVMState, "Cannot take a snapshot of the machine while it is %s", m.State)
	}

	id := uuid.NewString()
	snap := model.SnapshotInfo{
		ID:          id,
		Name:        name,
		Description: desc,
		MachineID:   m.ID,
		ParentID:    m.CurrentSnapshotID,
		Online:      m.State.Online(),
	}

	ptr := s.startOperation(m.ID, model.OperationKindTakeSnapshot, fmt.Sprintf("Taking snapshot %q of machine %q", name, m.Name), true,
		func() (raw.ResultCode, string) {
			snap.CreatedAt = s.now()
			if err := s.repo.CreateSnapshot(context.Background(), snap); err != nil {
				return raw.VBoxFileError, fmt.Sprintf("could not save snapshot: %s", err)
			}
			cur, _ := s.loadMachine(snap.MachineID)
			cur.CurrentSnapshotID = snap.ID
			return s.storeMachine(cur), ""
		})
	s.operationOf(ptr).finish = s.transition(m, snapshottingState(m.State))

	return result(id, ptr)
}

func snapshottingState(state model.MachineState) model.MachineState {
	if state.Online() {
		// Live snapshots keep the machine running.
		return state
	}
	return model.MachineStateSnapshotting
}

func (s *SDK) machineDeleteSnapshot(obj *object, args []any) ([]any, raw.ResultCode) {
	id, valid := arg[string](args, 0)
	if !valid {
		return s.badArgs(args)
	}
	if code := s.sessionMachine(obj); code != raw.OK {
		return nil, code
	}

	snap, found := s.loadSnapshot(obj.machineID, id)
	if !found {
		return nil, s.fail(raw.VBoxObjectNotFound, "Could not find a snapshot with UUID {%s}", id)
	}
	children := s.children(snap)
	if len(children) > 1 {
		return nil, s.fail(raw.VBoxInvalidObjectState, "Snapshot '%s' has more than one child snapshot", snap.Name)
	}

	m := s.machineView(obj)
	ptr := s.startOperation(m.ID, model.OperationKindDeleteSnapshot, fmt.Sprintf("Deleting snapshot %q of machine %q", snap.Name, m.Name), false,
		func() (raw.ResultCode, string) {
			ctx := context.Background()
			for _, child := range s.children(snap) {
				child.ParentID = snap.ParentID
				if err := s.repo.UpdateSnapshot(ctx, child); err != nil {
					return raw.VBoxFileError, fmt.Sprintf("could not merge snapshot: %s", err)
				}
			}
			return s.dropSnapshots(snap, []model.SnapshotInfo{snap})
		})
	s.operationOf(ptr).finish = s.transition(m, model.MachineStateDeletingSnapshot)

	return result(ptr)
}

func (s *SDK) machineDeleteSnapshotAndAllChildren(obj *object, args []any) ([]any, raw.ResultCode) {
	id, valid := arg[string](args, 0)
	if !valid {
		return s.badArgs(args)
	}
	if code := s.sessionMachine(obj); code != raw.OK {
		return nil, code
	}

	snap, found := s.loadSnapshot(obj.machineID, id)
	if !found {
		return nil, s.fail(raw.VBoxObjectNotFound, "Could not find a snapshot with UUID {%s}", id)
	}

	m := s.machineView(obj)
	ptr := s.startOperation(m.ID, model.OperationKindDeleteSnapshot, fmt.Sprintf("Deleting snapshot %q and its children of machine %q", snap.Name, m.Name), false,
		func() (raw.ResultCode, string) {
			return s.dropSnapshots(snap, s.subtree(snap))
		})
	s.operationOf(ptr).finish = s.transition(m, model.MachineStateDeletingSnapshot)

	return result(ptr)
}

// dropSnapshots deletes snapshots, leaves first, moving the current snapshot to
// the parent of root when it is deleted.
func (s *SDK) dropSnapshots(root model.SnapshotInfo, snaps []model.SnapshotInfo) (raw.ResultCode, string) {
	ctx := context.Background()
	deleted := map[string]bool{}
	for i := len(snaps) - 1; i >= 0; i-- {
		if err := s.repo.DeleteSnapshot(ctx, snaps[i].ID); err != nil {
			return raw.VBoxFileError, fmt.Sprintf("could not delete snapshot: %s", err)
		}
		deleted[snaps[i].ID] = true
	}

	m, _ := s.loadMachine(root.MachineID)
	if deleted[m.CurrentSnapshotID] {
		m.CurrentSnapshotID = root.ParentID
		return s.storeMachine(m), ""
	}
	return raw.OK, ""
}

func (s *SDK) children(snap model.SnapshotInfo) []model.SnapshotInfo {
	children := []model.SnapshotInfo{}
	for _, other := range s.loadSnapshots(snap.MachineID) {
		if other.ParentID == snap.ID {
			children = append(children, other)
		}
	}
	return children
}

// subtree returns a snapshot and all its descendants, parents first.
func (s *SDK) subtree(root model.SnapshotInfo) []model.SnapshotInfo {
	snaps := []model.SnapshotInfo{root}
	for i := 0; i < len(snaps); i++ {
		snaps = append(snaps, s.children(snaps[i])...)
	}
	return snaps
}

func (s *SDK) machineRestoreSnapshot(obj *object, args []any) ([]any, raw.ResultCode) {
	ptr, valid := arg[raw.Pointer](args, 0)
	if !valid {
		return s.badArgs(args)
	}
	if _, code := s.mutable(obj); code != raw.OK {
		return nil, code
	}

	sobj, code := s.typedObject(ptr, raw.KindSnapshot)
	if code != raw.OK {
		return nil, code
	}
	if sobj.machineID != obj.machineID {
		return nil, s.fail(raw.EInvalidArg, "snapshot %s does not belong to machine %s", sobj.snapshotID, obj.machineID)
	}
	snap, _ := s.loadSnapshot(sobj.machineID, sobj.snapshotID)

	m := s.machineView(obj)
	progress := s.startOperation(m.ID, model.OperationKindRestoreSnapshot, fmt.Sprintf("Restoring snapshot %q of machine %q", snap.Name, m.Name), false,
		func() (raw.ResultCode, string) {
			cur, _ := s.loadMachine(snap.MachineID)
			cur.CurrentSnapshotID = snap.ID
			return s.storeMachine(cur), ""
		})

	// The restored state replaces the one the machine had before the operation.
	final := model.MachineStatePoweredOff
	if snap.Online {
		final = model.MachineStateSaved
	}
	s.transition(m, model.MachineStateRestoring)
	op := s.operationOf(progress)
	op.finish = func() {
		if op.result.Succeeded() && !op.canceled {
			s.setState(m.ID, final)
			return
		}
		s.setState(m.ID, m.State)
	}

	return result(progress)
}

// operationOf returns the operation of a progress object just created.
func (s *SDK) operationOf(p raw.Pointer) *operation {
	return s.operations[s.objects[p].opID]
}

func copyMachine(m model.MachineInfo) model.MachineInfo {
	m.Media = slices.Clone(m.Media)
	m.ExtraData = maps.Clone(m.ExtraData)
	return m
}
