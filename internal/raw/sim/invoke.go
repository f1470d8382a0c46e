package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// handler implements a foreign method on a resolved object.
type handler func(s *SDK, obj *object, args []any) ([]any, raw.ResultCode)

var handlers = map[raw.Method]handler{
	raw.MethodClientGetVirtualBox: (*SDK).clientGetVirtualBox,
	raw.MethodClientGetSession:    (*SDK).clientGetSession,

	raw.MethodVirtualBoxGetVersion:       (*SDK).vboxGetVersion,
	raw.MethodVirtualBoxGetRevision:      (*SDK).vboxGetRevision,
	raw.MethodVirtualBoxGetAPIVersion:    (*SDK).vboxGetAPIVersion,
	raw.MethodVirtualBoxGetMachines:      (*SDK).vboxGetMachines,
	raw.MethodVirtualBoxFindMachine:      (*SDK).vboxFindMachine,
	raw.MethodVirtualBoxCreateMachine:    (*SDK).vboxCreateMachine,
	raw.MethodVirtualBoxRegisterMachine:  (*SDK).vboxRegisterMachine,
	raw.MethodVirtualBoxFindProgressByID: (*SDK).vboxFindProgressByID,

	raw.MethodSessionGetState:   (*SDK).sessionGetState,
	raw.MethodSessionGetMachine: (*SDK).sessionGetMachine,
	raw.MethodSessionGetConsole: (*SDK).sessionGetConsole,

	raw.MethodConsolePowerDown: (*SDK).consolePowerDown,

	raw.MethodMachineGetID:                        machineGetter(func(m model.MachineInfo) any { return m.ID }),
	raw.MethodMachineGetName:                      machineGetter(func(m model.MachineInfo) any { return m.Name }),
	raw.MethodMachineGetDescription:               machineGetter(func(m model.MachineInfo) any { return m.Description }),
	raw.MethodMachineGetOSTypeID:                  machineGetter(func(m model.MachineInfo) any { return m.OSTypeID }),
	raw.MethodMachineGetState:                     machineGetter(func(m model.MachineInfo) any { return uint32(machineStateToRaw(m.State)) }),
	raw.MethodMachineGetLastStateChange:           machineGetter(func(m model.MachineInfo) any { return m.LastStateChange.UnixMilli() }),
	raw.MethodMachineGetMemorySize:                machineGetter(func(m model.MachineInfo) any { return m.MemoryMB }),
	raw.MethodMachineGetCPUCount:                  machineGetter(func(m model.MachineInfo) any { return m.CPUCount }),
	raw.MethodMachineGetSessionState:              (*SDK).machineGetSessionState,
	raw.MethodMachineSetName:                      (*SDK).machineSetName,
	raw.MethodMachineSetDescription:               (*SDK).machineSetDescription,
	raw.MethodMachineSetMemorySize:                (*SDK).machineSetMemorySize,
	raw.MethodMachineSetCPUCount:                  (*SDK).machineSetCPUCount,
	raw.MethodMachineGetSnapshotCount:             (*SDK).machineGetSnapshotCount,
	raw.MethodMachineGetCurrentSnapshot:           (*SDK).machineGetCurrentSnapshot,
	raw.MethodMachineGetMedia:                     (*SDK).machineGetMedia,
	raw.MethodMachineGetExtraDataKeys:             (*SDK).machineGetExtraDataKeys,
	raw.MethodMachineGetExtraData:                 (*SDK).machineGetExtraData,
	raw.MethodMachineSetExtraData:                 (*SDK).machineSetExtraData,
	raw.MethodMachineSaveSettings:                 (*SDK).machineSaveSettings,
	raw.MethodMachineDiscardSettings:              (*SDK).machineDiscardSettings,
	raw.MethodMachineUnregister:                   (*SDK).machineUnregister,
	raw.MethodMachineDeleteConfig:                 (*SDK).machineDeleteConfig,
	raw.MethodMachineCloneTo:                      (*SDK).machineCloneTo,
	raw.MethodMachineExportTo:                     (*SDK).machineExportTo,
	raw.MethodMachineFindSnapshot:                 (*SDK).machineFindSnapshot,
	raw.MethodMachineTakeSnapshot:                 (*SDK).machineTakeSnapshot,
	raw.MethodMachineDeleteSnapshot:               (*SDK).machineDeleteSnapshot,
	raw.MethodMachineDeleteSnapshotAndAllChildren: (*SDK).machineDeleteSnapshotAndAllChildren,
	raw.MethodMachineRestoreSnapshot:              (*SDK).machineRestoreSnapshot,

	raw.MethodSnapshotGetID:          snapshotGetter(func(s model.SnapshotInfo) any { return s.ID }),
	raw.MethodSnapshotGetName:        snapshotGetter(func(s model.SnapshotInfo) any { return s.Name }),
	raw.MethodSnapshotGetDescription: snapshotGetter(func(s model.SnapshotInfo) any { return s.Description }),
	raw.MethodSnapshotGetTimeStamp:   snapshotGetter(func(s model.SnapshotInfo) any { return s.CreatedAt.UnixMilli() }),
	raw.MethodSnapshotGetOnline:      snapshotGetter(func(s model.SnapshotInfo) any { return s.Online }),
	raw.MethodSnapshotGetParent:      (*SDK).snapshotGetParent,
	raw.MethodSnapshotGetChildren:    (*SDK).snapshotGetChildren,

	raw.MethodMediumGetID:       (*SDK).mediumGetID,
	raw.MethodMediumGetLocation: (*SDK).mediumGetLocation,

	raw.MethodProgressGetID:          progressGetter(func(op *operation) any { return op.record.ID }),
	raw.MethodProgressGetDescription: progressGetter(func(op *operation) any { return op.record.Description }),
	raw.MethodProgressGetErrorText:   progressGetter(func(op *operation) any { return op.errorText }),
}

// Invoke calls the method at a vtable slot of an object.
func (s *SDK) Invoke(p raw.Pointer, slot raw.Slot, args ...any) ([]any, raw.ResultCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, code := s.object(p)
	if code != raw.OK {
		return nil, code
	}

	m, ok := s.line.Slots.Method(obj.kind, slot)
	if !ok {
		return nil, s.fail(raw.ENotImpl, "%s has no method at slot %d", obj.kind, slot)
	}

	if code, ok := s.faults[m]; ok {
		delete(s.faults, m)
		delete(s.lastErrors, code)
		s.logger.Debugf("Injected fault on %s: %s", m, code)
		return nil, code
	}

	h, ok := handlers[m]
	if !ok {
		return nil, s.fail(raw.ENotImpl, "%s is not implemented", m)
	}

	out, code := h(s, obj, args)
	s.logger.Debugf("Call %s: %s", m, code)
	return out, code
}

// arg returns the i argument of a call with the declared type.
func arg[T any](args []any, i int) (T, bool) {
	var zero T
	if i >= len(args) {
		return zero, false
	}
	v, ok := args[i].(T)
	return v, ok
}

func (s *SDK) badArgs(args []any) ([]any, raw.ResultCode) {
	return nil, s.fail(raw.EInvalidArg, "invalid arguments %v", args)
}

func result(out ...any) ([]any, raw.ResultCode) { return out, raw.OK }

func machineGetter(get func(m model.MachineInfo) any) handler {
	return func(s *SDK, obj *object, _ []any) ([]any, raw.ResultCode) {
		return result(get(s.machineView(obj)))
	}
}

func snapshotGetter(get func(snap model.SnapshotInfo) any) handler {
	return func(s *SDK, obj *object, _ []any) ([]any, raw.ResultCode) {
		snap, _ := s.loadSnapshot(obj.machineID, obj.snapshotID)
		return result(get(snap))
	}
}

func progressGetter(get func(op *operation) any) handler {
	return func(s *SDK, obj *object, _ []any) ([]any, raw.ResultCode) {
		op, found := s.operations[obj.opID]
		if !found {
			return nil, s.fail(raw.RPCDisconnected, "operation %s does not exist anymore", obj.opID)
		}
		return result(get(op))
	}
}

func (s *SDK) clientGetVirtualBox(_ *object, _ []any) ([]any, raw.ResultCode) {
	return result(s.newObject(&object{kind: raw.KindVirtualBox}))
}

func (s *SDK) clientGetSession(_ *object, _ []any) ([]any, raw.ResultCode) {
	sess := &session{}
	s.sessions[sess] = struct{}{}
	return result(s.newObject(&object{kind: raw.KindSession, session: sess}))
}

func (s *SDK) vboxGetVersion(_ *object, _ []any) ([]any, raw.ResultCode) {
	return result(fmt.Sprintf("%d.%d.%d", s.version.Major, s.version.Minor, s.version.Build))
}

func (s *SDK) vboxGetRevision(_ *object, _ []any) ([]any, raw.ResultCode) {
	return result(s.revision)
}

func (s *SDK) vboxGetAPIVersion(_ *object, _ []any) ([]any, raw.ResultCode) {
	return result(fmt.Sprintf("%d_%d", s.version.Major, s.version.Minor))
}

func (s *SDK) vboxGetMachines(_ *object, _ []any) ([]any, raw.ResultCode) {
	ms, err := s.repo.ListMachines(context.Background())
	if err != nil {
		return nil, s.fail(raw.EFail, "could not list machines: %s", err)
	}

	ptrs := make([]raw.Pointer, 0, len(ms))
	for _, m := range ms {
		ptrs = append(ptrs, s.newMachineObject(m.ID))
	}
	return result(ptrs)
}

func (s *SDK) vboxFindMachine(_ *object, args []any) ([]any, raw.ResultCode) {
	nameOrID, valid := arg[string](args, 0)
	if !valid {
		return s.badArgs(args)
	}

	m, found := s.findMachine(nameOrID)
	if !found {
		return nil, s.fail(raw.VBoxObjectNotFound, "Could not find a registered machine named '%s'", nameOrID)
	}
	return result(s.newMachineObject(m.ID))
}

func (s *SDK) vboxCreateMachine(_ *object, args []any) ([]any, raw.ResultCode) {
	_, valid1 := arg[string](args, 0)
	name, valid2 := arg[string](args, 1)
	osTypeID, valid3 := arg[string](args, 2)
	if !valid1 || !valid2 || !valid3 {
		return s.badArgs(args)
	}

	if err := model.ValidateMachineName(name); err != nil {
		return nil, s.fail(raw.EInvalidArg, "%s", err)
	}
	if _, found := s.findMachine(name); found {
		return nil, s.fail(raw.VBoxFileError, "Machine settings file for '%s' already exists", name)
	}
	if osTypeID == "" {
		osTypeID = "Other_64"
	}

	m := model.MachineInfo{
		ID:              uuid.NewString(),
		Name:            name,
		OSTypeID:        osTypeID,
		State:           model.MachineStatePoweredOff,
		SessionState:    model.SessionStateUnlocked,
		MemoryMB:        128,
		CPUCount:        1,
		ExtraData:       map[string]string{},
		LastStateChange: s.now(),
	}
	s.detached[m.ID] = &detachedMachine{info: m, created: true}

	return result(s.newMachineObject(m.ID))
}

func (s *SDK) vboxRegisterMachine(_ *object, args []any) ([]any, raw.ResultCode) {
	ptr, valid := arg[raw.Pointer](args, 0)
	if !valid {
		return s.badArgs(args)
	}
	mobj, code := s.typedObject(ptr, raw.KindMachine)
	if code != raw.OK {
		return nil, code
	}

	d, found := s.detached[mobj.machineID]
	if !found || !d.created {
		return nil, s.fail(raw.VBoxInvalidObjectState, "machine %s is not a newly created machine", mobj.machineID)
	}

	ctx := context.Background()
	if err := s.repo.CreateMachine(ctx, d.info); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil, s.fail(raw.VBoxObjectInUse, "machine %q is already registered", d.info.Name)
		}
		return nil, s.fail(raw.EFail, "could not register machine: %s", err)
	}
	for _, snap := range d.snapshots {
		if err := s.repo.CreateSnapshot(ctx, snap); err != nil {
			return nil, s.fail(raw.EFail, "could not register snapshot %q: %s", snap.Name, err)
		}
	}
	delete(s.detached, d.info.ID)

	s.logger.Debugf("Machine %s registered", d.info.ID)
	return result()
}

func (s *SDK) vboxFindProgressByID(_ *object, args []any) ([]any, raw.ResultCode) {
	id, valid := arg[string](args, 0)
	if !valid {
		return s.badArgs(args)
	}

	if _, found := s.operations[id]; !found {
		return nil, s.fail(raw.VBoxObjectNotFound, "Could not find a progress object with ID '%s'", id)
	}
	return result(s.newObject(&object{kind: raw.KindProgress, opID: id}))
}

func (s *SDK) sessionGetState(obj *object, _ []any) ([]any, raw.ResultCode) {
	if obj.session.locked() {
		return result(uint32(raw.SessionStateLocked))
	}
	return result(uint32(raw.SessionStateUnlocked))
}

func (s *SDK) sessionGetMachine(obj *object, _ []any) ([]any, raw.ResultCode) {
	sess := obj.session
	if !sess.locked() {
		return nil, s.fail(raw.VBoxInvalidSessionState, "session is not locked")
	}
	return result(s.newObject(&object{kind: raw.KindMachine, machineID: sess.machineID, session: sess, epoch: sess.epoch}))
}

// sessionGetConsole returns the console of the running machine of a shared
// session, null for any other session.
func (s *SDK) sessionGetConsole(obj *object, _ []any) ([]any, raw.ResultCode) {
	sess := obj.session
	if !sess.locked() {
		return nil, s.fail(raw.VBoxInvalidSessionState, "session is not locked")
	}

	m, _ := s.loadMachine(sess.machineID)
	if sess.lockType != raw.LockTypeShared || !m.State.Online() {
		return result(raw.Null)
	}
	return result(s.newObject(&object{kind: raw.KindConsole, machineID: sess.machineID, session: sess, epoch: sess.epoch}))
}

func (s *SDK) consolePowerDown(obj *object, _ []any) ([]any, raw.ResultCode) {
	m, found := s.loadMachine(obj.machineID)
	if !found {
		return nil, s.fail(raw.VBoxObjectNotFound, "machine %s does not exist anymore", obj.machineID)
	}
	if !m.State.Online() {
		return nil, s.fail(raw.VBoxInvalidVMState, "Invalid machine state: %s (must be Running, Paused or Stuck)", m.State)
	}

	ptr := s.startOperation(m.ID, model.OperationKindPowerDown, fmt.Sprintf("Powering off machine %q", m.Name), false,
		func() (raw.ResultCode, string) {
			s.setState(m.ID, model.MachineStatePoweredOff)
			return raw.OK, ""
		})
	restore := s.transition(m, model.MachineStateStopping)
	op := s.operationOf(ptr)
	op.finish = func() {
		if !op.result.Succeeded() {
			restore()
		}
	}

	return result(ptr)
}

func (s *SDK) snapshotGetParent(obj *object, _ []any) ([]any, raw.ResultCode) {
	snap, _ := s.loadSnapshot(obj.machineID, obj.snapshotID)
	if snap.ParentID == "" {
		return result(raw.Null)
	}

	parent, found := s.loadSnapshot(obj.machineID, snap.ParentID)
	if !found {
		return nil, s.fail(raw.VBoxObjectNotFound, "parent snapshot %s not found", snap.ParentID)
	}
	return result(s.newSnapshotObject(parent))
}

func (s *SDK) snapshotGetChildren(obj *object, _ []any) ([]any, raw.ResultCode) {
	ptrs := []raw.Pointer{}
	for _, snap := range s.loadSnapshots(obj.machineID) {
		if snap.ParentID == obj.snapshotID {
			ptrs = append(ptrs, s.newSnapshotObject(snap))
		}
	}
	return result(ptrs)
}

func (s *SDK) mediumGetID(obj *object, _ []any) ([]any, raw.ResultCode) {
	return result(uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+obj.location)).String())
}

func (s *SDK) mediumGetLocation(obj *object, _ []any) ([]any, raw.ResultCode) {
	return result(obj.location)
}
