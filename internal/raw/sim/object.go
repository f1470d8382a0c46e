package sim

import (
	"context"
	"slices"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// object is a reference counted foreign object.
type object struct {
	kind raw.Kind
	refs uint32

	// machineID is set on machine and snapshot objects.
	machineID  string
	snapshotID string
	location   string
	opID       string

	// session is set on session objects and on the machine and console objects
	// obtained from a locked session. Those are only valid during the lock epoch
	// they were made in.
	session *session
	epoch   uint64
}

func (s *SDK) newObject(obj *object) raw.Pointer {
	obj.refs = 1
	p := s.nextPtr
	s.nextPtr += 0x10
	s.objects[p] = obj
	return p
}

// object resolves a pointer, stale objects are reported as disconnected.
func (s *SDK) object(p raw.Pointer) (*object, raw.ResultCode) {
	if s.dead {
		return nil, raw.RPCServerDied
	}

	obj, ok := s.objects[p]
	if !ok {
		return nil, s.fail(raw.RPCDisconnected, "object %s does not exist", p)
	}

	switch obj.kind {
	case raw.KindMachine:
		if obj.session != nil && (!obj.session.locked() || obj.session.epoch != obj.epoch || obj.session.machineID != obj.machineID) {
			return nil, s.fail(raw.RPCDisconnected, "session machine %s is no longer locked", obj.machineID)
		}
		if _, ok := s.loadMachine(obj.machineID); !ok {
			return nil, s.fail(raw.RPCDisconnected, "machine %s does not exist anymore", obj.machineID)
		}
	case raw.KindConsole:
		if !obj.session.locked() || obj.session.epoch != obj.epoch {
			return nil, s.fail(raw.RPCDisconnected, "console of machine %s is no longer available", obj.machineID)
		}
	case raw.KindSnapshot:
		if _, ok := s.loadSnapshot(obj.machineID, obj.snapshotID); !ok {
			return nil, s.fail(raw.RPCDisconnected, "snapshot %s does not exist anymore", obj.snapshotID)
		}
	}

	return obj, raw.OK
}

// typedObject resolves a pointer of an expected kind.
func (s *SDK) typedObject(p raw.Pointer, kind raw.Kind) (*object, raw.ResultCode) {
	obj, code := s.object(p)
	if code != raw.OK {
		return nil, code
	}
	if obj.kind != kind {
		return nil, s.fail(raw.ENoInterface, "object %s is %s, not %s", p, obj.kind, kind)
	}
	return obj, raw.OK
}

// loadMachine returns a registered or detached machine.
func (s *SDK) loadMachine(id string) (model.MachineInfo, bool) {
	if d, ok := s.detached[id]; ok {
		return d.info, true
	}

	m, err := s.repo.GetMachine(context.Background(), id)
	if err != nil {
		return model.MachineInfo{}, false
	}
	return *m, true
}

// registered returns true when the machine is in the registry.
func (s *SDK) registered(id string) bool {
	_, err := s.repo.GetMachine(context.Background(), id)
	return err == nil
}

// storeMachine persists a machine wherever it lives.
func (s *SDK) storeMachine(m model.MachineInfo) raw.ResultCode {
	if d, ok := s.detached[m.ID]; ok {
		d.info = m
		return raw.OK
	}

	if err := s.repo.UpdateMachine(context.Background(), m); err != nil {
		return s.fail(raw.VBoxFileError, "could not save machine %q settings: %s", m.Name, err)
	}
	return raw.OK
}

func (s *SDK) loadSnapshots(machineID string) []model.SnapshotInfo {
	if d, ok := s.detached[machineID]; ok {
		return slices.Clone(d.snapshots)
	}

	snaps, err := s.repo.ListSnapshots(context.Background(), machineID)
	if err != nil {
		s.logger.Errorf("Could not list snapshots of machine %s: %s", machineID, err)
		return nil
	}
	return snaps
}

func (s *SDK) loadSnapshot(machineID, id string) (model.SnapshotInfo, bool) {
	for _, snap := range s.loadSnapshots(machineID) {
		if snap.ID == id {
			return snap, true
		}
	}
	return model.SnapshotInfo{}, false
}

// findMachine finds a registered machine by name or ID.
func (s *SDK) findMachine(nameOrID string) (model.MachineInfo, bool) {
	ctx := context.Background()
	if m, err := s.repo.GetMachine(ctx, nameOrID); err == nil {
		return *m, true
	}
	if m, err := s.repo.GetMachineByName(ctx, nameOrID); err == nil {
		return *m, true
	}
	return model.MachineInfo{}, false
}

// findSnapshot finds a snapshot of a machine by name or ID, the root one when empty.
func (s *SDK) findSnapshot(machineID, nameOrID string) (model.SnapshotInfo, bool) {
	for _, snap := range s.loadSnapshots(machineID) {
		if nameOrID == "" && snap.ParentID == "" {
			return snap, true
		}
		if nameOrID != "" && (snap.ID == nameOrID || snap.Name == nameOrID) {
			return snap, true
		}
	}
	return model.SnapshotInfo{}, false
}

// machineView returns the machine as seen by an object, with the unsaved settings
// on top for write locked session machines.
func (s *SDK) machineView(obj *object) model.MachineInfo {
	m, _ := s.loadMachine(obj.machineID)
	if obj.session != nil && obj.session.draft != nil {
		return obj.session.draft.applyTo(m)
	}
	return m
}

func (s *SDK) newMachineObject(id string) raw.Pointer {
	return s.newObject(&object{kind: raw.KindMachine, machineID: id})
}

func (s *SDK) newSnapshotObject(snap model.SnapshotInfo) raw.Pointer {
	return s.newObject(&object{kind: raw.KindSnapshot, machineID: snap.MachineID, snapshotID: snap.ID})
}

var machineStatesToRaw = map[model.MachineState]raw.MachineState{
	model.MachineStatePoweredOff:       raw.MachineStatePoweredOff,
	model.MachineStateSaved:            raw.MachineStateSaved,
	model.MachineStateAborted:          raw.MachineStateAborted,
	model.MachineStateRunning:          raw.MachineStateRunning,
	model.MachineStatePaused:           raw.MachineStatePaused,
	model.MachineStateStuck:            raw.MachineStateStuck,
	model.MachineStateStarting:         raw.MachineStateStarting,
	model.MachineStateStopping:         raw.MachineStateStopping,
	model.MachineStateSaving:           raw.MachineStateSaving,
	model.MachineStateRestoring:        raw.MachineStateRestoring,
	model.MachineStateSnapshotting:     raw.MachineStateSnapshotting,
	model.MachineStateDeletingSnapshot: raw.MachineStateDeletingSnapshot,
	model.MachineStateSettingUp:        raw.MachineStateSettingUp,
}

func machineStateToRaw(s model.MachineState) raw.MachineState {
	if rs, ok := machineStatesToRaw[s]; ok {
		return rs
	}
	return raw.MachineStateNull
}
