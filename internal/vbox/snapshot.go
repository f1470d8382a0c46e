package vbox

import (
	"time"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/raw"
)

// Snapshot is a machine snapshot object.
type Snapshot struct {
	object
	machineID string
}

// ID returns the snapshot UUID.
func (s *Snapshot) ID() (string, error) { return callValue[string](s, raw.MethodSnapshotGetID) }

// Name returns the snapshot name.
func (s *Snapshot) Name() (string, error) { return callValue[string](s, raw.MethodSnapshotGetName) }

// Info reads all the snapshot properties.
func (s *Snapshot) Info() (model.SnapshotInfo, error) {
	info := model.SnapshotInfo{MachineID: s.machineID}

	var err error
	if info.ID, err = s.ID(); err != nil {
		return model.SnapshotInfo{}, err
	}
	if info.Name, err = s.Name(); err != nil {
		return model.SnapshotInfo{}, err
	}
	if info.Description, err = callValue[string](s, raw.MethodSnapshotGetDescription); err != nil {
		return model.SnapshotInfo{}, err
	}
	if info.Online, err = callValue[bool](s, raw.MethodSnapshotGetOnline); err != nil {
		return model.SnapshotInfo{}, err
	}

	ms, err := callValue[int64](s, raw.MethodSnapshotGetTimeStamp)
	if err != nil {
		return model.SnapshotInfo{}, err
	}
	info.CreatedAt = time.UnixMilli(ms).UTC()

	parent, err := s.Parent()
	if err != nil {
		return model.SnapshotInfo{}, err
	}
	if parent != nil {
		info.ParentID, err = parent.ID()
		s.core.releaseAll(parent.handle)
		if err != nil {
			return model.SnapshotInfo{}, err
		}
	}

	return info, nil
}

// Parent returns the parent snapshot, nil for the root snapshot.
func (s *Snapshot) Parent() (*Snapshot, error) {
	h, err := callOptionalObject(s.core, s, raw.MethodSnapshotGetParent, raw.KindSnapshot)
	if err != nil || h == nil {
		return nil, err
	}
	return &Snapshot{object: object{core: s.core, handle: h}, machineID: s.machineID}, nil
}

// Children returns the direct children snapshots.
func (s *Snapshot) Children() ([]*Snapshot, error) {
	hs, err := callObjects(s.core, s, raw.MethodSnapshotGetChildren, raw.KindSnapshot)
	if err != nil {
		return nil, err
	}

	children := make([]*Snapshot, 0, len(hs))
	for _, h := range hs {
		children = append(children, &Snapshot{object: object{core: s.core, handle: h}, machineID: s.machineID})
	}
	return children, nil
}

// walkSnapshots reads the tree rooted at root, parents first. It takes
// ownership of root and releases every snapshot it visits.
func walkSnapshots(root *Snapshot) ([]model.SnapshotInfo, error) {
	infos := []model.SnapshotInfo{}
	pending := []*Snapshot{root}
	defer func() {
		for _, s := range pending {
			s.core.releaseAll(s.handle)
		}
	}()

	for len(pending) > 0 {
		s := pending[0]

		info, err := s.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)

		children, err := s.Children()
		if err != nil {
			return nil, err
		}

		s.core.releaseAll(s.handle)
		pending = append(pending[1:], children...)
	}

	return infos, nil
}
