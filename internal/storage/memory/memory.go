package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

type snapshotEntry struct {
	seq      int
	snapshot model.SnapshotInfo
}

type operationEntry struct {
	seq int
	op  model.Operation
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	machines   map[string]model.MachineInfo
	snapshots  map[string]snapshotEntry
	operations map[string]operationEntry
	seq        int
	mu         sync.RWMutex
	logger     log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		machines:   make(map[string]model.MachineInfo),
		snapshots:  make(map[string]snapshotEntry),
		operations: make(map[string]operationEntry),
		logger:     cfg.Logger,
	}, nil
}

// CreateMachine creates a new machine in the repository.
func (r *Repository) CreateMachine(ctx context.Context, m model.MachineInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid machine: %w", err)
	}

	// Check if ID already exists
	if _, ok := r.machines[m.ID]; ok {
		return fmt.Errorf("machine with id %s: %w", m.ID, model.ErrAlreadyExists)
	}

	// Check if name already exists
	for _, existing := range r.machines {
		if existing.Name == m.Name {
			return fmt.Errorf("machine with name %s: %w", m.Name, model.ErrAlreadyExists)
		}
	}

	r.machines[m.ID] = copyMachine(m)
	r.logger.Debugf("Created machine in repository: %s", m.ID)

	return nil
}

// GetMachine retrieves a machine by ID.
func (r *Repository) GetMachine(ctx context.Context, id string) (*model.MachineInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.machines[id]
	if !ok {
		return nil, fmt.Errorf("machine %s: %w", id, model.ErrNotFound)
	}

	mCopy := copyMachine(m)
	return &mCopy, nil
}

// GetMachineByName retrieves a machine by name.
func (r *Repository) GetMachineByName(ctx context.Context, name string) (*model.MachineInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.machines {
		if m.Name == name {
			mCopy := copyMachine(m)
			return &mCopy, nil
		}
	}

	return nil, fmt.Errorf("machine with name %s: %w", name, model.ErrNotFound)
}

// ListMachines returns all machines sorted by name.
func (r *Repository) ListMachines(ctx context.Context) ([]model.MachineInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	machines := make([]model.MachineInfo, 0, len(r.machines))
	for _, m := range r.machines {
		machines = append(machines, copyMachine(m))
	}
	sort.Slice(machines, func(i, j int) bool { return machines[i].Name < machines[j].Name })

	return machines, nil
}

// UpdateMachine updates an existing machine.
func (r *Repository) UpdateMachine(ctx context.Context, m model.MachineInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.machines[m.ID]; !ok {
		return fmt.Errorf("machine %s: %w", m.ID, model.ErrNotFound)
	}

	for _, existing := range r.machines {
		if existing.ID != m.ID && existing.Name == m.Name {
			return fmt.Errorf("machine with name %s: %w", m.Name, model.ErrAlreadyExists)
		}
	}

	r.machines[m.ID] = copyMachine(m)
	r.logger.Debugf("Updated machine in repository: %s", m.ID)

	return nil
}

// DeleteMachine deletes a machine and its snapshots.
func (r *Repository) DeleteMachine(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.machines[id]; !ok {
		return fmt.Errorf("machine %s: %w", id, model.ErrNotFound)
	}

	delete(r.machines, id)
	for sid, e := range r.snapshots {
		if e.snapshot.MachineID == id {
			delete(r.snapshots, sid)
		}
	}
	r.logger.Debugf("Deleted machine from repository: %s", id)

	return nil
}

// CreateSnapshot creates a new snapshot in the repository.
func (r *Repository) CreateSnapshot(ctx context.Context, s model.SnapshotInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	if _, ok := r.machines[s.MachineID]; !ok {
		return fmt.Errorf("machine %s: %w", s.MachineID, model.ErrNotFound)
	}

	if _, ok := r.snapshots[s.ID]; ok {
		return fmt.Errorf("snapshot with id %s: %w", s.ID, model.ErrAlreadyExists)
	}

	r.seq++
	r.snapshots[s.ID] = snapshotEntry{seq: r.seq, snapshot: s}
	r.logger.Debugf("Created snapshot in repository: %s", s.ID)

	return nil
}

// GetSnapshot retrieves a snapshot by ID.
func (r *Repository) GetSnapshot(ctx context.Context, id string) (*model.SnapshotInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", id, model.ErrNotFound)
	}

	snapshotCopy := e.snapshot
	return &snapshotCopy, nil
}

// ListSnapshots returns the snapshots of a machine, oldest first.
func (r *Repository) ListSnapshots(ctx context.Context, machineID string) ([]model.SnapshotInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := []snapshotEntry{}
	for _, e := range r.snapshots {
		if e.snapshot.MachineID == machineID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	snapshots := make([]model.SnapshotInfo, 0, len(entries))
	for _, e := range entries {
		snapshots = append(snapshots, e.snapshot)
	}

	return snapshots, nil
}

// UpdateSnapshot updates an existing snapshot.
func (r *Repository) UpdateSnapshot(ctx context.Context, s model.SnapshotInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.snapshots[s.ID]
	if !ok {
		return fmt.Errorf("snapshot %s: %w", s.ID, model.ErrNotFound)
	}

	e.snapshot = s
	r.snapshots[s.ID] = e
	r.logger.Debugf("Updated snapshot in repository: %s", s.ID)

	return nil
}

// DeleteSnapshot deletes a snapshot.
func (r *Repository) DeleteSnapshot(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.snapshots[id]; !ok {
		return fmt.Errorf("snapshot %s: %w", id, model.ErrNotFound)
	}

	delete(r.snapshots, id)
	r.logger.Debugf("Deleted snapshot from repository: %s", id)

	return nil
}

// CreateOperation records a new operation.
func (r *Repository) CreateOperation(ctx context.Context, op model.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if op.ID == "" {
		return fmt.Errorf("operation id is required: %w", model.ErrNotValid)
	}

	if _, ok := r.operations[op.ID]; ok {
		return fmt.Errorf("operation with id %s: %w", op.ID, model.ErrAlreadyExists)
	}

	r.seq++
	r.operations[op.ID] = operationEntry{seq: r.seq, op: op}
	r.logger.Debugf("Created operation in repository: %s", op.ID)

	return nil
}

// GetOperation retrieves an operation by ID.
func (r *Repository) GetOperation(ctx context.Context, id string) (*model.Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.operations[id]
	if !ok {
		return nil, fmt.Errorf("operation %s: %w", id, model.ErrNotFound)
	}

	opCopy := e.op
	return &opCopy, nil
}

// ListOperations returns the operations of a machine, all when machineID is empty, newest first.
func (r *Repository) ListOperations(ctx context.Context, machineID string) ([]model.Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := []operationEntry{}
	for _, e := range r.operations {
		if machineID == "" || e.op.MachineID == machineID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	ops := make([]model.Operation, 0, len(entries))
	for _, e := range entries {
		ops = append(ops, e.op)
	}

	return ops, nil
}

// UpdateOperation updates an existing operation.
func (r *Repository) UpdateOperation(ctx context.Context, op model.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.operations[op.ID]
	if !ok {
		return fmt.Errorf("operation %s: %w", op.ID, model.ErrNotFound)
	}

	e.op = op
	r.operations[op.ID] = e
	r.logger.Debugf("Updated operation in repository: %s", op.ID)

	return nil
}

func copyMachine(m model.MachineInfo) model.MachineInfo {
	m.Media = slices.Clone(m.Media)
	m.ExtraData = maps.Clone(m.ExtraData)
	return m
}
