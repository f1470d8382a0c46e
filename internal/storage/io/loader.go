package io

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/slok/vbx/internal/model"
)

// InventoryYAMLRepository loads machine inventories from YAML files.
type InventoryYAMLRepository struct {
	fs fs.FS
}

// NewInventoryYAMLRepository creates a new YAML inventory repository.
func NewInventoryYAMLRepository(filesystem fs.FS) *InventoryYAMLRepository {
	return &InventoryYAMLRepository{fs: filesystem}
}

// GetInventory loads an inventory from a YAML file and returns a validated domain model.
func (r *InventoryYAMLRepository) GetInventory(ctx context.Context, path string) (model.Inventory, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Inventory{}, fmt.Errorf("reading inventory file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Inventory{}, ctx.Err()
	}

	return DecodeInventory(data)
}

// DecodeInventory parses a YAML inventory. Missing IDs are generated.
func DecodeInventory(data []byte) (model.Inventory, error) {
	var inv InventoryConfig
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return model.Inventory{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := inv.validate(); err != nil {
		return model.Inventory{}, fmt.Errorf("invalid inventory: %w", err)
	}

	return inv.toModel()
}

// EncodeInventory renders an inventory as YAML, the format DecodeInventory reads.
func EncodeInventory(inv model.Inventory) ([]byte, error) {
	cfg := InventoryConfig{}
	for _, m := range inv.Machines {
		cfg.Machines = append(cfg.Machines, machineConfigFromModel(m, inv.MachineSnapshots(m.ID)))
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("rendering YAML: %w", err)
	}
	return data, nil
}

// InventoryConfig represents the YAML structure of an inventory.
type InventoryConfig struct {
	Machines []MachineConfig `yaml:"machines"`
}

// MachineConfig represents the YAML structure of a machine.
type MachineConfig struct {
	ID          string            `yaml:"id,omitempty"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	OSType      string            `yaml:"os_type,omitempty"`
	State       string            `yaml:"state,omitempty"`
	MemoryMB    uint32            `yaml:"memory_mb"`
	CPUs        uint32            `yaml:"cpus"`
	Media       []string          `yaml:"media,omitempty"`
	ExtraData   map[string]string `yaml:"extra_data,omitempty"`
	Snapshots   []SnapshotConfig  `yaml:"snapshots,omitempty"`
	// CurrentSnapshot is the name or ID of the current snapshot, the last one by default.
	CurrentSnapshot string `yaml:"current_snapshot,omitempty"`
}

// SnapshotConfig represents the YAML structure of a snapshot and its children.
type SnapshotConfig struct {
	ID          string           `yaml:"id,omitempty"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Online      bool             `yaml:"online,omitempty"`
	CreatedAt   time.Time        `yaml:"created_at,omitempty"`
	Children    []SnapshotConfig `yaml:"children,omitempty"`
}

var validStates = map[model.MachineState]bool{
	model.MachineStatePoweredOff: true,
	model.MachineStateSaved:      true,
	model.MachineStateAborted:    true,
	model.MachineStateRunning:    true,
	model.MachineStatePaused:     true,
}

func (c InventoryConfig) validate() error {
	names := map[string]bool{}
	for i, m := range c.Machines {
		if m.Name == "" {
			return fmt.Errorf("machine %d: name is required", i)
		}
		if names[m.Name] {
			return fmt.Errorf("machine %q is repeated", m.Name)
		}
		names[m.Name] = true

		if m.State != "" && !validStates[model.MachineState(m.State)] {
			return fmt.Errorf("machine %q: invalid state %q", m.Name, m.State)
		}
		if m.MemoryMB == 0 {
			return fmt.Errorf("machine %q: memory_mb must be positive", m.Name)
		}
		if m.CPUs == 0 {
			return fmt.Errorf("machine %q: cpus must be positive", m.Name)
		}
	}
	return nil
}

func (c InventoryConfig) toModel() (model.Inventory, error) {
	now := time.Now().UTC()
	inv := model.Inventory{Machines: []model.MachineInfo{}, Snapshots: []model.SnapshotInfo{}}

	for _, mc := range c.Machines {
		m := model.MachineInfo{
			ID:              orNewID(mc.ID),
			Name:            mc.Name,
			Description:     mc.Description,
			OSTypeID:        mc.OSType,
			State:           model.MachineState(mc.State),
			MemoryMB:        mc.MemoryMB,
			CPUCount:        mc.CPUs,
			Media:           mc.Media,
			ExtraData:       mc.ExtraData,
			LastStateChange: now,
		}
		if m.State == "" {
			m.State = model.MachineStatePoweredOff
		}
		if m.OSTypeID == "" {
			m.OSTypeID = "Other_64"
		}
		if m.ExtraData == nil {
			m.ExtraData = map[string]string{}
		}

		snaps := flattenSnapshots(m.ID, "", mc.Snapshots, now)
		for _, s := range snaps {
			if err := s.Validate(); err != nil {
				return model.Inventory{}, fmt.Errorf("machine %q: %w", m.Name, err)
			}
			if mc.CurrentSnapshot != "" && (s.Name == mc.CurrentSnapshot || s.ID == mc.CurrentSnapshot) {
				m.CurrentSnapshotID = s.ID
			}
		}
		if mc.CurrentSnapshot != "" && m.CurrentSnapshotID == "" {
			return model.Inventory{}, fmt.Errorf("machine %q: current snapshot %q: %w", m.Name, mc.CurrentSnapshot, model.ErrNotFound)
		}
		if m.CurrentSnapshotID == "" && len(snaps) > 0 {
			m.CurrentSnapshotID = snaps[len(snaps)-1].ID
		}
		m.SnapshotCount = uint32(len(snaps))

		if err := m.Validate(); err != nil {
			return model.Inventory{}, err
		}

		inv.Machines = append(inv.Machines, m)
		inv.Snapshots = append(inv.Snapshots, snaps...)
	}

	return inv, nil
}

// flattenSnapshots returns the snapshot tree parents first.
func flattenSnapshots(machineID, parentID string, cfgs []SnapshotConfig, now time.Time) []model.SnapshotInfo {
	snaps := []model.SnapshotInfo{}
	for _, sc := range cfgs {
		s := model.SnapshotInfo{
			ID:          orNewID(sc.ID),
			Name:        sc.Name,
			Description: sc.Description,
			MachineID:   machineID,
			ParentID:    parentID,
			Online:      sc.Online,
			CreatedAt:   sc.CreatedAt.UTC(),
		}
		if sc.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		snaps = append(snaps, s)
		snaps = append(snaps, flattenSnapshots(machineID, s.ID, sc.Children, now)...)
	}
	return snaps
}

func machineConfigFromModel(m model.MachineInfo, snaps []model.SnapshotInfo) MachineConfig {
	return MachineConfig{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		OSType:          m.OSTypeID,
		State:           string(m.State),
		MemoryMB:        m.MemoryMB,
		CPUs:            m.CPUCount,
		Media:           m.Media,
		ExtraData:       m.ExtraData,
		Snapshots:       snapshotTree("", snaps),
		CurrentSnapshot: m.CurrentSnapshotID,
	}
}

func snapshotTree(parentID string, snaps []model.SnapshotInfo) []SnapshotConfig {
	var cfgs []SnapshotConfig
	for _, s := range snaps {
		if s.ParentID != parentID {
			continue
		}
		cfgs = append(cfgs, SnapshotConfig{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Online:      s.Online,
			CreatedAt:   s.CreatedAt,
			Children:    snapshotTree(s.ID, snaps),
		})
	}
	return cfgs
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
