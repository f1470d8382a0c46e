package model

// Inventory is a set of machines and their snapshots.
type Inventory struct {
	Machines  []MachineInfo
	Snapshots []SnapshotInfo
}

// MachineSnapshots returns the snapshots of a machine in inventory order.
func (i Inventory) MachineSnapshots(machineID string) []SnapshotInfo {
	snaps := []SnapshotInfo{}
	for _, s := range i.Snapshots {
		if s.MachineID == machineID {
			snaps = append(snaps, s)
		}
	}
	return snaps
}
