package model

import (
	"fmt"
	"regexp"
	"time"
)

var snapshotNameRegexp = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 ._-]*$`)

// SnapshotInfo is the set of snapshot properties read through a snapshot object.
type SnapshotInfo struct {
	ID          string
	Name        string
	Description string
	MachineID   string
	// ParentID is empty for the root snapshot.
	ParentID  string
	Online    bool
	CreatedAt time.Time
}

// Validate validates the snapshot model.
func (s SnapshotInfo) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("snapshot id is required: %w", ErrNotValid)
	}

	if err := ValidateSnapshotName(s.Name); err != nil {
		return err
	}

	if s.MachineID == "" {
		return fmt.Errorf("snapshot machine id is required: %w", ErrNotValid)
	}

	if s.CreatedAt.IsZero() {
		return fmt.Errorf("created at is required: %w", ErrNotValid)
	}

	return nil
}

// ValidateSnapshotName validates a snapshot friendly name.
func ValidateSnapshotName(name string) error {
	if name == "" {
		return fmt.Errorf("snapshot name is required: %w", ErrNotValid)
	}

	if !snapshotNameRegexp.MatchString(name) {
		return fmt.Errorf("snapshot name %q is invalid (allowed: [a-zA-Z0-9 ._-]): %w", name, ErrNotValid)
	}

	return nil
}
