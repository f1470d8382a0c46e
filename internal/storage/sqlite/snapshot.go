package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/slok/vbx/internal/model"
)

const snapshotColumns = `id, machine_id, parent_id, name, description, online, created_at`

// CreateSnapshot creates a new snapshot in the repository.
func (r *Repository) CreateSnapshot(ctx context.Context, s model.SnapshotInfo) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	query := `
		INSERT INTO snapshots (` + snapshotColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.MachineID,
		s.ParentID,
		s.Name,
		s.Description,
		s.Online,
		s.CreatedAt.UnixMilli(),
	)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "UNIQUE constraint failed: snapshots."):
			return fmt.Errorf("snapshot already exists: %w", model.ErrAlreadyExists)
		case strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
			return fmt.Errorf("machine %s: %w", s.MachineID, model.ErrNotFound)
		}
		return fmt.Errorf("could not insert snapshot: %w", err)
	}

	r.logger.Debugf("Created snapshot in repository: %s", s.ID)
	return nil
}

// GetSnapshot retrieves a snapshot by ID.
func (r *Repository) GetSnapshot(ctx context.Context, id string) (*model.SnapshotInfo, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE id = ?`

	s, err := scanSnapshot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("snapshot %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query snapshot: %w", err)
	}

	return &s, nil
}

// ListSnapshots returns the snapshots of a machine, oldest first.
func (r *Repository) ListSnapshots(ctx context.Context, machineID string) ([]model.SnapshotInfo, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE machine_id = ? ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, machineID)
	if err != nil {
		return nil, fmt.Errorf("could not query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []model.SnapshotInfo{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return snapshots, nil
}

// UpdateSnapshot updates an existing snapshot.
func (r *Repository) UpdateSnapshot(ctx context.Context, s model.SnapshotInfo) error {
	query := `
		UPDATE snapshots
		SET
			parent_id = ?,
			name = ?,
			description = ?,
			online = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, s.ParentID, s.Name, s.Description, s.Online, s.ID)
	if err != nil {
		return fmt.Errorf("could not update snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("snapshot %s: %w", s.ID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated snapshot in repository: %s", s.ID)
	return nil
}

// DeleteSnapshot deletes a snapshot.
func (r *Repository) DeleteSnapshot(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("snapshot %s: %w", id, model.ErrNotFound)
	}

	r.logger.Debugf("Deleted snapshot from repository: %s", id)
	return nil
}

func scanSnapshot(s scanner) (model.SnapshotInfo, error) {
	var snap model.SnapshotInfo
	var createdAt int64

	err := s.Scan(
		&snap.ID,
		&snap.MachineID,
		&snap.ParentID,
		&snap.Name,
		&snap.Description,
		&snap.Online,
		&createdAt,
	)
	if err != nil {
		return model.SnapshotInfo{}, err
	}
	snap.CreatedAt = timeFromUnixMilli(createdAt)

	return snap, nil
}
