package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/slok/vbx/internal/model"
)

const operationColumns = `
	id, machine_id, kind, description, status,
	result_code, error, created_at, completed_at
`

// CreateOperation records a new operation.
func (r *Repository) CreateOperation(ctx context.Context, op model.Operation) error {
	if op.ID == "" {
		return fmt.Errorf("operation id is required: %w", model.ErrNotValid)
	}

	query := `
		INSERT INTO operations (` + operationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		op.ID,
		op.MachineID,
		op.Kind,
		op.Description,
		op.Status,
		op.ResultCode,
		op.Error,
		op.CreatedAt.UnixMilli(),
		completedAtColumn(op),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: operations.") {
			return fmt.Errorf("operation already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert operation: %w", err)
	}

	r.logger.Debugf("Created operation in repository: %s", op.ID)
	return nil
}

// GetOperation retrieves an operation by ID.
func (r *Repository) GetOperation(ctx context.Context, id string) (*model.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE id = ?`

	op, err := scanOperation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("operation %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query operation: %w", err)
	}

	return &op, nil
}

// ListOperations returns the operations of a machine, all when machineID is empty, newest first.
func (r *Repository) ListOperations(ctx context.Context, machineID string) ([]model.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE ? = '' OR machine_id = ?
		ORDER BY seq DESC
	`

	rows, err := r.db.QueryContext(ctx, query, machineID, machineID)
	if err != nil {
		return nil, fmt.Errorf("could not query operations: %w", err)
	}
	defer rows.Close()

	ops := []model.Operation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ops, nil
}

// UpdateOperation updates an existing operation.
func (r *Repository) UpdateOperation(ctx context.Context, op model.Operation) error {
	query := `
		UPDATE operations
		SET
			status = ?,
			result_code = ?,
			error = ?,
			completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, op.Status, op.ResultCode, op.Error, completedAtColumn(op), op.ID)
	if err != nil {
		return fmt.Errorf("could not update operation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("operation %s: %w", op.ID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated operation in repository: %s (%s)", op.ID, op.Status)
	return nil
}

func completedAtColumn(op model.Operation) *int64 {
	if op.CompletedAt == nil {
		return nil
	}
	ms := op.CompletedAt.UnixMilli()
	return &ms
}

func scanOperation(s scanner) (model.Operation, error) {
	var op model.Operation
	var createdAt int64
	var completedAt sql.NullInt64

	err := s.Scan(
		&op.ID,
		&op.MachineID,
		&op.Kind,
		&op.Description,
		&op.Status,
		&op.ResultCode,
		&op.Error,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		return model.Operation{}, err
	}

	op.CreatedAt = timeFromUnixMilli(createdAt)
	if completedAt.Valid {
		t := timeFromUnixMilli(completedAt.Int64)
		op.CompletedAt = &t
	}

	return op, nil
}
