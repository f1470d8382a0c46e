package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/vbx/internal/log"
	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db, Logger: cfg.Logger})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	version, dirty, err := migrator.Version(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if dirty {
		db.Close()
		return nil, fmt.Errorf("schema version %d is dirty, a migration failed halfway", version)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s (schema version %d)", cfg.DBPath, version)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

const machineColumns = `
	id, name, description, os_type_id, state,
	memory_mb, cpu_count, current_snapshot_id,
	media, extra_data, last_state_change
`

// CreateMachine creates a new machine in the repository.
func (r *Repository) CreateMachine(ctx context.Context, m model.MachineInfo) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid machine: %w", err)
	}

	media, extraData, err := encodeMachineCollections(m)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO machines (` + machineColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		m.ID,
		m.Name,
		m.Description,
		m.OSTypeID,
		m.State,
		m.MemoryMB,
		m.CPUCount,
		m.CurrentSnapshotID,
		media,
		extraData,
		m.LastStateChange.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: machines.") {
			return fmt.Errorf("machine already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert machine: %w", err)
	}

	r.logger.Debugf("Created machine in repository: %s", m.ID)
	return nil
}

// GetMachine retrieves a machine by ID.
func (r *Repository) GetMachine(ctx context.Context, id string) (*model.MachineInfo, error) {
	query := `SELECT ` + machineColumns + ` FROM machines WHERE id = ?`

	m, err := r.scanMachine(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("machine %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query machine: %w", err)
	}

	return &m, nil
}

// GetMachineByName retrieves a machine by name.
func (r *Repository) GetMachineByName(ctx context.Context, name string) (*model.MachineInfo, error) {
	query := `SELECT ` + machineColumns + ` FROM machines WHERE name = ?`

	m, err := r.scanMachine(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("machine with name %s: %w", name, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query machine: %w", err)
	}

	return &m, nil
}

// ListMachines returns all machines sorted by name.
func (r *Repository) ListMachines(ctx context.Context) ([]model.MachineInfo, error) {
	query := `SELECT ` + machineColumns + ` FROM machines ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query machines: %w", err)
	}
	defer rows.Close()

	machines := []model.MachineInfo{}
	for rows.Next() {
		m, err := r.scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		machines = append(machines, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return machines, nil
}

// UpdateMachine updates an existing machine.
func (r *Repository) UpdateMachine(ctx context.Context, m model.MachineInfo) error {
	media, extraData, err := encodeMachineCollections(m)
	if err != nil {
		return err
	}

	query := `
		UPDATE machines
		SET
			name = ?,
			description = ?,
			os_type_id = ?,
			state = ?,
			memory_mb = ?,
			cpu_count = ?,
			current_snapshot_id = ?,
			media = ?,
			extra_data = ?,
			last_state_change = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		m.Name,
		m.Description,
		m.OSTypeID,
		m.State,
		m.MemoryMB,
		m.CPUCount,
		m.CurrentSnapshotID,
		media,
		extraData,
		m.LastStateChange.UnixMilli(),
		m.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: machines.") {
			return fmt.Errorf("machine with name %s: %w", m.Name, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not update machine: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("machine %s: %w", m.ID, model.ErrNotFound)
	}

	r.logger.Debugf("Updated machine in repository: %s", m.ID)
	return nil
}

// DeleteMachine deletes a machine, its snapshots are deleted by cascade.
func (r *Repository) DeleteMachine(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM machines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete machine: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("machine %s: %w", id, model.ErrNotFound)
	}

	r.logger.Debugf("Deleted machine from repository: %s", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanMachine(s scanner) (model.MachineInfo, error) {
	var m model.MachineInfo
	var media, extraData string
	var lastStateChange int64

	err := s.Scan(
		&m.ID,
		&m.Name,
		&m.Description,
		&m.OSTypeID,
		&m.State,
		&m.MemoryMB,
		&m.CPUCount,
		&m.CurrentSnapshotID,
		&media,
		&extraData,
		&lastStateChange,
	)
	if err != nil {
		return model.MachineInfo{}, err
	}

	if err := json.Unmarshal([]byte(media), &m.Media); err != nil {
		return model.MachineInfo{}, fmt.Errorf("invalid media column: %w", err)
	}
	if err := json.Unmarshal([]byte(extraData), &m.ExtraData); err != nil {
		return model.MachineInfo{}, fmt.Errorf("invalid extra data column: %w", err)
	}
	m.LastStateChange = timeFromUnixMilli(lastStateChange)

	return m, nil
}

func encodeMachineCollections(m model.MachineInfo) (media, extraData string, err error) {
	if m.Media == nil {
		m.Media = []string{}
	}
	if m.ExtraData == nil {
		m.ExtraData = map[string]string{}
	}

	mediaJSON, err := json.Marshal(m.Media)
	if err != nil {
		return "", "", fmt.Errorf("could not encode media: %w", err)
	}
	extraDataJSON, err := json.Marshal(m.ExtraData)
	if err != nil {
		return "", "", fmt.Errorf("could not encode extra data: %w", err)
	}

	return string(mediaJSON), string(extraDataJSON), nil
}

func timeFromUnixMilli(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
