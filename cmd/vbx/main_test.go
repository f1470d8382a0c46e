package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/vbx/internal/model"
)

const testInventory = `
machines:
  - id: 5d3e4c1a-7f0b-4c52-9a1e-2b8f6d9c0a11
    name: web-1
    os_type: Ubuntu_64
    state: powered-off
    memory_mb: 2048
    cpus: 2
    media: [/vms/web-1/disk.vdi]
    snapshots:
      - id: 7a1b2c3d-0000-4000-8000-000000000001
        name: base
  - id: 6e4f5d2b-8a1c-4d63-ab2f-3c9a7e0d1b22
    name: db-1
    state: running
    memory_mb: 4096
    cpus: 4
`

// runCLI runs the application with global flags pointing to a test database and
// returns the standard output.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	base := []string{
		"vbx", "--no-log",
		"--db-path", filepath.Join(dir, "vbx.db"),
		"--inventory", filepath.Join(dir, "inventory.yaml"),
	}
	err := Run(context.Background(), append(base, args...), strings.NewReader(""), &stdout, &stderr)
	return stdout.String(), err
}

func newTestDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "inventory.yaml"), []byte(testInventory), 0o644)
	require.NoError(t, err)
	return dir
}

func TestRun(t *testing.T) {
	tests := map[string]struct {
		args      []string
		expOut    []string
		expErr    bool
		expErrIs  error
		expErrMsg string
	}{
		"Listing machines should print the inventory.": {
			args:   []string{"list"},
			expOut: []string{"db-1", "web-1", "powered-off", "2.0 GB"},
		},

		"Listing machines filtered by state should print the matching ones.": {
			args:   []string{"list", "--state", "running", "--format", "json"},
			expOut: []string{`"name": "db-1"`},
		},

		"An invalid state filter should fail.": {
			args:      []string{"list", "--state", "flying"},
			expErr:    true,
			expErrMsg: "invalid state filter: flying",
		},

		"The status of a machine should print its details.": {
			args:   []string{"status", "web-1"},
			expOut: []string{"Name:         web-1", "Disk:         /vms/web-1/disk.vdi", "base (current)"},
		},

		"The status of a missing machine should fail as not found.": {
			args:     []string{"status", "nope"},
			expErr:   true,
			expErrIs: model.ErrNotFound,
		},

		"Listing snapshots should print the tree.": {
			args:   []string{"snapshot", "list", "web-1"},
			expOut: []string{"base", "7a1b2c3d-0000-4000-8000-000000000001"},
		},

		"Doctor should pass with the compiled line.": {
			args:   []string{"doctor"},
			expOut: []string{"[ok] sdk_version", "[ok] machines"},
		},

		"Doctor should report a different installed line.": {
			args:      []string{"--sdk-version", "5.2.44", "doctor"},
			expOut:    []string{"[fail] sdk_version"},
			expErr:    true,
			expErrMsg: "preflight checks failed with 1 error(s)",
		},

		"A different installed line should abort the command before running it.": {
			args:     []string{"--sdk-version", "5.2.44", "list"},
			expErr:   true,
			expErrIs: model.ErrVersionMismatch,
		},

		"An invalid sdk version should fail.": {
			args:     []string{"--sdk-version", "seven", "list"},
			expErr:   true,
			expErrIs: model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			out, err := runCLI(t, newTestDir(t), test.args...)
			if test.expErr {
				assert.Error(err)
				if test.expErrIs != nil {
					assert.ErrorIs(err, test.expErrIs)
				}
				if test.expErrMsg != "" {
					assert.Contains(err.Error(), test.expErrMsg)
				}
			} else {
				assert.NoError(err)
			}

			for _, exp := range test.expOut {
				assert.Contains(out, exp)
			}
		})
	}
}

func TestRunMachineLifecycle(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := newTestDir(t)

	// Every run opens the same database, changes persist between commands.
	out, err := runCLI(t, dir, "set", "web-1", "--memory", "1024", "--cpus", "1")
	require.NoError(err)
	assert.Contains(out, "Updated machine: web-1 (memory: 1024 MB, cpus: 1)")

	out, err = runCLI(t, dir, "extradata", "set", "web-1", "owner", "ops")
	require.NoError(err)
	assert.Contains(out, "Set owner=ops")

	out, err = runCLI(t, dir, "snapshot", "create", "web-1", "nightly")
	require.NoError(err)
	assert.Contains(out, "Name:     nightly")

	out, err = runCLI(t, dir, "snapshot", "list", "web-1", "--format", "json")
	require.NoError(err)
	assert.Contains(out, `"name": "nightly"`)

	_, err = runCLI(t, dir, "clone", "web-1", "web-2", "--mode", "all")
	require.NoError(err)

	out, err = runCLI(t, dir, "status", "web-2")
	require.NoError(err)
	assert.Contains(out, "Memory:       1.0 GB")
	assert.Contains(out, "owner=ops")

	exportPath := filepath.Join(dir, "web-1.yaml")
	out, err = runCLI(t, dir, "export", "web-1", exportPath)
	require.NoError(err)
	assert.Contains(out, exportPath)
	assert.FileExists(exportPath)

	_, err = runCLI(t, dir, "snapshot", "restore", "web-1", "base")
	require.NoError(err)

	_, err = runCLI(t, dir, "snapshot", "rm", "web-1", "nightly")
	require.NoError(err)

	out, err = runCLI(t, dir, "rm", "web-2")
	require.NoError(err)
	assert.Contains(out, "Removed machine: web-2")

	out, err = runCLI(t, dir, "list")
	require.NoError(err)
	assert.NotContains(out, "web-2")

	// A running machine can't be removed.
	_, err = runCLI(t, dir, "rm", "db-1")
	assert.ErrorIs(err, model.ErrNotValid)

	out, err = runCLI(t, dir, "stop", "db-1")
	require.NoError(err)
	assert.Contains(out, "Stopped machine db-1")

	_, err = runCLI(t, dir, "stop", "db-1")
	assert.ErrorIs(err, model.ErrNotValid)

	out, err = runCLI(t, dir, "rm", "db-1")
	require.NoError(err)
	assert.Contains(out, "Removed machine: db-1")
}
