package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default vbx data directory name (relative to home).
	DefaultDataDir = ".vbx"
	// DBFile is the SQLite database filename of the hypervisor inventory.
	DBFile = "vbx.db"
	// ExportsDir is the subdirectory for exported appliances.
	ExportsDir = "exports"
)

// DBPath returns the default database path under a home directory.
func DBPath(homeDir string) string {
	return filepath.Join(homeDir, DefaultDataDir, DBFile)
}

// ExportPath returns the default appliance path of a machine export.
func ExportPath(homeDir, machineName string) string {
	return filepath.Join(homeDir, DefaultDataDir, ExportsDir, machineName+".yaml")
}
