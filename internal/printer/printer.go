package printer

import "github.com/slok/vbx/internal/model"

// Printer knows how to print machine information in different formats.
type Printer interface {
	PrintList(machines []model.MachineInfo) error
	PrintStatus(details model.MachineDetails) error
	PrintSnapshotList(snapshots []model.SnapshotInfo) error
	PrintChecks(results []model.CheckResult) error
	PrintMessage(msg string) error
}
