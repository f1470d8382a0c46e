package printer

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/slok/vbx/internal/model"
)

// TablePrinter prints machine information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintList prints machines in a table format.
func (t *TablePrinter) PrintList(machines []model.MachineInfo) error {
	if len(machines) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tSTATE\tSESSION\tCPUS\tMEMORY\tSNAPSHOTS")

	for _, m := range machines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\n",
			m.Name,
			m.State,
			m.SessionState,
			m.CPUCount,
			FormatMemoryMB(m.MemoryMB),
			m.SnapshotCount,
		)
	}

	return nil
}

// PrintStatus prints detailed machine status.
func (t *TablePrinter) PrintStatus(details model.MachineDetails) error {
	m := details.Machine
	fmt.Fprintf(t.writer, "Name:         %s\n", m.Name)
	fmt.Fprintf(t.writer, "ID:           %s\n", m.ID)
	if m.Description != "" {
		fmt.Fprintf(t.writer, "Description:  %s\n", m.Description)
	}
	fmt.Fprintf(t.writer, "OS type:      %s\n", m.OSTypeID)
	fmt.Fprintf(t.writer, "State:        %s\n", m.State)
	fmt.Fprintf(t.writer, "Session:      %s\n", m.SessionState)
	fmt.Fprintf(t.writer, "CPUs:         %d\n", m.CPUCount)
	fmt.Fprintf(t.writer, "Memory:       %s\n", FormatMemoryMB(m.MemoryMB))
	if !m.LastStateChange.IsZero() {
		fmt.Fprintf(t.writer, "State change: %s\n", FormatTimestamp(m.LastStateChange))
	}

	for _, media := range m.Media {
		fmt.Fprintf(t.writer, "Disk:         %s\n", media)
	}

	if len(m.ExtraData) > 0 {
		keys := make([]string, 0, len(m.ExtraData))
		for k := range m.ExtraData {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(t.writer, "\nExtra data:\n")
		for _, k := range keys {
			fmt.Fprintf(t.writer, "  %s=%s\n", k, m.ExtraData[k])
		}
	}

	if len(details.Snapshots) > 0 {
		fmt.Fprintf(t.writer, "\nSnapshots:\n")
		for _, s := range details.Snapshots {
			current := ""
			if s.ID == m.CurrentSnapshotID {
				current = " (current)"
			}
			fmt.Fprintf(t.writer, "  %s%s\n", s.Name, current)
		}
	}

	if len(details.Operations) > 0 {
		fmt.Fprintf(t.writer, "\nOperations:\n")
		tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
		now := time.Now()
		for _, op := range details.Operations {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", op.Kind, op.Status, Age(op.CreatedAt, now), OperationTook(op))
		}
		tw.Flush()
	}

	return nil
}

// PrintSnapshotList prints snapshots in a table format.
func (t *TablePrinter) PrintSnapshotList(snapshots []model.SnapshotInfo) error {
	if len(snapshots) == 0 {
		return nil
	}

	// Parents are listed before their children.
	depth := map[string]int{}
	for _, s := range snapshots {
		if s.ParentID != "" {
			depth[s.ID] = depth[s.ParentID] + 1
		}
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tID\tONLINE\tCREATED")

	now := time.Now()

	for _, s := range snapshots {
		online := "no"
		if s.Online {
			online = "yes"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\n",
			strings.Repeat("  ", depth[s.ID]),
			s.Name,
			s.ID,
			online,
			Age(s.CreatedAt, now),
		)
	}

	return nil
}

// PrintChecks prints doctor check results with status icons and a summary.
func (t *TablePrinter) PrintChecks(results []model.CheckResult) error {
	for _, r := range results {
		fmt.Fprintf(t.writer, "%s %s: %s\n", checkIcon(r.Status), r.ID, r.Message)
	}

	sum := model.SummarizeChecks(results)
	fmt.Fprintf(t.writer, "\n%d passed, %d warnings, %d errors\n", sum.OK, sum.Warnings, sum.Errors)

	return nil
}

func checkIcon(s model.CheckStatus) string {
	switch s {
	case model.CheckStatusOK:
		return "[ok]"
	case model.CheckStatusWarning:
		return "[warn]"
	case model.CheckStatusError:
		return "[fail]"
	}
	return "[?]"
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
