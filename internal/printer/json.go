package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/vbx/internal/model"
)

// JSONPrinter prints machine information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// listItem represents a machine in the list output (subset of fields).
type listItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	State         string `json:"state"`
	SessionState  string `json:"session_state"`
	CPUCount      uint32 `json:"cpu_count"`
	MemoryMB      uint32 `json:"memory_mb"`
	SnapshotCount uint32 `json:"snapshot_count"`
}

// statusOutput represents the full machine status output.
type statusOutput struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	OSTypeID          string            `json:"os_type_id"`
	State             string            `json:"state"`
	SessionState      string            `json:"session_state"`
	CPUCount          uint32            `json:"cpu_count"`
	MemoryMB          uint32            `json:"memory_mb"`
	CurrentSnapshotID string            `json:"current_snapshot_id,omitempty"`
	Media             []string          `json:"media"`
	ExtraData         map[string]string `json:"extra_data"`
	LastStateChange   *time.Time        `json:"last_state_change"`
	Snapshots         []snapshotOutput  `json:"snapshots"`
	Operations        []operationOutput `json:"operations"`
}

type snapshotOutput struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentID    string    `json:"parent_id,omitempty"`
	Online      bool      `json:"online"`
	CreatedAt   time.Time `json:"created_at"`
}

type operationOutput struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	ResultCode  uint32     `json:"result_code"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type checkOutput struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintList prints machines in JSON format with a subset of fields.
func (j *JSONPrinter) PrintList(machines []model.MachineInfo) error {
	items := make([]listItem, len(machines))
	for i, m := range machines {
		items[i] = listItem{
			ID:            m.ID,
			Name:          m.Name,
			State:         string(m.State),
			SessionState:  string(m.SessionState),
			CPUCount:      m.CPUCount,
			MemoryMB:      m.MemoryMB,
			SnapshotCount: m.SnapshotCount,
		}
	}

	return j.encode(items)
}

// PrintStatus prints detailed machine status in JSON format.
func (j *JSONPrinter) PrintStatus(details model.MachineDetails) error {
	m := details.Machine
	output := statusOutput{
		ID:                m.ID,
		Name:              m.Name,
		Description:       m.Description,
		OSTypeID:          m.OSTypeID,
		State:             string(m.State),
		SessionState:      string(m.SessionState),
		CPUCount:          m.CPUCount,
		MemoryMB:          m.MemoryMB,
		CurrentSnapshotID: m.CurrentSnapshotID,
		Media:             m.Media,
		ExtraData:         m.ExtraData,
		Snapshots:         toSnapshotOutputs(details.Snapshots),
		Operations:        make([]operationOutput, 0, len(details.Operations)),
	}
	if output.Media == nil {
		output.Media = []string{}
	}
	if output.ExtraData == nil {
		output.ExtraData = map[string]string{}
	}

	if !m.LastStateChange.IsZero() {
		utcTime := m.LastStateChange.UTC()
		output.LastStateChange = &utcTime
	}

	for _, op := range details.Operations {
		o := operationOutput{
			ID:         op.ID,
			Kind:       string(op.Kind),
			Status:     string(op.Status),
			ResultCode: op.ResultCode,
			Error:      op.Error,
			CreatedAt:  op.CreatedAt.UTC(),
		}
		if op.CompletedAt != nil {
			utcTime := op.CompletedAt.UTC()
			o.CompletedAt = &utcTime
		}
		output.Operations = append(output.Operations, o)
	}

	return j.encode(output)
}

// PrintSnapshotList prints snapshots in JSON format.
func (j *JSONPrinter) PrintSnapshotList(snapshots []model.SnapshotInfo) error {
	return j.encode(toSnapshotOutputs(snapshots))
}

// PrintChecks prints doctor check results in JSON format.
func (j *JSONPrinter) PrintChecks(results []model.CheckResult) error {
	items := make([]checkOutput, len(results))
	for i, r := range results {
		items[i] = checkOutput{ID: r.ID, Status: string(r.Status), Message: r.Message}
	}

	return j.encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func toSnapshotOutputs(snapshots []model.SnapshotInfo) []snapshotOutput {
	out := make([]snapshotOutput, len(snapshots))
	for i, s := range snapshots {
		out[i] = snapshotOutput{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			ParentID:    s.ParentID,
			Online:      s.Online,
			CreatedAt:   s.CreatedAt.UTC(),
		}
	}
	return out
}
