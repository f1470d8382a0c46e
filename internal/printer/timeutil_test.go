package printer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/vbx/internal/model"
	"github.com/slok/vbx/internal/printer"
)

func TestAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		t      time.Time
		expAge string
	}{
		"An unset time should be a dash.": {
			t:      time.Time{},
			expAge: "-",
		},

		"A time under a second ago should be just now.": {
			t:      now.Add(-300 * time.Millisecond),
			expAge: "just now",
		},

		"A time after now should be just now.": {
			t:      now.Add(2 * time.Minute),
			expAge: "just now",
		},

		"Seconds should be printed as seconds.": {
			t:      now.Add(-45 * time.Second),
			expAge: "45s ago",
		},

		"Minutes should be truncated.": {
			t:      now.Add(-(3*time.Minute + 59*time.Second)),
			expAge: "3m ago",
		},

		"A snapshot taken yesterday should be a day old.": {
			t:      now.Add(-25 * time.Hour),
			expAge: "1d ago",
		},

		"Old snapshots should be printed in weeks.": {
			t:      now.Add(-15 * 24 * time.Hour),
			expAge: "2w ago",
		},

		"Times in other zones should be compared as instants.": {
			t:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("EST", -5*3600)),
			expAge: "2h ago",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expAge, printer.Age(test.t, now))
		})
	}
}

func TestOperationTook(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	completedAt := createdAt.Add(90 * time.Second)
	fast := createdAt.Add(200 * time.Millisecond)

	tests := map[string]struct {
		op     model.Operation
		expOut string
	}{
		"A running operation should not have a duration.": {
			op:     model.Operation{Status: model.ProgressStatusRunning, CreatedAt: createdAt},
			expOut: "-",
		},

		"A finished operation should print its duration.": {
			op:     model.Operation{Status: model.ProgressStatusSucceeded, CreatedAt: createdAt, CompletedAt: &completedAt},
			expOut: "1m",
		},

		"An operation finished within a second should take 0s.": {
			op:     model.Operation{Status: model.ProgressStatusFailed, CreatedAt: createdAt, CompletedAt: &fast},
			expOut: "0s",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expOut, printer.OperationTook(test.op))
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := map[string]struct {
		t      time.Time
		expOut string
	}{
		"A machine state change in UTC should be printed as is.": {
			t:      time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC),
			expOut: "2026-01-10 10:00:00 UTC",
		},

		"A state change in another zone should be converted to UTC.": {
			t:      time.Date(2026, 1, 10, 23, 30, 0, 0, time.FixedZone("CET", 3600)),
			expOut: "2026-01-10 22:30:00 UTC",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expOut, printer.FormatTimestamp(test.t))
		})
	}
}
