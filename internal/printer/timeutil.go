package printer

import (
	"fmt"
	"time"

	"github.com/slok/vbx/internal/model"
)

type timeUnit struct {
	suffix string
	size   time.Duration
}

// Largest first.
var timeUnits = []timeUnit{
	{suffix: "w", size: 7 * 24 * time.Hour},
	{suffix: "d", size: 24 * time.Hour},
	{suffix: "h", size: time.Hour},
	{suffix: "m", size: time.Minute},
	{suffix: "s", size: time.Second},
}

// ShortDuration prints d truncated to its largest whole unit (e.g. "45s", "3h", "2w").
func ShortDuration(d time.Duration) string {
	for _, u := range timeUnits {
		if d >= u.size {
			return fmt.Sprintf("%d%s", d/u.size, u.suffix)
		}
	}
	return "0s"
}

// Age returns how long before now t happened, "-" when t is not set.
// Hypervisor clock skew can put t after now, that is printed as "just now".
func Age(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	d := now.Sub(t)
	if d < time.Second {
		return "just now"
	}
	return ShortDuration(d) + " ago"
}

// OperationTook returns the run time of a finished operation, "-" while it runs.
func OperationTook(op model.Operation) string {
	if op.CompletedAt == nil {
		return "-"
	}
	return ShortDuration(op.CompletedAt.Sub(op.CreatedAt))
}

// FormatTimestamp returns t as "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
