package model

// CheckStatus is the verdict of a doctor check.
type CheckStatus string

const (
	CheckStatusOK      CheckStatus = "ok"
	CheckStatusWarning CheckStatus = "warning"
	// CheckStatusError means the SDK can't be used, later checks are not run.
	CheckStatusError CheckStatus = "error"
)

// CheckResult is the result of a single doctor check against the installed SDK.
type CheckResult struct {
	// ID identifies the check (e.g. "sdk_version", "machines").
	ID      string
	Message string
	Status  CheckStatus
}

// CheckSummary counts check results by status.
type CheckSummary struct {
	OK       int
	Warnings int
	Errors   int
}

// Failed returns true when at least one check failed.
func (s CheckSummary) Failed() bool { return s.Errors > 0 }

// SummarizeChecks counts the results of a doctor run.
func SummarizeChecks(results []CheckResult) CheckSummary {
	var s CheckSummary
	for _, r := range results {
		switch r.Status {
		case CheckStatusOK:
			s.OK++
		case CheckStatusWarning:
			s.Warnings++
		case CheckStatusError:
			s.Errors++
		}
	}
	return s
}
