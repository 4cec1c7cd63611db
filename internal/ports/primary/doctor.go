package primary

import "context"

// DoctorService defines the primary port for printer readiness checks.
type DoctorService interface {
	// Check runs every readiness check. It never fails; failures are results.
	Check(ctx context.Context) []*CheckResult
}

// Check statuses.
const (
	CheckPass = "✓"
	CheckWarn = "⚠"
	CheckFail = "✗"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // CheckPass, CheckWarn or CheckFail
	Details string // Only shown if Status != CheckPass
}
