package failure

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category identifies the kind of failure a task attempt hit.
type Category string

// Possible failure categories.
const (
	// CategoryTransient covers network blips and temporary site slowdowns.
	CategoryTransient Category = "transient"

	// CategoryAuthenticationLost means the session cookies are invalid and
	// the user must re-authenticate.
	CategoryAuthenticationLost Category = "authentication_lost"

	// CategoryRateLimited means throttling by the target site was detected.
	CategoryRateLimited Category = "rate_limited"

	// CategoryStructuralChange means the automation target no longer matches
	// the expected page structure.
	CategoryStructuralChange Category = "structural_change"

	// CategoryQuotaExceeded is an application-level limit such as a daily cap.
	// A normal terminal outcome, distinguishable from automation failure.
	CategoryQuotaExceeded Category = "quota_exceeded"

	// CategoryResourceExhausted means session capacity was saturated at
	// acquisition time. Treated as transient for retry purposes.
	CategoryResourceExhausted Category = "resource_exhausted"

	// CategoryFatal is the conservative default for anything unclassified.
	CategoryFatal Category = "fatal"
)

// Severity grades how serious a failure is.
type Severity string

// Possible severities. Only Low and Medium failures are ever retried;
// Critical terminates the task immediately regardless of attempts remaining.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Record is one classified failure, created at the moment an attempt fails.
// If the attempt budget is exhausted the record becomes the task's terminal
// error summary; otherwise it only feeds the retry decision.
type Record struct {
	TaskID    uuid.UUID `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	Category  Category  `json:"category"`
	Severity  Severity  `json:"severity"`
	Retryable bool      `json:"retryable"`
	Message   string    `json:"message"`

	// Snapshot is an optional reference to a captured diagnostic artifact,
	// e.g. a page screenshot taken at the moment of failure.
	Snapshot string `json:"snapshot,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// Eligible reports whether this record permits an automatic retry. Retryable
// flags on High or Critical severities are ignored.
func (r Record) Eligible() bool {
	if !r.Retryable {
		return false
	}
	return r.Severity == SeverityLow || r.Severity == SeverityMedium
}

func (r Record) String() string {
	return fmt.Sprintf("%s (%s): %s", r.Category, r.Severity, r.Message)
}
