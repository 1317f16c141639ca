package failure

import (
	"errors"
	"time"

	"github.com/applypilot/applypilot-api/internal/automation"
	"github.com/applypilot/applypilot-api/internal/session"
	"github.com/google/uuid"
)

// Classify maps an error raised during a task attempt to a Record. It is a
// pure function of the error chain: sentinel matching via errors.Is, snapshot
// extraction via errors.As.
//
// Anything that does not match a known sentinel classifies as Fatal with no
// retry. The conservative default is deliberate; an unknown error says nothing
// about whether repeating the attempt is safe.
func Classify(taskID, userID uuid.UUID, err error) Record {
	rec := Record{
		TaskID:     taskID,
		UserID:     userID,
		Message:    err.Error(),
		OccurredAt: time.Now().UTC(),
	}

	var f *automation.Failure
	if errors.As(err, &f) {
		rec.Snapshot = f.Snapshot
	}

	switch {
	case errors.Is(err, automation.ErrTransient):
		rec.Category = CategoryTransient
		rec.Severity = SeverityLow
		rec.Retryable = true

	case errors.Is(err, automation.ErrRateLimited):
		rec.Category = CategoryRateLimited
		rec.Severity = SeverityMedium
		rec.Retryable = true

	case errors.Is(err, session.ErrResourceExhausted):
		rec.Category = CategoryResourceExhausted
		rec.Severity = SeverityLow
		rec.Retryable = true

	case errors.Is(err, automation.ErrAuthenticationLost):
		rec.Category = CategoryAuthenticationLost
		rec.Severity = SeverityHigh
		rec.Retryable = false

	case errors.Is(err, automation.ErrStructuralChange):
		rec.Category = CategoryStructuralChange
		rec.Severity = SeverityHigh
		rec.Retryable = false

	case errors.Is(err, automation.ErrDailyLimitReached):
		rec.Category = CategoryQuotaExceeded
		rec.Severity = SeverityLow
		rec.Retryable = false

	default:
		rec.Category = CategoryFatal
		rec.Severity = SeverityCritical
		rec.Retryable = false
	}

	return rec
}
