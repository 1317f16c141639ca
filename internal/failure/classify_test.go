package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/applypilot/applypilot-api/internal/automation"
	"github.com/applypilot/applypilot-api/internal/session"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  Category
		severity  Severity
		retryable bool
	}{
		{
			name:      "transient",
			err:       fmt.Errorf("search: %w", automation.ErrTransient),
			category:  CategoryTransient,
			severity:  SeverityLow,
			retryable: true,
		},
		{
			name:      "rate limited",
			err:       fmt.Errorf("apply: %w", automation.ErrRateLimited),
			category:  CategoryRateLimited,
			severity:  SeverityMedium,
			retryable: true,
		},
		{
			name:      "resource exhausted",
			err:       fmt.Errorf("acquire: %w", session.ErrResourceExhausted),
			category:  CategoryResourceExhausted,
			severity:  SeverityLow,
			retryable: true,
		},
		{
			name:      "authentication lost",
			err:       fmt.Errorf("apply: %w", automation.ErrAuthenticationLost),
			category:  CategoryAuthenticationLost,
			severity:  SeverityHigh,
			retryable: false,
		},
		{
			name:      "structural change",
			err:       fmt.Errorf("search: %w", automation.ErrStructuralChange),
			category:  CategoryStructuralChange,
			severity:  SeverityHigh,
			retryable: false,
		},
		{
			name:      "daily limit",
			err:       automation.ErrDailyLimitReached,
			category:  CategoryQuotaExceeded,
			severity:  SeverityLow,
			retryable: false,
		},
		{
			name:      "unknown defaults to fatal",
			err:       errors.New("nil pointer dereference in form filler"),
			category:  CategoryFatal,
			severity:  SeverityCritical,
			retryable: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			taskID := uuid.New()
			userID := uuid.New()

			rec := Classify(taskID, userID, tc.err)

			assert.Equal(t, taskID, rec.TaskID)
			assert.Equal(t, userID, rec.UserID)
			assert.Equal(t, tc.category, rec.Category)
			assert.Equal(t, tc.severity, rec.Severity)
			assert.Equal(t, tc.retryable, rec.Retryable)
			assert.Equal(t, tc.err.Error(), rec.Message)
			assert.False(t, rec.OccurredAt.IsZero())
		})
	}
}

func TestClassifyExtractsSnapshot(t *testing.T) {
	err := automation.WithSnapshot(
		fmt.Errorf("apply form vanished: %w", automation.ErrStructuralChange),
		"s3://snapshots/abc123.png",
	)

	rec := Classify(uuid.New(), uuid.New(), err)

	assert.Equal(t, CategoryStructuralChange, rec.Category)
	assert.Equal(t, "s3://snapshots/abc123.png", rec.Snapshot)
}

func TestClassifyWithoutSnapshot(t *testing.T) {
	rec := Classify(uuid.New(), uuid.New(), automation.ErrTransient)
	assert.Empty(t, rec.Snapshot)
}

func TestRecordEligible(t *testing.T) {
	tests := []struct {
		name     string
		record   Record
		eligible bool
	}{
		{"retryable low", Record{Retryable: true, Severity: SeverityLow}, true},
		{"retryable medium", Record{Retryable: true, Severity: SeverityMedium}, true},
		{"retryable high is still terminal", Record{Retryable: true, Severity: SeverityHigh}, false},
		{"retryable critical is still terminal", Record{Retryable: true, Severity: SeverityCritical}, false},
		{"non-retryable low", Record{Retryable: false, Severity: SeverityLow}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.eligible, tc.record.Eligible())
		})
	}
}
