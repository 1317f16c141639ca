package session

import (
	"context"

	"github.com/google/uuid"
)

// Quota caps concurrent sessions: PerUser comes from the user's subscription
// tier, Global is the system-wide ceiling.
type Quota struct {
	PerUser int
	Global  int
}

// QuotaResolver looks up the effective quota for a user. Implemented by the
// subscription store; a static fallback is used when no tier is recorded.
type QuotaResolver interface {
	GetUserQuota(ctx context.Context, userID uuid.UUID) (Quota, error)
}

// StaticQuotaResolver returns the same quota for every user. Used in tests
// and as the wiring fallback when no subscription store is configured.
type StaticQuotaResolver struct {
	Quota Quota
}

// GetUserQuota implements QuotaResolver.
func (r StaticQuotaResolver) GetUserQuota(ctx context.Context, userID uuid.UUID) (Quota, error) {
	return r.Quota, nil
}
