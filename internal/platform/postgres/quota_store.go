package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/applypilot/applypilot-api/internal/platform/logger"
	"github.com/applypilot/applypilot-api/internal/session"
	"github.com/applypilot/applypilot-api/internal/store"
	"github.com/google/uuid"
)

// QuotaStore resolves per-user session quotas from the subscriptions table.
// Users without a subscription row fall back to the configured default tier;
// the global ceiling always comes from configuration.
type QuotaStore struct {
	db             store.DBTX
	defaultPerUser int
	global         int
}

// NewQuotaStore creates a new QuotaStore. defaultPerUser is the free-tier
// session cap, global the system-wide ceiling applied to every quota.
func NewQuotaStore(db store.DBTX, defaultPerUser, global int) *QuotaStore {
	return &QuotaStore{
		db:             db,
		defaultPerUser: defaultPerUser,
		global:         global,
	}
}

// GetUserQuota implements session.QuotaResolver.
func (s *QuotaStore) GetUserQuota(ctx context.Context, userID uuid.UUID) (session.Quota, error) {
	log := logger.FromContext(ctx)

	query := `SELECT max_sessions FROM subscriptions WHERE user_id = $1 AND active`

	var perUser int
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&perUser)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		log.Debug("no active subscription, using default quota",
			"user_id", userID,
			"per_user", s.defaultPerUser)
		perUser = s.defaultPerUser
	case err != nil:
		return session.Quota{}, fmt.Errorf("failed to look up subscription quota: %w", MapError(err))
	}

	if perUser <= 0 {
		perUser = s.defaultPerUser
	}
	return session.Quota{PerUser: perUser, Global: s.global}, nil
}

var _ session.QuotaResolver = (*QuotaStore)(nil)
