// Package redis provides the Redis-backed cookie jar store and the client
// plumbing around it. Cookie jars are small, hot, and per-user; Redis keeps
// them off the relational database and lets them expire on their own.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/applypilot/applypilot-api/internal/automation"
)

// jarKeyPrefix namespaces cookie jar keys.
const jarKeyPrefix = "applypilot:cookiejar:"

// jarTTL bounds how long a stored jar survives without refresh. Job-board
// session cookies rot within weeks anyway.
const jarTTL = 30 * 24 * time.Hour

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// CookieStore is a Redis-backed automation.CookieStore. Jars are stored as
// JSON blobs under a per-user key.
type CookieStore struct {
	client *redis.Client
}

// NewCookieStore creates a CookieStore on the given client.
func NewCookieStore(client *redis.Client) *CookieStore {
	return &CookieStore{client: client}
}

var _ automation.CookieStore = (*CookieStore)(nil)

// SaveJar stores the jar for the user, replacing any previous one.
func (s *CookieStore) SaveJar(
	ctx context.Context,
	userID uuid.UUID,
	jar automation.CookieJar,
) error {
	data, err := json.Marshal(jar)
	if err != nil {
		return fmt.Errorf("failed to encode cookie jar: %w", err)
	}
	if err := s.client.Set(ctx, jarKey(userID), data, jarTTL).Err(); err != nil {
		return fmt.Errorf("failed to store cookie jar: %w", err)
	}
	return nil
}

// LoadJar returns the stored jar, or automation.ErrNoCookieJar.
func (s *CookieStore) LoadJar(
	ctx context.Context,
	userID uuid.UUID,
) (automation.CookieJar, error) {
	data, err := s.client.Get(ctx, jarKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, automation.ErrNoCookieJar
		}
		return nil, fmt.Errorf("failed to load cookie jar: %w", err)
	}

	var jar automation.CookieJar
	if err := json.Unmarshal(data, &jar); err != nil {
		return nil, fmt.Errorf("failed to decode cookie jar: %w", err)
	}
	return jar, nil
}

// DeleteJar removes the stored jar. Deleting a missing jar is not an error.
func (s *CookieStore) DeleteJar(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, jarKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cookie jar: %w", err)
	}
	return nil
}

func jarKey(userID uuid.UUID) string {
	return jarKeyPrefix + userID.String()
}
