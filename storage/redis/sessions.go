package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/jrsteele09/go-session-service/internal/errors"
	"github.com/jrsteele09/go-session-service/sessions"
)

const sessionKeyPrefix = "refresh_session:"

// SessionRepo stores refresh sessions as JSON values with a TTL matching the
// refresh token lifetime, so stale slots expire on their own.
type SessionRepo struct {
	client *redis.Client
	ttl    time.Duration
}

var _ sessions.Repo = (*SessionRepo)(nil)

func NewSessionRepo(client *redis.Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{client: client, ttl: ttl}
}

func sessionKey(principalID int64) string {
	return fmt.Sprintf("%s%d", sessionKeyPrefix, principalID)
}

func (r *SessionRepo) Upsert(ctx context.Context, session *sessions.RefreshSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.PrincipalID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, principalID int64) (*sessions.RefreshSession, error) {
	data, err := r.client.Get(ctx, sessionKey(principalID)).Bytes()
	if err != nil {
		if apperrors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	session := &sessions.RefreshSession{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

func (r *SessionRepo) Delete(ctx context.Context, principalID int64) error {
	if err := r.client.Del(ctx, sessionKey(principalID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
