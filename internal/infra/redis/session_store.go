package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"exam-session-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore persists sessions as JSON documents in Redis hashes. Each
// session key carries a version field; updates are conditional on it via a
// Lua compare-and-set, so concurrent mutations of the same session surface
// as conflicts instead of lost writes.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// casUpdate compares the stored version and swaps the document atomically.
// Returns the new version, 0 on a version mismatch, -1 when the key is gone.
var casUpdate = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], 'version')
if not v then return -1 end
if tonumber(v) ~= tonumber(ARGV[1]) then return 0 end
local nv = tonumber(ARGV[1]) + 1
redis.call('HSET', KEYS[1], 'data', ARGV[2], 'version', nv)
if tonumber(ARGV[3]) > 0 then redis.call('EXPIRE', KEYS[1], ARGV[3]) end
return nv
`)

func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	sess.Version = 1
	key := s.key(sess.ID)

	created, err := s.client.HSetNX(ctx, key, "version", sess.Version).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !created {
		return domain.E(domain.KindConflict, "session already exists").WithSession(sess.ID)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, "data", data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	vals, err := s.client.HMGet(ctx, s.key(sessionID), "data", "version").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(vals) < 2 || vals[0] == nil {
		return nil, domain.E(domain.KindNotFound, "session not found").WithSession(sessionID)
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, fmt.Errorf("load session: unexpected data type %T", vals[0])
	}
	var sess domain.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if vstr, ok := vals[1].(string); ok {
		var v int64
		if _, err := fmt.Sscanf(vstr, "%d", &v); err == nil {
			sess.Version = v
		}
	}
	return &sess, nil
}

func (s *SessionStore) Update(ctx context.Context, sess *domain.Session, expectedVersion int64) (*domain.Session, error) {
	updated := sess.Clone()
	updated.Version = expectedVersion + 1
	data, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	ttlSeconds := int64(0)
	if s.ttl > 0 {
		ttlSeconds = int64(s.ttl.Seconds())
	}
	res, err := casUpdate.Run(ctx, s.client, []string{s.key(sess.ID)}, expectedVersion, data, ttlSeconds).Int64()
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	switch res {
	case -1:
		return nil, domain.E(domain.KindNotFound, "session not found").WithSession(sess.ID)
	case 0:
		return nil, domain.E(domain.KindConflict, "session was modified concurrently (expected version %d)", expectedVersion).
			WithSession(sess.ID)
	}
	return updated, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return n > 0, nil
}

func (s *SessionStore) key(sessionID string) string {
	return "exam:session:" + sessionID
}
