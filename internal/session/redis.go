package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis so multiple server instances can share
// conversation state. History lives in a list, triage context and session
// fields in plain keys; everything expires together after the TTL.
type RedisStore struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
}

func NewRedisStore(client *redis.Client, maxTurns int) *RedisStore {
	return &RedisStore{
		client:   client,
		maxTurns: maxTurns,
		ttl:      24 * time.Hour,
	}
}

func turnsKey(userID string) string  { return "session:" + userID + ":turns" }
func triageKey(userID string) string { return "session:" + userID + ":triage" }
func metaKey(userID string) string   { return "session:" + userID + ":meta" }

func (s *RedisStore) GetTurns(ctx context.Context, userID string) ([]Turn, error) {
	raw, err := s.client.LRange(ctx, turnsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis lrange")
	}
	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			// A corrupt entry should not poison the whole history.
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *RedisStore) AppendTurn(ctx context.Context, userID string, t Turn) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	data, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "marshal turn")
	}
	key := turnsKey(userID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.maxTurns > 0 {
		pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	}
	pipe.Expire(ctx, key, s.ttl)
	_, err = pipe.Exec(ctx)
	return errors.Wrap(err, "redis append turn")
}

func (s *RedisStore) GetTriageContext(ctx context.Context, userID string) (map[string]any, error) {
	raw, err := s.client.Get(ctx, triageKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get triage context")
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, errors.Wrap(err, "unmarshal triage context")
	}
	return data, nil
}

func (s *RedisStore) SaveTriageContext(ctx context.Context, userID string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "marshal triage context")
	}
	return errors.Wrap(s.client.Set(ctx, triageKey(userID), raw, s.ttl).Err(), "redis save triage context")
}

func (s *RedisStore) UpdateSession(ctx context.Context, userID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	flat := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "marshal session field")
		}
		flat = append(flat, k, raw)
	}
	key := metaKey(userID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, flat...)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "redis update session")
}
