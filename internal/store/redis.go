package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jmallory/solace/internal/domain"
)

const (
	redisKeyPrefix = "solace:session:"
	redisIndexKey  = "solace:sessions"
)

// RedisStore implements SessionStore on Redis, one JSON document per
// session plus a set of live session ids. Intended for deployments where
// several instances share state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
// An idle TTL of zero disables expiry.
func NewRedisStore(ctx context.Context, addr string, idleTTL time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client, ttl: idleTTL}, nil
}

func (s *RedisStore) Create(ctx context.Context) (*domain.Session, error) {
	now := time.Now().UTC()
	sess := &domain.Session{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		LastActiveAt:   now,
		EmotionalState: domain.StateUnknown,
	}

	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.client.SAdd(ctx, redisIndexKey, sess.ID).Err(); err != nil {
		return nil, fmt.Errorf("indexing session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &sess, nil
}

// AppendTurn rewrites the session document under an optimistic WATCH so a
// concurrent append from another instance retries rather than clobbering.
func (s *RedisStore) AppendTurn(ctx context.Context, id string, turn domain.Turn) error {
	key := redisKeyPrefix + id

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var sess domain.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return fmt.Errorf("decoding session %s: %w", id, err)
		}

		sess.Turns = append(sess.Turns, turn)
		sess.LastActiveAt = turn.Timestamp
		sess.EmotionalState = turn.EmotionalState

		updated, err := json.Marshal(&sess)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < 5; i++ {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("appending turn to %s: too many conflicts", id)
}

func (s *RedisStore) ListTurns(ctx context.Context, id string) ([]domain.Turn, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Turns, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.Del(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if err := s.client.SRem(ctx, redisIndexKey, id).Err(); err != nil {
		return fmt.Errorf("unindexing session: %w", err)
	}
	if removed == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, redisIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) save(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sess.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving session %s: %w", sess.ID, err)
	}
	return nil
}
