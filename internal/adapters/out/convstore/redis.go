package convstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "conversation:"

// RedisStore keeps one JSON value per user. Every Set refreshes the key's
// TTL, so idle conversations expire without a sweep.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ ports.ConversationStore = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (conversation.State, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return conversation.NewState(userID), nil
	}
	if err != nil {
		return conversation.State{}, fmt.Errorf("get conversation: %w", err)
	}

	var dto StateDTO
	if err = json.Unmarshal(data, &dto); err != nil {
		return conversation.State{}, fmt.Errorf("decode conversation: %w", err)
	}
	return ToDomain(dto)
}

func (s *RedisStore) Set(ctx context.Context, userID string, state conversation.State) error {
	dto := FromDomain(state)
	dto.UserID = userID

	data, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err = s.client.Set(ctx, redisKeyPrefix+userID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set conversation: %w", err)
	}
	return nil
}

// Count scans the key space; it serves the health endpoint only.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan conversations: %w", err)
	}
	return n, nil
}
