package redis

import (
	"context"
	"fmt"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/sukalov/lyricsbot/internal/history"
)

const DefaultHistoryKey = "lyricsbot:posted_lines"

// NewClient connects to a TLS Redis endpoint as the default user.
func NewClient(url, password string) (*redisClient.Client, error) {
	opt, err := redisClient.ParseURL(fmt.Sprintf("rediss://default:%s@%s", password, url))
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redisClient.NewClient(opt), nil
}

// HistoryStore keeps posted fingerprints in a Redis set.
type HistoryStore struct {
	client redisClient.UniversalClient
	key    string
}

func NewHistoryStore(client redisClient.UniversalClient, key string) *HistoryStore {
	if key == "" {
		key = DefaultHistoryKey
	}
	return &HistoryStore{client: client, key: key}
}

// Load returns an empty history when the key does not exist.
func (redis *HistoryStore) Load(ctx context.Context) (*history.History, error) {
	members, err := redis.client.SMembers(ctx, redis.key).Result()
	if err != nil && err != redisClient.Nil {
		return history.New(), fmt.Errorf("%w: reading redis set %s: %v", history.ErrLoad, redis.key, err)
	}
	return history.New(members...), nil
}

// Save replaces the set in one MULTI/EXEC transaction.
func (redis *HistoryStore) Save(ctx context.Context, h *history.History) error {
	fingerprints := h.Fingerprints()
	members := make([]interface{}, len(fingerprints))
	for i, fp := range fingerprints {
		members[i] = fp
	}

	_, err := redis.client.TxPipelined(ctx, func(pipe redisClient.Pipeliner) error {
		pipe.Del(ctx, redis.key)
		if len(members) > 0 {
			pipe.SAdd(ctx, redis.key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: writing redis set %s: %v", history.ErrPersist, redis.key, err)
	}
	return nil
}
