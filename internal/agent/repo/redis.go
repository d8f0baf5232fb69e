package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/whatsapp-bot/server/internal/agent/model"
	errx "github.com/whatsapp-bot/server/internal/core/error"
	logx "github.com/whatsapp-bot/server/pkg/logger"
)

// RedisConversationRepository keeps each history in a Redis list with a sliding TTL.
type RedisConversationRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisConversationRepository) conversationKey(userID string) string {
	return fmt.Sprintf("conversation:%s:messages", userID)
}

func (r *RedisConversationRepository) AppendTurn(ctx context.Context, userID, userText, replyText string) error {
	userRow, err := json.Marshal(model.ConversationEntry{Role: model.RoleUser, Text: userText})
	if err != nil {
		return fmt.Errorf("marshal user entry: %w", err)
	}
	replyRow, err := json.Marshal(model.ConversationEntry{Role: model.RoleAssistant, Text: replyText})
	if err != nil {
		return fmt.Errorf("marshal assistant entry: %w", err)
	}
	key := r.conversationKey(userID)

	// both entries and the TTL refresh land in one MULTI/EXEC
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, userRow, replyRow)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to append turn to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) GetOrCreate(ctx context.Context, userID string) ([]model.ConversationEntry, error) {
	key := r.conversationKey(userID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && err != redis.Nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation history from redis")
		return nil, errx.WrapRedis(err)
	}

	entries := make([]model.ConversationEntry, 0, len(rows))
	for i, s := range rows {
		var e model.ConversationEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			logx.Error().Err(err).Str("user_id", userID).Int("index", i).Msg("failed to unmarshal entry")
			return nil, fmt.Errorf("unmarshal entry at index %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *RedisConversationRepository) Clear(ctx context.Context, userID string) error {
	key := r.conversationKey(userID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.ConversationStore = (*RedisConversationRepository)(nil)
