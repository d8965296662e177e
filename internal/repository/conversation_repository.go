package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"unity-within-go/internal/model"
)

// ConversationRepository 定义了陪伴对话历史与滥用计数的 Redis 操作。
type ConversationRepository interface {
	GetHistory(ctx context.Context, userID uint) ([]model.BuddieMessage, error)
	UpdateHistory(ctx context.Context, userID uint, messages []model.BuddieMessage) error
	// IncrAbuseCount 为用户的滥用计数加一并返回新值，计数带滑动过期时间。
	IncrAbuseCount(ctx context.Context, userID uint, ttl time.Duration) (int64, error)
	GetAbuseCount(ctx context.Context, userID uint) (int64, error)
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

// GetHistory 从 Redis 获取用户的陪伴对话历史。
func (r *redisConversationRepository) GetHistory(ctx context.Context, userID uint) ([]model.BuddieMessage, error) {
	key := fmt.Sprintf("buddie:history:%d", userID)
	jsonData, err := r.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return []model.BuddieMessage{}, nil // No history yet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.BuddieMessage
	err = json.Unmarshal([]byte(jsonData), &messages)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// UpdateHistory 在 Redis 中更新用户的陪伴对话历史。
func (r *redisConversationRepository) UpdateHistory(ctx context.Context, userID uint, messages []model.BuddieMessage) error {
	key := fmt.Sprintf("buddie:history:%d", userID)
	// 保留最近 20 条
	if len(messages) > 20 {
		messages = messages[len(messages)-20:]
	}
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	err = r.redisClient.Set(ctx, key, jsonData, 7*24*time.Hour).Err()
	if err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}

// IncrAbuseCount 递增用户的滥用计数。每次命中都刷新过期时间，
// 让连续违规的用户保持在计数窗口内。
func (r *redisConversationRepository) IncrAbuseCount(ctx context.Context, userID uint, ttl time.Duration) (int64, error) {
	key := fmt.Sprintf("moderation:abuse:%d", userID)
	count, err := r.redisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to incr abuse count: %w", err)
	}
	if err := r.redisClient.Expire(ctx, key, ttl).Err(); err != nil {
		return count, fmt.Errorf("failed to set abuse count ttl: %w", err)
	}
	return count, nil
}

// GetAbuseCount 读取用户当前窗口内的滥用计数。
func (r *redisConversationRepository) GetAbuseCount(ctx context.Context, userID uint) (int64, error) {
	key := fmt.Sprintf("moderation:abuse:%d", userID)
	count, err := r.redisClient.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get abuse count: %w", err)
	}
	return count, nil
}
