package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ca23187/easypan/config"

	"github.com/redis/go-redis/v9"
)

type RedisSessionRepository struct {
	redis *redis.Client
}

func NewRedisSessionRepository(redisClient *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{redis: redisClient}
}

func tempSizeKey(userID uint, fileID string) string {
	return fmt.Sprintf("easypan:user:file:temp:%d:%s", userID, fileID)
}

func spaceInfoKey(userID uint) string {
	return fmt.Sprintf("easypan:user:space-info:%d", userID)
}

func (r *RedisSessionRepository) GetTempSize(ctx context.Context, userID uint, fileID string) (int64, error) {
	size, err := r.redis.Get(ctx, tempSizeKey(userID, fileID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return size, err
}

// AddTempSize 累加会话字节数并刷新过期时间，废弃的上传靠 TTL 自清
func (r *RedisSessionRepository) AddTempSize(ctx context.Context, userID uint, fileID string, delta int64) error {
	key := tempSizeKey(userID, fileID)
	if err := r.redis.IncrBy(ctx, key, delta).Err(); err != nil {
		return err
	}
	expire := config.AppConfig.Redis.TempSizeExpire
	if expire > 0 {
		return r.redis.Expire(ctx, key, time.Duration(expire)*time.Second).Err()
	}
	return nil
}

func (r *RedisSessionRepository) ClearTempSize(ctx context.Context, userID uint, fileID string) error {
	return r.redis.Del(ctx, tempSizeKey(userID, fileID)).Err()
}

func (r *RedisSessionRepository) GetSpaceCache(ctx context.Context, userID uint) (SpaceUsage, bool, error) {
	data, err := r.redis.Get(ctx, spaceInfoKey(userID)).Bytes()
	if err == redis.Nil {
		return SpaceUsage{}, false, nil
	}
	if err != nil {
		return SpaceUsage{}, false, err
	}
	var usage SpaceUsage
	if err := json.Unmarshal(data, &usage); err != nil {
		return SpaceUsage{}, false, err
	}
	return usage, true, nil
}

func (r *RedisSessionRepository) SetSpaceCache(ctx context.Context, userID uint, usage SpaceUsage) error {
	data, err := json.Marshal(usage)
	if err != nil {
		return err
	}
	expire := time.Duration(config.AppConfig.Redis.SpaceInfoExpire) * time.Second
	return r.redis.Set(ctx, spaceInfoKey(userID), data, expire).Err()
}

func (r *RedisSessionRepository) InvalidateSpaceCache(ctx context.Context, userID uint) error {
	return r.redis.Del(ctx, spaceInfoKey(userID)).Err()
}
