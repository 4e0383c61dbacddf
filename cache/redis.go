// cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NewPyDev/Momentum/config"
)

var (
	Client *redis.Client
	ctx    = context.Background()

	// ErrDisabled возвращается, когда Redis не инициализирован
	ErrDisabled = errors.New("cache disabled")
)

func InitRedis(cfg config.Config, logger *zap.Logger) error {
	addr := fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)

	Client = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := Client.Ping(ctx).Err(); err != nil {
		logger.Error("redis_connection_failed",
			zap.Error(err),
			zap.String("addr", addr),
		)
		return err
	}

	logger.Info("redis_connected",
		zap.String("addr", addr),
	)

	return nil
}

func Set(key string, value interface{}, expiration time.Duration) error {
	if Client == nil {
		return ErrDisabled
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return Client.Set(ctx, key, data, expiration).Err()
}

// Get читает значение из Redis и десериализует в dest
func Get(key string, dest interface{}) error {
	if Client == nil {
		return ErrDisabled
	}
	val, err := Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("cache miss: %w", err)
	} else if err != nil {
		return fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return nil
}

// ResponseKey — ключ кэшированного GET-ответа пользователя. Формат обязан
// оставаться под шаблоном InvalidateUser, иначе сброс при начислении наград
// перестанет находить эти ключи.
func ResponseKey(userID uint, path, rawQuery string) string {
	return fmt.Sprintf("cache:%d:%s?%s", userID, path, rawQuery)
}

// InvalidateUser удаляет все кэшированные ответы одного пользователя
func InvalidateUser(userID uint) error {
	return DeletePattern(fmt.Sprintf("cache:%d:*", userID))
}

// Delete удаляет ключ
func Delete(key string) error {
	if Client == nil {
		return ErrDisabled
	}
	return Client.Del(ctx, key).Err()
}

// DeletePattern удаляет все ключи по шаблону (например, rewards:1:*)
func DeletePattern(pattern string) error {
	if Client == nil {
		return ErrDisabled
	}
	var cursor uint64
	for {
		keys, next, err := Client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if len(keys) > 0 {
			if err := Client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete keys failed: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

// IncrementCounter увеличивает счётчик и устанавливает TTL при первом инкременте
func IncrementCounter(key string, expiration time.Duration) (int64, error) {
	if Client == nil {
		return 0, ErrDisabled
	}
	val, err := Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if val == 1 {
		if err := Client.Expire(ctx, key, expiration).Err(); err != nil {
			return val, err
		}
	}

	return val, nil
}

// Close закрывает соединение с Redis
func Close() error {
	if Client != nil {
		return Client.Close()
	}
	return nil
}
