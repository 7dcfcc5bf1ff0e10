package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	customErrors "github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/errors"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/domain/miniapp/model"
)

const keyPrefix = "sess:"

// SessionCache is a read-through cache for the hot bearer-token lookup.
// Postgres stays the source of truth; entries expire together with the
// session they mirror.
type SessionCache struct {
	client *redis.Client
}

func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

func (c *SessionCache) Get(ctx context.Context, tokenHash string) (model.User, error) {
	val, err := c.client.Get(ctx, keyPrefix+tokenHash).Result()
	switch {
	case err == redis.Nil:
		return model.User{}, customErrors.ErrNotFound
	case err != nil:
		// деградируем до БД, ошибка кэша не фатальна
		return model.User{}, customErrors.WrapInternal(err, "session cache get")
	}

	var u model.User
	if err := json.Unmarshal([]byte(val), &u); err != nil {
		return model.User{}, customErrors.WrapInternal(err, "session cache decode")
	}
	return u, nil
}

func (c *SessionCache) Put(ctx context.Context, tokenHash string, u model.User, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	buf, err := json.Marshal(u)
	if err != nil {
		return customErrors.WrapInternal(err, "session cache encode")
	}
	return c.client.Set(ctx, keyPrefix+tokenHash, buf, ttl).Err()
}
