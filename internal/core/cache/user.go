package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-gin-realtime-crud/internal/domain"
)

// userEntry 缓存里的用户；domain.User 的 JSON 不带密码哈希，这里单独保留
type userEntry struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toEntry(u *domain.User) *userEntry {
	e := userEntry(*u)
	return &e
}

func (e *userEntry) user() *domain.User {
	u := domain.User(*e)
	return &u
}

// UserCache 按 id 缓存单个用户，写操作后由服务层失效
type UserCache struct {
	c   *Cache
	ttl time.Duration
	log *zap.Logger
}

func NewUserCache(c *Cache, ttl time.Duration, l *zap.Logger) *UserCache {
	return &UserCache{c: c, ttl: ttl, log: l.Named("UserCache")}
}

func userKey(id int64) string { return fmt.Sprintf("user:%d", id) }

func (uc *UserCache) GetUser(ctx context.Context, id int64, load func(context.Context, int64) (*domain.User, error)) (*domain.User, error) {
	e, err := GetOrLoadJSON(uc.c, ctx, userKey(id), uc.ttl, func(ctx context.Context) (*userEntry, error) {
		u, err := load(ctx, id)
		if err != nil || u == nil {
			return nil, err
		}
		return toEntry(u), nil
	})
	if err != nil || e == nil {
		return nil, err
	}
	return e.user(), nil
}

func (uc *UserCache) Invalidate(ctx context.Context, id int64) {
	if err := uc.c.Del(ctx, userKey(id)); err != nil {
		uc.log.Warn("invalidate failed", zap.Int64("id", id), zap.Error(err))
	}
}
