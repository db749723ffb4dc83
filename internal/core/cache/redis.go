package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var (
	// errMiss 回源结果为空：不写缓存（不做负缓存）
	errMiss  = errors.New("cache: source miss")
	errStale = errors.New("cache: stale fill")
)

// genTTL 版本键存活时间，远大于任何一次回源耗时
const genTTL = 24 * time.Hour

type Cache struct {
	RDB *redis.Client
	sf  singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	return &Cache{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func (c *Cache) Ping(ctx context.Context) error { return c.RDB.Ping(ctx).Err() }

func (c *Cache) Close() error { return c.RDB.Close() }

// GetOrLoad 读缓存，未命中则 singleflight 合并回源并回写；redis 不可用时直接回源。
// 回源前记下 key 的版本号，回写时版本已变（期间被 Del 过）则放弃回写
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		gen, _ := c.RDB.Get(ctx, genKey(key)).Result()
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		_ = c.setIfGen(ctx, key, gen, b, ttl)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// setIfGen WATCH 版本键，版本不变才写入；并发 Del 会让 EXEC 失败
func (c *Cache) setIfGen(ctx context.Context, key, gen string, b []byte, ttl time.Duration) error {
	gk := genKey(key)
	return c.RDB.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, gk)
}

// Del 删除缓存并推进版本号，让正在回源的请求放弃回写
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range keys {
			p.Incr(ctx, genKey(k))
			p.Expire(ctx, genKey(k), genTTL)
		}
		p.Del(ctx, keys...)
		return nil
	})
	return err
}

func genKey(key string) string { return key + ":gen" }
