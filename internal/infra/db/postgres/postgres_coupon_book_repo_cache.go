package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/domain/ports/repository"
	"coupon-lifecycle-engine/internal/infra/metrics"
	red "coupon-lifecycle-engine/internal/infra/redis"
)

var _ repository.CouponBookRepository = (*bookRepoCacheDecorator)(nil)

// bookRepoCacheDecorator caches book reads in redis. Transactional reads
// bypass the cache entirely: they need the row lock and the freshest state,
// and a cached copy would defeat both.
type bookRepoCacheDecorator struct {
	inner repository.CouponBookRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewBookRepoCacheDecorator(inner repository.CouponBookRepository, cache red.RedisClient, ttl time.Duration) repository.CouponBookRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &bookRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func bookKey(id string) string { return fmt.Sprintf("book:%s", id) }

func (d *bookRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CouponBook, error) {
	if inTx(tx) {
		return d.inner.FindByID(ctx, tx, id)
	}

	key := bookKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("book", "hit")
		var b model.CouponBook
		if json.Unmarshal([]byte(val), &b) == nil {
			return &b, nil
		}
	} else if err != redis.Nil {
		// Redis down degrades to a plain DB read.
	}

	metrics.IncCacheRequest("book", "miss")
	b, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b != nil {
		bytes, _ := json.Marshal(b)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return b, nil
}

// Write operations invalidate the cached copy.
func (d *bookRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, b *model.CouponBook) error {
	d.cache.Del(ctx, bookKey(b.ID))
	return d.inner.Save(ctx, tx, b)
}

func (d *bookRepoCacheDecorator) IncrementTotalCodes(ctx context.Context, tx repository.Tx, id string, n int) error {
	d.cache.Del(ctx, bookKey(id))
	return d.inner.IncrementTotalCodes(ctx, tx, id, n)
}
