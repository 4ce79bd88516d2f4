//go:build !integration

package postgres

import (
	"context"
	"time"

	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/domain/ports/repository"
	red "coupon-lifecycle-engine/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerBookRepo mocks the database repository that the book decorator wraps.
type mockInnerBookRepo struct {
	SaveFunc                func(ctx context.Context, tx repository.Tx, b *model.CouponBook) error
	FindByIDFunc            func(ctx context.Context, tx repository.Tx, id string) (*model.CouponBook, error)
	IncrementTotalCodesFunc func(ctx context.Context, tx repository.Tx, id string, n int) error
}

var _ repository.CouponBookRepository = (*mockInnerBookRepo)(nil)

func (m *mockInnerBookRepo) Save(ctx context.Context, tx repository.Tx, b *model.CouponBook) error {
	return m.SaveFunc(ctx, tx, b)
}
func (m *mockInnerBookRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CouponBook, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerBookRepo) IncrementTotalCodes(ctx context.Context, tx repository.Tx, id string, n int) error {
	return m.IncrementTotalCodesFunc(ctx, tx, id, n)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
