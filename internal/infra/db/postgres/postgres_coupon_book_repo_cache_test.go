//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"coupon-lifecycle-engine/internal/domain/model"
	"coupon-lifecycle-engine/internal/domain/ports/repository"
)

func TestBookRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	book := &model.CouponBook{Meta: model.Meta{ID: "book-123"}, Name: "Summer Promo", Status: model.BookStatusActive}
	bookJSON, _ := json.Marshal(book)

	t.Run("FindByID returns from cache on hit", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return string(bookJSON), nil // cache hit
			},
		}
		innerCalled := false
		inner := &mockInnerBookRepo{
			FindByIDFunc: func(ctx context.Context, tx repository.Tx, id string) (*model.CouponBook, error) {
				innerCalled = true
				return nil, nil
			},
		}

		decorator := NewBookRepoCacheDecorator(inner, mockRedis, time.Hour)

		result, err := decorator.FindByID(ctx, nil, "book-123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if innerCalled {
			t.Error("inner repository should not be called on a cache hit")
		}
		if result == nil || result.ID != "book-123" {
			t.Error("did not return the correct book from cache")
		}
	})

	t.Run("FindByID falls through and backfills on miss", func(t *testing.T) {
		var setKey string
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return "", redis.Nil
			},
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				setKey = key
				return nil
			},
		}
		inner := &mockInnerBookRepo{
			FindByIDFunc: func(ctx context.Context, tx repository.Tx, id string) (*model.CouponBook, error) {
				return book, nil
			},
		}

		decorator := NewBookRepoCacheDecorator(inner, mockRedis, time.Hour)

		result, err := decorator.FindByID(ctx, nil, "book-123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result == nil || result.ID != "book-123" {
			t.Error("did not return the book from the inner repository")
		}
		if setKey != "book:book-123" {
			t.Errorf("expected backfill under book:book-123, got %q", setKey)
		}
	})

	t.Run("Save invalidates the cache", func(t *testing.T) {
		var deletedKeys []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deletedKeys = append(deletedKeys, keys...)
				return nil
			},
		}
		inner := &mockInnerBookRepo{
			SaveFunc: func(ctx context.Context, tx repository.Tx, b *model.CouponBook) error {
				return nil
			},
		}

		decorator := NewBookRepoCacheDecorator(inner, mockRedis, time.Hour)

		if err := decorator.Save(ctx, nil, book); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(deletedKeys) != 1 || deletedKeys[0] != "book:book-123" {
			t.Fatalf("expected book:book-123 to be invalidated, got %v", deletedKeys)
		}
	})

	t.Run("IncrementTotalCodes invalidates the cache", func(t *testing.T) {
		var deletedKeys []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deletedKeys = append(deletedKeys, keys...)
				return nil
			},
		}
		inner := &mockInnerBookRepo{
			IncrementTotalCodesFunc: func(ctx context.Context, tx repository.Tx, id string, n int) error {
				return nil
			},
		}

		decorator := NewBookRepoCacheDecorator(inner, mockRedis, time.Hour)

		if err := decorator.IncrementTotalCodes(ctx, nil, "book-123", 5); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(deletedKeys) != 1 || deletedKeys[0] != "book:book-123" {
			t.Fatalf("expected book:book-123 to be invalidated, got %v", deletedKeys)
		}
	})
}
