package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/basho-studio/storefront/internal/cart/domain"
)

// RedisRepository keeps one snapshot per scope under cart:{scope}.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) GetCart(ctx context.Context, scope domain.Scope) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, storageKey(scope)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decodeCart(data)
}

func (r *RedisRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	data, err := encodeCart(cart)
	if err != nil {
		return err
	}
	// No TTL: the snapshot lives until cleared or emptied.
	if err := r.client.Set(ctx, storageKey(cart.Scope), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) DeleteCart(ctx context.Context, scope domain.Scope) error {
	if err := r.client.Del(ctx, storageKey(scope)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func storageKey(scope domain.Scope) string {
	return fmt.Sprintf("cart:%s", scope)
}
