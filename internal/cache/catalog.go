// Package cache holds the catalog read-through cache used by domain.CatalogService.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"example.com/fitcoach/internal/domain"
)

const catalogKey = "fitcoach:catalog:courses:v1"

// NoopCatalog never hits, so every read goes to the repository.
type NoopCatalog struct{}

// GetCourses always misses.
func (NoopCatalog) GetCourses(context.Context) ([]domain.Course, bool, error) { return nil, false, nil }

// SetCourses performs no action.
func (NoopCatalog) SetCourses(context.Context, []domain.Course) error { return nil }

// Invalidate performs no action.
func (NoopCatalog) Invalidate(context.Context) error { return nil }

// RedisCatalog stores the full course list as one JSON value with a TTL.
type RedisCatalog struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCatalog constructs a RedisCatalog.
func NewRedisCatalog(client redis.Cmdable, ttl time.Duration) *RedisCatalog {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisCatalog{client: client, ttl: ttl}
}

// GetCourses implements domain.CatalogCache.
func (c *RedisCatalog) GetCourses(ctx context.Context) ([]domain.Course, bool, error) {
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		missCounter.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var courses []domain.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		// A stale encoding is treated as a miss and overwritten by the next SetCourses.
		missCounter.Inc()
		return nil, false, nil
	}
	hitCounter.Inc()
	return courses, true, nil
}

// SetCourses implements domain.CatalogCache.
func (c *RedisCatalog) SetCourses(ctx context.Context, courses []domain.Course) error {
	raw, err := json.Marshal(courses)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, catalogKey, raw, c.ttl).Err()
}

// Invalidate implements domain.CatalogCache.
func (c *RedisCatalog) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, catalogKey).Err()
}
