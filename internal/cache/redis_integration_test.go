//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"example.com/fitcoach/internal/domain"
)

func TestRedisCatalogRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	defer client.Close()

	cache := NewRedisCatalog(client, time.Minute)

	_, ok, err := cache.GetCourses(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	courses := []domain.Course{{ID: "c-1", Title: "Yoga basics", Level: domain.LevelBeginner, Duration: 7, IsActive: true}}
	require.NoError(t, cache.SetCourses(ctx, courses))

	got, ok, err := cache.GetCourses(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, courses[0].Title, got[0].Title)
	require.Equal(t, domain.LevelBeginner, got[0].Level)

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.GetCourses(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}
