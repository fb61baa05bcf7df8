package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/fitcoach/internal/domain"
)

func TestNoopCatalogAlwaysMisses(t *testing.T) {
	var c NoopCatalog
	ctx := context.Background()
	require.NoError(t, c.SetCourses(ctx, []domain.Course{{ID: "c-1"}}))
	courses, ok, err := c.GetCourses(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, courses)
	require.NoError(t, c.Invalidate(ctx))
}
