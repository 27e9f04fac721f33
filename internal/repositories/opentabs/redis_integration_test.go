//go:build integration
// +build integration

package opentabs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/charsheet/internal/testutils"
)

func TestRedisCache_Integration(t *testing.T) {
	ctx := context.Background()
	cache := NewRedisCache(testutils.StartRedis(t))

	ids, err := cache.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, cache.Save(ctx, "owner-1", []string{"b", "a", "c"}))
	ids, err = cache.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids)

	require.NoError(t, cache.Save(ctx, "owner-1", nil))
	ids, err = cache.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
