// internal/cache/redis_test.go
package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Without a connected client every cache call degrades to a no-op so the
// server keeps serving from postgres.
func TestCacheIsNoOpWithoutClient(t *testing.T) {
	Rdb = nil
	ctx := context.Background()

	var dest []string
	assert.False(t, GetLeaderboard(ctx, &dest))
	assert.NoError(t, SetLeaderboard(ctx, []string{"a"}))
	InvalidateLeaderboard(ctx)
}
