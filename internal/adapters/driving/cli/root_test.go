package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corra/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corra/internal/ratelimit"
)

func TestLimiterSet_For(t *testing.T) {
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("ratelimit.notion.rate", 2.5))
	require.NoError(t, store.Set("ratelimit.notion.timeout", 5))
	limiters := newLimiterSet(store)

	t.Run("configured section", func(t *testing.T) {
		l := limiters.For("notion")

		assert.Equal(t, "notion", l.SourceKey())
		assert.Equal(t, 5*time.Second, l.AttemptTimeout())
	})

	t.Run("unconfigured key gets attempt deadline", func(t *testing.T) {
		l := limiters.For("github")

		assert.Equal(t, ratelimit.DefaultAttemptTimeout, l.AttemptTimeout())
	})

	t.Run("one shared limiter per key", func(t *testing.T) {
		assert.Same(t, limiters.For("notion"), limiters.For("notion"))
	})
}
