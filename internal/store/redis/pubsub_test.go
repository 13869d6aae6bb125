package redis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	redisstore "github.com/Permanently/sessionbook/internal/store/redis"
)

func TestSummaryChannel(t *testing.T) {
	t.Parallel()

	t.Run("personal owner", func(t *testing.T) {
		t.Parallel()

		got := redisstore.SummaryChannel("user-123")
		assert.Equal(t, "summaries:user-123", got)
	})

	t.Run("workspace owner", func(t *testing.T) {
		t.Parallel()

		got := redisstore.SummaryChannel("team-ws-9")
		assert.Equal(t, "summaries:team-ws-9", got)
	})

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()

		got := redisstore.SummaryChannel("user-123")
		assert.True(t, strings.HasPrefix(got, "summaries:"), "expected prefix 'summaries:', got %q", got)
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		a := redisstore.SummaryChannel("user-123")
		b := redisstore.SummaryChannel("user-123")
		assert.Equal(t, a, b)
	})

	t.Run("different owners never share a channel", func(t *testing.T) {
		t.Parallel()

		a := redisstore.SummaryChannel("user-123")
		b := redisstore.SummaryChannel("team-ws-9")
		assert.NotEqual(t, a, b)
	})
}
