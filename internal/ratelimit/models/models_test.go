package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	start := time.Unix(1_700_000_040, 0)

	assert.Equal(t, "rl:gst:203.0.113.7:1700000040", Key("203.0.113.7", start))
	assert.Equal(t, "rl:gst:2001_db8__1:1700000040", Key("2001:db8::1", start))
}

func TestNewResult(t *testing.T) {
	w := Window{Limit: 3, Duration: time.Minute}
	now := time.Date(2024, 6, 1, 10, 0, 45, 0, time.UTC)
	start := w.Start(now)

	t.Run("under limit", func(t *testing.T) {
		res := NewResult(w, 2, start, now)
		assert.True(t, res.Allowed)
		assert.Equal(t, 1, res.Remaining)
		assert.Equal(t, time.Date(2024, 6, 1, 10, 1, 0, 0, time.UTC), res.ResetAt)
		assert.Zero(t, res.RetryAfter)
	})

	t.Run("at limit", func(t *testing.T) {
		res := NewResult(w, 3, start, now)
		assert.True(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
	})

	t.Run("over limit", func(t *testing.T) {
		res := NewResult(w, 4, start, now)
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
		assert.Equal(t, 15, res.RetryAfter)
	})
}
