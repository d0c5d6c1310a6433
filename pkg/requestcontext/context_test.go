package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, UserAgent(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestValuesRoundTrip(t *testing.T) {
	pinned := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	ctx := WithClientMetadata(context.Background(), "203.0.113.7", "curl/8.0")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTime(ctx, pinned)

	assert.Equal(t, "203.0.113.7", ClientIP(ctx))
	assert.Equal(t, "curl/8.0", UserAgent(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, pinned, Now(ctx))
}
