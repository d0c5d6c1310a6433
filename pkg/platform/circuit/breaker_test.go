package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turia/pkg/testutil"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newUpstreamBreaker(clk *clock, opts ...Option) *Breaker {
	opts = append([]Option{WithCooldown(10 * time.Second), WithClock(clk.Now)}, opts...)
	return New("mastergst", opts...)
}

func TestNewBreakerIsClosed(t *testing.T) {
	b := New("mastergst")
	assert.Equal(t, "mastergst", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestConsecutiveFailures(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		outcomes  []bool // true = success
		wantOpen  bool
	}{
		{"below threshold", 3, []bool{false, false}, false},
		{"at threshold", 3, []bool{false, false, false}, true},
		{"success in between resets the run", 3, []bool{false, false, true, false, false}, false},
		{"one success closes with the default threshold", 1, []bool{false, false, true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newUpstreamBreaker(&clock{}, WithFailureThreshold(tt.threshold))
			for _, ok := range tt.outcomes {
				if ok {
					b.RecordSuccess()
				} else {
					b.RecordFailure()
				}
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
		})
	}
}

func TestStateChangesAreReportedOnce(t *testing.T) {
	b := newUpstreamBreaker(&clock{}, WithFailureThreshold(2))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.Equal(t, StateChange{}, change)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened, "already open")

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestUpstreamOutage(t *testing.T) {
	clk := &clock{now: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
	b := newUpstreamBreaker(clk, WithFailureThreshold(1), WithSuccessThreshold(2))

	testutil.Given(t, "the upstream fails", func(t *testing.T) {
		b.RecordFailure()
		require.True(t, b.IsOpen())

		testutil.Then(t, "calls are skipped until the cooldown elapses", func(t *testing.T) {
			assert.False(t, b.Allow())
			clk.Advance(9 * time.Second)
			assert.False(t, b.Allow())
			clk.Advance(time.Second)
			assert.True(t, b.Allow())
		})
	})

	testutil.When(t, "the probe fails", func(t *testing.T) {
		b.RecordFailure()

		testutil.Then(t, "the cooldown restarts", func(t *testing.T) {
			assert.False(t, b.Allow())
		})
	})

	testutil.When(t, "probes succeed again", func(t *testing.T) {
		clk.Advance(10 * time.Second)
		usePrimary, _ := b.RecordSuccess()
		assert.False(t, usePrimary, "one success is not enough")

		b.RecordFailure()
		clk.Advance(10 * time.Second)
		b.RecordSuccess()
		usePrimary, change := b.RecordSuccess()

		testutil.Then(t, "the breaker closes after an unbroken run", func(t *testing.T) {
			assert.True(t, usePrimary)
			assert.True(t, change.Closed)
			assert.Equal(t, StateClosed, b.State())
			assert.True(t, b.Allow())
		})
	})
}

func TestReset(t *testing.T) {
	b := newUpstreamBreaker(&clock{}, WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}
