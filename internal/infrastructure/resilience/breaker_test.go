package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errLaunch = errors.New("chrome not found")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(settings Settings) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	b := New("browser-launch", settings)
	b.now = clock.now
	return b, clock
}

func call(b *Breaker, ok bool) error {
	_, err := Do(b, func() (struct{}, error) {
		if ok {
			return struct{}{}, nil
		}
		return struct{}{}, errLaunch
	})
	return err
}

func tripAfter(n uint32) func(Counts) bool {
	return func(c Counts) bool { return c.ConsecutiveFailures >= n }
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		calls    []bool // true = success
		elapsed  time.Duration
		want     State
	}{
		{
			name:  "stays closed on successes",
			calls: []bool{true, true, true},
			want:  StateClosed,
		},
		{
			name:     "opens after consecutive failures",
			settings: Settings{ReadyToTrip: tripAfter(3)},
			calls:    []bool{false, false, false},
			want:     StateOpen,
		},
		{
			name:     "a success resets the streak",
			settings: Settings{ReadyToTrip: tripAfter(2)},
			calls:    []bool{false, true, false},
			want:     StateClosed,
		},
		{
			name:     "default trips after six failures",
			settings: Settings{},
			calls:    []bool{false, false, false, false, false, false},
			want:     StateOpen,
		},
		{
			name:     "half-open once the cooldown passes",
			settings: Settings{Cooldown: time.Second, ReadyToTrip: tripAfter(1)},
			calls:    []bool{false},
			elapsed:  time.Second,
			want:     StateHalfOpen,
		},
		{
			name:     "still open before the cooldown",
			settings: Settings{Cooldown: time.Second, ReadyToTrip: tripAfter(1)},
			calls:    []bool{false},
			elapsed:  999 * time.Millisecond,
			want:     StateOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, clock := newTestBreaker(tt.settings)
			for _, ok := range tt.calls {
				_ = call(b, ok)
			}
			clock.advance(tt.elapsed)
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	b, _ := newTestBreaker(Settings{})

	require.NoError(t, call(b, true))
	assert.Equal(t, Counts{Requests: 1, Successes: 1, ConsecutiveSuccesses: 1}, b.Counts())

	assert.ErrorIs(t, call(b, false), errLaunch)
	assert.Equal(t, Counts{Requests: 2, Successes: 1, Failures: 1, ConsecutiveFailures: 1}, b.Counts())
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	b, _ := newTestBreaker(Settings{ReadyToTrip: tripAfter(1)})
	_ = call(b, false)
	require.Equal(t, StateOpen, b.State())

	called := false
	got, err := Do(b, func() (*int, error) {
		called = true
		return new(int), nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsRejection(err))
	assert.Nil(t, got)
	assert.False(t, called)
	assert.Equal(t, Counts{}, b.Counts())
}

func TestBreakerHalfOpen(t *testing.T) {
	t.Run("closes after enough successes", func(t *testing.T) {
		b, clock := newTestBreaker(Settings{
			HalfOpenMax: 2,
			Cooldown:    time.Second,
			ReadyToTrip: tripAfter(1),
		})
		_ = call(b, false)
		clock.advance(time.Second)

		require.NoError(t, call(b, true))
		assert.Equal(t, StateHalfOpen, b.State())
		require.NoError(t, call(b, true))
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("reopens on a failure", func(t *testing.T) {
		b, clock := newTestBreaker(Settings{
			HalfOpenMax: 2,
			Cooldown:    time.Second,
			ReadyToTrip: tripAfter(5),
		})
		for i := 0; i < 5; i++ {
			_ = call(b, false)
		}
		clock.advance(time.Second)

		require.NoError(t, call(b, true))
		assert.ErrorIs(t, call(b, false), errLaunch)
		assert.Equal(t, StateOpen, b.State())

		clock.advance(time.Second)
		assert.Equal(t, StateHalfOpen, b.State())
	})

	t.Run("admits only HalfOpenMax calls at once", func(t *testing.T) {
		b, clock := newTestBreaker(Settings{Cooldown: time.Second, ReadyToTrip: tripAfter(1)})
		_ = call(b, false)
		clock.advance(time.Second)

		done, err := b.Allow()
		require.NoError(t, err)

		_, err = b.Allow()
		assert.ErrorIs(t, err, ErrTooManyRequests)
		assert.True(t, IsRejection(err))

		done(true)
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestBreakerIgnoresStaleOutcomes(t *testing.T) {
	b, _ := newTestBreaker(Settings{ReadyToTrip: tripAfter(1)})

	slow, err := b.Allow()
	require.NoError(t, err)

	_ = call(b, false)
	require.Equal(t, StateOpen, b.State())

	// admitted while closed, finishing after the breaker opened
	slow(true)
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, Counts{}, b.Counts())
}

func TestBreakerStateChanges(t *testing.T) {
	var transitions []string
	b, clock := newTestBreaker(Settings{
		Cooldown:    time.Second,
		ReadyToTrip: tripAfter(2),
		OnStateChange: func(name string, from, to State) {
			assert.Equal(t, "browser-launch", name)
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = call(b, false)
	_ = call(b, false)
	clock.advance(time.Second)
	require.NoError(t, call(b, true))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestDoReturnsTypedResult(t *testing.T) {
	b, _ := newTestBreaker(Settings{})

	got, err := Do(b, func() (string, error) {
		return "ws://127.0.0.1:9222/devtools/browser/abc", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/abc", got)

	got, err = Do(b, func() (string, error) {
		return "", errLaunch
	})
	assert.ErrorIs(t, err, errLaunch)
	assert.Empty(t, got)
}

func TestDoCountsPanicAsFailure(t *testing.T) {
	b, _ := newTestBreaker(Settings{ReadyToTrip: tripAfter(1)})

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = Do(b, func() (int, error) { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestIsSuccessfulIgnoresCallerErrors(t *testing.T) {
	errCancelled := errors.New("request cancelled")

	b, _ := newTestBreaker(Settings{
		ReadyToTrip: tripAfter(2),
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCancelled)
		},
	})

	for i := 0; i < 5; i++ {
		_, err := Do(b, func() (struct{}, error) { return struct{}{}, errCancelled })
		assert.ErrorIs(t, err, errCancelled)
	}

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, uint32(0), b.Counts().Failures)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(7).String())
}
