package resilience

import (
	"errors"
	"sync"
	"time"
)

// Rejections. Neither means the guarded call ran.
var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State of a Breaker. The numeric value is exported as a gauge.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

var stateNames = [...]string{"closed", "half-open", "open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Settings configures a Breaker. Zero fields take the noted defaults.
type Settings struct {
	// HalfOpenMax is how many trial calls a half-open breaker admits, and
	// how many of them must succeed to close it. Default 1.
	HalfOpenMax uint32
	// Cooldown is how long the breaker stays open. Default 60s.
	Cooldown time.Duration
	// ReadyToTrip is consulted after each failure while closed. Default is
	// more than five failures in a row.
	ReadyToTrip func(counts Counts) bool
	// IsSuccessful classifies the error of a finished call. Default err == nil.
	IsSuccessful func(err error) bool
	// OnStateChange runs with the breaker locked and must not call back into it.
	OnStateChange func(name string, from, to State)
}

// Counts covers the current state only; every transition zeroes it.
type Counts struct {
	Requests             uint32
	Successes            uint32
	Failures             uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) record(success bool) {
	if success {
		c.Successes++
		c.ConsecutiveSuccesses++
		c.ConsecutiveFailures = 0
		return
	}
	c.Failures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Breaker stops calling a dependency that keeps failing, then lets a few
// trial calls through once the cooldown has passed.
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	openedAt   time.Time
}

// New returns a closed breaker
func New(name string, settings Settings) *Breaker {
	if settings.HalfOpenMax == 0 {
		settings.HalfOpenMax = 1
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 60 * time.Second
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts Counts) bool {
			return counts.ConsecutiveFailures > 5
		}
	}
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = func(err error) bool { return err == nil }
	}

	return &Breaker{
		name:     name,
		settings: settings,
		now:      time.Now,
	}
}

func (b *Breaker) Name() string {
	return b.name
}

// State reports the current state, moving an expired open breaker to half-open.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refresh()
}

func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Allow admits one call. On success the returned done must be called
// exactly once with the call's outcome.
func (b *Breaker) Allow() (done func(success bool), err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.refresh() {
	case StateOpen:
		return nil, ErrCircuitOpen
	case StateHalfOpen:
		if b.counts.Requests >= b.settings.HalfOpenMax {
			return nil, ErrTooManyRequests
		}
	}

	b.counts.Requests++
	gen := b.generation
	return func(success bool) { b.finish(gen, success) }, nil
}

func (b *Breaker) finish(gen uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.refresh()
	// admitted under an earlier state, its outcome no longer counts
	if gen != b.generation {
		return
	}

	b.counts.record(success)
	switch {
	case state == StateClosed && !success && b.settings.ReadyToTrip(b.counts):
		b.transition(StateOpen)
	case state == StateHalfOpen && !success:
		b.transition(StateOpen)
	case state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.HalfOpenMax:
		b.transition(StateClosed)
	}
}

// refresh expires the open state. Callers hold mu.
func (b *Breaker) refresh() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.settings.Cooldown {
		b.transition(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.generation++
	b.counts = Counts{}
	if to == StateOpen {
		b.openedAt = b.now()
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}

// Do runs fn if b admits it and records the outcome. A panic in fn counts
// as a failure and is re-raised.
func Do[T any](b *Breaker, fn func() (T, error)) (result T, err error) {
	done, err := b.Allow()
	if err != nil {
		return result, err
	}

	finished := false
	defer func() {
		if !finished {
			done(false)
		}
	}()

	result, err = fn()
	finished = true
	done(b.settings.IsSuccessful(err))
	return result, err
}

// IsRejection reports whether err means the breaker refused the call
func IsRejection(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}
