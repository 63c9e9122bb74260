package runner

import (
	"errors"
	"sync"
	"time"

	"github.com/testforge/shopsuite/internal/domain"
)

// BreakerState represents the state of the site breaker
type BreakerState int32

const (
	// BreakerClosed - scenarios start normally
	BreakerClosed BreakerState = iota
	// BreakerOpen - the site looks down, scenarios are skipped
	BreakerOpen
	// BreakerHalfOpen - one probe scenario is let through
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds configuration for the site breaker
type BreakerConfig struct {
	// Threshold is the number of consecutive site failures that opens the
	// breaker. Zero disables it.
	Threshold int

	// Cooldown is how long to wait before letting a probe through
	Cooldown time.Duration

	// IsSiteFailure decides whether a scenario error says the site itself
	// is unreachable. Defaults to navigation failures.
	IsSiteFailure func(err error) bool

	// OnStateChange is called whenever the state changes
	OnStateChange func(from, to BreakerState)
}

// Breaker stops a run from hammering a site that stopped answering.
// Assertion failures never count against the site.
type Breaker struct {
	threshold     int
	cooldown      time.Duration
	isSiteFailure func(err error) bool
	onStateChange func(from, to BreakerState)
	now           func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	expiry   time.Time
	probing  bool
}

// NewBreaker creates a breaker with the given config
func NewBreaker(config BreakerConfig) *Breaker {
	b := &Breaker{
		threshold:     config.Threshold,
		cooldown:      config.Cooldown,
		isSiteFailure: config.IsSiteFailure,
		onStateChange: config.OnStateChange,
		now:           time.Now,
	}
	if b.cooldown <= 0 {
		b.cooldown = 30 * time.Second
	}
	if b.isSiteFailure == nil {
		b.isSiteFailure = func(err error) bool {
			return errors.Is(err, domain.ErrNavigationSentinel)
		}
	}
	return b
}

// State returns the current state of the breaker
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// Allow reports whether a scenario may start. In half-open state only one
// probe is allowed until its outcome is recorded.
func (b *Breaker) Allow() error {
	if b.threshold <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
	case BreakerOpen:
		return domain.ErrCircuitOpen("site unreachable, cooling down")
	case BreakerHalfOpen:
		if b.probing {
			return domain.ErrCircuitOpen("waiting for probe scenario")
		}
		b.probing = true
	}
	return nil
}

// Record feeds a finished scenario's error (nil on success) into the breaker
func (b *Breaker) Record(err error) {
	if b.threshold <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.currentState()
	siteDown := err != nil && b.isSiteFailure(err)

	switch state {
	case BreakerClosed:
		if !siteDown {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.threshold {
			b.setState(BreakerOpen)
		}
	case BreakerHalfOpen:
		// Any site failure in half-open state trips back to open
		if siteDown {
			b.setState(BreakerOpen)
		} else {
			b.setState(BreakerClosed)
		}
	}
}

func (b *Breaker) currentState() BreakerState {
	if b.state == BreakerOpen && !b.expiry.After(b.now()) {
		b.setState(BreakerHalfOpen)
	}
	return b.state
}

func (b *Breaker) setState(state BreakerState) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state
	b.failures = 0
	b.probing = false
	if state == BreakerOpen {
		b.expiry = b.now().Add(b.cooldown)
	}

	if b.onStateChange != nil {
		b.onStateChange(prev, state)
	}
}
