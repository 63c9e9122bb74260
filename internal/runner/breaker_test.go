package runner

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testforge/shopsuite/internal/domain"
)

var errSiteDown = domain.ErrNavigation("https://shop.test/", errors.New("net::ERR_CONNECTION_REFUSED"))

func newTestBreaker(threshold int, cooldown time.Duration) (*Breaker, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker(BreakerConfig{Threshold: threshold, Cooldown: cooldown})
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_StartsClosed(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	if b.State() != BreakerClosed {
		t.Errorf("initial state = %v, want closed", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() = %v, want nil", err)
	}
}

func TestBreaker_TripsOnConsecutiveSiteFailures(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	b.Record(errSiteDown)
	b.Record(errSiteDown)
	if b.State() != BreakerClosed {
		t.Fatalf("state after 2 failures = %v, want closed", b.State())
	}

	b.Record(errSiteDown)
	if b.State() != BreakerOpen {
		t.Fatalf("state after 3 failures = %v, want open", b.State())
	}

	err := b.Allow()
	if domain.GetErrorCode(err) != domain.ErrCodeCircuitOpen {
		t.Errorf("Allow() = %v, want CIRCUIT_OPEN", err)
	}
}

func TestBreaker_IgnoresAssertionFailures(t *testing.T) {
	b, _ := newTestBreaker(2, time.Minute)

	for i := 0; i < 5; i++ {
		b.Record(domain.ErrAssertionFailed("visible", "#cart", time.Second, nil))
	}

	if b.State() != BreakerClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b, _ := newTestBreaker(2, time.Minute)

	b.Record(errSiteDown)
	b.Record(nil)
	b.Record(errSiteDown)

	if b.State() != BreakerClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestBreaker_WrappedSiteFailureCounts(t *testing.T) {
	b, _ := newTestBreaker(1, time.Minute)

	b.Record(fmt.Errorf("registering user: %w", errSiteDown))

	if b.State() != BreakerOpen {
		t.Errorf("state = %v, want open", b.State())
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	tests := []struct {
		name   string
		probe  error
		expect BreakerState
	}{
		{"probe passes", nil, BreakerClosed},
		{"probe fails on assertion", domain.ErrAssertionFailed("visible", "#cart", time.Second, nil), BreakerClosed},
		{"probe hits dead site", errSiteDown, BreakerOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, now := newTestBreaker(1, time.Minute)
			b.Record(errSiteDown)

			*now = now.Add(time.Minute)
			if b.State() != BreakerHalfOpen {
				t.Fatalf("state after cooldown = %v, want half-open", b.State())
			}
			if err := b.Allow(); err != nil {
				t.Fatalf("probe Allow() = %v, want nil", err)
			}
			if err := b.Allow(); err == nil {
				t.Fatal("second Allow() during probe = nil, want error")
			}

			b.Record(tt.probe)
			if b.State() != tt.expect {
				t.Errorf("state after probe = %v, want %v", b.State(), tt.expect)
			}
		})
	}
}

func TestBreaker_Disabled(t *testing.T) {
	b, _ := newTestBreaker(0, time.Minute)

	for i := 0; i < 10; i++ {
		b.Record(errSiteDown)
	}

	if err := b.Allow(); err != nil {
		t.Errorf("Allow() = %v, want nil", err)
	}
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	b := NewBreaker(BreakerConfig{
		Threshold: 1,
		Cooldown:  time.Minute,
		OnStateChange: func(from, to BreakerState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	b.Record(errSiteDown)

	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("transitions = %v, want [closed->open]", transitions)
	}
}

func TestBreaker_ConcurrentRecord(t *testing.T) {
	b, _ := newTestBreaker(1000, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Allow()
			b.Record(errSiteDown)
		}()
	}
	wg.Wait()

	if b.State() != BreakerClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}
