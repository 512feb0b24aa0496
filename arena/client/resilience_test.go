package client

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCircuitBreakerStartsClosed(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())
	if cb.State() != CircuitClosed {
		t.Errorf("initial State() = %v, want %v", cb.State(), CircuitClosed)
	}
	if err := cb.Allow(); err != nil {
		t.Errorf("Allow() error in closed state: %v", err)
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          time.Second,
	})

	cb.RecordFailure(errors.New("boom"))
	cb.RecordFailure(errors.New("boom"))
	cb.RecordSuccess()
	cb.RecordFailure(errors.New("boom"))
	cb.RecordFailure(errors.New("boom"))

	if cb.State() != CircuitClosed {
		t.Errorf("State() = %v, want %v", cb.State(), CircuitClosed)
	}
}

func TestCircuitBreakerOpensOnThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          100 * time.Millisecond,
	})

	for i := 0; i < 3; i++ {
		cb.RecordFailure(errors.New("boom"))
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("State() = %v, want %v", cb.State(), CircuitOpen)
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Allow() error = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreakerHalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          20 * time.Millisecond,
	})

	cb.RecordFailure(errors.New("boom"))
	cb.RecordFailure(errors.New("boom"))
	if cb.State() != CircuitOpen {
		t.Fatalf("State() = %v, want %v", cb.State(), CircuitOpen)
	}

	time.Sleep(30 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow() error after timeout: %v", err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("State() = %v, want %v", cb.State(), CircuitHalfOpen)
	}

	cb.RecordSuccess()
	if cb.State() != CircuitClosed {
		t.Errorf("State() after probe success = %v, want %v", cb.State(), CircuitClosed)
	}
}

func TestCircuitBreakerReopensFromHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 2,
		Timeout:          10 * time.Millisecond,
	})

	cb.RecordFailure(errors.New("boom"))
	cb.RecordFailure(errors.New("boom"))
	time.Sleep(20 * time.Millisecond)
	cb.Allow()

	cb.RecordFailure(errors.New("probe failed"))
	if cb.State() != CircuitOpen {
		t.Errorf("State() = %v, want %v", cb.State(), CircuitOpen)
	}
}

func TestCircuitBreakerLastError(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())
	if cb.LastError() != nil {
		t.Error("LastError() should be nil initially")
	}

	boom := errors.New("boom")
	cb.RecordFailure(boom)
	if cb.LastError() != boom {
		t.Errorf("LastError() = %v, want %v", cb.LastError(), boom)
	}
}

func TestCircuitStateString(t *testing.T) {
	cases := []struct {
		state CircuitState
		want  string
	}{
		{CircuitClosed, "closed"},
		{CircuitOpen, "open"},
		{CircuitHalfOpen, "half-open"},
		{CircuitState(99), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestCircuitBreakerOnStateChange(t *testing.T) {
	var mu sync.Mutex
	var transitions []CircuitState

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Second,
		OnStateChange: func(from, to CircuitState) {
			mu.Lock()
			transitions = append(transitions, to)
			mu.Unlock()
		},
	})

	cb.RecordFailure(errors.New("boom"))
	cb.RecordFailure(errors.New("boom"))

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 1 || transitions[0] != CircuitOpen {
		t.Errorf("transitions = %v, want [open]", transitions)
	}
}

func TestCircuitBreakerConcurrentAccess(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			cb.Allow()
		}()
		go func() {
			defer wg.Done()
			cb.RecordSuccess()
		}()
		go func() {
			defer wg.Done()
			cb.RecordFailure(errors.New("boom"))
		}()
	}
	wg.Wait()
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	rt := &resilientTransport{retry: RetryConfig{
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        40 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}}

	if got := rt.backoff(1); got != 10*time.Millisecond {
		t.Errorf("backoff(1) = %v, want 10ms", got)
	}
	if got := rt.backoff(2); got != 20*time.Millisecond {
		t.Errorf("backoff(2) = %v, want 20ms", got)
	}
	if got := rt.backoff(5); got != 40*time.Millisecond {
		t.Errorf("backoff(5) = %v, want capped at 40ms", got)
	}
}
