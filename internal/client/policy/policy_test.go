package policy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"miniregion/internal/logging"
)

func TestDebouncerRunsLastCallOnly(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	for i := 1; i <= 5; i++ {
		d.Call(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 5 {
				close(done)
			}
		})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != 5 {
		t.Errorf("expected only the last call, got %v", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var ran atomic.Bool
	d.Call(func() { ran.Store(true) })

	if !d.Stop() {
		t.Error("expected a pending call")
	}
	time.Sleep(40 * time.Millisecond)
	if ran.Load() {
		t.Error("stopped call ran")
	}
}

func TestGateSpacing(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewGate(time.Second, func() time.Time { return now })

	steps := []struct {
		advance time.Duration
		want    bool
	}{
		{0, true},
		{500 * time.Millisecond, false},
		{499 * time.Millisecond, false},
		{1 * time.Millisecond, true},
		{0, false},
		{2 * time.Second, true},
	}

	for i, s := range steps {
		now = now.Add(s.advance)
		if got := g.Allow(); got != s.want {
			t.Errorf("step %d: Allow = %v, want %v", i, got, s.want)
		}
	}
}

func TestRetryAttempts(t *testing.T) {
	r := Retry{Attempts: 3, BaseDelay: time.Millisecond, Multiplier: 2, Log: logging.Nop()}

	var calls int
	failure := errors.New("backend down")
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return failure
	})

	if !errors.Is(err, failure) {
		t.Errorf("expected the last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	r := Retry{Attempts: 3, BaseDelay: time.Millisecond, Multiplier: 2, Log: logging.Nop()}

	var calls int
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil || calls != 2 {
		t.Errorf("got err=%v calls=%d, want nil and 2", err, calls)
	}
}

func TestRetryBackoffGrows(t *testing.T) {
	r := Retry{Attempts: 3, BaseDelay: 20 * time.Millisecond, Multiplier: 2, Log: logging.Nop()}

	var stamps []time.Time
	r.Do(context.Background(), func(context.Context) error {
		stamps = append(stamps, time.Now())
		return errors.New("fail")
	})

	if len(stamps) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stamps))
	}
	first, second := stamps[1].Sub(stamps[0]), stamps[2].Sub(stamps[1])
	if first < 20*time.Millisecond || second < 40*time.Millisecond {
		t.Errorf("unexpected delays %v, %v", first, second)
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	r := Retry{Attempts: 5, BaseDelay: 10 * time.Millisecond, Multiplier: 2, Log: logging.Nop()}
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	r.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})

	if calls != 1 {
		t.Errorf("expected a single attempt after cancellation, got %d", calls)
	}
}
