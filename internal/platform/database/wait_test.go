package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedPinger struct {
	failures int
	calls    int
}

func (p *scriptedPinger) PingContext(ctx context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func fastOptions(attempts int) WaitOptions {
	return WaitOptions{Attempts: attempts, Interval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestWaitForReadyImmediately(t *testing.T) {
	p := &scriptedPinger{}
	if err := WaitForReady(context.Background(), p, fastOptions(0)); err != nil {
		t.Fatalf("WaitForReady() error = %v", err)
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1", p.calls)
	}
}

func TestWaitForReadyRetriesUntilAvailable(t *testing.T) {
	p := &scriptedPinger{failures: 6}
	if err := WaitForReady(context.Background(), p, fastOptions(0)); err != nil {
		t.Fatalf("WaitForReady() error = %v", err)
	}
	if p.calls != 7 {
		t.Errorf("calls = %d, want 7", p.calls)
	}
}

func TestWaitForReadyGivesUp(t *testing.T) {
	p := &scriptedPinger{failures: 100}
	err := WaitForReady(context.Background(), p, fastOptions(3))
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
}

func TestWaitForReadyHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &scriptedPinger{failures: 100}
	err := WaitForReady(ctx, p, WaitOptions{Interval: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
