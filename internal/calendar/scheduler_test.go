package calendar

import (
	"context"
	"sync"
	"testing"
	"time"
)

type countingRefresher struct {
	mu       sync.Mutex
	forced   []bool
	deadline bool
	err      error
}

func (c *countingRefresher) GetEvents(ctx context.Context, forceRefresh bool) (*EventsResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forced = append(c.forced, forceRefresh)
	_, c.deadline = ctx.Deadline()
	if c.err != nil {
		return nil, c.err
	}
	return &EventsResponse{Events: []Event{}}, nil
}

func TestSchedulerRunOnceForcesRefresh(t *testing.T) {
	target := &countingRefresher{}
	s, err := NewScheduler(context.Background(), "@every 30m", target, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.RunOnce(context.Background())

	if len(target.forced) != 1 || !target.forced[0] {
		t.Fatalf("expected a single forced refresh, got %v", target.forced)
	}
	if !target.deadline {
		t.Fatalf("expected refresh to run under a deadline")
	}
}

func TestSchedulerRunOnceToleratesFailure(t *testing.T) {
	target := &countingRefresher{err: ErrAllSourcesFailed}
	s, err := NewScheduler(context.Background(), "@hourly", target, 0, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.RunOnce(context.Background())
	if target.deadline {
		t.Fatalf("zero timeout should not set a deadline")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s, err := NewScheduler(context.Background(), "@every 1h", &countingRefresher{}, time.Second, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()
	s.Stop()
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	if _, err := NewScheduler(context.Background(), "every now and then", &countingRefresher{}, time.Second, nil); err == nil {
		t.Fatalf("expected invalid schedule error")
	}
}
