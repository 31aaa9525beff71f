package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeService struct {
	name     string
	startErr error
	panicMsg string

	mu      sync.Mutex
	stopped bool
	order   *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(ctx context.Context) error {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeService) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	if f.order != nil {
		*f.order = append(*f.order, f.name)
	}
	return nil
}

func TestRunnerStopsAllOnServiceError(t *testing.T) {
	var order []string
	healthy := &fakeService{name: "http", order: &order}
	failing := &fakeService{name: "scheduler", startErr: errors.New("boom"), order: &order}
	runner := NewRunner(healthy, failing)

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
	if !healthy.stopped || !failing.stopped {
		t.Fatalf("expected every service to be stopped")
	}
	if len(order) != 2 || order[0] != "scheduler" || order[1] != "http" {
		t.Fatalf("expected reverse stop order, got %v", order)
	}
}

func TestRunnerCancelIsCleanExit(t *testing.T) {
	runner := NewRunner(&fakeService{name: "worker"})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("expected nil on cancel, got %v", err)
	}
}

func TestRunnerRecoversPanic(t *testing.T) {
	runner := NewRunner(&fakeService{name: "scheduler", panicMsg: "bad cron"})
	if err := runner.Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected panic to surface as error")
	}
}

func TestRunnerNames(t *testing.T) {
	runner := NewRunner(&fakeService{name: "http"}, nil, &fakeService{name: "worker"})
	names := runner.Names()
	if len(names) != 3 || names[0] != "http" || names[1] != "unknown" || names[2] != "worker" {
		t.Fatalf("unexpected names: %v", names)
	}
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected empty runner error")
	}
}
