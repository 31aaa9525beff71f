package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imobiliare-next/internal/config"
	"github.com/imobiliare-next/internal/service"
)

type fakeExpiration struct {
	calls int
	now   time.Time
	err   error
}

func (f *fakeExpiration) RunSweep(ctx context.Context, now time.Time) (service.SweepResult, error) {
	f.calls++
	f.now = now
	return service.SweepResult{Checked: 3, Expired: 1}, f.err
}

type fakeCleanup struct {
	calls     int
	retention time.Duration
}

func (f *fakeCleanup) RunSweep(ctx context.Context, now time.Time, retention time.Duration) (int, error) {
	f.calls++
	f.retention = retention
	return 2, nil
}

func TestNewRegistersJobs(t *testing.T) {
	schedule := config.ScheduleConfig{
		Timezone:              "Europe/Bucharest",
		ExpirationCron:        "0 1 * * *",
		CleanupCron:           "30 3 * * *",
		CleanupRetentionHours: 48,
	}
	svc, err := New(schedule, &fakeExpiration{}, &fakeCleanup{})
	if err != nil {
		t.Fatalf("new scheduler failed: %v", err)
	}
	if got := len(svc.cron.Entries()); got != 2 {
		t.Fatalf("expected 2 entries, got %d", got)
	}
	if svc.retention != 48*time.Hour {
		t.Fatalf("unexpected retention: %v", svc.retention)
	}
	if svc.Name() != "scheduler" {
		t.Fatalf("unexpected name: %s", svc.Name())
	}
}

func TestNewSkipsEmptySpecs(t *testing.T) {
	svc, err := New(config.ScheduleConfig{ExpirationCron: "0 1 * * *"}, &fakeExpiration{}, &fakeCleanup{})
	if err != nil {
		t.Fatalf("new scheduler failed: %v", err)
	}
	if got := len(svc.cron.Entries()); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	if _, err := New(config.ScheduleConfig{ExpirationCron: "every night"}, &fakeExpiration{}, &fakeCleanup{}); err == nil {
		t.Fatalf("expected invalid cron spec error")
	}
	if _, err := New(config.ScheduleConfig{}, nil, &fakeCleanup{}); err == nil {
		t.Fatalf("expected missing runner error")
	}
}

func TestJobsCallRunners(t *testing.T) {
	expiration := &fakeExpiration{}
	cleanup := &fakeCleanup{}
	svc, err := New(config.ScheduleConfig{}, expiration, cleanup)
	if err != nil {
		t.Fatalf("new scheduler failed: %v", err)
	}
	fixed := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	svc.runExpiration()
	svc.runCleanup()
	if expiration.calls != 1 || !expiration.now.Equal(fixed) {
		t.Fatalf("expiration not called with clock: %+v", expiration)
	}
	if cleanup.calls != 1 || cleanup.retention != 24*time.Hour {
		t.Fatalf("cleanup not called with default retention: %+v", cleanup)
	}

	expiration.err = errors.New("db down")
	svc.runExpiration()
	if expiration.calls != 2 {
		t.Fatalf("expected failing sweep to still run")
	}
}

func TestStartStop(t *testing.T) {
	svc, err := New(config.ScheduleConfig{CleanupCron: "0 4 * * *"}, &fakeExpiration{}, &fakeCleanup{})
	if err != nil {
		t.Fatalf("new scheduler failed: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("start did not return after stop")
	}
}
