package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/imobiliare-next/internal/config"

	"github.com/hibiken/asynq"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func (r *recordingEnqueuer) Close() error { return nil }

func TestClientDisabledReturnsErrQueueDisabled(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	err = client.SendExpiredNotice(context.Background(), "a@example.com", "Ana", "http://x")
	if !errors.Is(err, ErrQueueDisabled) {
		t.Fatalf("want ErrQueueDisabled got %v", err)
	}
}

func TestClientEnqueuesReminderPayload(t *testing.T) {
	recorder := &recordingEnqueuer{}
	client := &Client{client: recorder, enabled: true, defaultQueue: DefaultQueue}

	if err := client.SendExpirationReminder(context.Background(), " ana@example.com ", "Ana", "http://front/payment-packages?announcementId=7", 2); err != nil {
		t.Fatalf("enqueue reminder failed: %v", err)
	}
	if len(recorder.tasks) != 1 {
		t.Fatalf("want 1 task got %d", len(recorder.tasks))
	}
	task := recorder.tasks[0]
	if task.Type() != TaskExpirationReminderEmail {
		t.Fatalf("unexpected task type %s", task.Type())
	}
	var payload AnnouncementEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.Email != "ana@example.com" || payload.DaysLeft != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}

	if err := client.SendAnnouncementConfirmation(context.Background(), "", "Ana", "x"); err == nil {
		t.Fatalf("empty recipient should fail")
	}
}

func TestPeriodicEntries(t *testing.T) {
	entries := PeriodicEntries(config.ScheduleConfig{ExpirationCron: "0 8 * * *", CleanupCron: " "})
	if len(entries) != 1 {
		t.Fatalf("want 1 entry got %d", len(entries))
	}
	if entries[0].TaskType != TaskExpirationSweep || entries[0].CronSpec != "0 8 * * *" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected addr %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[CriticalQueue] != 1 {
		t.Fatalf("unexpected server config %+v", cfg)
	}
}
