package cron

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/ybtag/GrapheneMessaging/internal/notify"
)

// testNotifier implements Notifier for job tests.
type testNotifier struct {
	calls      atomic.Int32
	resyncs    atomic.Int32
	lastScope  notify.Scope
	updateFunc func(ctx context.Context, conversationID string, scope notify.Scope) error
	resyncFunc func() error
}

func (n *testNotifier) Update(ctx context.Context, conversationID string, scope notify.Scope) error {
	n.calls.Add(1)
	n.lastScope = scope
	if n.updateFunc != nil {
		return n.updateFunc(ctx, conversationID, scope)
	}
	return nil
}

func (n *testNotifier) Resync(context.Context) error {
	n.resyncs.Add(1)
	if n.resyncFunc != nil {
		return n.resyncFunc()
	}
	return nil
}

func TestFailedSweepJob_Name(t *testing.T) {
	t.Parallel()
	j := &FailedSweepJob{Logger: slog.Default()}
	if j.Name() != "failed_sweep" {
		t.Errorf("name = %q, want %q", j.Name(), "failed_sweep")
	}
}

func TestFailedSweepJob_Schedule(t *testing.T) {
	t.Parallel()

	j := &FailedSweepJob{Logger: slog.Default()}
	if j.Schedule() != "*/5 * * * *" {
		t.Errorf("schedule = %q, want %q", j.Schedule(), "*/5 * * * *")
	}

	j.ScheduleExpr = "@hourly"
	if j.Schedule() != "@hourly" {
		t.Errorf("schedule = %q, want the configured expression", j.Schedule())
	}
}

func TestFailedSweepJob_Run(t *testing.T) {
	t.Parallel()

	notifier := &testNotifier{}
	j := &FailedSweepJob{Notifier: notifier, Logger: slog.Default()}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifier.calls.Load() != 1 {
		t.Errorf("update calls = %d, want 1", notifier.calls.Load())
	}
	// Only the error class is rebuilt; message notifications stay put.
	if notifier.lastScope != notify.ScopeErrors {
		t.Errorf("scope = %d, want ScopeErrors", notifier.lastScope)
	}
}

func TestFailedSweepJob_RunError(t *testing.T) {
	t.Parallel()

	notifier := &testNotifier{
		updateFunc: func(context.Context, string, notify.Scope) error {
			return errors.New("store unavailable")
		},
	}
	j := &FailedSweepJob{Notifier: notifier, Logger: slog.Default()}
	if err := j.Run(context.Background()); err == nil {
		t.Fatal("expected the update error to propagate")
	}
}

func TestResyncJob_Schedule(t *testing.T) {
	t.Parallel()

	j := &ResyncJob{Logger: slog.Default()}
	if j.Name() != "resync" {
		t.Errorf("name = %q, want %q", j.Name(), "resync")
	}
	if j.Schedule() != "@hourly" {
		t.Errorf("schedule = %q, want %q", j.Schedule(), "@hourly")
	}

	j.ScheduleExpr = "0 */6 * * *"
	if j.Schedule() != "0 */6 * * *" {
		t.Errorf("schedule = %q, want the configured expression", j.Schedule())
	}
}

func TestResyncJob_Run(t *testing.T) {
	t.Parallel()

	notifier := &testNotifier{}
	j := &ResyncJob{Notifier: notifier, Logger: slog.Default()}

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifier.resyncs.Load() != 1 {
		t.Errorf("resync calls = %d, want 1", notifier.resyncs.Load())
	}
	if notifier.calls.Load() != 0 {
		t.Errorf("update calls = %d, want 0", notifier.calls.Load())
	}
}

func TestResyncJob_RunError(t *testing.T) {
	t.Parallel()

	notifier := &testNotifier{
		resyncFunc: func() error { return errors.New("store unavailable") },
	}
	j := &ResyncJob{Notifier: notifier, Logger: slog.Default()}
	if err := j.Run(context.Background()); err == nil {
		t.Fatal("expected the resync error to propagate")
	}
}
