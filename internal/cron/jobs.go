package cron

import (
	"context"
	"log/slog"

	"github.com/ybtag/GrapheneMessaging/internal/notify"
)

// Notifier is the subset of the dispatcher needed by cron jobs. Defined here
// to avoid coupling the scheduler to the engine's construction.
type Notifier interface {
	Update(ctx context.Context, conversationID string, scope notify.Scope) error
	Resync(ctx context.Context) error
}

// FailedSweepJob periodically re-checks failed messages. Failure notifications
// are normally event driven; the sweep catches failures whose triggering event
// was lost, for example across a daemon restart.
type FailedSweepJob struct {
	Notifier     Notifier
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/5 * * * *"
}

// Compile-time interface check.
var _ Job = (*FailedSweepJob)(nil)

// Name implements Job.
func (j *FailedSweepJob) Name() string { return "failed_sweep" }

// Schedule implements Job.
func (j *FailedSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/5 * * * *"
}

// Run rebuilds the error-class notifications.
func (j *FailedSweepJob) Run(ctx context.Context) error {
	if err := j.Notifier.Update(ctx, "", notify.ScopeErrors); err != nil {
		return err
	}
	j.Logger.Debug("cron: failed sweep completed")
	return nil
}

// ResyncJob periodically reconciles the whole shelf against the store,
// repairing drift from missed triggers or external dismissal.
type ResyncJob struct {
	Notifier     Notifier
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "@hourly"
}

// Compile-time interface check.
var _ Job = (*ResyncJob)(nil)

// Name implements Job.
func (j *ResyncJob) Name() string { return "resync" }

// Schedule implements Job.
func (j *ResyncJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "@hourly"
}

// Run rebuilds every notification class from the store.
func (j *ResyncJob) Run(ctx context.Context) error {
	if err := j.Notifier.Resync(ctx); err != nil {
		return err
	}
	j.Logger.Debug("cron: resync completed")
	return nil
}
