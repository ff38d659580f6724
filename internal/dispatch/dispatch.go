// Package dispatch polls for due scheduled messages and delivers each one
// exactly once, recording sent/failed status.
package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/samuelitis/seniorBuddy-api-server/internal/domain"
	"github.com/samuelitis/seniorBuddy-api-server/internal/store"
)

// Sender is the minimal interface the loop needs to deliver a notification
// to a device destination. notify.FCM and notify.Telegram implement it.
type Sender interface {
	Send(ctx context.Context, destination, title, body string) error
}

const (
	defaultInterval = 30 * time.Second
	defaultBatch    = 100
)

// Loop periodically scans the store and dispatches due notifications. A
// single Loop per process is assumed; selection and status transition are
// not claim-locked across processes.
type Loop struct {
	repo     store.Repo
	log      *zap.Logger
	sender   Sender
	interval time.Duration
	batch    int
}

// New creates a dispatch loop. Non-positive interval or batch fall back to
// the defaults (30s, 100).
func New(repo store.Repo, log *zap.Logger, sender Sender, interval time.Duration, batch int) *Loop {
	if interval <= 0 {
		interval = defaultInterval
	}
	if batch <= 0 {
		batch = defaultBatch
	}
	return &Loop{repo: repo, log: log, sender: sender, interval: interval, batch: batch}
}

// Run ticks on the configured interval until ctx is canceled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info("dispatch loop stopping")
			return
		case <-ticker.C:
			l.Tick(ctx, time.Now())
		}
	}
}

// Tick performs one dispatch cycle: select due pending messages earliest
// first and deliver each. One message's failure never blocks the rest.
func (l *Loop) Tick(ctx context.Context, now time.Time) {
	msgs, err := l.repo.ListDueMessages(ctx, now, l.batch)
	if err != nil {
		l.log.Error("ListDueMessages failed", zap.Error(err))
		return
	}
	for i := range msgs {
		l.dispatch(ctx, &msgs[i])
	}
}

func (l *Loop) dispatch(ctx context.Context, m *domain.ScheduledMessage) {
	user, err := l.repo.GetUser(ctx, m.UserID)
	if err != nil {
		l.log.Error("lookup user failed",
			zap.Int64("messageID", m.ID), zap.Int64("userID", m.UserID), zap.Error(err))
		l.mark(ctx, m, domain.StatusFailed)
		return
	}
	if user.Destination == nil {
		// No device to deliver to; fail without attempting a send.
		l.log.Warn("no destination registered",
			zap.Int64("messageID", m.ID), zap.Int64("userID", m.UserID))
		l.mark(ctx, m, domain.StatusFailed)
		return
	}

	if err := l.sender.Send(ctx, *user.Destination, m.Title, m.Content); err != nil {
		l.log.Error("send failed",
			zap.Int64("messageID", m.ID), zap.Int64("userID", m.UserID), zap.Error(err))
		l.mark(ctx, m, domain.StatusFailed)
		return
	}
	l.mark(ctx, m, domain.StatusSent)
}

func (l *Loop) mark(ctx context.Context, m *domain.ScheduledMessage, status domain.MessageStatus) {
	if err := l.repo.SetMessageStatus(ctx, m.ID, status); err != nil {
		l.log.Error("status update failed",
			zap.Int64("messageID", m.ID), zap.String("status", string(status)), zap.Error(err))
		return
	}
	m.Status = status
}
