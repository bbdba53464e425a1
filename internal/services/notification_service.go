package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskboard-chat/internal/domain/notification"
	"taskboard-chat/internal/events"
	"taskboard-chat/internal/repository"
	"taskboard-chat/pkg/logger"

	"github.com/google/uuid"
)

// Relay is an optional external delivery channel (e.g. an outbound chat
// relay). Delivery through it is best-effort: a failure is logged and never
// rolls back the persisted notification.
type Relay interface {
	Deliver(ctx context.Context, n notification.Notification) error
}

// NotificationDispatcher persists notifications and pushes them to the
// recipient's live connections.
type NotificationDispatcher struct {
	repo      repository.NotificationRepository
	transport events.Transport
	tasks     repository.TaskSource
	relay     Relay
	log       *logger.Logger

	// window is both the deadline lookahead and the dedup interval: at most
	// one due_soon notification per (user, task) per rolling window.
	window time.Duration
	now    func() time.Time
}

func NewNotificationDispatcher(
	repo repository.NotificationRepository,
	transport events.Transport,
	tasks repository.TaskSource,
	relay Relay,
	log *logger.Logger,
	window time.Duration,
) *NotificationDispatcher {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &NotificationDispatcher{
		repo:      repo,
		transport: transport,
		tasks:     tasks,
		relay:     relay,
		log:       log,
		window:    window,
		now:       time.Now,
	}
}

// Notify persists a notification and pushes it to all of the user's active
// connections. The persisted row is the source of truth; push and relay
// failures are logged and swallowed.
func (d *NotificationDispatcher) Notify(ctx context.Context, userID uuid.UUID, kind, title, msg, link string) (notification.Notification, error) {
	n := notification.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   msg,
		CreatedAt: d.now(),
	}
	if link != "" {
		n.Link = sql.NullString{String: link, Valid: true}
	}

	if err := d.repo.Create(ctx, &n); err != nil {
		return notification.Notification{}, err
	}

	d.transport.EmitToUser(ctx, userID.String(), events.NotificationNew{
		Notification: toEventNotification(n),
	})

	if d.relay != nil {
		if err := d.relay.Deliver(ctx, n); err != nil && d.log != nil {
			d.log.Warnf("relay notification %s to user %s: %v", n.ID, userID, err)
		}
	}

	return n, nil
}

// ScanDeadlines reminds every assignee of every task due inside the
// lookahead window, at most once per (user, task) per rolling window. The
// trigger is external; a failure for one assignee never aborts the rest of
// the scan.
func (d *NotificationDispatcher) ScanDeadlines(ctx context.Context, now time.Time) error {
	tasks, err := d.tasks.DueTasks(ctx, now, now.Add(d.window))
	if err != nil {
		return err
	}

	for _, task := range tasks {
		link := task.ID.String()
		for _, assignee := range task.Assignees {
			exists, err := d.repo.HasRecent(ctx, assignee, notification.KindDueSoon, link, now.Add(-d.window))
			if err != nil {
				if d.log != nil {
					d.log.Errorf("dedup check task %s user %s: %v", task.ID, assignee, err)
				}
				continue
			}
			if exists {
				continue
			}

			title := "Task due soon"
			msg := fmt.Sprintf("%s is due %s", task.Title, task.DueAt.Format("Jan 2 15:04"))
			if _, err := d.Notify(ctx, assignee, notification.KindDueSoon, title, msg, link); err != nil && d.log != nil {
				d.log.Errorf("due-soon notify task %s user %s: %v", task.ID, assignee, err)
			}
		}
	}
	return nil
}

// ListForUser returns the user's notifications, newest first.
func (d *NotificationDispatcher) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]notification.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return d.repo.ListForUser(ctx, userID, limit)
}

// MarkRead flips one notification's read flag.
func (d *NotificationDispatcher) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return d.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead flips every unread notification of the user.
func (d *NotificationDispatcher) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return d.repo.MarkAllRead(ctx, userID)
}

// CountUnread returns the user's unread notification count.
func (d *NotificationDispatcher) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return d.repo.CountUnread(ctx, userID)
}

func toEventNotification(n notification.Notification) events.Notification {
	return events.Notification{
		ID:        n.ID.String(),
		UserID:    n.UserID.String(),
		Kind:      n.Kind,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link.String,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
