// Package service implements the business rules of accounts, the follow graph,
// posts, engagement and feeds on top of the repositories.
package service

import (
	"context"
	"time"

	"picfeed/internal/models"
	"picfeed/internal/observability"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// utcNow is the services' clock. Stored timestamps are UTC, matching gorm's NowFunc.
func utcNow() time.Time { return time.Now().UTC() }

// Realtime event types delivered to the affected user.
const (
	NotifyFollow  = "follow"
	NotifyLike    = "like"
	NotifyComment = "comment"
)

// Notifier delivers a realtime event to one user. A nil Notifier disables delivery.
type Notifier interface {
	Notify(ctx context.Context, recipientID uint, eventType string, payload interface{}) error
}

// AdminChecker reports whether userID has admin rights.
type AdminChecker func(ctx context.Context, userID uint) (bool, error)

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize clamps the request to valid bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func newPage[T any](items []T, total int64, p PageRequest) models.Page[T] {
	return models.NewPage(items, total, p.Page, p.PageSize)
}

func summaries(users []models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out
}

// notify delivers an event in the background; actions on one's own content are not announced.
func notify(ctx context.Context, n Notifier, recipientID, actorID uint, eventType string, payload interface{}) {
	if n == nil || recipientID == 0 || recipientID == actorID {
		return
	}
	go func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := n.Notify(ctx, recipientID, eventType, payload); err != nil {
			observability.LogAsyncOperationError(ctx, "notify_"+eventType, err, map[string]interface{}{
				"recipient_id": recipientID,
			})
			return
		}
		observability.NotificationsPublished.WithLabelValues(eventType).Inc()
	}(context.WithoutCancel(ctx))
}

func conflict(entity, message string, err error) error {
	observability.UniqueConflicts.WithLabelValues(entity).Inc()
	return models.NewConflictError(message, err)
}
