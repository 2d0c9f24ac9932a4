package notifications

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateNotification(ctx context.Context, userID, category, title, message, incapacityID string) error
	ListNotifications(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	DeleteNotification(ctx context.Context, userID, notificationID string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	UserEmail(ctx context.Context, userID string) (string, error)
}
