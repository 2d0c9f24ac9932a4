package notifications

import (
	"context"
	"log/slog"
	"time"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Service records in-app notifications and mirrors them over email when a
// mailer is configured. Delivery is best effort: callers treat Create as a
// side channel and never roll back on its account.
type Service struct {
	store        StoreAPI
	Mailer       Mailer
	From         string
	EmailEnabled bool
}

func New(store StoreAPI, mailer Mailer, from string, emailEnabled bool) *Service {
	return &Service{store: store, Mailer: mailer, From: from, EmailEnabled: emailEnabled}
}

func (s *Service) Create(ctx context.Context, userID, category, title, message, incapacityID string) error {
	if err := s.store.CreateNotification(ctx, userID, category, title, message, incapacityID); err != nil {
		return err
	}

	if !s.EmailEnabled || s.Mailer == nil {
		return nil
	}

	email, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.From, email, title, message); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

// Notify is Create with the error swallowed, for callers where delivery must
// not affect the main operation.
func (s *Service) Notify(ctx context.Context, userID, category, title, message, incapacityID string) {
	if err := s.Create(ctx, userID, category, title, message, incapacityID); err != nil {
		slog.Warn("notification create failed", "userId", userID, "err", err)
	}
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, notificationID string) error {
	return s.store.DeleteNotification(ctx, userID, notificationID)
}

func (s *Service) PurgeRead(ctx context.Context, cutoff time.Time) (int, error) {
	return s.store.DeleteOlderThan(ctx, cutoff)
}
