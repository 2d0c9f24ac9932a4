package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"kare/internal/domain/auth"
	"kare/internal/domain/incapacity"
	"kare/internal/domain/notifications"
	"kare/internal/platform/config"
)

const (
	JobReviewReminder        = "review_reminder"
	JobNotificationRetention = "notification_retention"
)

// Service runs background work on a single in-process queue: periodic
// reminders for records stuck in review and retention cleanup of read
// notifications. Every run leaves a job_runs row behind.
type Service struct {
	DB           *pgxpool.Pool
	Cfg          config.Config
	Incapacities *incapacity.Store
	Directory    *auth.Store
	Notify       *notifications.Service
	queue        chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, incapacities *incapacity.Store, directory *auth.Store, notify *notifications.Service) *Service {
	return &Service{
		DB:           db,
		Cfg:          cfg,
		Incapacities: incapacities,
		Directory:    directory,
		Notify:       notify,
		queue:        make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.ReviewReminderInterval > 0 {
		go s.schedule(ctx, s.Cfg.ReviewReminderInterval, JobReviewReminder, s.runReviewReminder)
	}
	if s.Cfg.NotificationRetention > 0 {
		go s.schedule(ctx, 24*time.Hour, JobNotificationRetention, s.runNotificationRetention)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// Runner maps a job type to its run function for out-of-band triggers.
func (s *Service) Runner(jobType string) (func(context.Context) (any, error), bool) {
	switch jobType {
	case JobReviewReminder:
		return s.runReviewReminder, true
	case JobNotificationRetention:
		return s.runNotificationRetention, true
	default:
		return nil, false
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, finished_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) schedule(ctx context.Context, interval time.Duration, jobType string, run func(context.Context) (any, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(jobType, run)
		}
	}
}

// runReviewReminder nudges HR about records sitting in reported or in_review
// past the configured age.
func (s *Service) runReviewReminder(ctx context.Context) (any, error) {
	cutoff := time.Now().UTC().Add(-s.Cfg.ReviewReminderAfter)
	stale, err := s.Incapacities.StaleInStates(ctx, []string{incapacity.StateReported, incapacity.StateInReview}, cutoff)
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return map[string]any{"stale": 0}, nil
	}

	reviewers, err := s.Directory.UsersByRole(ctx, auth.RoleHR)
	if err != nil {
		return nil, err
	}
	for _, rec := range stale {
		for _, userID := range reviewers {
			s.Notify.Notify(ctx, userID, notifications.CategoryWarning, "Review overdue",
				fmt.Sprintf("An incapacity for %s has been waiting in %s since %s.",
					rec.EmployeeName, rec.State, rec.UpdatedAt.Format("2006-01-02")), rec.ID)
		}
	}
	return map[string]any{"stale": len(stale), "reviewers": len(reviewers)}, nil
}

func (s *Service) runNotificationRetention(ctx context.Context) (any, error) {
	cutoff := time.Now().UTC().Add(-s.Cfg.NotificationRetention)
	purged, err := s.Notify.PurgeRead(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return map[string]any{"purged": purged}, nil
}
