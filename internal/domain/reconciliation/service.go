package reconciliation

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kare/internal/domain/auth"
	"kare/internal/domain/incapacity"
	"kare/internal/domain/notifications"
	"kare/internal/platform/metrics"
)

type Service struct {
	Store        *Store
	Incapacities *incapacity.Store
	Notify       *notifications.Service
	Metrics      *metrics.Collector
}

func NewService(store *Store, incapacities *incapacity.Store, notify *notifications.Service, collector *metrics.Collector) *Service {
	return &Service{Store: store, Incapacities: incapacities, Notify: notify, Metrics: collector}
}

// Run computes and persists the payment split for one incapacity. The record
// must already be validated (or paid, when finance reconciles after the
// fact); anything earlier in the lifecycle is a precondition failure. The
// unique constraint underneath makes the whole operation at most once.
func (s *Service) Run(ctx context.Context, actor auth.UserContext, incapacityID, notes string) (Reconciliation, error) {
	rec, err := s.Incapacities.Get(ctx, incapacityID)
	if err != nil {
		return Reconciliation{}, err
	}
	if rec.State != incapacity.StateValidated && rec.State != incapacity.StatePaid {
		return Reconciliation{}, fmt.Errorf("%w: record is %s, want validated or paid", ErrPrecondition, rec.State)
	}

	wage := decimal.NewFromFloat(rec.WageBase)
	breakdown, err := Calculate(rec.Type, rec.TotalDays, wage)
	if err != nil {
		return Reconciliation{}, err
	}

	id, err := s.Store.Create(ctx, Reconciliation{
		IncapacityID:   incapacityID,
		TotalDays:      breakdown.TotalDays,
		WageBase:       wage,
		DailyValue:     round2(breakdown.DailyValue),
		EmployerDays:   breakdown.EmployerDays,
		EmployerAmount: breakdown.EmployerAmount,
		HealthDays:     breakdown.HealthDays,
		HealthAmount:   breakdown.HealthAmount,
		RiskDays:       breakdown.RiskDays,
		RiskAmount:     breakdown.RiskAmount,
		TotalPayable:   breakdown.TotalPayable,
		Notes:          strings.TrimSpace(notes),
		CreatedBy:      actor.UserID,
	})
	if err != nil {
		return Reconciliation{}, err
	}

	if s.Metrics != nil {
		s.Metrics.RecordReconciliation()
	}
	s.Notify.Notify(ctx, rec.EmployeeID, notifications.CategoryInfo, "Incapacity reconciled",
		fmt.Sprintf("The payment split for your %d-day incapacity was computed.", rec.TotalDays), incapacityID)

	return s.Store.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (Reconciliation, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) ByIncapacity(ctx context.Context, incapacityID string) (Reconciliation, error) {
	return s.Store.GetByIncapacity(ctx, incapacityID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Reconciliation, error) {
	return s.Store.List(ctx, filter)
}

// Annotate replaces the free-form notes on an existing split. The computed
// figures stay immutable.
func (s *Service) Annotate(ctx context.Context, id, notes string) (Reconciliation, error) {
	if err := s.Store.UpdateNotes(ctx, id, strings.TrimSpace(notes)); err != nil {
		return Reconciliation{}, err
	}
	return s.Store.Get(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.Store.Stats(ctx)
}
