package replacement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kare/internal/domain/auth"
	"kare/internal/domain/incapacity"
	"kare/internal/domain/notifications"
)

// States in which the absent employee's own leave is still open; someone in
// one of these cannot be assigned as cover.
var openLeaveStates = []string{
	incapacity.StateReported,
	incapacity.StateInReview,
	incapacity.StateValidated,
	incapacity.StatePaid,
}

type Service struct {
	Store        *Store
	Incapacities *incapacity.Store
	Notify       *notifications.Service
}

func NewService(store *Store, incapacities *incapacity.Store, notify *notifications.Service) *Service {
	return &Service{Store: store, Incapacities: incapacities, Notify: notify}
}

type CreateInput struct {
	IncapacityID    string    `json:"incapacityId"`
	CoverEmployeeID string    `json:"coverEmployeeId"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	Duties          string    `json:"duties"`
	Notes           string    `json:"notes"`
}

// ValidateInput checks the field-level rules; the relational rules (one
// active per incapacity, cover not double-booked, cover not on leave) are
// checked against the store in Create.
func ValidateInput(in CreateInput) error {
	if in.IncapacityID == "" {
		return fmt.Errorf("%w: incapacity id is required", ErrValidation)
	}
	if in.CoverEmployeeID == "" {
		return fmt.Errorf("%w: cover employee is required", ErrValidation)
	}
	if strings.TrimSpace(in.Duties) == "" {
		return fmt.Errorf("%w: duties are required", ErrValidation)
	}
	if in.EndDate.Before(in.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrValidation)
	}
	return nil
}

// Create assigns a cover employee to an open incapacity. The pre-checks give
// deterministic error ordering; the partial unique indexes remain the final
// word under concurrent creates.
func (s *Service) Create(ctx context.Context, actor auth.UserContext, in CreateInput) (Replacement, error) {
	if err := ValidateInput(in); err != nil {
		return Replacement{}, err
	}

	rec, err := s.Incapacities.Get(ctx, in.IncapacityID)
	if err != nil {
		return Replacement{}, err
	}
	if rec.EmployeeID == in.CoverEmployeeID {
		return Replacement{}, fmt.Errorf("%w: an employee cannot cover their own leave", ErrValidation)
	}

	if exists, err := s.Store.ActiveByIncapacity(ctx, in.IncapacityID); err != nil {
		return Replacement{}, err
	} else if exists {
		return Replacement{}, ErrActiveReplacementExists
	}
	if exists, err := s.Store.ActiveByCover(ctx, in.CoverEmployeeID); err != nil {
		return Replacement{}, err
	} else if exists {
		return Replacement{}, ErrCoverConflict
	}
	if onLeave, err := s.Store.CoverHasOpenLeave(ctx, in.CoverEmployeeID, openLeaveStates); err != nil {
		return Replacement{}, err
	} else if onLeave {
		return Replacement{}, ErrCoverOnLeave
	}

	id, err := s.Store.Create(ctx, Replacement{
		IncapacityID:    in.IncapacityID,
		CoverEmployeeID: in.CoverEmployeeID,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		Duties:          strings.TrimSpace(in.Duties),
		Notes:           strings.TrimSpace(in.Notes),
		CreatedBy:       actor.UserID,
	})
	if err != nil {
		return Replacement{}, err
	}

	s.Notify.Notify(ctx, in.CoverEmployeeID, notifications.CategoryInfo, "Replacement assigned",
		"You were assigned to cover a colleague's duties during their leave.", in.IncapacityID)

	return s.Store.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (Replacement, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Replacement, error) {
	return s.Store.List(ctx, filter)
}

// Mine lists the assignments where the caller is the cover employee.
func (s *Service) Mine(ctx context.Context, actor auth.UserContext) ([]Replacement, error) {
	return s.Store.List(ctx, ListFilter{CoverEmployeeID: actor.UserID})
}

// Finalize closes a completed assignment.
func (s *Service) Finalize(ctx context.Context, id, notes string) (Replacement, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return Replacement{}, err
	}
	if err := s.Store.Close(ctx, id, StateFinalized, strings.TrimSpace(notes)); err != nil {
		return Replacement{}, err
	}

	s.Notify.Notify(ctx, rec.CoverEmployeeID, notifications.CategorySuccess, "Replacement finalized",
		"Your cover assignment was closed.", rec.IncapacityID)

	return s.Store.Get(ctx, id)
}

// Cancel aborts an active assignment; a reason is required.
func (s *Service) Cancel(ctx context.Context, id, reason string) (Replacement, error) {
	if strings.TrimSpace(reason) == "" {
		return Replacement{}, fmt.Errorf("%w: a cancellation reason is required", ErrValidation)
	}
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return Replacement{}, err
	}
	if err := s.Store.Close(ctx, id, StateCancelled, strings.TrimSpace(reason)); err != nil {
		return Replacement{}, err
	}

	s.Notify.Notify(ctx, rec.CoverEmployeeID, notifications.CategoryWarning, "Replacement cancelled",
		"Your cover assignment was cancelled: "+strings.TrimSpace(reason), rec.IncapacityID)

	return s.Store.Get(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.Store.Stats(ctx)
}
