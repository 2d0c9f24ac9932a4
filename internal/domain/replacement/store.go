package replacement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"kare/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const replacementColumns = `
    r.id, r.incapacity_id, i.employee_id, absent.full_name, r.cover_employee_id,
    cover.full_name, r.start_date, r.end_date, r.duties, r.state, r.notes,
    r.created_by, r.created_at, r.updated_at`

const replacementFrom = `
    FROM replacements r
    JOIN incapacities i ON r.incapacity_id = i.id
    JOIN users absent ON i.employee_id = absent.id
    JOIN users cover ON r.cover_employee_id = cover.id`

// Create relies on the two partial unique indexes as the authoritative overlap
// guard. The service checks first for friendlier ordering, but under a race
// the index decides and the violation maps back to the matching sentinel.
func (s *Store) Create(ctx context.Context, rec Replacement) (string, error) {
	var id string
	var createdBy any
	if rec.CreatedBy != "" {
		createdBy = rec.CreatedBy
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO replacements (incapacity_id, cover_employee_id, start_date, end_date, duties, state, notes, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, rec.IncapacityID, rec.CoverEmployeeID, rec.StartDate, rec.EndDate, rec.Duties, StateActive, rec.Notes, createdBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "replacements_one_active_per_incapacity":
				return "", ErrActiveReplacementExists
			case "replacements_one_active_per_cover":
				return "", ErrCoverConflict
			}
		}
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) (Replacement, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+replacementColumns+replacementFrom+`
    WHERE r.id = $1
  `, id)
	rec, err := scanReplacement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Replacement{}, ErrNotFound
	}
	return rec, err
}

type ListFilter struct {
	IncapacityID    string
	CoverEmployeeID string
	State           string
	Limit           int
	Offset          int
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Replacement, error) {
	query := `
    SELECT ` + replacementColumns + replacementFrom + `
    WHERE 1=1`
	var args []any
	if filter.IncapacityID != "" {
		args = append(args, filter.IncapacityID)
		query += fmt.Sprintf(" AND r.incapacity_id = $%d", len(args))
	}
	if filter.CoverEmployeeID != "" {
		args = append(args, filter.CoverEmployeeID)
		query += fmt.Sprintf(" AND r.cover_employee_id = $%d", len(args))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		query += fmt.Sprintf(" AND r.state = $%d", len(args))
	}
	query += " ORDER BY r.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Replacement
	for rows.Next() {
		rec, err := scanReplacement(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close moves an active assignment to finalized or cancelled, guarded on the
// active state so two closers cannot both win.
func (s *Store) Close(ctx context.Context, id, toState, notes string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE replacements
    SET state = $1, notes = $2, updated_at = now()
    WHERE id = $3 AND state = $4
  `, toState, notes, id, StateActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var count int
		if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM replacements WHERE id = $1", id).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrInvalidState
	}
	return nil
}

// ActiveByIncapacity reports whether the incapacity already has a live cover.
func (s *Store) ActiveByIncapacity(ctx context.Context, incapacityID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM replacements WHERE incapacity_id = $1 AND state = $2",
		incapacityID, StateActive).Scan(&count)
	return count > 0, err
}

// ActiveByCover reports whether the employee already covers someone.
func (s *Store) ActiveByCover(ctx context.Context, coverEmployeeID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM replacements WHERE cover_employee_id = $1 AND state = $2",
		coverEmployeeID, StateActive).Scan(&count)
	return count > 0, err
}

// CoverHasOpenLeave reports whether the employee has an incapacity of their
// own anywhere between reported and paid.
func (s *Store) CoverHasOpenLeave(ctx context.Context, employeeID string, openStates []string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM incapacities WHERE employee_id = $1 AND state = ANY($2)",
		employeeID, openStates).Scan(&count)
	return count > 0, err
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.DB.Query(ctx, "SELECT state, COUNT(1) FROM replacements GROUP BY state")
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	var st Stats
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return Stats{}, err
		}
		st.Total += count
		switch state {
		case StateActive:
			st.Active = count
		case StateFinalized:
			st.Finalized = count
		case StateCancelled:
			st.Cancelled = count
		}
	}
	return st, rows.Err()
}

func scanReplacement(row pgx.Row) (Replacement, error) {
	var rec Replacement
	var createdBy *string
	err := row.Scan(&rec.ID, &rec.IncapacityID, &rec.AbsentEmployeeID, &rec.AbsentEmployee,
		&rec.CoverEmployeeID, &rec.CoverEmployeeName, &rec.StartDate, &rec.EndDate,
		&rec.Duties, &rec.State, &rec.Notes, &createdBy, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Replacement{}, err
	}
	if createdBy != nil {
		rec.CreatedBy = *createdBy
	}
	return rec, nil
}
