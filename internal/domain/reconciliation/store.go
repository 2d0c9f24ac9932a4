package reconciliation

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

const reconciliationColumns = `
    r.id, r.incapacity_id, u.full_name, i.type, r.total_days, r.wage_base, r.daily_value,
    r.employer_days, r.employer_amount, r.health_days, r.health_amount,
    r.risk_days, r.risk_amount, r.total_payable, r.notes, r.created_by, r.created_at`

// Create inserts the split. The unique constraint on incapacity_id is the
// at-most-once guard: a duplicate insert surfaces as ErrAlreadyReconciled no
// matter how the race between two finance users interleaves.
func (s *Store) Create(ctx context.Context, rec Reconciliation) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO reconciliations (incapacity_id, total_days, wage_base, daily_value,
      employer_days, employer_amount, health_days, health_amount,
      risk_days, risk_amount, total_payable, notes, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    RETURNING id
  `, rec.IncapacityID, rec.TotalDays, rec.WageBase, rec.DailyValue,
		rec.EmployerDays, rec.EmployerAmount, rec.HealthDays, rec.HealthAmount,
		rec.RiskDays, rec.RiskAmount, rec.TotalPayable, rec.Notes, rec.CreatedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrAlreadyReconciled
		}
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) (Reconciliation, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+reconciliationColumns+`
    FROM reconciliations r
    JOIN incapacities i ON r.incapacity_id = i.id
    JOIN users u ON i.employee_id = u.id
    WHERE r.id = $1
  `, id)
	rec, err := scanReconciliation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reconciliation{}, ErrNotFound
	}
	return rec, err
}

func (s *Store) GetByIncapacity(ctx context.Context, incapacityID string) (Reconciliation, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+reconciliationColumns+`
    FROM reconciliations r
    JOIN incapacities i ON r.incapacity_id = i.id
    JOIN users u ON i.employee_id = u.id
    WHERE r.incapacity_id = $1
  `, incapacityID)
	rec, err := scanReconciliation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reconciliation{}, ErrNotFound
	}
	return rec, err
}

type ListFilter struct {
	IncapacityType string
	Limit          int
	Offset         int
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Reconciliation, error) {
	query := `
    SELECT ` + reconciliationColumns + `
    FROM reconciliations r
    JOIN incapacities i ON r.incapacity_id = i.id
    JOIN users u ON i.employee_id = u.id
    WHERE 1=1`
	var args []any
	if filter.IncapacityType != "" {
		args = append(args, filter.IncapacityType)
		query += fmt.Sprintf(" AND i.type = $%d", len(args))
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

	var records []Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateNotes is the only mutation allowed after the split is written.
func (s *Store) UpdateNotes(ctx context.Context, id, notes string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE reconciliations SET notes = $1 WHERE id = $2", notes, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COALESCE(SUM(total_days), 0),
      COALESCE(SUM(employer_amount), 0), COALESCE(SUM(health_amount), 0),
      COALESCE(SUM(risk_amount), 0), COALESCE(SUM(total_payable), 0)
    FROM reconciliations
  `).Scan(&st.Count, &st.TotalDays, &st.EmployerTotal, &st.HealthTotal, &st.RiskTotal, &st.GrandTotal)
	return st, err
}

func scanReconciliation(row pgx.Row) (Reconciliation, error) {
	var rec Reconciliation
	err := row.Scan(&rec.ID, &rec.IncapacityID, &rec.EmployeeName, &rec.IncapacityType,
		&rec.TotalDays, &rec.WageBase, &rec.DailyValue,
		&rec.EmployerDays, &rec.EmployerAmount, &rec.HealthDays, &rec.HealthAmount,
		&rec.RiskDays, &rec.RiskAmount, &rec.TotalPayable, &rec.Notes, &rec.CreatedBy, &rec.CreatedAt)
	if err != nil {
		return Reconciliation{}, err
	}
	return rec, nil
}
