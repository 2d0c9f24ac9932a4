package incapacity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"kare/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const recordColumns = `
    i.id, i.employee_id, u.full_name, u.area, i.type, i.start_date, i.end_date,
    i.total_days, i.diagnosis, i.document_id, i.wage_base, i.state,
    i.rejection_notes, i.processed_by, i.processed_at, i.created_at, i.updated_at`

func (s *Store) Create(ctx context.Context, rec Record) (string, error) {
	var id string
	var docID any
	if rec.DocumentID != "" {
		docID = rec.DocumentID
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO incapacities (employee_id, type, start_date, end_date, total_days, diagnosis, document_id, wage_base, state)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, rec.EmployeeID, rec.Type, rec.StartDate, rec.EndDate, rec.TotalDays, rec.Diagnosis, docID, rec.WageBase, StateReported).Scan(&id)
	return id, err
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM incapacities i
    JOIN users u ON i.employee_id = u.id
    WHERE i.id = $1
  `, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

type ListFilter struct {
	EmployeeID string
	Area       string
	State      string
	Type       string
	Limit      int
	Offset     int
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	query := `
    SELECT ` + recordColumns + `
    FROM incapacities i
    JOIN users u ON i.employee_id = u.id
    WHERE 1=1`
	var args []any
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		query += fmt.Sprintf(" AND i.employee_id = $%d", len(args))
	}
	if filter.Area != "" {
		args = append(args, filter.Area)
		query += fmt.Sprintf(" AND u.area = $%d", len(args))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		query += fmt.Sprintf(" AND i.state = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND i.type = $%d", len(args))
	}
	query += " ORDER BY i.created_at DESC"
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

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateState persists a transition with a compare-and-swap on the state the
// caller read. Zero rows updated means someone got there first.
func (s *Store) UpdateState(ctx context.Context, id, fromState string, rec Record) error {
	var processedBy any
	if rec.ProcessedBy != "" {
		processedBy = rec.ProcessedBy
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE incapacities
    SET state = $1, rejection_notes = $2, processed_by = $3, processed_at = now(), updated_at = now()
    WHERE id = $4 AND state = $5
  `, rec.State, rec.RejectionNotes, processedBy, id, fromState)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

// UpdateResubmitted swaps the record back to reported together with the
// edited field set, guarded on the rejected state.
func (s *Store) UpdateResubmitted(ctx context.Context, id string, rec Record) error {
	var docID any
	if rec.DocumentID != "" {
		docID = rec.DocumentID
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE incapacities
    SET state = $1, type = $2, start_date = $3, end_date = $4, total_days = $5,
        diagnosis = $6, document_id = $7, rejection_notes = '', updated_at = now()
    WHERE id = $8 AND state = $9
  `, StateReported, rec.Type, rec.StartDate, rec.EndDate, rec.TotalDays, rec.Diagnosis, docID, id, StateRejected)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

func (s *Store) UpdateDocument(ctx context.Context, id, documentID string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE incapacities SET document_id = $1, updated_at = now() WHERE id = $2", documentID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM incapacities WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// StaleInStates lists records that have been sitting in any of the given
// states since before the cutoff; the reminder job feeds on this.
func (s *Store) StaleInStates(ctx context.Context, states []string, cutoff time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM incapacities i
    JOIN users u ON i.employee_id = u.id
    WHERE i.state = ANY($1) AND i.updated_at < $2
    ORDER BY i.updated_at
  `, states, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) missingOrConflict(ctx context.Context, id string) error {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM incapacities WHERE id = $1", id).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrConcurrentModification
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var docID, processedBy *string
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &rec.EmployeeArea, &rec.Type,
		&rec.StartDate, &rec.EndDate, &rec.TotalDays, &rec.Diagnosis, &docID, &rec.WageBase,
		&rec.State, &rec.RejectionNotes, &processedBy, &rec.ProcessedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	if docID != nil {
		rec.DocumentID = *docID
	}
	if processedBy != nil {
		rec.ProcessedBy = *processedBy
	}
	return rec, nil
}
