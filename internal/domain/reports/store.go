package reports

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kare/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type StateCount struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

type TypeCount struct {
	Type      string `json:"type"`
	Count     int    `json:"count"`
	TotalDays int    `json:"totalDays"`
}

type AreaCount struct {
	Area      string `json:"area"`
	Count     int    `json:"count"`
	TotalDays int    `json:"totalDays"`
}

type MonthCount struct {
	Month     string `json:"month"`
	Count     int    `json:"count"`
	TotalDays int    `json:"totalDays"`
}

// PayerSplit is the reconciled ledger summed per payer.
type PayerSplit struct {
	EmployerTotal decimal.Decimal `json:"employerTotal"`
	HealthTotal   decimal.Decimal `json:"healthTotal"`
	RiskTotal     decimal.Decimal `json:"riskTotal"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
}

// ExportRow is one line of the CSV export: the incapacity joined with its
// reconciliation when one exists.
type ExportRow struct {
	ID           string
	EmployeeName string
	Area         string
	Type         string
	StartDate    time.Time
	EndDate      time.Time
	TotalDays    int
	State        string
	WageBase     decimal.Decimal
	TotalPayable *decimal.Decimal
}

func (s *Store) CountByState(ctx context.Context) ([]StateCount, error) {
	rows, err := s.DB.Query(ctx, "SELECT state, COUNT(1) FROM incapacities GROUP BY state ORDER BY state")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StateCount
	for rows.Next() {
		var c StateCount
		if err := rows.Scan(&c.State, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CountByType(ctx context.Context) ([]TypeCount, error) {
	rows, err := s.DB.Query(ctx, "SELECT type, COUNT(1), COALESCE(SUM(total_days), 0) FROM incapacities GROUP BY type ORDER BY type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TypeCount
	for rows.Next() {
		var c TypeCount
		if err := rows.Scan(&c.Type, &c.Count, &c.TotalDays); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CountByArea(ctx context.Context) ([]AreaCount, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.area, COUNT(1), COALESCE(SUM(i.total_days), 0)
    FROM incapacities i
    JOIN users u ON i.employee_id = u.id
    GROUP BY u.area
    ORDER BY u.area
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AreaCount
	for rows.Next() {
		var c AreaCount
		if err := rows.Scan(&c.Area, &c.Count, &c.TotalDays); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MonthlyTrend buckets incapacities by start month over the trailing year.
func (s *Store) MonthlyTrend(ctx context.Context, months int) ([]MonthCount, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT to_char(date_trunc('month', start_date), 'YYYY-MM'), COUNT(1), COALESCE(SUM(total_days), 0)
    FROM incapacities
    WHERE start_date >= date_trunc('month', now()) - ($1 || ' months')::interval
    GROUP BY 1
    ORDER BY 1
  `, strconv.Itoa(months))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthCount
	for rows.Next() {
		var c MonthCount
		if err := rows.Scan(&c.Month, &c.Count, &c.TotalDays); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) PayerSplit(ctx context.Context) (PayerSplit, error) {
	var split PayerSplit
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(employer_amount), 0), COALESCE(SUM(health_amount), 0),
      COALESCE(SUM(risk_amount), 0), COALESCE(SUM(total_payable), 0)
    FROM reconciliations
  `).Scan(&split.EmployerTotal, &split.HealthTotal, &split.RiskTotal, &split.GrandTotal)
	return split, err
}

func (s *Store) ExportRows(ctx context.Context) ([]ExportRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT i.id, u.full_name, u.area, i.type, i.start_date, i.end_date, i.total_days,
      i.state, i.wage_base, r.total_payable
    FROM incapacities i
    JOIN users u ON i.employee_id = u.id
    LEFT JOIN reconciliations r ON r.incapacity_id = i.id
    ORDER BY i.created_at DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.ID, &row.EmployeeName, &row.Area, &row.Type, &row.StartDate,
			&row.EndDate, &row.TotalDays, &row.State, &row.WageBase, &row.TotalPayable); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}

func (s *Store) ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]map[string]any, error) {
	query, args := buildJobRunsBaseQuery(filter)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]any
	for rows.Next() {
		var id, jobTypeVal, status string
		var detailsRaw []byte
		var startedAt time.Time
		var finishedAt *time.Time
		if err := rows.Scan(&id, &jobTypeVal, &status, &detailsRaw, &startedAt, &finishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]any{
			"id":         id,
			"jobType":    jobTypeVal,
			"status":     status,
			"details":    decodeDetails(detailsRaw),
			"startedAt":  startedAt,
			"finishedAt": finishedAt,
		})
	}
	return runs, rows.Err()
}

func buildJobRunsBaseQuery(filter JobRunFilter) (string, []any) {
	query := `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, finished_at
    FROM job_runs
    WHERE 1=1
  `
	var args []any

	if value := strings.TrimSpace(filter.JobType); value != "" {
		query += " AND job_type = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		query += " AND status = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if filter.StartedFrom != nil && !filter.StartedFrom.IsZero() {
		query += " AND started_at >= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedFrom)
	}
	if filter.StartedTo != nil && !filter.StartedTo.IsZero() {
		query += " AND started_at <= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedTo)
	}

	return query, args
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return details
}
