package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"kare/internal/domain/reconciliation"
)

type Service struct {
	Store       *Store
	CompanyName string
}

func NewService(store *Store, companyName string) *Service {
	return &Service{Store: store, CompanyName: companyName}
}

// Summary is the management overview: lifecycle distribution, per-type and
// per-area load, trailing-year trend and the reconciled payer split.
type Summary struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	ByState     []StateCount `json:"byState"`
	ByType      []TypeCount  `json:"byType"`
	ByArea      []AreaCount  `json:"byArea"`
	Monthly     []MonthCount `json:"monthly"`
	PayerSplit  PayerSplit   `json:"payerSplit"`
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	byState, err := s.Store.CountByState(ctx)
	if err != nil {
		return Summary{}, err
	}
	byType, err := s.Store.CountByType(ctx)
	if err != nil {
		return Summary{}, err
	}
	byArea, err := s.Store.CountByArea(ctx)
	if err != nil {
		return Summary{}, err
	}
	monthly, err := s.Store.MonthlyTrend(ctx, 12)
	if err != nil {
		return Summary{}, err
	}
	split, err := s.Store.PayerSplit(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		GeneratedAt: time.Now().UTC(),
		ByState:     byState,
		ByType:      byType,
		ByArea:      byArea,
		Monthly:     monthly,
		PayerSplit:  split,
	}, nil
}

// ExportCSV renders the full incapacity register, one row per record, with
// the reconciled amount where one exists.
func (s *Service) ExportCSV(ctx context.Context) ([]byte, error) {
	records, err := s.Store.ExportRows(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"id", "employee", "area", "type", "start_date", "end_date", "total_days", "state", "wage_base", "total_payable"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range records {
		payable := ""
		if row.TotalPayable != nil {
			payable = row.TotalPayable.StringFixed(2)
		}
		record := []string{
			row.ID,
			row.EmployeeName,
			row.Area,
			row.Type,
			row.StartDate.Format("2006-01-02"),
			row.EndDate.Format("2006-01-02"),
			strconv.Itoa(row.TotalDays),
			row.State,
			row.WageBase.StringFixed(2),
			payable,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SummaryPDF renders the management summary as a one-page PDF.
func (s *Service) SummaryPDF(ctx context.Context) ([]byte, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Incapacity Summary")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Company: %s", s.CompanyName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", summary.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Records by state")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	for _, c := range summary.ByState {
		pdf.Cell(0, 7, fmt.Sprintf("%s: %d", c.State, c.Count))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Days by type")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	for _, c := range summary.ByType {
		pdf.Cell(0, 7, fmt.Sprintf("%s: %d record(s), %d day(s)", c.Type, c.Count, c.TotalDays))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Reconciled payer split")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Employer: %s", summary.PayerSplit.EmployerTotal.StringFixed(2)))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Health insurer: %s", summary.PayerSplit.HealthTotal.StringFixed(2)))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Risk insurer: %s", summary.PayerSplit.RiskTotal.StringFixed(2)))
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Total: %s", summary.PayerSplit.GrandTotal.StringFixed(2)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Certificate renders one reconciliation as a PDF voucher finance can hand to
// the insurers.
func (s *Service) Certificate(rec reconciliation.Reconciliation) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Reconciliation Certificate")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Company: %s", s.CompanyName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", rec.EmployeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Incapacity: %s (%s)", rec.IncapacityID, rec.IncapacityType))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Issued: %s", rec.CreatedAt.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.Cell(0, 8, fmt.Sprintf("Wage base: %s", rec.WageBase.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Daily value: %s", rec.DailyValue.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Total days: %d", rec.TotalDays))
	pdf.Ln(10)

	pdf.Cell(0, 8, fmt.Sprintf("Employer: %d day(s), %s", rec.EmployerDays, rec.EmployerAmount.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Health insurer: %d day(s), %s", rec.HealthDays, rec.HealthAmount.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Risk insurer: %d day(s), %s", rec.RiskDays, rec.RiskAmount.StringFixed(2)))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total payable: %s", rec.TotalPayable.StringFixed(2)))

	if rec.Notes != "" {
		pdf.Ln(10)
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, "Notes: "+rec.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]map[string]any, error) {
	return s.Store.ListJobRuns(ctx, filter, limit, offset)
}
