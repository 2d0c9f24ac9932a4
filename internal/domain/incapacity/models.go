package incapacity

import "time"

type Record struct {
	ID             string     `json:"id"`
	EmployeeID     string     `json:"employeeId"`
	EmployeeName   string     `json:"employeeName,omitempty"`
	EmployeeArea   string     `json:"employeeArea,omitempty"`
	Type           string     `json:"type"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        time.Time  `json:"endDate"`
	TotalDays      int        `json:"totalDays"`
	Diagnosis      string     `json:"diagnosis"`
	DocumentID     string     `json:"documentId,omitempty"`
	WageBase       float64    `json:"wageBase"`
	State          string     `json:"state"`
	RejectionNotes string     `json:"rejectionNotes,omitempty"`
	ProcessedBy    string     `json:"processedBy,omitempty"`
	ProcessedAt    *time.Time `json:"processedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ResubmitInput is the full editable field set an owner must supply when
// moving a rejected record back to reported.
type ResubmitInput struct {
	Type       string    `json:"type"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Diagnosis  string    `json:"diagnosis"`
	DocumentID string    `json:"documentId,omitempty"`
}

// Stats is the aggregate the dashboard renders; computed by Summarize, never
// stored.
type Stats struct {
	Total      int `json:"total"`
	Reported   int `json:"reported"`
	InReview   int `json:"inReview"`
	Validated  int `json:"validated"`
	Rejected   int `json:"rejected"`
	Paid       int `json:"paid"`
	Reconciled int `json:"reconciled"`
	Archived   int `json:"archived"`
	TotalDays  int `json:"totalDays"`

	ByType map[string]int `json:"byType"`
}
