package replacement

import "time"

type Replacement struct {
	ID                string    `json:"id"`
	IncapacityID      string    `json:"incapacityId"`
	AbsentEmployeeID  string    `json:"absentEmployeeId,omitempty"`
	AbsentEmployee    string    `json:"absentEmployee,omitempty"`
	CoverEmployeeID   string    `json:"coverEmployeeId"`
	CoverEmployeeName string    `json:"coverEmployeeName,omitempty"`
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
	Duties            string    `json:"duties"`
	State             string    `json:"state"`
	Notes             string    `json:"notes,omitempty"`
	CreatedBy         string    `json:"createdBy,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Finalized int `json:"finalized"`
	Cancelled int `json:"cancelled"`
}
