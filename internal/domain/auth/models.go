package auth

import "time"

type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"fullName"`
	DocumentNumber string     `json:"documentNumber"`
	Area           string     `json:"area"`
	RoleID         string     `json:"roleId"`
	RoleName       string     `json:"roleName"`
	WageBase       float64    `json:"wageBase"`
	Status         string     `json:"status"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type AuthUser struct {
	ID       string
	RoleID   string
	RoleName string
	Password string
}

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)
