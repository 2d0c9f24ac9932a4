package notifications

import "time"

type Notification struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Category     string     `json:"category"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	IncapacityID string     `json:"incapacityId,omitempty"`
	ReadAt       *time.Time `json:"readAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
