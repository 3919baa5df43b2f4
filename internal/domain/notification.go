package domain

import "time"

// Notification is an in-app message delivered to a user when someone
// follows them, or comments on or collects one of their photos.
type Notification struct {
	ID         string    `json:"id"`
	ReceiverID string    `json:"receiver_id"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}
