// internal/workers/allocation/notify-assignment/models.go
package notifyassignment

type Input struct {
	AssignmentID string `json:"assignmentId"`
	// Priority "high" additionally sends an SMS when a phone number exists.
	Priority string `json:"priority,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	AssignmentID   string `json:"assignmentId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
