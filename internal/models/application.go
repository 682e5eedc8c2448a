// internal/models/application.go
package models

import "time"

// Application is one user's claim on one queue. An application has at most one
// scoring form at a time; its score is derived from that form on read, never
// stored.
type Application struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"userId"`
	QueueID         int64             `json:"queueId"`
	Status          ApplicationStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	EmploymentStart time.Time         `json:"employmentStart"`
	SystemMessage   string            `json:"systemMessage,omitempty"`
	ScoringForm     *ScoringForm      `json:"scoringForm,omitempty"`
}

// Active reports whether the application still competes for a lodgement.
func (a Application) Active() bool {
	switch a.Status {
	case StatusCancelled, StatusRejected, StatusAssigned:
		return false
	}
	return true
}
