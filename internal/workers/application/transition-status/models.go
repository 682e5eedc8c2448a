// internal/workers/application/transition-status/models.go
package transitionstatus

type Input struct {
	ApplicationID int64  `json:"applicationId"`
	Event         string `json:"event"`
	// SystemMessage is surfaced to the applicant, for example the reason a
	// re-upload was requested.
	SystemMessage string `json:"systemMessage,omitempty"`
}

type Output struct {
	ApplicationID  int64  `json:"applicationId"`
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
}
