// internal/engine/allocation/transition.go
package allocation

import (
	"lodgement-workers/internal/common/errors"
	"lodgement-workers/internal/models"
)

// Event identifies an application lifecycle action.
type Event string

const (
	// EventSubmit sends a filled questionnaire to review.
	EventSubmit Event = "submit"
	// EventApprove accepts a pending application into the ranked cohort.
	EventApprove Event = "approve"
	// EventReject declines a pending application. Terminal.
	EventReject Event = "reject"
	// EventRequestReUpload sends a pending application back for new documents.
	EventRequestReUpload Event = "request_re_upload"
	// EventReUpload returns a re-upload application to the applicant's editing state.
	EventReUpload Event = "re_upload"
	// EventCancel withdraws an application. Terminal. Not legal once approved;
	// an approved application leaves the cohort only by being assigned.
	EventCancel Event = "cancel"
	// EventAssign marks an application as holding a lodgement. Engine only.
	EventAssign Event = "assign"
)

// transitions is the guard table. A missing (status, event) pair is illegal.
var transitions = map[models.ApplicationStatus]map[Event]models.ApplicationStatus{
	models.StatusInProgress: {
		EventSubmit: models.StatusPending,
		EventCancel: models.StatusCancelled,
	},
	models.StatusPending: {
		EventApprove:         models.StatusApproved,
		EventReject:          models.StatusRejected,
		EventRequestReUpload: models.StatusReUpload,
		EventCancel:          models.StatusCancelled,
	},
	models.StatusReUpload: {
		EventSubmit:   models.StatusPending,
		EventReUpload: models.StatusInProgress,
		EventCancel:   models.StatusCancelled,
	},
	models.StatusApproved: {
		EventAssign: models.StatusAssigned,
	},
}

// Transition applies event to the given status and returns the successor.
// Illegal pairs return an ILLEGAL_TRANSITION error and the status unchanged.
func Transition(status models.ApplicationStatus, event Event) (models.ApplicationStatus, error) {
	if next, ok := transitions[status][event]; ok {
		return next, nil
	}
	return status, errors.NewIllegalTransitionError(status.String(), string(event))
}

// CanTransition reports whether event is legal from status.
func CanTransition(status models.ApplicationStatus, event Event) bool {
	_, ok := transitions[status][event]
	return ok
}
