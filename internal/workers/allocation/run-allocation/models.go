// internal/workers/allocation/run-allocation/models.go
package runallocation

type Input struct {
	QueueID int64 `json:"queueId"`
}

type AssignmentSummary struct {
	AssignmentID  string `json:"assignmentId"`
	ApplicationID int64  `json:"applicationId"`
	LodgementID   int64  `json:"lodgementId"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
}

type Output struct {
	QueueID            int64               `json:"queueId"`
	AssignmentsCreated int                 `json:"assignmentsCreated"`
	Assignments        []AssignmentSummary `json:"assignments"`
}
