// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import "lodgement-workers/internal/workers/data-access/query-postgresql/queries"

type Input struct {
	QueryType     string `json:"queryType"`
	ApplicationID int64  `json:"applicationId,omitempty"`
	QueueID       int64  `json:"queueId,omitempty"`
	UserID        int64  `json:"userId,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = queries.QueryType

// Export constants for external use
var (
	QueryTypeApplicationDetails = queries.QueryTypeApplicationDetails
	QueryTypeQueueSummary       = queries.QueryTypeQueueSummary
	QueryTypeLodgementOccupancy = queries.QueryTypeLodgementOccupancy
	QueryTypeUserApplications   = queries.QueryTypeUserApplications
	QueryTypeAssignmentHistory  = queries.QueryTypeAssignmentHistory
)
