// internal/workers/data-access/query-postgresql/queries/registry.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// QueryType names one read-only report over the lodgement schema.
type QueryType string

const (
	QueryTypeApplicationDetails QueryType = "application-details"
	QueryTypeQueueSummary       QueryType = "queue-summary"
	QueryTypeLodgementOccupancy QueryType = "lodgement-occupancy"
	QueryTypeUserApplications   QueryType = "user-applications"
	QueryTypeAssignmentHistory  QueryType = "assignment-history"
)

// QueryFunc returns: data, rowCount, executionTime (ms), error
type QueryFunc func(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error)

var Registry = map[QueryType]QueryFunc{
	QueryTypeApplicationDetails: ApplicationDetails,
	QueryTypeQueueSummary:       QueueSummary,
	QueryTypeLodgementOccupancy: LodgementOccupancy,
	QueryTypeUserApplications:   UserApplications,
	QueryTypeAssignmentHistory:  AssignmentHistory,
}

func Execute(ctx context.Context, db *sql.DB, queryType QueryType, params map[string]interface{}) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	return fn(ctx, db, params)
}

// int64Param reads an ID parameter, tolerating the float64 that JSON decoding
// produces for numbers.
func int64Param(params map[string]interface{}, key string) (int64, bool) {
	switch v := params[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}
