// internal/workers/data-access/query-postgresql/queries/application.go
package queries

import (
	"context"
	"database/sql"
	"time"

	"lodgement-workers/internal/models"
)

func ApplicationDetails(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	applicationID, ok := int64Param(params, "applicationId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, userID, queueID int64
	var status int
	var createdAt, employmentStart time.Time
	var systemMessage sql.NullString

	err := db.QueryRowContext(ctx, `
		SELECT id, user_id, queue_id, status, created_at, employment_start, system_message
		FROM applications
		WHERE id = $1`, applicationID).Scan(
		&id, &userID, &queueID, &status, &createdAt, &employmentStart, &systemMessage,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":              id,
		"userId":          userID,
		"queueId":         queueID,
		"status":          status,
		"statusLabel":     models.ApplicationStatus(status).String(),
		"createdAt":       createdAt.Format(time.RFC3339),
		"employmentStart": employmentStart.Format(time.RFC3339),
		"systemMessage":   systemMessage.String,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func UserApplications(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := int64Param(params, "userId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT a.id, a.queue_id, a.status, a.created_at,
		       q.lodgement_type, q.personnel_type, q.lodgement_size
		FROM applications a
		JOIN queues q ON q.id = a.queue_id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC`, userID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, queueID int64
		var status, lodgementType, personnelType, lodgementSize int
		var createdAt time.Time
		err := rows.Scan(&id, &queueID, &status, &createdAt, &lodgementType, &personnelType, &lodgementSize)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"id":          id,
			"queueId":     queueID,
			"status":      status,
			"statusLabel": models.ApplicationStatus(status).String(),
			"createdAt":   createdAt.Format(time.RFC3339),
			"queueLabel": models.Queue{
				LodgementType: models.LodgementType(lodgementType),
				PersonnelType: models.PersonnelType(personnelType),
				LodgementSize: models.LodgementSize(lodgementSize),
			}.Label(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

func AssignmentHistory(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	applicationID, ok := int64Param(params, "applicationId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT asg.id, asg.lodgement_id, l.name, asg.start_date, asg.end_date,
		       asg.status, asg.is_deposit_paid, asg.created_at
		FROM assignments asg
		JOIN lodgements l ON l.id = asg.lodgement_id
		WHERE asg.application_id = $1
		ORDER BY asg.created_at DESC`, applicationID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, lodgementName string
		var lodgementID int64
		var status int
		var isDepositPaid bool
		var startDate, endDate, createdAt time.Time
		err := rows.Scan(&id, &lodgementID, &lodgementName, &startDate, &endDate, &status, &isDepositPaid, &createdAt)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"id":            id,
			"lodgementId":   lodgementID,
			"lodgementName": lodgementName,
			"startDate":     startDate.Format(time.RFC3339),
			"endDate":       endDate.Format(time.RFC3339),
			"status":        status,
			"statusLabel":   models.AssignmentStatus(status).String(),
			"isDepositPaid": isDepositPaid,
			"createdAt":     createdAt.Format(time.RFC3339),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}
