// internal/workers/data-access/query-postgresql/queries/queue.go
package queries

import (
	"context"
	"database/sql"
	"time"

	"lodgement-workers/internal/models"
)

func QueueSummary(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	queueID, ok := int64Param(params, "queueId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var lodgementType, personnelType, lodgementSize int
	err := db.QueryRowContext(ctx, `
		SELECT lodgement_type, personnel_type, lodgement_size
		FROM queues
		WHERE id = $1`, queueID).Scan(&lodgementType, &personnelType, &lodgementSize)
	if err != nil {
		return nil, 0, 0, err
	}

	statusCounts := make(map[string]int)
	rows, err := db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM applications
		WHERE queue_id = $1
		GROUP BY status`, queueID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		var status, count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, 0, 0, err
		}
		statusCounts[models.ApplicationStatus(status).String()] = count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	var totalUnits, freeUnits int
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE busy_until IS NULL AND is_available)
		FROM lodgements
		WHERE queue_id = $1`, queueID).Scan(&totalUnits, &freeUnits)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"queueId": queueID,
		"label": models.Queue{
			LodgementType: models.LodgementType(lodgementType),
			PersonnelType: models.PersonnelType(personnelType),
			LodgementSize: models.LodgementSize(lodgementSize),
		}.Label(),
		"applicationsByStatus": statusCounts,
		"totalUnits":           totalUnits,
		"freeUnits":            freeUnits,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func LodgementOccupancy(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	queueID, ok := int64Param(params, "queueId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT l.id, l.name, l.location, l.is_available, l.busy_until,
		       occ.application_id, occ.end_date
		FROM lodgements l
		LEFT JOIN LATERAL (
			SELECT application_id, end_date
			FROM assignments
			WHERE lodgement_id = l.id AND status IN ($2, $3)
			ORDER BY created_at DESC
			LIMIT 1
		) occ ON TRUE
		WHERE l.queue_id = $1
		ORDER BY l.id`,
		queueID, int(models.AssignmentLocked), int(models.AssignmentActive))
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id int64
		var name, location string
		var isAvailable bool
		var busyUntil, endDate sql.NullTime
		var applicationID sql.NullInt64
		err := rows.Scan(&id, &name, &location, &isAvailable, &busyUntil, &applicationID, &endDate)
		if err != nil {
			return nil, 0, 0, err
		}
		entry := map[string]interface{}{
			"id":          id,
			"name":        name,
			"location":    location,
			"isAvailable": isAvailable,
			"occupied":    applicationID.Valid,
		}
		if busyUntil.Valid {
			entry["busyUntil"] = busyUntil.Time.Format(time.RFC3339)
		}
		if applicationID.Valid {
			entry["occupantApplicationId"] = applicationID.Int64
		}
		results = append(results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}
