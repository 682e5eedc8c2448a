// internal/store/postgres.go

// Package store is the persistence layer over PostgreSQL and Redis. SQL lives
// here and nowhere else; workers and the allocation engine see typed models.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"lodgement-workers/internal/engine/allocation"
	"lodgement-workers/internal/models"
)

// PostgresStore reads and writes the lodgement schema. It implements
// allocation.Store for locked allocation runs and exposes plain reads for the
// scoring, ranking, and prediction workers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// answerDoc is the JSONB envelope around a submitted answer.
type answerDoc struct {
	Value interface{} `json:"value"`
}

func decodeAnswer(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var doc answerDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return doc.Value
}

func encodeAnswer(value interface{}) ([]byte, error) {
	return json.Marshal(answerDoc{Value: value})
}

// GetQueue loads one queue by ID.
func (s *PostgresStore) GetQueue(ctx context.Context, queueID int64) (*models.Queue, error) {
	var q models.Queue
	err := s.db.QueryRowContext(ctx, `
		SELECT id, lodgement_type, personnel_type, lodgement_size
		FROM queues
		WHERE id = $1`, queueID).Scan(
		&q.ID, &q.LodgementType, &q.PersonnelType, &q.LodgementSize,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetApplication loads one application together with its scoring form.
func (s *PostgresStore) GetApplication(ctx context.Context, applicationID int64) (*models.Application, error) {
	var a models.Application
	var systemMessage sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, queue_id, status, created_at, employment_start, system_message
		FROM applications
		WHERE id = $1`, applicationID).Scan(
		&a.ID, &a.UserID, &a.QueueID, &a.Status, &a.CreatedAt, &a.EmploymentStart, &systemMessage,
	)
	if err != nil {
		return nil, err
	}
	a.SystemMessage = systemMessage.String

	form, err := s.getScoringForm(ctx, s.db, a.ID)
	if err != nil {
		return nil, err
	}
	a.ScoringForm = form
	return &a, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *PostgresStore) getScoringForm(ctx context.Context, q querier, applicationID int64) (*models.ScoringForm, error) {
	var form models.ScoringForm
	err := q.QueryRowContext(ctx, `
		SELECT id, application_id, created_at
		FROM scoring_forms
		WHERE application_id = $1`, applicationID).Scan(
		&form.ID, &form.ApplicationID, &form.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, label, caption, field_type, point, answer
		FROM form_items
		WHERE form_id = $1
		ORDER BY id`, form.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.FormItem
		var rawAnswer []byte
		if err := rows.Scan(&item.ID, &item.Label, &item.Caption, &item.FieldType, &item.Point, &rawAnswer); err != nil {
			return nil, err
		}
		item.Answer = decodeAnswer(rawAnswer)
		form.Items = append(form.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &form, nil
}

// ListApplicationsByStatus returns a queue's applications in a fixed fetch
// order with scoring forms attached. Rank ties resolve by this order, so it
// must be deterministic.
func (s *PostgresStore) ListApplicationsByStatus(ctx context.Context, queueID int64, status models.ApplicationStatus) ([]models.Application, error) {
	return listApplications(ctx, s, s.db, queueID, status)
}

func listApplications(ctx context.Context, s *PostgresStore, q querier, queueID int64, status models.ApplicationStatus) ([]models.Application, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, queue_id, status, created_at, employment_start, system_message
		FROM applications
		WHERE queue_id = $1 AND status = $2
		ORDER BY created_at, id`, queueID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		var a models.Application
		var systemMessage sql.NullString
		if err := rows.Scan(&a.ID, &a.UserID, &a.QueueID, &a.Status, &a.CreatedAt, &a.EmploymentStart, &systemMessage); err != nil {
			return nil, err
		}
		a.SystemMessage = systemMessage.String
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range apps {
		form, err := s.getScoringForm(ctx, q, apps[i].ID)
		if err != nil {
			return nil, err
		}
		apps[i].ScoringForm = form
	}
	return apps, nil
}

// ListLodgements returns all of a queue's units in a fixed fetch order.
func (s *PostgresStore) ListLodgements(ctx context.Context, queueID int64) ([]models.Lodgement, error) {
	return listLodgements(ctx, s.db, queueID)
}

func listLodgements(ctx context.Context, q querier, queueID int64) ([]models.Lodgement, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, size, description, location, is_available, busy_until, queue_id
		FROM lodgements
		WHERE queue_id = $1
		ORDER BY id`, queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []models.Lodgement
	for rows.Next() {
		var l models.Lodgement
		var busyUntil sql.NullTime
		if err := rows.Scan(&l.ID, &l.Name, &l.Size, &l.Description, &l.Location, &l.IsAvailable, &busyUntil, &l.QueueID); err != nil {
			return nil, err
		}
		if busyUntil.Valid {
			u := busyUntil.Time
			l.BusyUntil = &u
		}
		units = append(units, l)
	}
	return units, rows.Err()
}

// UpdateApplicationStatus persists a status change outside an allocation run.
// Callers guard the transition first.
func (s *PostgresStore) UpdateApplicationStatus(ctx context.Context, applicationID int64, status models.ApplicationStatus, systemMessage string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, system_message = $3
		WHERE id = $1`, applicationID, status, systemMessage)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveItemAnswer writes one questionnaire answer as a JSONB value document.
func (s *PostgresStore) SaveItemAnswer(ctx context.Context, formID, itemID int64, answer interface{}) error {
	raw, err := encodeAnswer(answer)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE form_items
		SET answer = $3
		WHERE form_id = $1 AND id = $2`, formID, itemID, raw)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateScoringForm materializes a template copy for an application.
func (s *PostgresStore) CreateScoringForm(ctx context.Context, form *models.ScoringForm) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO scoring_forms (application_id, created_at)
		VALUES ($1, $2)
		RETURNING id`, form.ApplicationID, form.CreatedAt).Scan(&form.ID)
	if err != nil {
		return err
	}

	for i := range form.Items {
		item := &form.Items[i]
		err = tx.QueryRowContext(ctx, `
			INSERT INTO form_items (form_id, label, caption, field_type, point)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`, form.ID, item.Label, item.Caption, item.FieldType, item.Point).Scan(&item.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetAssignment loads one assignment by ID.
func (s *PostgresStore) GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	var a models.Assignment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, application_id, lodgement_id, start_date, end_date, status, is_deposit_paid, created_at
		FROM assignments
		WHERE id = $1`, assignmentID).Scan(
		&a.ID, &a.ApplicationID, &a.LodgementID, &a.StartDate, &a.EndDate, &a.Status, &a.IsDepositPaid, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// WithQueueLock opens a transaction, takes the queue's advisory lock, and runs
// fn against it. The lock releases with the transaction, so two runs on the
// same queue serialize while other queues proceed.
func (s *PostgresStore) WithQueueLock(ctx context.Context, queueID int64, fn func(ctx context.Context, tx allocation.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, queueID); err != nil {
		return fmt.Errorf("acquire queue lock: %w", err)
	}

	if err := fn(ctx, &allocationTx{store: s, tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// allocationTx implements allocation.Tx on one open transaction.
type allocationTx struct {
	store *PostgresStore
	tx    *sql.Tx
}

func (t *allocationTx) Snapshot(ctx context.Context, queueID int64) (*allocation.Snapshot, error) {
	var q models.Queue
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, lodgement_type, personnel_type, lodgement_size
		FROM queues
		WHERE id = $1`, queueID).Scan(
		&q.ID, &q.LodgementType, &q.PersonnelType, &q.LodgementSize,
	)
	if err != nil {
		return nil, err
	}

	apps, err := listApplications(ctx, t.store, t.tx, queueID, models.StatusApproved)
	if err != nil {
		return nil, err
	}

	units, err := listLodgements(ctx, t.tx, queueID)
	if err != nil {
		return nil, err
	}

	occupants, err := t.loadOccupants(ctx, queueID)
	if err != nil {
		return nil, err
	}

	return &allocation.Snapshot{
		Queue:        q,
		Applications: apps,
		Lodgements:   units,
		Occupants:    occupants,
	}, nil
}

// loadOccupants maps each unit to the employment start of the applicant on its
// most recent locked or active assignment.
func (t *allocationTx) loadOccupants(ctx context.Context, queueID int64) (map[int64]time.Time, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT DISTINCT ON (asg.lodgement_id) asg.lodgement_id, app.employment_start
		FROM assignments asg
		JOIN applications app ON app.id = asg.application_id
		JOIN lodgements l ON l.id = asg.lodgement_id
		WHERE l.queue_id = $1 AND asg.status IN ($2, $3)
		ORDER BY asg.lodgement_id, asg.created_at DESC`,
		queueID, models.AssignmentLocked, models.AssignmentActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	occupants := make(map[int64]time.Time)
	for rows.Next() {
		var lodgementID int64
		var employmentStart time.Time
		if err := rows.Scan(&lodgementID, &employmentStart); err != nil {
			return nil, err
		}
		occupants[lodgementID] = employmentStart
	}
	return occupants, rows.Err()
}

func (t *allocationTx) InsertAssignment(ctx context.Context, a models.Assignment) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO assignments (id, application_id, lodgement_id, start_date, end_date, status, is_deposit_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ApplicationID, a.LodgementID, a.StartDate, a.EndDate, a.Status, a.IsDepositPaid, a.CreatedAt)
	return err
}

func (t *allocationTx) MarkLodgementBusy(ctx context.Context, lodgementID int64, until time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE lodgements
		SET busy_until = $2
		WHERE id = $1`, lodgementID, until)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (t *allocationTx) UpdateApplicationStatus(ctx context.Context, applicationID int64, status models.ApplicationStatus) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE applications
		SET status = $2
		WHERE id = $1`, applicationID, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
