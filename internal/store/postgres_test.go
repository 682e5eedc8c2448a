// internal/store/postgres_test.go
package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodgement-workers/internal/engine/allocation"
	"lodgement-workers/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestGetApplicationWithForm(t *testing.T) {
	s, mock := newMockStore(t)

	created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	empStart := time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, user_id, queue_id, status, created_at, employment_start, system_message\s+FROM applications`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "queue_id", "status", "created_at", "employment_start", "system_message"}).
			AddRow(42, 7, 1, int(models.StatusApproved), created, empStart, nil))

	mock.ExpectQuery(`SELECT id, application_id, created_at\s+FROM scoring_forms`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "application_id", "created_at"}).
			AddRow(9, 42, created))

	mock.ExpectQuery(`SELECT id, label, caption, field_type, point, answer\s+FROM form_items`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "caption", "field_type", "point", "answer"}).
			AddRow(1, "Children", "", int(models.FieldInteger), 3, []byte(`{"value": 2}`)).
			AddRow(2, "Disability", "", int(models.FieldBoolean), 5, []byte(`{"value": true}`)).
			AddRow(3, "Notes", "", int(models.FieldText), 0, nil))

	app, err := s.GetApplication(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, app.ScoringForm)
	require.Len(t, app.ScoringForm.Items, 3)

	n, ok := app.ScoringForm.Items[0].AnswerInt()
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	b, ok := app.ScoringForm.Items[1].AnswerBool()
	assert.True(t, ok)
	assert.True(t, b)

	assert.False(t, app.ScoringForm.Items[2].Answered())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetApplicationWithoutForm(t *testing.T) {
	s, mock := newMockStore(t)

	created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM applications`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "queue_id", "status", "created_at", "employment_start", "system_message"}).
			AddRow(42, 7, 1, int(models.StatusInProgress), created, created, "re-upload the payslip"))

	mock.ExpectQuery(`FROM scoring_forms`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	app, err := s.GetApplication(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, app.ScoringForm, "an application may not have a form yet")
	assert.Equal(t, "re-upload the payslip", app.SystemMessage)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLodgementsBusyUntil(t *testing.T) {
	s, mock := newMockStore(t)

	busy := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM lodgements`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "size", "description", "location", "is_available", "busy_until", "queue_id"}).
			AddRow(100, "A-1", int(models.SizeOnePlusOne), "", "Block A", true, nil, 1).
			AddRow(101, "A-2", int(models.SizeOnePlusOne), "", "Block A", true, busy, 1))

	units, err := s.ListLodgements(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.True(t, units[0].FreeNow())
	require.NotNil(t, units[1].BusyUntil)
	assert.True(t, units[1].BusyUntil.Equal(busy))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveItemAnswerEncodesValueDocument(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE form_items`).
		WithArgs(int64(9), int64(2), []byte(`{"value":5}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.SaveItemAnswer(context.Background(), 9, 2, 5)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveItemAnswerUnknownItem(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE form_items`).
		WithArgs(int64(9), int64(99), []byte(`{"value":5}`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.SaveItemAnswer(context.Background(), 9, 99, 5)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdateApplicationStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE applications`).
		WithArgs(int64(42), int(models.StatusApproved), "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.UpdateApplicationStatus(context.Background(), 42, models.StatusApproved, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithQueueLockCommitsOnSuccess(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE lodgements`).
		WithArgs(int64(100), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WithQueueLock(context.Background(), 1, func(ctx context.Context, tx allocation.Tx) error {
		return tx.MarkLodgementBusy(ctx, 100, time.Now())
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithQueueLockRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO assignments`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := s.WithQueueLock(context.Background(), 1, func(ctx context.Context, tx allocation.Tx) error {
		return tx.InsertAssignment(ctx, models.Assignment{
			ID:            "asg-1",
			ApplicationID: 42,
			LodgementID:   100,
			Status:        models.AssignmentLocked,
		})
	})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationSnapshotLoadsOccupants(t *testing.T) {
	s, mock := newMockStore(t)

	empStart := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM queues`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lodgement_type", "personnel_type", "lodgement_size"}).
			AddRow(1, int(models.SequentialAllocation), int(models.AcademicPersonnel), int(models.SizeOnePlusOne)))
	mock.ExpectQuery(`FROM applications`).
		WithArgs(int64(1), int(models.StatusApproved)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "queue_id", "status", "created_at", "employment_start", "system_message"}))
	mock.ExpectQuery(`FROM lodgements`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "size", "description", "location", "is_available", "busy_until", "queue_id"}).
			AddRow(100, "A-1", int(models.SizeOnePlusOne), "", "", true, nil, 1))
	mock.ExpectQuery(`FROM assignments asg`).
		WithArgs(int64(1), int(models.AssignmentLocked), int(models.AssignmentActive)).
		WillReturnRows(sqlmock.NewRows([]string{"lodgement_id", "employment_start"}).
			AddRow(100, empStart))
	mock.ExpectCommit()

	var snap *allocation.Snapshot
	err := s.WithQueueLock(context.Background(), 1, func(ctx context.Context, tx allocation.Tx) error {
		var err error
		snap, err = tx.Snapshot(ctx, 1)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, models.SequentialAllocation, snap.Queue.LodgementType)
	assert.Empty(t, snap.Applications)
	require.Len(t, snap.Lodgements, 1)
	got, ok := snap.Occupants[100]
	require.True(t, ok)
	assert.True(t, got.Equal(empStart))

	assert.NoError(t, mock.ExpectationsWereMet())
}
