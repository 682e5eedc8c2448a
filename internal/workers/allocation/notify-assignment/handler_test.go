// internal/workers/allocation/notify-assignment/handler_test.go
package notifyassignment

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"lodgement-workers/internal/common/errors"
	"lodgement-workers/internal/common/logger"
	"lodgement-workers/internal/models"
)

type fakeStore struct {
	asg    *models.Assignment
	asgErr error
	app    *models.Application
	appErr error
}

func (f *fakeStore) GetAssignment(ctx context.Context, assignmentID string) (*models.Assignment, error) {
	if f.asgErr != nil {
		return nil, f.asgErr
	}
	return f.asg, nil
}

func (f *fakeStore) GetApplication(ctx context.Context, applicationID int64) (*models.Application, error) {
	if f.appErr != nil {
		return nil, f.appErr
	}
	return f.app, nil
}

type fakeSES struct {
	sent []*ses.SendEmailInput
	err  error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &ses.SendEmailOutput{}, nil
}

type fakeSNS struct {
	published []*sns.PublishInput
	err       error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.published = append(f.published, params)
	return &sns.PublishOutput{}, nil
}

func testAssignment() *models.Assignment {
	start := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)
	return &models.Assignment{
		ID:            "asg-1",
		ApplicationID: 42,
		LodgementID:   100,
		StartDate:     start,
		EndDate:       start.AddDate(5, 0, 0),
		Status:        models.AssignmentLocked,
	}
}

func newTestHandler(t *testing.T, store Store, sesClient SESService, snsClient SNSService, contactRows *sqlmock.Rows) *Handler {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if contactRows != nil {
		mock.ExpectQuery(`SELECT email, phone FROM users`).WillReturnRows(contactRows)
	} else {
		mock.ExpectQuery(`SELECT email, phone FROM users`).WillReturnError(assert.AnError)
	}

	cfg := LoadConfig()
	cfg.EmailEnabled = true
	cfg.SMSEnabled = true
	cfg.FromEmail = "housing@example.edu"

	return &Handler{
		config:    cfg,
		store:     store,
		db:        db,
		logger:    logger.NewZapAdapter(zaptest.NewLogger(t)),
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

func TestExecuteSendsEmail(t *testing.T) {
	store := &fakeStore{asg: testAssignment(), app: &models.Application{ID: 42, UserID: 7}}
	sesClient := &fakeSES{}
	snsClient := &fakeSNS{}
	rows := sqlmock.NewRows([]string{"email", "phone"}).AddRow("tenant@example.edu", "")

	h := newTestHandler(t, store, sesClient, snsClient, rows)

	out, err := h.Execute(context.Background(), &Input{AssignmentID: "asg-1"})
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, "asg-1", out.AssignmentID)
	require.Len(t, sesClient.sent, 1)
	assert.Equal(t, "tenant@example.edu", sesClient.sent[0].Destination.ToAddresses[0])
	assert.Contains(t, *sesClient.sent[0].Message.Body.Text.Data, "9 April 2025")
	assert.Empty(t, snsClient.published)
}

func TestExecuteHighPrioritySendsSMS(t *testing.T) {
	store := &fakeStore{asg: testAssignment(), app: &models.Application{ID: 42, UserID: 7}}
	sesClient := &fakeSES{}
	snsClient := &fakeSNS{}
	rows := sqlmock.NewRows([]string{"email", "phone"}).AddRow("tenant@example.edu", "+15550001111")

	h := newTestHandler(t, store, sesClient, snsClient, rows)

	out, err := h.Execute(context.Background(), &Input{AssignmentID: "asg-1", Priority: "high"})
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	require.Len(t, snsClient.published, 1)
	assert.Equal(t, "+15550001111", *snsClient.published[0].PhoneNumber)
}

func TestExecuteMissingContactDegrades(t *testing.T) {
	store := &fakeStore{asg: testAssignment(), app: &models.Application{ID: 42, UserID: 7}}
	h := newTestHandler(t, store, &fakeSES{}, &fakeSNS{}, nil)

	out, err := h.Execute(context.Background(), &Input{AssignmentID: "asg-1"})
	require.NoError(t, err, "a missing recipient is not a failure")
	assert.Equal(t, StatusDisabled, out.Status)
}

func TestExecuteEmailFailureIsRetryable(t *testing.T) {
	store := &fakeStore{asg: testAssignment(), app: &models.Application{ID: 42, UserID: 7}}
	sesClient := &fakeSES{err: assert.AnError}
	rows := sqlmock.NewRows([]string{"email", "phone"}).AddRow("tenant@example.edu", "")

	h := newTestHandler(t, store, sesClient, &fakeSNS{}, rows)

	_, err := h.Execute(context.Background(), &Input{AssignmentID: "asg-1"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotificationSendFailed))
	assert.True(t, errors.IsRetryableErrorCode(errors.ErrCodeNotificationSendFailed))
}

func TestExecuteMissingAssignment(t *testing.T) {
	store := &fakeStore{asgErr: sql.ErrNoRows}
	h := newTestHandler(t, store, &fakeSES{}, &fakeSNS{}, nil)

	_, err := h.Execute(context.Background(), &Input{AssignmentID: "asg-404"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeResourceNotFound))
}

func TestExecuteStoreFailureIsRetryable(t *testing.T) {
	store := &fakeStore{asgErr: fmt.Errorf("connection refused")}
	h := newTestHandler(t, store, &fakeSES{}, &fakeSNS{}, nil)

	_, err := h.Execute(context.Background(), &Input{AssignmentID: "asg-1"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeQueryExecutionFailed))
	assert.True(t, err.(*errors.StandardError).Retryable)
}

func TestExecuteRequiresAssignmentID(t *testing.T) {
	h := newTestHandler(t, &fakeStore{}, &fakeSES{}, &fakeSNS{}, nil)

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}
