// internal/workers/scoring/evaluate-scoring-form/handler.go
package evaluatescoringform

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lodgement-workers/internal/common/errors"
	"lodgement-workers/internal/common/logger"
	"lodgement-workers/internal/engine/scoring"
	"lodgement-workers/internal/models"
)

const (
	TaskType = "evaluate-scoring-form"
)

// Store is the persistence surface this worker needs.
type Store interface {
	GetApplication(ctx context.Context, applicationID int64) (*models.Application, error)
	SaveItemAnswer(ctx context.Context, formID, itemID int64, answer interface{}) error
}

type Handler struct {
	config *Config
	store  Store
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, store Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		code := "SCORING_FAILED"
		if stdErr, ok := err.(*errors.StandardError); ok {
			code = string(stdErr.Code)
		}
		h.failJob(client, job, code, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == 0 {
		return nil, errors.NewValidationFailedError("applicationId is required")
	}

	app, err := h.store.GetApplication(ctx, input.ApplicationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewResourceNotFoundError("application", input.ApplicationID)
		}
		return nil, errors.NewQueryExecutionFailedError("get-application", err)
	}
	if app.ScoringForm == nil {
		return nil, errors.NewResourceNotFoundError("scoring form for application", input.ApplicationID)
	}

	saved := 0
	if len(input.Answers) > 0 {
		if err := h.saveAnswers(ctx, app, input.Answers); err != nil {
			return nil, err
		}
		saved = len(input.Answers)
	}

	now := h.now()
	total := scoring.TotalPoints(app.ScoringForm, now)
	bonus := scoring.WaitingBonus(app.ScoringForm.CreatedAt, now)

	h.logger.Info("scoring form evaluated", map[string]interface{}{
		"applicationId": app.ID,
		"totalPoints":   total,
		"waitingBonus":  bonus,
		"answersSaved":  saved,
	})

	return &Output{
		ApplicationID: app.ID,
		TotalPoints:   total,
		BasePoints:    total - bonus,
		WaitingBonus:  bonus,
		AnswersSaved:  saved,
	}, nil
}

// saveAnswers validates and persists a batch of answers. Answers are writable
// only while the applicant still holds the application; once it is under
// review or beyond, the form is locked.
func (h *Handler) saveAnswers(ctx context.Context, app *models.Application, answers []Answer) error {
	switch app.Status {
	case models.StatusInProgress, models.StatusReUpload:
	default:
		return errors.NewValidationFailedError(
			fmt.Sprintf("answers are locked in status %q", app.Status))
	}

	items := make(map[int64]models.FormItem, len(app.ScoringForm.Items))
	for _, item := range app.ScoringForm.Items {
		items[item.ID] = item
	}

	for _, ans := range answers {
		item, ok := items[ans.ItemID]
		if !ok {
			return errors.NewValidationFailedError(
				fmt.Sprintf("unknown form item %d", ans.ItemID))
		}
		if err := scoring.ValidateAnswer(item.FieldType, ans.Value); err != nil {
			return errors.NewValidationFailedError(
				fmt.Sprintf("item %d: %v", ans.ItemID, err))
		}
	}

	// All answers validated; nothing is written on a partially bad batch.
	for _, ans := range answers {
		if err := h.store.SaveItemAnswer(ctx, app.ScoringForm.ID, ans.ItemID, ans.Value); err != nil {
			return err
		}
		for i := range app.ScoringForm.Items {
			if app.ScoringForm.Items[i].ID == ans.ItemID {
				app.ScoringForm.Items[i].Answer = ans.Value
			}
		}
	}
	return nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

// Execute exposes the core logic for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
