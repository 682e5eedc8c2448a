// internal/workers/scoring/predict-availability/handler.go
package predictavailability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lodgement-workers/internal/common/errors"
	"lodgement-workers/internal/common/logger"
	"lodgement-workers/internal/engine/prediction"
	"lodgement-workers/internal/engine/ranking"
	"lodgement-workers/internal/engine/scoring"
	"lodgement-workers/internal/models"
)

const (
	TaskType = "predict-availability"
)

type Store interface {
	ListApplicationsByStatus(ctx context.Context, queueID int64, status models.ApplicationStatus) ([]models.Application, error)
	ListLodgements(ctx context.Context, queueID int64) ([]models.Lodgement, error)
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
		code := "PREDICTION_FAILED"
		if stdErr, ok := err.(*errors.StandardError); ok {
			code = string(stdErr.Code)
		}
		h.failJob(client, job, code, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.QueueID == 0 {
		return nil, errors.NewValidationFailedError("queueId is required")
	}

	apps, err := h.store.ListApplicationsByStatus(ctx, input.QueueID, models.StatusApproved)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("approved-applications", err)
	}
	units, err := h.store.ListLodgements(ctx, input.QueueID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("queue-lodgements", err)
	}

	now := h.now()
	scored := make([]ranking.ScoredApplication, 0, len(apps))
	for _, a := range apps {
		scored = append(scored, ranking.ScoredApplication{
			Application: a,
			Score:       scoring.TotalPoints(a.ScoringForm, now),
		})
	}
	ranked := ranking.Order(scored)

	estimates := prediction.Predict(ranked, units, now)

	output := &Output{QueueID: input.QueueID}
	for _, est := range estimates {
		if input.ApplicationID != 0 && est.ApplicationID != input.ApplicationID {
			continue
		}
		rendered := AvailabilityEstimate{
			ApplicationID: est.ApplicationID,
			Message:       prediction.RenderRelative(est.Date, now),
		}
		if est.Known() {
			rendered.EstimatedDate = est.Date.Format(time.RFC3339)
		}
		output.Estimates = append(output.Estimates, rendered)
	}

	if input.ApplicationID != 0 && len(output.Estimates) == 0 {
		return nil, errors.NewResourceNotFoundError("application in approved cohort", input.ApplicationID)
	}

	h.logger.Info("availability predicted", map[string]interface{}{
		"queueId":    input.QueueID,
		"applicants": len(ranked),
		"estimates":  len(output.Estimates),
	})
	return output, nil
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
