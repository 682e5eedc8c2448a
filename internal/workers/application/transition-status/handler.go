// internal/workers/application/transition-status/handler.go
package transitionstatus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lodgement-workers/internal/common/errors"
	"lodgement-workers/internal/common/logger"
	"lodgement-workers/internal/engine/allocation"
	"lodgement-workers/internal/models"
)

const (
	TaskType = "transition-status"
)

type Store interface {
	GetApplication(ctx context.Context, applicationID int64) (*models.Application, error)
	UpdateApplicationStatus(ctx context.Context, applicationID int64, status models.ApplicationStatus, systemMessage string) error
}

// Cache invalidation keeps cached ranks honest: any status change can move an
// application in or out of the ranked cohort.
type Cache interface {
	Invalidate(ctx context.Context, queueID int64) error
}

type Handler struct {
	config   *Config
	store    Store
	cache    Cache
	logger   logger.Logger
	errorHdl *errors.ErrorHandler
}

func NewHandler(config *Config, store Store, cache Cache, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		store:    store,
		cache:    cache,
		logger:   scoped,
		errorHdl: errors.NewErrorHandler(scoped),
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
		h.errorHdl.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == 0 {
		return nil, errors.NewValidationFailedError("applicationId is required")
	}
	if input.Event == "" {
		return nil, errors.NewValidationFailedError("event is required")
	}

	app, err := h.store.GetApplication(ctx, input.ApplicationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewResourceNotFoundError("application", input.ApplicationID)
		}
		return nil, errors.NewQueryExecutionFailedError("get-application", err)
	}

	next, err := allocation.Transition(app.Status, allocation.Event(input.Event))
	if err != nil {
		return nil, err
	}

	if err := h.store.UpdateApplicationStatus(ctx, app.ID, next, input.SystemMessage); err != nil {
		return nil, errors.NewQueryExecutionFailedError("update-application-status", err)
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, app.QueueID); err != nil {
			h.logger.Warn("rank cache invalidation failed", map[string]interface{}{
				"queueId": app.QueueID,
				"error":   err.Error(),
			})
		}
	}

	h.logger.Info("application status changed", map[string]interface{}{
		"applicationId": app.ID,
		"event":         input.Event,
		"from":          app.Status.String(),
		"to":            next.String(),
	})

	return &Output{
		ApplicationID:  app.ID,
		PreviousStatus: app.Status.String(),
		NewStatus:      next.String(),
	}, nil
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
