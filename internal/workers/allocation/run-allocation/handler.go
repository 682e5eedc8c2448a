// internal/workers/allocation/run-allocation/handler.go
package runallocation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lodgement-workers/internal/common/errors"
	"lodgement-workers/internal/common/logger"
	"lodgement-workers/internal/models"
)

const (
	TaskType = "run-allocation"
)

// Allocator runs one transactional allocation pass over a queue.
type Allocator interface {
	Run(ctx context.Context, queueID int64) ([]models.Assignment, error)
}

type Cache interface {
	Invalidate(ctx context.Context, queueID int64) error
}

type Handler struct {
	config    *Config
	allocator Allocator
	cache     Cache
	logger    logger.Logger
}

func NewHandler(config *Config, allocator Allocator, cache Cache, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		allocator: allocator,
		cache:     cache,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		// MANUAL_ALLOCATION_REQUIRED rides the same path: the workflow
		// catches the code and routes to a human task.
		code := string(errors.ErrCodeAllocationRunFailed)
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

	created, err := h.allocator.Run(ctx, input.QueueID)
	if err != nil {
		if stdErr, ok := err.(*errors.StandardError); ok {
			return nil, stdErr
		}
		return nil, errors.NewAllocationRunFailedError(input.QueueID, err)
	}

	if h.cache != nil && len(created) > 0 {
		if err := h.cache.Invalidate(ctx, input.QueueID); err != nil {
			h.logger.Warn("rank cache invalidation failed", map[string]interface{}{
				"queueId": input.QueueID,
				"error":   err.Error(),
			})
		}
	}

	output := &Output{
		QueueID:            input.QueueID,
		AssignmentsCreated: len(created),
		Assignments:        make([]AssignmentSummary, 0, len(created)),
	}
	for _, asg := range created {
		output.Assignments = append(output.Assignments, AssignmentSummary{
			AssignmentID:  asg.ID,
			ApplicationID: asg.ApplicationID,
			LodgementID:   asg.LodgementID,
			StartDate:     asg.StartDate.Format(time.RFC3339),
			EndDate:       asg.EndDate.Format(time.RFC3339),
		})
	}

	h.logger.Info("allocation run finished", map[string]interface{}{
		"queueId":            input.QueueID,
		"assignmentsCreated": len(created),
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
