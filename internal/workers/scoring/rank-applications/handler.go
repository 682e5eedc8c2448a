// internal/workers/scoring/rank-applications/handler.go
package rankapplications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lodgement-workers/internal/common/errors"
	"lodgement-workers/internal/common/logger"
	"lodgement-workers/internal/engine/ranking"
	"lodgement-workers/internal/engine/scoring"
	"lodgement-workers/internal/models"
)

const (
	TaskType = "rank-applications"
)

type Store interface {
	ListApplicationsByStatus(ctx context.Context, queueID int64, status models.ApplicationStatus) ([]models.Application, error)
}

// Cache receives the freshly computed cohort scores. A nil cache disables
// caching without changing behavior.
type Cache interface {
	SetScores(ctx context.Context, queueID int64, scored []ranking.ScoredApplication) error
}

type Handler struct {
	config *Config
	store  Store
	cache  Cache
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, store Store, cache Cache, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		cache:  cache,
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
		code := "RANKING_FAILED"
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

	now := h.now()
	scored := make([]ranking.ScoredApplication, 0, len(apps))
	for _, a := range apps {
		scored = append(scored, ranking.ScoredApplication{
			Application: a,
			Score:       scoring.TotalPoints(a.ScoringForm, now),
		})
	}
	ordered := ranking.Order(scored)

	if h.cache != nil {
		if err := h.cache.SetScores(ctx, input.QueueID, ordered); err != nil {
			// Stale cache self-heals on expiry; the ranking still stands.
			h.logger.Warn("score cache update failed", map[string]interface{}{
				"queueId": input.QueueID,
				"error":   err.Error(),
			})
		}
	}

	output := &Output{
		QueueID:    input.QueueID,
		CohortSize: len(ordered),
		Rankings:   make([]RankedApplication, 0, len(ordered)),
	}
	for _, s := range ordered {
		output.Rankings = append(output.Rankings, RankedApplication{
			ApplicationID: s.Application.ID,
			Score:         s.Score,
			Rank:          ranking.RankOf(ordered, s.Application.ID, s.Score),
		})
	}

	if input.ApplicationID != 0 {
		found := false
		for _, r := range output.Rankings {
			if r.ApplicationID == input.ApplicationID {
				output.Rank = r.Rank
				found = true
				break
			}
		}
		if !found {
			return nil, errors.NewResourceNotFoundError("application in approved cohort", input.ApplicationID)
		}
	}

	if input.HypotheticalScore != nil {
		_, pos := ranking.InsertHypothetical(ordered, ranking.ScoredApplication{
			Score: *input.HypotheticalScore,
		})
		output.HypotheticalPosition = &pos
	}

	h.logger.Info("cohort ranked", map[string]interface{}{
		"queueId":    input.QueueID,
		"cohortSize": output.CohortSize,
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
