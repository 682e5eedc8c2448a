// internal/workers/scoring/rank-applications/handler_test.go
package rankapplications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"lodgement-workers/internal/common/errors"
	"lodgement-workers/internal/common/logger"
	"lodgement-workers/internal/engine/ranking"
	"lodgement-workers/internal/models"
)

type fakeStore struct {
	apps []models.Application
	err  error
}

func (f *fakeStore) ListApplicationsByStatus(ctx context.Context, queueID int64, status models.ApplicationStatus) ([]models.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.apps, nil
}

type fakeCache struct {
	byQueue map[int64][]ranking.ScoredApplication
	err     error
}

func (f *fakeCache) SetScores(ctx context.Context, queueID int64, scored []ranking.ScoredApplication) error {
	if f.err != nil {
		return f.err
	}
	if f.byQueue == nil {
		f.byQueue = make(map[int64][]ranking.ScoredApplication)
	}
	f.byQueue[queueID] = scored
	return nil
}

var testNow = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// scoredApp builds an approved application scoring exactly the given value.
func scoredApp(id int64, score int) models.Application {
	return models.Application{
		ID:     id,
		Status: models.StatusApproved,
		ScoringForm: &models.ScoringForm{
			ID:            id,
			ApplicationID: id,
			CreatedAt:     testNow,
			Items: []models.FormItem{
				{ID: 1, FieldType: models.FieldInteger, Point: 1, Answer: score},
			},
		},
	}
}

func newTestHandler(t *testing.T, store Store, cache Cache) *Handler {
	h := NewHandler(LoadConfig(), store, cache, logger.NewZapAdapter(zaptest.NewLogger(t)))
	h.now = func() time.Time { return testNow }
	return h
}

func TestExecuteRanksCohort(t *testing.T) {
	store := &fakeStore{apps: []models.Application{
		scoredApp(10, 100),
		scoredApp(11, 80),
		scoredApp(12, 80),
		scoredApp(13, 50),
	}}
	cache := &fakeCache{}
	h := newTestHandler(t, store, cache)

	out, err := h.Execute(context.Background(), &Input{QueueID: 1})
	require.NoError(t, err)

	assert.Equal(t, 4, out.CohortSize)
	require.Len(t, out.Rankings, 4)

	assert.Equal(t, RankedApplication{ApplicationID: 10, Score: 100, Rank: 1}, out.Rankings[0])
	assert.Equal(t, RankedApplication{ApplicationID: 11, Score: 80, Rank: 2}, out.Rankings[1])
	assert.Equal(t, RankedApplication{ApplicationID: 12, Score: 80, Rank: 2}, out.Rankings[2], "equal scores share a rank")
	assert.Equal(t, RankedApplication{ApplicationID: 13, Score: 50, Rank: 4}, out.Rankings[3])

	require.Len(t, cache.byQueue[1], 4)
	assert.Equal(t, int64(10), cache.byQueue[1][0].Application.ID)
}

func TestExecuteEqualScoresKeepFetchOrder(t *testing.T) {
	store := &fakeStore{apps: []models.Application{
		scoredApp(21, 70),
		scoredApp(22, 70),
		scoredApp(23, 70),
	}}
	h := newTestHandler(t, store, &fakeCache{})

	out, err := h.Execute(context.Background(), &Input{QueueID: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(21), out.Rankings[0].ApplicationID)
	assert.Equal(t, int64(22), out.Rankings[1].ApplicationID)
	assert.Equal(t, int64(23), out.Rankings[2].ApplicationID)
	for _, r := range out.Rankings {
		assert.Equal(t, 1, r.Rank)
	}
}

func TestExecuteSingleApplicationRank(t *testing.T) {
	store := &fakeStore{apps: []models.Application{
		scoredApp(10, 100),
		scoredApp(11, 80),
		scoredApp(13, 50),
	}}
	h := newTestHandler(t, store, &fakeCache{})

	out, err := h.Execute(context.Background(), &Input{QueueID: 1, ApplicationID: 13})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rank)
}

func TestExecuteApplicationOutsideCohort(t *testing.T) {
	store := &fakeStore{apps: []models.Application{scoredApp(10, 100)}}
	h := newTestHandler(t, store, &fakeCache{})

	_, err := h.Execute(context.Background(), &Input{QueueID: 1, ApplicationID: 99})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeResourceNotFound))
}

func TestExecuteHypotheticalInsertion(t *testing.T) {
	store := &fakeStore{apps: []models.Application{
		scoredApp(10, 100),
		scoredApp(11, 80),
		scoredApp(12, 80),
		scoredApp(13, 50),
	}}
	h := newTestHandler(t, store, &fakeCache{})

	score := 80
	out, err := h.Execute(context.Background(), &Input{QueueID: 1, HypotheticalScore: &score})
	require.NoError(t, err)
	require.NotNil(t, out.HypotheticalPosition)
	assert.Equal(t, 3, *out.HypotheticalPosition, "a hypothetical 80 lands after both existing 80s")
}

func TestExecuteEmptyCohort(t *testing.T) {
	h := newTestHandler(t, &fakeStore{}, &fakeCache{})

	out, err := h.Execute(context.Background(), &Input{QueueID: 1})
	require.NoError(t, err)
	assert.Zero(t, out.CohortSize)
	assert.Empty(t, out.Rankings)
}

func TestExecuteCacheFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{apps: []models.Application{scoredApp(10, 100)}}
	h := newTestHandler(t, store, &fakeCache{err: assert.AnError})

	out, err := h.Execute(context.Background(), &Input{QueueID: 1})
	require.NoError(t, err, "ranking succeeds even when the cache is down")
	assert.Equal(t, 1, out.CohortSize)
}

func TestExecuteStoreFailure(t *testing.T) {
	h := newTestHandler(t, &fakeStore{err: assert.AnError}, &fakeCache{})

	_, err := h.Execute(context.Background(), &Input{QueueID: 1})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeQueryExecutionFailed))
}

func TestExecuteRequiresQueueID(t *testing.T) {
	h := newTestHandler(t, &fakeStore{}, &fakeCache{})

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}
