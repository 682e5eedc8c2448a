// internal/engine/prediction/prediction_test.go
package prediction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodgement-workers/internal/engine/ranking"
	"lodgement-workers/internal/models"
)

var now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func ranked(ids ...int64) []ranking.ScoredApplication {
	out := make([]ranking.ScoredApplication, len(ids))
	for i, id := range ids {
		out[i] = ranking.ScoredApplication{
			Application: models.Application{ID: id, Status: models.StatusApproved},
			Score:       100 - i,
		}
	}
	return out
}

func freeLodgement(id int64) models.Lodgement {
	return models.Lodgement{ID: id, IsAvailable: true}
}

func busyLodgement(id int64, until time.Time) models.Lodgement {
	return models.Lodgement{ID: id, BusyUntil: &until}
}

func TestPredict_AvailableThenBusy(t *testing.T) {
	frees := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	lodgements := []models.Lodgement{
		busyLodgement(10, frees),
		freeLodgement(11),
	}

	estimates := Predict(ranked(1, 2), lodgements, now)

	require.Len(t, estimates, 2)
	require.True(t, estimates[0].Known())
	assert.Equal(t, now, *estimates[0].Date, "first applicant gets the free-now unit")
	require.True(t, estimates[1].Known())
	assert.Equal(t, frees, *estimates[1].Date, "second applicant waits for the busy unit")
}

func TestPredict_NoInventory(t *testing.T) {
	estimates := Predict(ranked(1, 2), nil, now)

	require.Len(t, estimates, 2)
	assert.False(t, estimates[0].Known())
	assert.False(t, estimates[1].Known())
}

func TestPredict_BusyUnitsConsumedInFreeDateOrder(t *testing.T) {
	late := now.AddDate(1, 0, 0)
	soon := now.AddDate(0, 1, 0)
	lodgements := []models.Lodgement{
		busyLodgement(10, late),
		busyLodgement(11, soon),
	}

	estimates := Predict(ranked(1, 2, 3), lodgements, now)

	require.Len(t, estimates, 3)
	assert.Equal(t, soon, *estimates[0].Date)
	assert.Equal(t, late, *estimates[1].Date)
	assert.False(t, estimates[2].Known(), "inventory exhausted for the third applicant")
}

func TestPredict_MoreUnitsThanApplicants(t *testing.T) {
	lodgements := []models.Lodgement{freeLodgement(10), freeLodgement(11), freeLodgement(12)}

	estimates := Predict(ranked(1), lodgements, now)

	require.Len(t, estimates, 1)
	assert.Equal(t, now, *estimates[0].Date)
}

func TestRenderRelative(t *testing.T) {
	dateIn := func(years, months, days int) *time.Time {
		d := now.AddDate(years, months, days)
		return &d
	}

	tests := []struct {
		name     string
		target   *time.Time
		expected string
	}{
		{"nil date", nil, NoLodgementsMessage},
		{"full form", dateIn(2, 3, 4), "in 2 years, 3 months and 4 days"},
		{"zero years drops the years clause", dateIn(0, 3, 4), "in 3 months and 4 days"},
		{"zero years and months drops both", dateIn(0, 0, 4), "in 4 days"},
		{"today", dateIn(0, 0, 0), AvailableNowMessage},
		{"past date is available now", dateIn(0, 0, -10), AvailableNowMessage},
		{"exactly one year", dateIn(1, 0, 0), "in 1 years, 0 months and 0 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RenderRelative(tt.target, now))
		})
	}
}

func TestRenderRelative_MonthBorrow(t *testing.T) {
	// 2024-03-15 -> 2024-05-01: one month and the remainder of a borrowed
	// 30-day April.
	target := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "in 1 months and 16 days", RenderRelative(&target, now))
}
