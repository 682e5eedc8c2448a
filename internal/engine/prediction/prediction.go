// internal/engine/prediction/prediction.go
package prediction

import (
	"sort"
	"time"

	"lodgement-workers/internal/engine/ranking"
	"lodgement-workers/internal/models"
)

// Estimate is the predicted allocation date for one ranked applicant. A nil
// Date means no lodgement in the queue can be projected for them.
type Estimate struct {
	ApplicationID int64      `json:"applicationId"`
	Date          *time.Time `json:"date,omitempty"`
}

// Known reports whether a date could be projected.
func (e Estimate) Known() bool {
	return e.Date != nil
}

// Predict walks a ranked applicant sequence once and projects an allocation
// date for each entry from the queue's inventory. Free-now lodgements are
// consumed first; once they run out the busy pool is consumed in ascending
// busy-until order; when both pools are exhausted the remaining applicants get
// no date. This is a prediction over a snapshot, not a commitment: no state is
// mutated and no backtracking happens.
func Predict(ranked []ranking.ScoredApplication, lodgements []models.Lodgement, now time.Time) []Estimate {
	var freeNow int
	busy := make([]models.Lodgement, 0, len(lodgements))
	for _, l := range lodgements {
		if l.FreeNow() {
			freeNow++
		} else {
			busy = append(busy, l)
		}
	}
	sort.Slice(busy, func(i, j int) bool {
		return busy[i].BusyUntil.Before(*busy[j].BusyUntil)
	})

	estimates := make([]Estimate, len(ranked))
	busyCursor := 0
	for i, app := range ranked {
		est := Estimate{ApplicationID: app.Application.ID}
		switch {
		case freeNow > 0:
			freeNow--
			d := now
			est.Date = &d
		case busyCursor < len(busy):
			est.Date = busy[busyCursor].BusyUntil
			busyCursor++
		}
		estimates[i] = est
	}
	return estimates
}
