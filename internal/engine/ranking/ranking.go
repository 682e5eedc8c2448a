// internal/engine/ranking/ranking.go
package ranking

import (
	"sort"

	"lodgement-workers/internal/models"
)

// ScoredApplication pairs an application snapshot with its derived score.
type ScoredApplication struct {
	Application models.Application `json:"application"`
	Score       int                `json:"score"`
}

// Order sorts applications by descending score. The sort is stable: ties keep
// the relative order in which the applications were fetched.
func Order(apps []ScoredApplication) []ScoredApplication {
	ranked := make([]ScoredApplication, len(apps))
	copy(ranked, apps)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// InsertHypothetical places a hypothetical applicant into an already ranked
// sequence without persisting anything, returning the new sequence and the
// insertion index. Among equal scores the hypothetical lands after every
// existing entry, so the position found is the first whose score is strictly
// below the hypothetical's.
func InsertHypothetical(ranked []ScoredApplication, hyp ScoredApplication) ([]ScoredApplication, int) {
	idx := sort.Search(len(ranked), func(i int) bool {
		return ranked[i].Score < hyp.Score
	})

	out := make([]ScoredApplication, 0, len(ranked)+1)
	out = append(out, ranked[:idx]...)
	out = append(out, hyp)
	out = append(out, ranked[idx:]...)
	return out, idx
}

// RankOf returns the 1-based rank of the given application within its cohort:
// one plus the number of other applications with a strictly greater score.
// Equal scores share a rank. The cohort passed in is the Approved set for the
// queue; the subject itself may or may not be part of the slice.
func RankOf(cohort []ScoredApplication, applicationID int64, score int) int {
	rank := 1
	for _, a := range cohort {
		if a.Application.ID == applicationID {
			continue
		}
		if a.Score > score {
			rank++
		}
	}
	return rank
}
