// internal/workers/scoring/rank-applications/models.go
package rankapplications

type Input struct {
	QueueID int64 `json:"queueId"`
	// ApplicationID narrows the output to one applicant's rank.
	ApplicationID int64 `json:"applicationId,omitempty"`
	// HypotheticalScore, when set, also reports where a not-yet-approved
	// application with that score would land in the current cohort.
	HypotheticalScore *int `json:"hypotheticalScore,omitempty"`
}

type RankedApplication struct {
	ApplicationID int64 `json:"applicationId"`
	Score         int   `json:"score"`
	Rank          int   `json:"rank"`
}

type Output struct {
	QueueID    int64               `json:"queueId"`
	CohortSize int                 `json:"cohortSize"`
	Rankings   []RankedApplication `json:"rankings"`
	// Rank is set when ApplicationID was given.
	Rank int `json:"rank,omitempty"`
	// HypotheticalPosition is the 0-based insertion index for a hypothetical
	// score, placed after all equal scores.
	HypotheticalPosition *int `json:"hypotheticalPosition,omitempty"`
}
