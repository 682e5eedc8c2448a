// internal/workers/scoring/evaluate-scoring-form/models.go
package evaluatescoringform

// Answer is one submitted questionnaire value.
type Answer struct {
	ItemID int64       `json:"itemId"`
	Value  interface{} `json:"value"`
}

type Input struct {
	ApplicationID int64    `json:"applicationId"`
	Answers       []Answer `json:"answers,omitempty"`
}

type Output struct {
	ApplicationID int64 `json:"applicationId"`
	TotalPoints   int   `json:"totalPoints"`
	BasePoints    int   `json:"basePoints"`
	WaitingBonus  int   `json:"waitingBonus"`
	AnswersSaved  int   `json:"answersSaved"`
}
