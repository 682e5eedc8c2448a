// internal/models/form.go
package models

import (
	"strconv"
	"time"
)

// ScoringForm is a per-application copy of the scoring template. Answers are
// mutable only while the application status permits edits; never after the
// application locks into Pending or Approved.
type ScoringForm struct {
	ID            int64      `json:"id"`
	ApplicationID int64      `json:"applicationId"`
	Items         []FormItem `json:"items"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// FormItem is a single questionnaire row. Answer carries the raw submitted
// value, if any; the typed accessors normalize it per the item's field type.
type FormItem struct {
	ID        int64       `json:"id"`
	Label     string      `json:"label"`
	Caption   string      `json:"caption"`
	FieldType FieldType   `json:"fieldType"`
	Point     int         `json:"point"`
	Answer    interface{} `json:"answer,omitempty"`
}

// AnswerInt returns the integer answer, or 0 and false when the item is
// unanswered or the value cannot be read as an integer. Malformed answers
// degrade silently; they never fail a score computation.
func (i FormItem) AnswerInt() (int, bool) {
	switch v := i.Answer.(type) {
	case nil:
		return 0, false
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// AnswerBool returns the boolean answer. Numeric answers follow the usual
// zero-is-false convention; anything unreadable counts as unanswered.
func (i FormItem) AnswerBool() (bool, bool) {
	switch v := i.Answer.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		return v != 0, true
	}
	return false, false
}

// AnswerText returns the free-text answer, if any.
func (i FormItem) AnswerText() (string, bool) {
	if v, ok := i.Answer.(string); ok {
		return v, true
	}
	return "", false
}

// Answered reports whether the item carries any answer at all.
func (i FormItem) Answered() bool {
	return i.Answer != nil
}
