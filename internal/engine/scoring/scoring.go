// internal/engine/scoring/scoring.go
package scoring

import (
	"fmt"
	"math"
	"time"

	"lodgement-workers/internal/models"
)

// TotalPoints computes the score of a scoring form at the given evaluation
// time. Integer items contribute weight times answer, boolean items contribute
// their weight when truthy, text items never contribute. Unanswered and
// malformed answers contribute zero. The waiting bonus adds one point per
// whole calendar year since the form was created. The result may be negative.
func TotalPoints(form *models.ScoringForm, asOf time.Time) int {
	if form == nil {
		return 0
	}

	sum := 0
	for _, item := range form.Items {
		if item.Point == 0 {
			continue
		}
		switch item.FieldType {
		case models.FieldInteger:
			if n, ok := item.AnswerInt(); ok {
				sum += item.Point * n
			}
		case models.FieldBoolean:
			if b, ok := item.AnswerBool(); ok && b {
				sum += item.Point
			}
		}
	}

	return sum + WaitingBonus(form.CreatedAt, asOf)
}

// WaitingBonus returns the number of whole calendar years between the form's
// creation and the evaluation time. Calendar-aware: 2 years and 11 months is
// 2, not 3, and leap-day anniversaries follow time.AddDate normalization.
func WaitingBonus(createdAt, asOf time.Time) int {
	if !asOf.After(createdAt) {
		return 0
	}

	years := asOf.Year() - createdAt.Year()
	if years < 0 {
		return 0
	}
	// Back off one year while the anniversary has not been reached yet.
	for years > 0 && createdAt.AddDate(years, 0, 0).After(asOf) {
		years--
	}
	return years
}

// ValidateAnswer checks a submitted raw answer against an item's value kind.
// Mirrors the submission contract: integer items take whole numbers, boolean
// items take booleans or 0/1 numerics, text items take strings.
func ValidateAnswer(fieldType models.FieldType, answer interface{}) error {
	if answer == nil {
		return nil
	}

	switch fieldType {
	case models.FieldInteger:
		switch v := answer.(type) {
		case int, int64:
			return nil
		case float64:
			if v != math.Trunc(v) {
				return fmt.Errorf("integer item answered with fractional value %v", v)
			}
			return nil
		default:
			return fmt.Errorf("integer item answered with %T", answer)
		}
	case models.FieldBoolean:
		switch answer.(type) {
		case bool, int, int64, float64:
			return nil
		default:
			return fmt.Errorf("boolean item answered with %T", answer)
		}
	case models.FieldText:
		switch answer.(type) {
		case string, int, int64, float64:
			return nil
		default:
			return fmt.Errorf("text item answered with %T", answer)
		}
	}
	return fmt.Errorf("unknown field type %d", fieldType)
}
