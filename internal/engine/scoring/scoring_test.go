// internal/engine/scoring/scoring_test.go
package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lodgement-workers/internal/models"
)

func formWithItems(createdAt time.Time, items ...models.FormItem) *models.ScoringForm {
	return &models.ScoringForm{
		ID:            1,
		ApplicationID: 1,
		Items:         items,
		CreatedAt:     createdAt,
	}
}

func TestTotalPoints_IntegerAndBooleanItems(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		items    []models.FormItem
		expected int
	}{
		{
			name: "integer item multiplies weight by answer",
			items: []models.FormItem{
				{FieldType: models.FieldInteger, Point: 40, Answer: 2},
			},
			expected: 80,
		},
		{
			name: "boolean item adds weight when truthy",
			items: []models.FormItem{
				{FieldType: models.FieldBoolean, Point: 6, Answer: true},
				{FieldType: models.FieldBoolean, Point: -1, Answer: false},
			},
			expected: 6,
		},
		{
			name: "negative weights produce deductions",
			items: []models.FormItem{
				{FieldType: models.FieldInteger, Point: -15, Answer: 2},
				{FieldType: models.FieldInteger, Point: 5, Answer: 4},
			},
			expected: -10,
		},
		{
			name: "unanswered items contribute zero",
			items: []models.FormItem{
				{FieldType: models.FieldInteger, Point: 40},
				{FieldType: models.FieldBoolean, Point: 6},
			},
			expected: 0,
		},
		{
			name: "malformed integer answer degrades to zero",
			items: []models.FormItem{
				{FieldType: models.FieldInteger, Point: 40, Answer: "not-a-number"},
				{FieldType: models.FieldInteger, Point: 3, Answer: "2"},
			},
			expected: 6,
		},
		{
			name: "text items never contribute",
			items: []models.FormItem{
				{FieldType: models.FieldText, Point: 100, Answer: "anything"},
			},
			expected: 0,
		},
		{
			name: "zero-weight items are skipped",
			items: []models.FormItem{
				{FieldType: models.FieldInteger, Point: 0, Answer: 999},
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := formWithItems(now, tt.items...)
			assert.Equal(t, tt.expected, TotalPoints(form, now))
		})
	}
}

func TestTotalPoints_MonotonicInAnswerValue(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	prev := -1 << 30
	for v := 0; v <= 10; v++ {
		form := formWithItems(now,
			models.FormItem{FieldType: models.FieldInteger, Point: 5, Answer: v},
			models.FormItem{FieldType: models.FieldInteger, Point: 5, Answer: v},
		)
		score := TotalPoints(form, now)
		assert.Greater(t, score, prev, "score must increase with answer value")
		prev = score
	}
}

func TestWaitingBonus(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		createdAt time.Time
		expected  int
	}{
		{"created at evaluation time", asOf, 0},
		{"created in the future", asOf.AddDate(0, 1, 0), 0},
		{"eleven months ago", asOf.AddDate(0, -11, 0), 0},
		{"exactly one year ago", asOf.AddDate(-1, 0, 0), 1},
		{"two years eleven months ago floors to two", asOf.AddDate(-2, -11, 0), 2},
		{"three years ago", asOf.AddDate(-3, 0, 0), 3},
		{"one day short of a year", asOf.AddDate(-1, 0, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WaitingBonus(tt.createdAt, asOf))
		})
	}
}

func TestTotalPoints_IncludesWaitingBonus(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	form := formWithItems(asOf.AddDate(-2, 0, 0),
		models.FormItem{FieldType: models.FieldInteger, Point: 5, Answer: 3},
	)
	assert.Equal(t, 17, TotalPoints(form, asOf))
}

func TestTotalPoints_NilForm(t *testing.T) {
	assert.Equal(t, 0, TotalPoints(nil, time.Now()))
}

func TestValidateAnswer(t *testing.T) {
	tests := []struct {
		name      string
		fieldType models.FieldType
		answer    interface{}
		wantErr   bool
	}{
		{"nil answer always valid", models.FieldInteger, nil, false},
		{"integer as int", models.FieldInteger, 3, false},
		{"integer as whole float", models.FieldInteger, float64(3), false},
		{"integer as fractional float", models.FieldInteger, 3.5, true},
		{"integer as string", models.FieldInteger, "3", true},
		{"boolean as bool", models.FieldBoolean, true, false},
		{"boolean as numeric", models.FieldBoolean, float64(1), false},
		{"boolean as string", models.FieldBoolean, "yes", true},
		{"text as string", models.FieldText, "hello", false},
		{"text as numeric", models.FieldText, 4, false},
		{"text as bool", models.FieldText, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswer(tt.fieldType, tt.answer)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
