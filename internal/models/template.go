// internal/models/template.go
package models

// TemplateItem is one row of the process-wide scoring template. Instantiated
// into FormItems when an application is registered into a queue.
type TemplateItem struct {
	Label     string    `json:"label"`
	Caption   string    `json:"caption"`
	FieldType FieldType `json:"fieldType"`
	Point     int       `json:"point"`
}

// ScoringTemplate is the point schedule applications are scored against.
// Weights follow the public housing allocation schedule the system models;
// negative weights are deductions.
var ScoringTemplate = []TemplateItem{
	{
		Label:     "How many war veterans or relatives of fallen personnel are in your family?",
		Caption:   "+40 points for each veteran or first-degree relative of fallen personnel living in the household",
		FieldType: FieldInteger,
		Point:     40,
	},
	{
		Label:     "How many family members have a certified disability of 40% or more?",
		Caption:   "+40 points for each household member with a medically certified disability of at least 40%",
		FieldType: FieldInteger,
		Point:     40,
	},
	{
		Label:     "How many habitable dwellings does your family own in other provinces or districts?",
		Caption:   "-10 points for each habitable dwelling owned outside the province or district of the lodgement",
		FieldType: FieldInteger,
		Point:     -10,
	},
	{
		Label:     "How many habitable dwellings does your family own in the same province or district?",
		Caption:   "-15 points for each habitable dwelling owned within the municipal boundaries of the lodgement's province or district",
		FieldType: FieldInteger,
		Point:     -15,
	},
	{
		Label:     "Does your family's yearly income exceed the statutory threshold?",
		Caption:   "-1 point when the household's total recurring income, salary excluded, exceeds the indexed statutory amount",
		FieldType: FieldBoolean,
		Point:     -1,
	},
	{
		Label:     "How many dependents do you support besides your spouse and children?",
		Caption:   "+1 point for each legally dependent household member other than spouse and children",
		FieldType: FieldInteger,
		Point:     1,
	},
	{
		Label:     "How many dependent children do you have? (maximum 2)",
		Caption:   "+3 points for each legally dependent child, counted up to two children",
		FieldType: FieldInteger,
		Point:     3,
	},
	{
		Label:     "Do you have a spouse?",
		Caption:   "+6 points for the personnel's spouse",
		FieldType: FieldBoolean,
		Point:     6,
	},
	{
		Label:     "For how many years have you previously resided in a public lodgement?",
		Caption:   "-3 points for each prior year of residence in housing covered by the public lodgements act",
		FieldType: FieldInteger,
		Point:     -3,
	},
	{
		Label:     "How many years of public service do you have?",
		Caption:   "+5 points for each year of service in institutions covered by the public lodgements act",
		FieldType: FieldInteger,
		Point:     5,
	},
}

// NewScoringForm instantiates the template for an application.
func NewScoringForm(applicationID int64) *ScoringForm {
	items := make([]FormItem, len(ScoringTemplate))
	for idx, t := range ScoringTemplate {
		items[idx] = FormItem{
			ID:        int64(idx + 1),
			Label:     t.Label,
			Caption:   t.Caption,
			FieldType: t.FieldType,
			Point:     t.Point,
		}
	}
	return &ScoringForm{ApplicationID: applicationID, Items: items}
}
