package mapping

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/curriculum/core"
)

// Course owns an ordered list of Course Outcomes (COs) and their CO-PO / CO-PSO mapping.
// An outcome's position in Outcomes is its row identity in both matrices.
type Course struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Outcomes  []string  `json:"cos"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type CourseSummary struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	OutcomeCount int       `json:"outcome_count" db:"outcome_count"`
	POLinks      int       `json:"co_po_count" db:"co_po_count"`
	PSOLinks     int       `json:"co_pso_count" db:"co_pso_count"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CourseOrderings maps the `ordering` query fields to repository columns.
var CourseOrderings = map[string]string{
	"id":         "id",
	"title":      "title",
	"updated_at": "updated_at",
}

// SetOutcomes defines what may be provided to (re)define a course's outcomes.
type SetOutcomes struct {
	Title    string   `json:"title" validate:"omitempty,max=200"`
	Outcomes []string `json:"cos" validate:"required,max=50,dive,notblank,max=500"`
}

func (so *SetOutcomes) Validate(validate *validator.Validate) error {
	so.Title = core.CleanString(so.Title)
	for i, co := range so.Outcomes {
		so.Outcomes[i] = core.CleanString(co)
	}
	return validate.Struct(so)
}

// Validate checks the payload's field domains. Row bounds are checked by the Service against the course.
func (p *Payload) Validate(validate *validator.Validate) error {
	return validate.Struct(p)
}
