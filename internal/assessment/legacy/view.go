package legacy

import (
	"encoding/json"
	"time"

	"flowcare/internal/assessment/models"
)

// View is a reconstructed assessment: exactly one of the flattened or the
// nested legacy shape, tagged with the schema it came from.
type View struct {
	schema    SchemaVersion
	flattened *models.Assessment
	legacy    *models.LegacyAssessment
}

// NewFlattenedView wraps a flattened API record. A nil record yields nil.
func NewFlattenedView(a *models.Assessment) *View {
	if a == nil {
		return nil
	}
	return &View{schema: SchemaFlattened, flattened: a}
}

// NewLegacyView wraps a nested legacy record. A nil record yields nil.
func NewLegacyView(a *models.LegacyAssessment) *View {
	if a == nil {
		return nil
	}
	return &View{schema: SchemaLegacy, legacy: a}
}

func (v *View) Schema() SchemaVersion { return v.schema }

// Flattened returns the flattened record when the view came from that schema.
func (v *View) Flattened() (*models.Assessment, bool) {
	return v.flattened, v.schema == SchemaFlattened
}

// Legacy returns the nested record when the view came from the legacy schema.
func (v *View) Legacy() (*models.LegacyAssessment, bool) {
	return v.legacy, v.schema == SchemaLegacy
}

func (v *View) ID() string {
	if v.schema == SchemaLegacy {
		return v.legacy.ID
	}
	return v.flattened.ID
}

func (v *View) UserID() string {
	if v.schema == SchemaLegacy {
		return v.legacy.UserID
	}
	return v.flattened.UserID
}

func (v *View) CreatedAt() time.Time {
	if v.schema == SchemaLegacy {
		return v.legacy.CreatedAt
	}
	return v.flattened.CreatedAt
}

// Pattern returns the pattern carried by whichever shape the view holds.
func (v *View) Pattern() string {
	var p *string
	if v.schema == SchemaLegacy {
		p = v.legacy.AssessmentData.Pattern
	} else {
		p = v.flattened.Pattern
	}
	if p == nil {
		return ""
	}
	return *p
}

// MarshalJSON emits the held shape directly, with no wrapper.
func (v *View) MarshalJSON() ([]byte, error) {
	if v.schema == SchemaLegacy {
		return json.Marshal(v.legacy)
	}
	return json.Marshal(v.flattened)
}
