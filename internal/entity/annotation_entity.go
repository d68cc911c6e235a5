package entity

import (
	"time"

	"github.com/google/uuid"
)

// Annotation is one persisted freehand drawing, keyed by the composite of
// document identifier, optional section, question and part.
type Annotation struct {
	Id           uuid.UUID
	UserID       string
	CompositeKey string
	DocumentID   string
	QuestionID   string
	PartID       string
	SectionID    *string
	VectorImage  string
	Width        int
	Height       int
	// Timestamp is the store-assigned write time. Records living only in
	// the session cache carry a client-assigned stamp until the first sync.
	Timestamp  time.Time
	ImportedAt *time.Time
	Source     string
	CreatedAt  time.Time
}
