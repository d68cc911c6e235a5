package events

import "time"

// Annotation lifecycle event types carried on the in-process bus.
const (
	TypeAnnotationSaved   = "ANNOTATION_SAVED"
	TypeAnnotationDeleted = "ANNOTATION_DELETED"
	TypeAnnotationsLoaded = "ANNOTATIONS_BULK_LOADED"
	TypeAnnotationsImport = "ANNOTATIONS_IMPORTED"
	TypeAnnotationsClear  = "ANNOTATIONS_CLEARED"
)

// Event is the contract for everything published on the annotation bus.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
