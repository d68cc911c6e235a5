package mapper

import (
	"encoding/json"
	"time"

	"canvas-annotations-be/internal/entity"
	"canvas-annotations-be/internal/model"

	"gorm.io/datatypes"
)

type AnnotationMapper struct{}

func NewAnnotationMapper() *AnnotationMapper {
	return &AnnotationMapper{}
}

// annotationMeta is the JSONB sidecar for provenance that is not worth a
// dedicated column.
type annotationMeta struct {
	ImportedAt *time.Time `json:"importedAt,omitempty"`
	Source     string     `json:"source,omitempty"`
}

func (m *AnnotationMapper) ToEntity(a *model.Annotation) *entity.Annotation {
	if a == nil {
		return nil
	}

	var meta annotationMeta
	if len(a.Meta) > 0 {
		// Provenance is advisory; a malformed sidecar never fails a read.
		_ = json.Unmarshal(a.Meta, &meta)
	}

	return &entity.Annotation{
		Id:           a.Id,
		UserID:       a.UserId,
		CompositeKey: a.CompositeKey,
		DocumentID:   a.DocumentId,
		QuestionID:   a.QuestionId,
		PartID:       a.PartId,
		SectionID:    a.SectionId,
		VectorImage:  a.VectorImage,
		Width:        a.Width,
		Height:       a.Height,
		Timestamp:    a.UpdatedAt,
		ImportedAt:   meta.ImportedAt,
		Source:       meta.Source,
		CreatedAt:    a.CreatedAt,
	}
}

func (m *AnnotationMapper) ToModel(a *entity.Annotation) *model.Annotation {
	if a == nil {
		return nil
	}

	var meta datatypes.JSON
	if a.ImportedAt != nil || a.Source != "" {
		raw, err := json.Marshal(annotationMeta{ImportedAt: a.ImportedAt, Source: a.Source})
		if err == nil {
			meta = raw
		}
	}

	return &model.Annotation{
		Id:           a.Id,
		UserId:       a.UserID,
		CompositeKey: a.CompositeKey,
		DocumentId:   a.DocumentID,
		QuestionId:   a.QuestionID,
		PartId:       a.PartID,
		SectionId:    a.SectionID,
		VectorImage:  a.VectorImage,
		Width:        a.Width,
		Height:       a.Height,
		Meta:         meta,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.Timestamp,
	}
}

func (m *AnnotationMapper) ToEntities(annotations []*model.Annotation) []*entity.Annotation {
	entities := make([]*entity.Annotation, len(annotations))
	for i, a := range annotations {
		entities[i] = m.ToEntity(a)
	}
	return entities
}

func (m *AnnotationMapper) ToModels(annotations []*entity.Annotation) []*model.Annotation {
	models := make([]*model.Annotation, len(annotations))
	for i, a := range annotations {
		models[i] = m.ToModel(a)
	}
	return models
}
