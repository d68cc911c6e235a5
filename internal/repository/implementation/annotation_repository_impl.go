package implementation

import (
	"context"
	"errors"

	"canvas-annotations-be/internal/entity"
	"canvas-annotations-be/internal/mapper"
	"canvas-annotations-be/internal/model"
	"canvas-annotations-be/internal/repository/contract"
	"canvas-annotations-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnnotationRepositoryImpl struct {
	db       *gorm.DB
	mapper   *mapper.AnnotationMapper
	maxBatch int
}

func NewAnnotationRepository(db *gorm.DB, maxBatch int) contract.AnnotationRepository {
	return &AnnotationRepositoryImpl{
		db:       db,
		mapper:   mapper.NewAnnotationMapper(),
		maxBatch: maxBatch,
	}
}

func (r *AnnotationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// upsertConflict replaces the drawing content and provenance when the same
// (user, composite key) pair is written twice.
var upsertConflict = clause.OnConflict{
	Columns: []clause.Column{{Name: "user_id"}, {Name: "composite_key"}},
	DoUpdates: clause.AssignmentColumns([]string{
		"vector_image", "width", "height", "document_id",
		"question_id", "part_id", "section_id", "meta", "updated_at",
	}),
}

func (r *AnnotationRepositoryImpl) Upsert(ctx context.Context, annotation *entity.Annotation) error {
	m := r.mapper.ToModel(annotation)
	if err := r.db.WithContext(ctx).Clauses(upsertConflict).Create(m).Error; err != nil {
		return err
	}
	*annotation = *r.mapper.ToEntity(m)
	return nil
}

func (r *AnnotationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Annotation, error) {
	var m model.Annotation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AnnotationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Annotation, error) {
	var models []*model.Annotation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *AnnotationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Annotation{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AnnotationRepositoryImpl) Delete(ctx context.Context, userID, compositeKey string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND composite_key = ?", userID, compositeKey).
		Delete(&model.Annotation{}).Error
}

func (r *AnnotationRepositoryImpl) BatchUpsert(ctx context.Context, annotations []*entity.Annotation) error {
	if len(annotations) > r.maxBatch {
		return contract.ErrBatchTooLarge
	}
	if len(annotations) == 0 {
		return nil
	}

	models := r.mapper.ToModels(annotations)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range models {
			if err := tx.Clauses(upsertConflict).Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *AnnotationRepositoryImpl) BatchDelete(ctx context.Context, userID string, compositeKeys []string) error {
	if len(compositeKeys) > r.maxBatch {
		return contract.ErrBatchTooLarge
	}
	if len(compositeKeys) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Where("user_id = ? AND composite_key IN ?", userID, compositeKeys).
			Delete(&model.Annotation{}).Error
	})
}
