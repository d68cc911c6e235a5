package contract

import (
	"context"
	"errors"

	"canvas-annotations-be/internal/entity"
	"canvas-annotations-be/internal/repository/specification"
)

// ErrBatchTooLarge is returned when a batch write or delete exceeds the
// store's bounded atomic batch limit. Callers chunk before retrying.
var ErrBatchTooLarge = errors.New("batch exceeds atomic batch limit")

type AnnotationRepository interface {
	// Upsert writes one annotation, replacing any previous record with the
	// same (user, composite key) pair.
	Upsert(ctx context.Context, annotation *entity.Annotation) error

	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Annotation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Annotation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	Delete(ctx context.Context, userID, compositeKey string) error

	// BatchUpsert commits up to the batch limit of annotations as one
	// all-or-nothing unit. Fails with ErrBatchTooLarge beyond the limit.
	BatchUpsert(ctx context.Context, annotations []*entity.Annotation) error

	// BatchDelete removes up to the batch limit of keys atomically.
	BatchDelete(ctx context.Context, userID string, compositeKeys []string) error
}
