package unitofwork

import (
	"context"

	"canvas-annotations-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AnnotationRepository() contract.AnnotationRepository
}
