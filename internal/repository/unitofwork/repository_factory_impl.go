package unitofwork

import (
	"context"

	"gorm.io/gorm"
)

type RepositoryFactoryImpl struct {
	db       *gorm.DB
	maxBatch int
}

func NewRepositoryFactory(db *gorm.DB, maxBatch int) RepositoryFactory {
	return &RepositoryFactoryImpl{
		db:       db,
		maxBatch: maxBatch,
	}
}

func (f *RepositoryFactoryImpl) NewUnitOfWork(ctx context.Context) UnitOfWork {
	// A unit of work is short lived, one per logical operation. The context
	// is applied when Begin runs or per repository call.
	return NewUnitOfWork(f.db, f.maxBatch)
}
