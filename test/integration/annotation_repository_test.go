package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"canvas-annotations-be/internal/entity"
	"canvas-annotations-be/internal/model"
	"canvas-annotations-be/internal/repository/contract"
	"canvas-annotations-be/internal/repository/specification"
	"canvas-annotations-be/internal/repository/unitofwork"
	"canvas-annotations-be/pkg/database"
	"canvas-annotations-be/pkg/keys"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotationRepositoryPostgres(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.Annotation{}))

	uowFactory := unitofwork.NewRepositoryFactory(gormDB, 500)
	ctx := context.Background()
	repo := uowFactory.NewUnitOfWork(ctx).AnnotationRepository()

	userID := "itest-" + uuid.New().String()
	docID := keys.DocumentIdentifier("itest/doc.tex")

	t.Cleanup(func() {
		_ = gormDB.Where("user_id = ?", userID).Delete(&model.Annotation{}).Error
	})

	t.Run("Upsert twice keeps one row per key", func(t *testing.T) {
		key := keys.CompositeKey(docID, "1", "1", nil)
		for _, vec := range []string{"<svg>a</svg>", "<svg>b</svg>"} {
			require.NoError(t, repo.Upsert(ctx, &entity.Annotation{
				UserID:       userID,
				CompositeKey: key,
				DocumentID:   docID,
				QuestionID:   "1",
				PartID:       "1",
				VectorImage:  vec,
				Width:        10,
				Height:       10,
			}))
		}

		count, err := repo.Count(ctx, specification.OwnedBy{UserID: userID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		got, err := repo.FindOne(ctx,
			specification.OwnedBy{UserID: userID},
			specification.ByCompositeKey{Key: key},
		)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "<svg>b</svg>", got.VectorImage)
		assert.False(t, got.Timestamp.IsZero())
	})

	t.Run("Batch write and delete", func(t *testing.T) {
		batch := make([]*entity.Annotation, 3)
		batchKeys := make([]string, 3)
		for i := range batch {
			q := fmt.Sprintf("%d", i+10)
			batchKeys[i] = keys.CompositeKey(docID, q, "1", nil)
			batch[i] = &entity.Annotation{
				UserID:       userID,
				CompositeKey: batchKeys[i],
				DocumentID:   docID,
				QuestionID:   q,
				PartID:       "1",
				VectorImage:  "<svg/>",
				Width:        10,
				Height:       10,
			}
		}

		require.NoError(t, repo.BatchUpsert(ctx, batch))

		all, err := repo.FindAll(ctx, specification.OwnedBy{UserID: userID})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 3)

		require.NoError(t, repo.BatchDelete(ctx, userID, batchKeys))
		count, err := repo.Count(ctx,
			specification.OwnedBy{UserID: userID},
			specification.ByCompositeKeys{Keys: batchKeys},
		)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Batch over limit is rejected", func(t *testing.T) {
		small := unitofwork.NewRepositoryFactory(gormDB, 2).
			NewUnitOfWork(ctx).AnnotationRepository()

		oversized := make([]*entity.Annotation, 3)
		for i := range oversized {
			oversized[i] = &entity.Annotation{
				UserID:       userID,
				CompositeKey: keys.CompositeKey(docID, fmt.Sprintf("%d", i+20), "1", nil),
				DocumentID:   docID,
				QuestionID:   fmt.Sprintf("%d", i+20),
				PartID:       "1",
				VectorImage:  "<svg/>",
				Width:        10,
				Height:       10,
			}
		}
		assert.ErrorIs(t, small.BatchUpsert(ctx, oversized), contract.ErrBatchTooLarge)
	})
}
