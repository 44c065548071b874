package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-docview-be/internal/entity"
	"ai-docview-be/internal/model"
	"ai-docview-be/internal/repository/unitofwork"
	"ai-docview-be/pkg/database"
	"ai-docview-be/pkg/view"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormDocumentRepositories(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.DocumentProfile{}, &model.IntermediateResult{}, &model.ViewResult{}))

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	documentId := "it-" + uuid.NewString()
	t.Cleanup(func() {
		uow := uowFactory.NewUnitOfWork(ctx)
		_, _ = uow.ViewResultRepository().DeleteByDocumentId(ctx, documentId)
		_, _ = uow.IntermediateResultRepository().Delete(ctx, documentId)
		_, _ = uow.DocumentProfileRepository().Delete(ctx, documentId)
	})

	t.Run("Snapshot saved in one transaction", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		require.NoError(t, uow.DocumentProfileRepository().Save(ctx, &entity.DocumentProfile{
			DocumentId:      documentId,
			PrimaryView:     view.KindQA,
			EnabledViews:    []view.Kind{view.KindQA, view.KindSystem},
			DetectionScores: map[view.Kind]float64{view.KindQA: 0.8, view.KindSystem: 0.4},
			CacheKey:        "dv:test",
			Method:          "rule",
		}))
		require.NoError(t, uow.IntermediateResultRepository().Save(ctx, &entity.IntermediateResult{
			DocumentId:          documentId,
			RawContent:          "raw",
			PreprocessedContent: "clean",
			Segments:            []view.Segment{{ID: view.SegmentID(0), Index: 0, Text: "clean"}},
			Metadata:            map[string]interface{}{"filename": "a.txt"},
		}))
		require.NoError(t, uow.Commit())

		profile, err := uowFactory.NewUnitOfWork(ctx).DocumentProfileRepository().FindByDocumentId(ctx, documentId)
		require.NoError(t, err)
		require.NotNil(t, profile)
		assert.Equal(t, []view.Kind{view.KindQA, view.KindSystem}, profile.EnabledViews)
		assert.Equal(t, 0.8, profile.DetectionScores[view.KindQA])
	})

	t.Run("View upsert keeps one row per view", func(t *testing.T) {
		repo := uowFactory.NewUnitOfWork(ctx).ViewResultRepository()
		for _, n := range []float64{1, 2} {
			require.NoError(t, repo.Upsert(ctx, &entity.ViewResult{
				DocumentId: documentId,
				View:       view.KindSystem,
				ResultData: view.ResultData{"run": n},
			}))
		}

		rows, err := repo.FindAllByDocumentId(ctx, documentId)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 2.0, rows[0].ResultData["run"])
	})

	t.Run("Rollback discards writes", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		require.NoError(t, uow.ViewResultRepository().Upsert(ctx, &entity.ViewResult{
			DocumentId: documentId,
			View:       view.KindLearning,
			ResultData: view.ResultData{},
		}))
		require.NoError(t, uow.Rollback())

		row, err := uowFactory.NewUnitOfWork(ctx).ViewResultRepository().FindOne(ctx, documentId, view.KindLearning)
		require.NoError(t, err)
		assert.Nil(t, row)
	})
}
