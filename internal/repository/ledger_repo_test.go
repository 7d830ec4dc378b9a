package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Subject{}, &models.Enrollment{},
		&models.EvaluationForm{}, &models.Evaluation{}, &models.AggregateScore{},
	))

	return db
}

func testEvaluation(evaluatorID uint, score float64) models.Evaluation {
	scores, _ := models.EncodeScores([]int{4, 4, 4})
	return models.Evaluation{
		EvaluatorID:     evaluatorID,
		TargetType:      models.TargetFaculty,
		TargetID:        42,
		Scores:          scores,
		PercentageScore: score,
		FormVersion:     1,
	}
}

func TestLedgerRecordFirstSubmissionCreatesAggregate(t *testing.T) {
	repo := NewLedgerRepository(setupTestDB(t))

	result, err := repo.Record(context.Background(), testEvaluation(1, 80))
	require.NoError(t, err)
	require.False(t, result.Replaced)
	require.Equal(t, 80.0, result.Aggregate.AverageScore)
	require.Equal(t, int64(1), result.Aggregate.CompletedEvaluations)
}

func TestLedgerRecordSecondEvaluatorExtendsMean(t *testing.T) {
	repo := NewLedgerRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.Record(ctx, testEvaluation(1, 80))
	require.NoError(t, err)

	result, err := repo.Record(ctx, testEvaluation(2, 60))
	require.NoError(t, err)
	require.False(t, result.Replaced)
	require.InDelta(t, 70.0, result.Aggregate.AverageScore, 1e-9)
	require.Equal(t, int64(2), result.Aggregate.CompletedEvaluations)
}

func TestLedgerRecordResubmissionReplacesInPlace(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	_, err := repo.Record(ctx, testEvaluation(1, 80))
	require.NoError(t, err)
	_, err = repo.Record(ctx, testEvaluation(2, 60))
	require.NoError(t, err)

	// Evaluator 2 edits their evaluation from 60 to 90: one record, same
	// count, mean of {80, 90}.
	result, err := repo.Record(ctx, testEvaluation(2, 90))
	require.NoError(t, err)
	require.True(t, result.Replaced)
	require.InDelta(t, 85.0, result.Aggregate.AverageScore, 1e-9)
	require.Equal(t, int64(2), result.Aggregate.CompletedEvaluations)

	var count int64
	require.NoError(t, db.Model(&models.Evaluation{}).
		Where("evaluator_id = ? AND target_type = ? AND target_id = ?", 2, models.TargetFaculty, 42).
		Count(&count).Error)
	require.Equal(t, int64(1), count)

	stored, err := repo.GetByEvaluatorAndTarget(ctx, 2, models.TargetFaculty, 42)
	require.NoError(t, err)
	require.Equal(t, 90.0, stored.PercentageScore)
}

func TestLedgerRecordConcurrentDistinctEvaluators(t *testing.T) {
	repo := NewLedgerRepository(setupTestDB(t))

	scores := []float64{100, 20, 60, 80, 44, 92, 36, 68, 76, 52}

	var wg sync.WaitGroup
	errs := make(chan error, len(scores))
	for i, score := range scores {
		wg.Add(1)
		go func(evaluatorID uint, score float64) {
			defer wg.Done()
			_, err := repo.Record(context.Background(), testEvaluation(evaluatorID, score))
			errs <- err
		}(uint(i+1), score)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	var want float64
	for _, s := range scores {
		want += s
	}
	want /= float64(len(scores))

	aggRepo := NewAggregateRepository(repo.(*ledgerRepository).db)
	aggregate, err := aggRepo.Get(context.Background(), models.TargetFaculty, 42)
	require.NoError(t, err)
	require.Equal(t, int64(len(scores)), aggregate.CompletedEvaluations)
	require.InDelta(t, want, aggregate.AverageScore, 1e-9)
}

func TestLedgerEvaluatedSubjectIDs(t *testing.T) {
	repo := NewLedgerRepository(setupTestDB(t))
	ctx := context.Background()

	scores, err := models.EncodeScores([]int{5, 5})
	require.NoError(t, err)

	for _, subjectID := range []uint{3, 9} {
		_, err := repo.Record(ctx, models.Evaluation{
			EvaluatorID:     7,
			TargetType:      models.TargetSubject,
			TargetID:        subjectID,
			Scores:          scores,
			PercentageScore: 100,
			FormVersion:     1,
		})
		require.NoError(t, err)
	}

	ids, err := repo.EvaluatedSubjectIDs(ctx, 7)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{3, 9}, ids)
}
