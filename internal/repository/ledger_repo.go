package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/evalia-go-api/internal/models"
)

// LedgerResult reports the outcome of recording one evaluation.
type LedgerResult struct {
	Evaluation models.Evaluation
	Aggregate  models.AggregateScore
	Replaced   bool
}

// LedgerRepository persists evaluation submissions and keeps the per-target
// aggregate consistent with them.
type LedgerRepository interface {
	// Record upserts the unique (evaluator, targetType, targetID) record and
	// folds its score into the target's aggregate as a single transaction.
	// Concurrent calls for the same target serialize on the aggregate row;
	// a failed fold rolls the ledger write back.
	Record(ctx context.Context, evaluation models.Evaluation) (LedgerResult, error)
	GetByEvaluatorAndTarget(ctx context.Context, evaluatorID uint, targetType string, targetID uint) (models.Evaluation, error)
	ListByTarget(ctx context.Context, targetType string, targetID uint) ([]models.Evaluation, error)
	EvaluatedSubjectIDs(ctx context.Context, evaluatorID uint) ([]uint, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository instantiates the repository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Record(ctx context.Context, evaluation models.Evaluation) (LedgerResult, error) {
	var result LedgerResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Make sure the aggregate row exists, then take a row lock on it.
		// The lock is what serializes concurrent folds for one target: both
		// the previous-score read and the upsert below happen under it, so
		// two submissions can never fold from the same stale aggregate.
		seed := models.AggregateScore{TargetType: evaluation.TargetType, TargetID: evaluation.TargetID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		var aggregate models.AggregateScore
		if err := r.lockingClause(tx).
			Where("target_type = ? AND target_id = ?", evaluation.TargetType, evaluation.TargetID).
			First(&aggregate).Error; err != nil {
			return err
		}

		var previous models.Evaluation
		err := tx.
			Where("evaluator_id = ? AND target_type = ? AND target_id = ?",
				evaluation.EvaluatorID, evaluation.TargetType, evaluation.TargetID).
			First(&previous).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&evaluation).Error; err != nil {
				return err
			}
			result.Replaced = false
		case err != nil:
			return err
		default:
			// Last write wins: replace the record in place, keeping its
			// identity and original creation time.
			evaluation.ID = previous.ID
			evaluation.CreatedAt = previous.CreatedAt
			if err := tx.Save(&evaluation).Error; err != nil {
				return err
			}
			result.Replaced = true
		}

		aggregate.Fold(evaluation.PercentageScore, previous.PercentageScore, result.Replaced)
		if err := tx.Save(&aggregate).Error; err != nil {
			return err
		}

		result.Evaluation = evaluation
		result.Aggregate = aggregate
		return nil
	})
	if err != nil {
		return LedgerResult{}, err
	}

	return result, nil
}

// lockingClause adds SELECT ... FOR UPDATE where the dialect supports it.
// SQLite has no FOR UPDATE; its single-writer transaction lock already
// serializes folds, so the clause is skipped there.
func (r *ledgerRepository) lockingClause(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *ledgerRepository) GetByEvaluatorAndTarget(ctx context.Context, evaluatorID uint, targetType string, targetID uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).
		Where("evaluator_id = ? AND target_type = ? AND target_id = ?", evaluatorID, targetType, targetID).
		First(&evaluation).Error
	if err != nil {
		return models.Evaluation{}, err
	}

	return evaluation, nil
}

func (r *ledgerRepository) ListByTarget(ctx context.Context, targetType string, targetID uint) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").
		Find(&evaluations).Error
	if err != nil {
		return nil, err
	}

	return evaluations, nil
}

func (r *ledgerRepository) EvaluatedSubjectIDs(ctx context.Context, evaluatorID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Evaluation{}).
		Where("evaluator_id = ? AND target_type = ?", evaluatorID, models.TargetSubject).
		Pluck("target_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}
