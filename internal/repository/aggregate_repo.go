package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/evalia-go-api/internal/models"
)

// AggregateRepository reads per-target running aggregates. All writes go
// through LedgerRepository.Record so the aggregate can never drift from
// the ledger.
type AggregateRepository interface {
	Get(ctx context.Context, targetType string, targetID uint) (models.AggregateScore, error)
}

type aggregateRepository struct {
	db *gorm.DB
}

// NewAggregateRepository instantiates the repository.
func NewAggregateRepository(db *gorm.DB) AggregateRepository {
	return &aggregateRepository{db: db}
}

func (r *aggregateRepository) Get(ctx context.Context, targetType string, targetID uint) (models.AggregateScore, error) {
	var aggregate models.AggregateScore
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		First(&aggregate).Error
	if err != nil {
		return models.AggregateScore{}, err
	}

	return aggregate, nil
}
