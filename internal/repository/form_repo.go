package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-go-api/internal/models"
)

// FormRepository stores evaluation forms keyed by owner.
type FormRepository interface {
	GetByKey(ctx context.Context, ownerKey string) (models.EvaluationForm, error)
	Save(ctx context.Context, ownerKey string, questions datatypes.JSON) (models.EvaluationForm, error)
}

type formRepository struct {
	db *gorm.DB
}

// NewFormRepository instantiates the repository.
func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

func (r *formRepository) GetByKey(ctx context.Context, ownerKey string) (models.EvaluationForm, error) {
	var form models.EvaluationForm
	if err := r.db.WithContext(ctx).Where("owner_key = ?", ownerKey).First(&form).Error; err != nil {
		return models.EvaluationForm{}, err
	}

	return form, nil
}

// Save replaces the full question list for the owner key, creating the form
// if it does not exist and bumping Version when it does. There is no
// partial-update merge.
func (r *formRepository) Save(ctx context.Context, ownerKey string, questions datatypes.JSON) (models.EvaluationForm, error) {
	var form models.EvaluationForm

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("owner_key = ?", ownerKey).First(&form).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			form = models.EvaluationForm{OwnerKey: ownerKey, Questions: questions, Version: 1}
			return tx.Create(&form).Error
		case err != nil:
			return err
		}

		form.Questions = questions
		form.Version++
		return tx.Save(&form).Error
	})
	if err != nil {
		return models.EvaluationForm{}, err
	}

	return form, nil
}
