package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/evalia-go-api/internal/models"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Role       *string
	Department *string
}

// UserRepository reads provisioned institutional accounts. Accounts are
// created by an external identity flow, so there is no write surface here.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates the repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}

	if filter.Department != nil {
		query = query.Where("department = ?", *filter.Department)
	}

	var users []models.User
	if err := query.Order("last_name ASC, first_name ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}
