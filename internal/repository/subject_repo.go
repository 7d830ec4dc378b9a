package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/evalia-go-api/internal/models"
)

// SubjectRepository defines data operations for subjects.
type SubjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	GetByID(ctx context.Context, id uint) (models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id uint) error
	ListByStudent(ctx context.Context, studentID uint) ([]models.Subject, error)
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository instantiates the repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Subject{}).Preload("Faculty")
}

func (r *subjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.baseQuery(ctx).Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}

	return subjects, nil
}

func (r *subjectRepository) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := r.baseQuery(ctx).First(&subject, id).Error; err != nil {
		return models.Subject{}, err
	}

	return subject, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Save(subject).Error
}

func (r *subjectRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Subject{}, id).Error
}

func (r *subjectRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Subject, error) {
	var subjects []models.Subject
	err := r.baseQuery(ctx).
		Joins("JOIN enrollments ON enrollments.subject_id = subjects.id").
		Where("enrollments.student_id = ?", studentID).
		Order("subjects.name ASC").
		Find(&subjects).Error
	if err != nil {
		return nil, err
	}

	return subjects, nil
}
