package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/evalia-go-api/internal/models"
)

// EnrollmentRepository manages student/subject enrollment links.
type EnrollmentRepository interface {
	Enroll(ctx context.Context, studentID, subjectID uint) error
	Exists(ctx context.Context, studentID, subjectID uint) (bool, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates the repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Enroll(ctx context.Context, studentID, subjectID uint) error {
	enrollment := models.Enrollment{StudentID: studentID, SubjectID: subjectID}

	// Enrolling twice is a no-op rather than an error.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&enrollment).Error
}

func (r *enrollmentRepository) Exists(ctx context.Context, studentID, subjectID uint) (bool, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ?", studentID, subjectID).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
