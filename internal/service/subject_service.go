package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-go-api/internal/dto"
	"github.com/noah-isme/evalia-go-api/internal/models"
	"github.com/noah-isme/evalia-go-api/internal/repository"
)

// ErrSubjectNotFound indicates a subject could not be found.
var ErrSubjectNotFound = errors.New("subject not found")

// ErrFacultyNotFound indicates the referenced owner is not a faculty member.
var ErrFacultyNotFound = errors.New("faculty member not found")

// SubjectService covers the administrative subject/enrollment flows and
// the evaluable-target listings evaluators pick from.
type SubjectService interface {
	List(ctx context.Context) ([]dto.SubjectResponse, error)
	Create(ctx context.Context, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	Update(ctx context.Context, id uint, payload dto.SubjectUpdateRequest) (dto.SubjectResponse, error)
	Delete(ctx context.Context, id uint) error
	Enroll(ctx context.Context, payload dto.EnrollmentRequest) error
	Targets(ctx context.Context, targetType string, viewer Identity) ([]dto.TargetSummary, error)
}

type subjectService struct {
	subjects    repository.SubjectRepository
	enrollments repository.EnrollmentRepository
	users       repository.UserRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewSubjectService constructs a SubjectService instance.
func NewSubjectService(subjects repository.SubjectRepository, enrollments repository.EnrollmentRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) SubjectService {
	return &subjectService{
		subjects:    subjects,
		enrollments: enrollments,
		users:       users,
		validator:   validate,
		logger:      logger.With().Str("component", "subject_service").Logger(),
	}
}

func (s *subjectService) List(ctx context.Context) ([]dto.SubjectResponse, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewSubjectResponseSlice(subjects), nil
}

func (s *subjectService) Create(ctx context.Context, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	if err := s.requireFaculty(ctx, payload.FacultyID); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject := models.Subject{
		Name:      payload.Name,
		Code:      payload.Code,
		FacultyID: payload.FacultyID,
	}

	if err := s.subjects.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	created, err := s.subjects.GetByID(ctx, subject.ID)
	if err != nil {
		return dto.SubjectResponse{}, err
	}

	s.logger.Info().Uint("subject_id", created.ID).Str("code", created.Code).Msg("subject created")

	return dto.NewSubjectResponse(created), nil
}

func (s *subjectService) Update(ctx context.Context, id uint, payload dto.SubjectUpdateRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, ErrSubjectNotFound
		}
		return dto.SubjectResponse{}, err
	}

	if payload.Name != nil {
		subject.Name = *payload.Name
	}
	if payload.Code != nil {
		subject.Code = *payload.Code
	}
	if payload.FacultyID != nil {
		if err := s.requireFaculty(ctx, *payload.FacultyID); err != nil {
			return dto.SubjectResponse{}, err
		}
		subject.FacultyID = *payload.FacultyID
	}

	if err := s.subjects.Update(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	updated, err := s.subjects.GetByID(ctx, subject.ID)
	if err != nil {
		return dto.SubjectResponse{}, err
	}

	return dto.NewSubjectResponse(updated), nil
}

func (s *subjectService) Delete(ctx context.Context, id uint) error {
	if _, err := s.subjects.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	return s.subjects.Delete(ctx, id)
}

func (s *subjectService) Enroll(ctx context.Context, payload dto.EnrollmentRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	student, err := s.users.GetByID(ctx, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTargetNotFound
		}
		return err
	}
	if student.Role != models.RoleStudent {
		return ErrTargetNotFound
	}

	if _, err := s.subjects.GetByID(ctx, payload.SubjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	return s.enrollments.Enroll(ctx, payload.StudentID, payload.SubjectID)
}

// Targets lists what the viewer may pick for evaluation: their enrolled
// subjects, or the faculty/dean members visible under the policy table.
func (s *subjectService) Targets(ctx context.Context, targetType string, viewer Identity) ([]dto.TargetSummary, error) {
	switch targetType {
	case models.TargetSubject:
		subjects, err := s.subjects.ListByStudent(ctx, viewer.ID)
		if err != nil {
			return nil, err
		}
		summaries := make([]dto.TargetSummary, 0, len(subjects))
		for _, subject := range subjects {
			summaries = append(summaries, dto.TargetSummary{
				TargetType:  models.TargetSubject,
				TargetID:    subject.ID,
				DisplayName: subject.Name,
			})
		}
		return summaries, nil
	case models.TargetFaculty, models.TargetDean:
		filter := repository.UserFilter{Role: &targetType}
		// Everyone except ACAF sees only their own department.
		if viewer.Role != models.RoleACAF && viewer.Department != "" {
			department := viewer.Department
			filter.Department = &department
		}
		users, err := s.users.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		summaries := make([]dto.TargetSummary, 0, len(users))
		for _, user := range users {
			if user.ID == viewer.ID {
				continue
			}
			summaries = append(summaries, dto.TargetSummary{
				TargetType:  targetType,
				TargetID:    user.ID,
				DisplayName: user.DisplayName(),
				Department:  user.Department,
			})
		}
		return summaries, nil
	default:
		return nil, ErrTargetNotFound
	}
}

func (s *subjectService) requireFaculty(ctx context.Context, facultyID uint) error {
	faculty, err := s.users.GetByID(ctx, facultyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFacultyNotFound
		}
		return err
	}
	if faculty.Role != models.RoleFaculty {
		return ErrFacultyNotFound
	}
	return nil
}
