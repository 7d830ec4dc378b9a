package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-go-api/internal/dto"
	"github.com/noah-isme/evalia-go-api/internal/models"
	"github.com/noah-isme/evalia-go-api/internal/repository"
)

// ErrFormNotFound indicates no form document exists for the owner key.
// Callers must not treat this as an empty question list.
var ErrFormNotFound = errors.New("evaluation form not found")

// ErrInvalidOwnerKey indicates a form key that matches no known target.
var ErrInvalidOwnerKey = errors.New("invalid form owner key")

// FormService resolves and maintains evaluation forms.
type FormService interface {
	// Resolve returns the form applying to one evaluator/target pairing:
	// the subject-specific form for subjects, the shared default for
	// faculty and dean targets.
	Resolve(ctx context.Context, targetType string, targetID uint) (models.EvaluationForm, []models.Question, error)
	Get(ctx context.Context, ownerKey string) (dto.FormResponse, error)
	Save(ctx context.Context, ownerKey string, payload dto.FormSaveRequest) (dto.FormResponse, error)
}

type formService struct {
	forms     repository.FormRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewFormService constructs a FormService instance.
func NewFormService(forms repository.FormRepository, validate *validator.Validate, logger zerolog.Logger) FormService {
	return &formService{
		forms:     forms,
		validator: validate,
		logger:    logger.With().Str("component", "form_service").Logger(),
	}
}

// FormOwnerKey maps a target to its form owner key.
func FormOwnerKey(targetType string, targetID uint) (string, error) {
	switch targetType {
	case models.TargetSubject:
		return models.SubjectFormKey(targetID), nil
	case models.TargetFaculty:
		return models.FormKeyFacultyDefault, nil
	case models.TargetDean:
		return models.FormKeyDeanDefault, nil
	default:
		return "", fmt.Errorf("%w: unknown target type %q", ErrInvalidOwnerKey, targetType)
	}
}

func (s *formService) Resolve(ctx context.Context, targetType string, targetID uint) (models.EvaluationForm, []models.Question, error) {
	ownerKey, err := FormOwnerKey(targetType, targetID)
	if err != nil {
		return models.EvaluationForm{}, nil, err
	}

	form, err := s.forms.GetByKey(ctx, ownerKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EvaluationForm{}, nil, ErrFormNotFound
		}
		return models.EvaluationForm{}, nil, err
	}

	questions, err := form.DecodeQuestions()
	if err != nil {
		return models.EvaluationForm{}, nil, err
	}

	return form, questions, nil
}

func (s *formService) Get(ctx context.Context, ownerKey string) (dto.FormResponse, error) {
	form, err := s.forms.GetByKey(ctx, ownerKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FormResponse{}, ErrFormNotFound
		}
		return dto.FormResponse{}, err
	}

	questions, err := form.DecodeQuestions()
	if err != nil {
		return dto.FormResponse{}, err
	}

	return dto.NewFormResponse(form, questions), nil
}

func (s *formService) Save(ctx context.Context, ownerKey string, payload dto.FormSaveRequest) (dto.FormResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FormResponse{}, err
	}

	questions := make([]models.Question, 0, len(payload.Questions))
	for _, question := range payload.Questions {
		questions = append(questions, models.Question{Text: question.Text})
	}

	encoded, err := models.EncodeQuestions(questions)
	if err != nil {
		return dto.FormResponse{}, err
	}

	form, err := s.forms.Save(ctx, ownerKey, encoded)
	if err != nil {
		return dto.FormResponse{}, err
	}

	s.logger.Info().
		Str("owner_key", ownerKey).
		Int("questions", len(questions)).
		Int("version", form.Version).
		Msg("evaluation form saved")

	return dto.NewFormResponse(form, questions), nil
}
