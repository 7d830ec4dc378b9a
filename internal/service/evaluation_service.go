package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-go-api/internal/dto"
	"github.com/noah-isme/evalia-go-api/internal/events"
	"github.com/noah-isme/evalia-go-api/internal/models"
	"github.com/noah-isme/evalia-go-api/internal/observability"
	"github.com/noah-isme/evalia-go-api/internal/repository"
)

// ErrTargetNotFound indicates the evaluated entity does not exist, or its
// role does not match the requested target type.
var ErrTargetNotFound = errors.New("evaluation target not found")

// EvaluationService is the submission ledger's front door: it authorizes,
// scores, records, and announces evaluations.
type EvaluationService interface {
	Submit(ctx context.Context, evaluator Identity, payload dto.SubmitEvaluationRequest) (dto.SubmitReceipt, error)
	PendingSubjects(ctx context.Context, evaluator Identity) ([]dto.PendingSubjectResponse, error)
}

type evaluationService struct {
	ledger      repository.LedgerRepository
	enrollments repository.EnrollmentRepository
	subjects    repository.SubjectRepository
	users       repository.UserRepository
	forms       FormService
	publisher   *events.Publisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEvaluationService constructs an EvaluationService instance.
func NewEvaluationService(
	ledger repository.LedgerRepository,
	enrollments repository.EnrollmentRepository,
	subjects repository.SubjectRepository,
	users repository.UserRepository,
	forms FormService,
	publisher *events.Publisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) EvaluationService {
	return &evaluationService{
		ledger:      ledger,
		enrollments: enrollments,
		subjects:    subjects,
		users:       users,
		forms:       forms,
		publisher:   publisher,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/evalia-go-api/internal/service/evaluation"),
		now:         time.Now,
	}
}

func (s *evaluationService) Submit(ctx context.Context, evaluator Identity, payload dto.SubmitEvaluationRequest) (dto.SubmitReceipt, error) {
	if evaluator.ID == 0 {
		observability.EvaluationsRejected().WithLabelValues("unauthenticated").Inc()
		return dto.SubmitReceipt{}, ErrUnauthenticated
	}

	if err := s.validator.Struct(payload); err != nil {
		observability.EvaluationsRejected().WithLabelValues("invalid_payload").Inc()
		return dto.SubmitReceipt{}, err
	}

	ctx, span := s.tracer.Start(ctx, "evaluations.submit", trace.WithAttributes(
		attribute.String("evaluation.target_type", payload.TargetType),
		attribute.Int64("evaluation.target_id", int64(payload.TargetID)),
	))
	defer span.End()

	target, err := s.resolveTarget(ctx, payload.TargetType, payload.TargetID)
	if err != nil {
		observability.EvaluationsRejected().WithLabelValues("target_not_found").Inc()
		return dto.SubmitReceipt{}, err
	}

	if err := s.authorize(ctx, evaluator, target); err != nil {
		observability.EvaluationsRejected().WithLabelValues("forbidden").Inc()
		return dto.SubmitReceipt{}, err
	}

	form, questions, err := s.forms.Resolve(ctx, payload.TargetType, payload.TargetID)
	if err != nil {
		observability.EvaluationsRejected().WithLabelValues("form_not_found").Inc()
		return dto.SubmitReceipt{}, err
	}

	percentage, err := Score(payload.Scores, len(questions))
	if err != nil {
		observability.EvaluationsRejected().WithLabelValues("scoring").Inc()
		return dto.SubmitReceipt{}, err
	}

	scores, err := models.EncodeScores(payload.Scores)
	if err != nil {
		return dto.SubmitReceipt{}, err
	}

	evaluation := models.Evaluation{
		EvaluatorID:     evaluator.ID,
		TargetType:      payload.TargetType,
		TargetID:        payload.TargetID,
		Scores:          scores,
		Comment:         strings.TrimSpace(s.sanitizer.Sanitize(payload.Comment)),
		PercentageScore: percentage,
		FormVersion:     form.Version,
	}

	foldStart := s.now()
	result, err := s.ledger.Record(ctx, evaluation)
	if err != nil {
		span.RecordError(err)
		return dto.SubmitReceipt{}, err
	}
	observability.FoldLatency().WithLabelValues(payload.TargetType).Observe(s.now().Sub(foldStart).Seconds())
	observability.EvaluationsRecorded().WithLabelValues(payload.TargetType, boolLabel(result.Replaced)).Inc()

	s.logger.Info().
		Str("target_type", payload.TargetType).
		Uint("target_id", payload.TargetID).
		Bool("replaced", result.Replaced).
		Float64("percentage_score", result.Evaluation.PercentageScore).
		Msg("evaluation recorded")

	s.announce(ctx, result)

	return dto.SubmitReceipt{
		TargetType:           payload.TargetType,
		TargetID:             payload.TargetID,
		PercentageScore:      result.Evaluation.PercentageScore,
		Replaced:             result.Replaced,
		AverageScore:         result.Aggregate.AverageScore,
		CompletedEvaluations: result.Aggregate.CompletedEvaluations,
		SubmittedAt:          result.Evaluation.UpdatedAt,
	}, nil
}

func (s *evaluationService) PendingSubjects(ctx context.Context, evaluator Identity) ([]dto.PendingSubjectResponse, error) {
	if evaluator.ID == 0 {
		return nil, ErrUnauthenticated
	}
	if evaluator.Role != models.RoleStudent {
		return nil, ErrForbidden
	}

	enrolled, err := s.subjects.ListByStudent(ctx, evaluator.ID)
	if err != nil {
		return nil, err
	}

	evaluated, err := s.ledger.EvaluatedSubjectIDs(ctx, evaluator.ID)
	if err != nil {
		return nil, err
	}

	done := make(map[uint]struct{}, len(evaluated))
	for _, id := range evaluated {
		done[id] = struct{}{}
	}

	pending := make([]dto.PendingSubjectResponse, 0, len(enrolled))
	for _, subject := range enrolled {
		if _, ok := done[subject.ID]; ok {
			continue
		}
		pending = append(pending, dto.NewPendingSubjectResponse(subject))
	}

	return pending, nil
}

// resolveTarget loads the evaluated entity and turns it into the policy's
// view of it. A user whose role does not match the requested target type is
// reported as not found rather than forbidden, so callers cannot probe
// which ids exist under other roles.
func (s *evaluationService) resolveTarget(ctx context.Context, targetType string, targetID uint) (TargetRef, error) {
	switch targetType {
	case models.TargetSubject:
		subject, err := s.subjects.GetByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return TargetRef{}, ErrTargetNotFound
			}
			return TargetRef{}, err
		}
		return TargetRef{Type: models.TargetSubject, ID: subject.ID}, nil
	case models.TargetFaculty, models.TargetDean:
		user, err := s.users.GetByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return TargetRef{}, ErrTargetNotFound
			}
			return TargetRef{}, err
		}
		if user.Role != targetType {
			return TargetRef{}, ErrTargetNotFound
		}
		return TargetRef{Type: targetType, ID: user.ID, OwnerID: user.ID, Department: user.Department}, nil
	default:
		return TargetRef{}, ErrTargetNotFound
	}
}

func (s *evaluationService) authorize(ctx context.Context, evaluator Identity, target TargetRef) error {
	if err := AuthorizeEvaluation(evaluator, target); err != nil {
		return err
	}

	// Students may only evaluate subjects on their own enrollment.
	if evaluator.Role == models.RoleStudent && target.Type == models.TargetSubject {
		enrolled, err := s.enrollments.Exists(ctx, evaluator.ID, target.ID)
		if err != nil {
			return err
		}
		if !enrolled {
			return ErrForbidden
		}
	}

	return nil
}

func (s *evaluationService) announce(ctx context.Context, result repository.LedgerResult) {
	if s.publisher == nil {
		return
	}

	event := events.Event{
		TargetType:           result.Evaluation.TargetType,
		TargetID:             result.Evaluation.TargetID,
		AverageScore:         result.Aggregate.AverageScore,
		CompletedEvaluations: result.Aggregate.CompletedEvaluations,
		Replaced:             result.Replaced,
		SentAt:               s.now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		// Read-side refresh is best effort; the fold already committed.
		s.logger.Warn().Err(err).Msg("failed to publish result event")
		return
	}

	observability.ResultEventsPublished().WithLabelValues(event.TargetType).Inc()
}

func boolLabel(value bool) string {
	if value {
		return "true"
	}
	return "false"
}
