package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-go-api/internal/dto"
	"github.com/noah-isme/evalia-go-api/internal/service"
	"github.com/noah-isme/evalia-go-api/internal/utils"
)

// EvaluationHandler manages evaluation submission endpoints.
type EvaluationHandler struct {
	evaluations service.EvaluationService
	subjects    service.SubjectService
	logger      zerolog.Logger
}

// NewEvaluationHandler builds an evaluation handler instance.
func NewEvaluationHandler(evaluations service.EvaluationService, subjects service.SubjectService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		evaluations: evaluations,
		subjects:    subjects,
		logger:      logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("/pending", h.pending)
}

// RegisterTargets attaches the evaluable-target listing routes.
func (h *EvaluationHandler) RegisterTargets(router fiber.Router) {
	router.Get("/:targetType", h.targets)
}

func (h *EvaluationHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitEvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	receipt, err := h.evaluations.Submit(requestContext(c), identityFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "evaluation recorded", receipt)
}

func (h *EvaluationHandler) pending(c *fiber.Ctx) error {
	pending, err := h.evaluations.PendingSubjects(requestContext(c), identityFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "pending evaluations retrieved", pending)
}

func (h *EvaluationHandler) targets(c *fiber.Ctx) error {
	targetType := c.Params("targetType")

	targets, err := h.subjects.Targets(requestContext(c), targetType, identityFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "targets retrieved", targets)
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "evaluation not permitted")
	case errors.Is(err, service.ErrTargetNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "target not found")
	case errors.Is(err, service.ErrFormNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "no evaluation form for this target")
	case errors.Is(err, service.ErrIncompleteResponse):
		return utils.SendError(c, fiber.StatusBadRequest, "every question must be answered with a value from 1 to 5")
	case errors.Is(err, service.ErrMalformedForm):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "evaluation form has no questions")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
