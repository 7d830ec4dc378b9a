package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-go-api/internal/dto"
	"github.com/noah-isme/evalia-go-api/internal/service"
	"github.com/noah-isme/evalia-go-api/internal/utils"
)

// AdminSubjectHandler manages the administrative subject and enrollment
// endpoints.
type AdminSubjectHandler struct {
	subjects service.SubjectService
	logger   zerolog.Logger
}

// NewAdminSubjectHandler builds an admin subject handler instance.
func NewAdminSubjectHandler(subjects service.SubjectService, logger zerolog.Logger) *AdminSubjectHandler {
	return &AdminSubjectHandler{
		subjects: subjects,
		logger:   logger.With().Str("component", "admin_subject_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AdminSubjectHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

// RegisterEnrollments attaches the enrollment assignment route.
func (h *AdminSubjectHandler) RegisterEnrollments(router fiber.Router) {
	router.Post("", h.enroll)
}

func (h *AdminSubjectHandler) list(c *fiber.Ctx) error {
	subjects, err := h.subjects.List(requestContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, subjects, "subjects retrieved", fiber.Map{"total": len(subjects)})
}

func (h *AdminSubjectHandler) create(c *fiber.Ctx) error {
	var payload dto.SubjectCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	subject, err := h.subjects.Create(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subject created", subject)
}

func (h *AdminSubjectHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubjectUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	subject, err := h.subjects.Update(requestContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "subject updated", subject)
}

func (h *AdminSubjectHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.subjects.Delete(requestContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "subject deleted", nil)
}

func (h *AdminSubjectHandler) enroll(c *fiber.Ctx) error {
	var payload dto.EnrollmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.subjects.Enroll(requestContext(c), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", nil)
}

func (h *AdminSubjectHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSubjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "subject not found")
	case errors.Is(err, service.ErrFacultyNotFound):
		return utils.SendError(c, fiber.StatusBadRequest, "faculty member not found")
	case errors.Is(err, service.ErrTargetNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
