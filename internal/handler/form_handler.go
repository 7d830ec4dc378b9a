package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-go-api/internal/dto"
	"github.com/noah-isme/evalia-go-api/internal/service"
	"github.com/noah-isme/evalia-go-api/internal/utils"
)

// FormHandler serves form resolution for evaluators and form maintenance
// for administrators.
type FormHandler struct {
	forms  service.FormService
	logger zerolog.Logger
}

// NewFormHandler builds a form handler instance.
func NewFormHandler(forms service.FormService, logger zerolog.Logger) *FormHandler {
	return &FormHandler{
		forms:  forms,
		logger: logger.With().Str("component", "form_handler").Logger(),
	}
}

// Register attaches the evaluator-facing resolution route.
func (h *FormHandler) Register(router fiber.Router) {
	router.Get("/:targetType/:targetId", h.resolve)
}

// RegisterAdmin attaches the administrative form routes.
func (h *FormHandler) RegisterAdmin(router fiber.Router) {
	router.Get("/:ownerKey", h.get)
	router.Put("/:ownerKey", h.save)
}

func (h *FormHandler) resolve(c *fiber.Ctx) error {
	targetType := c.Params("targetType")
	targetID, err := parseUintParam(c, "targetId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	form, questions, err := h.forms.Resolve(requestContext(c), targetType, targetID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form retrieved", dto.NewFormResponse(form, questions))
}

func (h *FormHandler) get(c *fiber.Ctx) error {
	form, err := h.forms.Get(requestContext(c), c.Params("ownerKey"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form retrieved", form)
}

func (h *FormHandler) save(c *fiber.Ctx) error {
	var payload dto.FormSaveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	form, err := h.forms.Save(requestContext(c), c.Params("ownerKey"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "form saved", form)
}

func (h *FormHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrFormNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "form not found")
	case errors.Is(err, service.ErrInvalidOwnerKey):
		return utils.SendError(c, fiber.StatusBadRequest, "unknown target type")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
