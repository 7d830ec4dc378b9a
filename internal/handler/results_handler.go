package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-go-api/internal/events"
	"github.com/noah-isme/evalia-go-api/internal/service"
	"github.com/noah-isme/evalia-go-api/internal/utils"
)

// ResultsHandler serves aggregated evaluation results and their live
// refresh stream.
type ResultsHandler struct {
	results   service.ResultsService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewResultsHandler constructs a handler instance.
func NewResultsHandler(results service.ResultsService, logger zerolog.Logger, keepAlive time.Duration) *ResultsHandler {
	return &ResultsHandler{
		results:   results,
		logger:    logger.With().Str("component", "results_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the result routes.
func (h *ResultsHandler) Register(router fiber.Router) {
	router.Get("/:targetType/:targetId", h.target)
	router.Get("/:targetType/:targetId/stream", h.stream)
}

func (h *ResultsHandler) target(c *fiber.Ctx) error {
	targetType := c.Params("targetType")
	targetID, err := parseUintParam(c, "targetId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	results, err := h.results.Target(requestContext(c), targetType, targetID)
	if err != nil {
		if errors.Is(err, service.ErrTargetNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "unknown target type")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load results")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "results retrieved", results)
}

func (h *ResultsHandler) stream(c *fiber.Ctx) error {
	targetType := c.Params("targetType")
	targetID, err := parseUintParam(c, "targetId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))

	stream, cleanup := h.results.Subscribe(targetType, targetID)

	keepAliveInterval := h.keepAlive
	if keepAliveInterval <= 0 {
		keepAliveInterval = 30 * time.Second
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		ticker := time.NewTicker(keepAliveInterval / 2)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-stream:
				if !ok {
					return
				}
				if err := writeResultEvent(w, event); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write result event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func writeResultEvent(w *bufio.Writer, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: result\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
