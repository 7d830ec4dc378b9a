package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-go-api/internal/middleware"
	"github.com/noah-isme/evalia-go-api/internal/service"
)

// identityFromContext builds the evaluator identity from the JWT claims the
// auth middleware stored on the request. A zero ID means unauthenticated.
func identityFromContext(c *fiber.Ctx) service.Identity {
	identity := service.Identity{}

	if v := c.Locals("user_id"); v != nil {
		switch id := v.(type) {
		case uint:
			identity.ID = id
		case int:
			if id > 0 {
				identity.ID = uint(id)
			}
		}
	}

	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			identity.Role = strings.ToLower(strings.TrimSpace(role))
		}
	}

	if v := c.Locals("user_department"); v != nil {
		if department, ok := v.(string); ok {
			identity.Department = strings.TrimSpace(department)
		}
	}

	return identity
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := c.Params(key)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
