package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/evalia-go-api/internal/config"
	"github.com/noah-isme/evalia-go-api/internal/handler"
	"github.com/noah-isme/evalia-go-api/internal/middleware"
	"github.com/noah-isme/evalia-go-api/internal/models"
	"github.com/noah-isme/evalia-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler   *handler.EvaluationHandler
	ResultsHandler      *handler.ResultsHandler
	FormHandler         *handler.FormHandler
	AdminSubjectHandler *handler.AdminSubjectHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	adminOnly := middleware.RequireRole(models.RoleAdmin)

	if deps.EvaluationHandler != nil {
		evaluations := api.Group("/evaluations", jwtMiddleware)
		evaluations.Use(middleware.RateLimit("evaluations", cfg.SubmitRateLimit, cfg.SubmitRateWindow))
		deps.EvaluationHandler.Register(evaluations)

		targets := api.Group("/targets", jwtMiddleware)
		deps.EvaluationHandler.RegisterTargets(targets)
	}

	if deps.ResultsHandler != nil {
		results := api.Group("/results", jwtMiddleware)
		deps.ResultsHandler.Register(results)
	}

	if deps.FormHandler != nil {
		forms := api.Group("/forms", jwtMiddleware)
		deps.FormHandler.Register(forms)

		adminForms := api.Group("/admin/forms", jwtMiddleware, adminOnly)
		deps.FormHandler.RegisterAdmin(adminForms)
	}

	if deps.AdminSubjectHandler != nil {
		adminSubjects := api.Group("/admin/subjects", jwtMiddleware, adminOnly)
		deps.AdminSubjectHandler.Register(adminSubjects)

		adminEnrollments := api.Group("/admin/enrollments", jwtMiddleware, adminOnly)
		deps.AdminSubjectHandler.RegisterEnrollments(adminEnrollments)
	}
}
