package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-go-api/internal/config"
	"github.com/noah-isme/evalia-go-api/internal/database"
	"github.com/noah-isme/evalia-go-api/internal/events"
	"github.com/noah-isme/evalia-go-api/internal/handler"
	"github.com/noah-isme/evalia-go-api/internal/middleware"
	"github.com/noah-isme/evalia-go-api/internal/models"
	"github.com/noah-isme/evalia-go-api/internal/repository"
	"github.com/noah-isme/evalia-go-api/internal/router"
	"github.com/noah-isme/evalia-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Subject{},
		&models.Enrollment{},
		&models.EvaluationForm{},
		&models.Evaluation{},
		&models.AggregateScore{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, result events stay node-local")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	formRepo := repository.NewFormRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	aggregateRepo := repository.NewAggregateRepository(db)

	publisherCtx, stopPublisher := context.WithCancel(context.Background())
	defer stopPublisher()

	publisher := events.NewPublisher(events.NewBroker(), redisClient, natsConn, cfg.EventChannel, logger)
	publisher.Start(publisherCtx)

	formService := service.NewFormService(formRepo, validate, logger)
	evaluationService := service.NewEvaluationService(ledgerRepo, enrollmentRepo, subjectRepo, userRepo, formService, publisher, validate, logger)
	resultsService := service.NewResultsService(aggregateRepo, ledgerRepo, publisher, redisClient, cfg.ResultsCacheTTL, logger)
	subjectService := service.NewSubjectService(subjectRepo, enrollmentRepo, userRepo, validate, logger)

	evaluationHandler := handler.NewEvaluationHandler(evaluationService, subjectService, logger)
	resultsHandler := handler.NewResultsHandler(resultsService, logger, cfg.StreamKeepAlive)
	formHandler := handler.NewFormHandler(formService, logger)
	adminSubjectHandler := handler.NewAdminSubjectHandler(subjectService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler:   evaluationHandler,
		ResultsHandler:      resultsHandler,
		FormHandler:         formHandler,
		AdminSubjectHandler: adminSubjectHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
