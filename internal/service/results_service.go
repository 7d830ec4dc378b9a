package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/evalia-go-api/internal/dto"
	"github.com/noah-isme/evalia-go-api/internal/events"
	"github.com/noah-isme/evalia-go-api/internal/models"
	"github.com/noah-isme/evalia-go-api/internal/repository"
)

// ResultsService serves the read side: per-target aggregates with the
// submissions behind them, plus a push subscription for live refresh.
type ResultsService interface {
	Target(ctx context.Context, targetType string, targetID uint) (dto.TargetResultsResponse, error)
	Subscribe(targetType string, targetID uint) (<-chan events.Event, func())
}

type resultsService struct {
	aggregates repository.AggregateRepository
	ledger     repository.LedgerRepository
	publisher  *events.Publisher
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
}

// NewResultsService builds the read-side aggregator.
func NewResultsService(aggregates repository.AggregateRepository, ledger repository.LedgerRepository, publisher *events.Publisher, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ResultsService {
	return &resultsService{
		aggregates: aggregates,
		ledger:     ledger,
		publisher:  publisher,
		cache:      cache,
		cacheTTL:   ttl,
		logger:     logger.With().Str("component", "results_service").Logger(),
	}
}

func (s *resultsService) Target(ctx context.Context, targetType string, targetID uint) (dto.TargetResultsResponse, error) {
	if !models.ValidTargetType(targetType) {
		return dto.TargetResultsResponse{}, ErrTargetNotFound
	}

	cacheKey := fmt.Sprintf("results:%s:%d", targetType, targetID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.TargetResultsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("cache_key", cacheKey).Msg("results cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read results cache")
		}
	}

	aggregate, err := s.aggregates.Get(ctx, targetType, targetID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TargetResultsResponse{}, err
		}
		// No submissions on file yet: an empty aggregate, not an error.
		aggregate = models.AggregateScore{TargetType: targetType, TargetID: targetID}
	}

	evaluations, err := s.ledger.ListByTarget(ctx, targetType, targetID)
	if err != nil {
		return dto.TargetResultsResponse{}, err
	}

	response := dto.TargetResultsResponse{
		TargetType:           targetType,
		TargetID:             targetID,
		AverageScore:         aggregate.AverageScore,
		CompletedEvaluations: aggregate.CompletedEvaluations,
		Submissions:          make([]dto.SubmissionSummary, 0, len(evaluations)),
	}
	for _, evaluation := range evaluations {
		response.Submissions = append(response.Submissions, dto.NewSubmissionSummary(evaluation))
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store results cache")
			}
		}
	}

	return response, nil
}

func (s *resultsService) Subscribe(targetType string, targetID uint) (<-chan events.Event, func()) {
	return s.publisher.Subscribe(targetType, targetID)
}
