package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
)

type stateRepository interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]models.State, error)
	BulkInsert(ctx context.Context, states []models.State) error
}

const (
	statesCacheKey = "reference:states"
	statesCacheTTL = time.Hour
)

// brazilianStates is the static reference dataset, seeded on first request.
var brazilianStates = []models.State{
	{Code: "AC", Name: "Acre"},
	{Code: "AL", Name: "Alagoas"},
	{Code: "AP", Name: "Amapá"},
	{Code: "AM", Name: "Amazonas"},
	{Code: "BA", Name: "Bahia"},
	{Code: "CE", Name: "Ceará"},
	{Code: "DF", Name: "Distrito Federal"},
	{Code: "ES", Name: "Espírito Santo"},
	{Code: "GO", Name: "Goiás"},
	{Code: "MA", Name: "Maranhão"},
	{Code: "MT", Name: "Mato Grosso"},
	{Code: "MS", Name: "Mato Grosso do Sul"},
	{Code: "MG", Name: "Minas Gerais"},
	{Code: "PA", Name: "Pará"},
	{Code: "PB", Name: "Paraíba"},
	{Code: "PR", Name: "Paraná"},
	{Code: "PE", Name: "Pernambuco"},
	{Code: "PI", Name: "Piauí"},
	{Code: "RJ", Name: "Rio de Janeiro"},
	{Code: "RN", Name: "Rio Grande do Norte"},
	{Code: "RS", Name: "Rio Grande do Sul"},
	{Code: "RO", Name: "Rondônia"},
	{Code: "RR", Name: "Roraima"},
	{Code: "SC", Name: "Santa Catarina"},
	{Code: "SP", Name: "São Paulo"},
	{Code: "SE", Name: "Sergipe"},
	{Code: "TO", Name: "Tocantins"},
}

// StateService serves the states reference table, seeding it lazily and
// caching the result.
type StateService struct {
	repo   stateRepository
	cache  settingsCache
	logger *zap.Logger
}

// NewStateService constructs a StateService.
func NewStateService(repo stateRepository, cache settingsCache, logger *zap.Logger) *StateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateService{repo: repo, cache: cache, logger: logger}
}

// List returns all states, seeding the table when empty.
func (s *StateService) List(ctx context.Context) ([]models.State, error) {
	if s.cache != nil {
		var cached []models.State
		if err := s.cache.Get(ctx, statesCacheKey, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count states")
	}
	if total == 0 {
		if err := s.repo.BulkInsert(ctx, brazilianStates); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed states")
		}
		s.logger.Info("states reference table seeded", zap.Int("count", len(brazilianStates)))
	}

	states, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list states")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statesCacheKey, states, statesCacheTTL); err != nil {
			s.logger.Warn("failed to cache states", zap.Error(err))
		}
	}

	return states, nil
}
