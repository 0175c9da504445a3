package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-desk/internal/domain"
	"github.com/spec-kit/issue-desk/internal/persistence"
	"github.com/spec-kit/issue-desk/internal/repository"
	apperrors "github.com/spec-kit/issue-desk/pkg/util/errorutil"
)

const statsOverviewCacheKey = "stats:overview"

// StatsService serves read-only projections over ticket and account state.
// The overview is cached in Redis for a short TTL; mutations do not touch
// the cache, so figures may trail reality by up to that TTL.
type StatsService struct {
	stats    repository.StatsRepository
	accounts repository.AccountRepository
	cache    *persistence.Redis
	cacheTTL time.Duration
	logger   *zap.Logger
}

// StatsDependencies bundles requirements for the stats service.
type StatsDependencies struct {
	StatsRepo   repository.StatsRepository
	AccountRepo repository.AccountRepository
	Cache       *persistence.Redis
	CacheTTL    time.Duration
	Logger      *zap.Logger
}

// Overview aggregates the dashboard projections.
type Overview struct {
	Statuses      []repository.StatusCount   `json:"statuses"`
	Categories    []repository.CategoryCount `json:"categories"`
	RatingBuckets []repository.RatingBucket  `json:"rating_buckets"`
	TotalAccounts int64                      `json:"total_accounts"`
}

// HandlerOverview aggregates the per-handler projections.
type HandlerOverview struct {
	Totals             repository.HandlerTotals  `json:"totals"`
	AvgRating          *float64                  `json:"avg_rating"`
	TotalRatings       int64                     `json:"total_ratings"`
	Department         domain.Department         `json:"department"`
	DepartmentRanking  []repository.HandlerRank  `json:"department_ranking"`
	RatingDistribution []repository.RatingBucket `json:"rating_distribution"`
}

// NewStatsService constructs the service.
func NewStatsService(deps StatsDependencies) *StatsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatsService{
		stats:    deps.StatsRepo,
		accounts: deps.AccountRepo,
		cache:    deps.Cache,
		cacheTTL: ttl,
		logger:   logger,
	}
}

// GetOverview returns the system-wide dashboard figures, served from the
// cache when fresh enough.
func (s *StatsService) GetOverview(ctx context.Context) (*Overview, error) {
	if cached := s.cachedOverview(ctx); cached != nil {
		return cached, nil
	}

	statuses, err := s.stats.StatusCounts(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	categories, err := s.stats.CategoryCounts(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	buckets, err := s.stats.RatingBuckets(ctx, nil)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	totalAccounts, err := s.stats.TotalAccounts(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	overview := &Overview{
		Statuses:      statuses,
		Categories:    categories,
		RatingBuckets: buckets,
		TotalAccounts: totalAccounts,
	}
	s.storeOverview(ctx, overview)
	return overview, nil
}

// GetHandlerOverview returns load, rating and ranking figures for one
// handler. Only the handler themselves or an administrator may read it.
func (s *StatsService) GetHandlerOverview(ctx context.Context, actor *domain.Account, handlerID string) (*HandlerOverview, error) {
	if !canReadAccountScope(actor, handlerID) {
		return nil, apperrors.NewForbidden("cannot read another handler's stats")
	}

	handler, err := s.accounts.GetByID(ctx, handlerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("handler", map[string]any{"account_id": handlerID})
		}
		return nil, apperrors.MapError(err)
	}

	totals, err := s.stats.HandlerTotals(ctx, handlerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	avg, totalRatings, err := s.stats.HandlerRating(ctx, handlerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ranking, err := s.stats.DepartmentRanking(ctx, handler.Department)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	distribution, err := s.stats.RatingBuckets(ctx, &handlerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &HandlerOverview{
		Totals:             *totals,
		AvgRating:          avg,
		TotalRatings:       totalRatings,
		Department:         handler.Department,
		DepartmentRanking:  ranking,
		RatingDistribution: distribution,
	}, nil
}

func (s *StatsService) cachedOverview(ctx context.Context) *Overview {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.GetString(ctx, statsOverviewCacheKey)
	if err != nil {
		if !persistence.IsCacheMiss(err) {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
		return nil
	}
	var overview Overview
	if err := json.Unmarshal([]byte(raw), &overview); err != nil {
		s.logger.Warn("stats cache payload invalid", zap.Error(err))
		return nil
	}
	return &overview
}

func (s *StatsService) storeOverview(ctx context.Context, overview *Overview) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(overview)
	if err != nil {
		return
	}
	if err := s.cache.SetString(ctx, statsOverviewCacheKey, string(raw), s.cacheTTL); err != nil {
		s.logger.Warn("stats cache write failed", zap.Error(err))
	}
}
