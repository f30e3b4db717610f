package service

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/incentra/internal/clock"
	"github.com/smallbiznis/incentra/internal/orgcontext"
	"github.com/smallbiznis/incentra/internal/performance/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("performance.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Summary(ctx context.Context, ownerID string) (*domain.UserSummary, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domain.ErrInvalidOwner
	}

	deals, err := s.repo.ListByOwner(ctx, s.db, orgID, ownerID)
	if err != nil {
		return nil, err
	}
	return aggregate(ownerID, deals), nil
}

func (s *Service) Leaderboard(ctx context.Context, period domain.Period, limit int) ([]domain.LeaderboardEntry, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	if period == "" {
		period = domain.PeriodThisMonth
	}
	if !period.Valid() {
		return nil, domain.ErrInvalidPeriod
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	filter := domain.LeaderboardFilter{OrgID: orgID, Limit: limit}
	from, to := periodBounds(period, s.clock.Now())
	filter.From = from
	filter.To = to

	entries, err := s.repo.Leaderboard(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// periodBounds returns the half-open [from, to) window for a period,
// nil bounds meaning unbounded.
func periodBounds(period domain.Period, now time.Time) (*time.Time, *time.Time) {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	switch period {
	case domain.PeriodThisMonth:
		return &monthStart, nil
	case domain.PeriodLastMonth:
		lastStart := monthStart.AddDate(0, -1, 0)
		return &lastStart, &monthStart
	default:
		return nil, nil
	}
}
