package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	auditdomain "github.com/smallbiznis/incentra/internal/audit/domain"
	"github.com/smallbiznis/incentra/internal/clock"
	"github.com/smallbiznis/incentra/internal/config"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	"github.com/smallbiznis/incentra/internal/observability/metrics"
	"github.com/smallbiznis/incentra/internal/orgcontext"
	"github.com/smallbiznis/incentra/internal/payout/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg      config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Repo     domain.Repository
	AuditSvc auditdomain.Service
	Metrics  *metrics.Metrics
	Redis    *redis.Client `optional:"true"`
}

type Service struct {
	cfg      config.Config
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	repo     domain.Repository
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
	redis    *redis.Client
}

func NewService(p Params) domain.Service {
	return &Service{
		cfg:      p.Cfg,
		db:       p.DB,
		log:      p.Log.Named("payout.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
		redis:    p.Redis,
	}
}

// MarkPaid settles a batch of approved deals. Each id is handled
// independently: valid ids flip to PAID, everything else is reported
// with a per-id outcome. Re-running with already paid ids is a no-op
// for those ids.
func (s *Service) MarkPaid(ctx context.Context, dealIDs []string) (*domain.RunResult, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if len(dealIDs) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	lock := newRunLock(
		s.redis,
		fmt.Sprintf("incentra:settlement:%s", orgID.String()),
		time.Duration(s.cfg.Incentive.SettlementLockTTLSeconds)*time.Second,
	)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		s.log.Warn("settlement lock unavailable, proceeding unlocked", zap.Error(err))
	} else if !acquired {
		return nil, domain.ErrRunInProgress
	} else {
		defer func() {
			if err := lock.Release(ctx); err != nil {
				s.log.Warn("failed to release settlement lock", zap.Error(err))
			}
		}()
	}

	run := &domain.RunResult{
		RunID:   s.genID.Generate().String(),
		Results: make([]domain.ItemResult, 0, len(dealIDs)),
	}
	paidAt := s.clock.Now()
	seen := make(map[snowflake.ID]domain.ItemResult, len(dealIDs))

	for _, raw := range dealIDs {
		dealID, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil || dealID == 0 {
			run.Results = append(run.Results, domain.ItemResult{DealID: raw, Outcome: domain.OutcomeNotFound})
			s.metrics.RecordPayoutSettled(ctx, string(domain.OutcomeNotFound))
			continue
		}
		if prev, dup := seen[dealID]; dup {
			// a repeated id is echoed so every requested id has a
			// result, but it is settled and counted only once
			if prev.Outcome == domain.OutcomeSettled {
				prev.Outcome = domain.OutcomeAlreadyPaid
				prev.Incentive = 0
			}
			run.Results = append(run.Results, prev)
			continue
		}

		result, err := s.settleOne(ctx, orgID, dealID, paidAt)
		if err != nil {
			return nil, err
		}
		seen[dealID] = result
		run.Results = append(run.Results, result)
		s.metrics.RecordPayoutSettled(ctx, string(result.Outcome))
		if result.Outcome == domain.OutcomeSettled {
			run.SettledCount++
			run.SettledTotal += result.Incentive
		}
	}

	runID := run.RunID
	if err := s.auditSvc.AuditLog(ctx, nil, "", nil, "payout.run", "settlement_run", &runID, map[string]any{
		"requested":     len(dealIDs),
		"settled_count": run.SettledCount,
		"settled_total": run.SettledTotal,
	}); err != nil {
		s.log.Warn("audit write failed", zap.String("run_id", runID), zap.Error(err))
	}
	return run, nil
}

// settleOne applies the single guarded update; when the guard rejects
// the row, the deal is re-read to classify the refusal.
func (s *Service) settleOne(ctx context.Context, orgID, dealID snowflake.ID, paidAt time.Time) (domain.ItemResult, error) {
	result := domain.ItemResult{DealID: dealID.String()}

	affected, err := s.repo.Settle(ctx, s.db, orgID, dealID, paidAt)
	if err != nil {
		return result, err
	}
	if affected > 0 {
		deal, err := s.repo.FindByID(ctx, s.db, orgID, dealID)
		if err != nil {
			return result, err
		}
		result.Outcome = domain.OutcomeSettled
		result.Incentive = deal.Incentive
		return result, nil
	}

	deal, err := s.repo.FindByID(ctx, s.db, orgID, dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Outcome = domain.OutcomeNotFound
			return result, nil
		}
		return result, err
	}

	if deal.Status == dealdomain.StatusApproved && deal.EffectivePayoutStatus() == dealdomain.PayoutPaid {
		result.Outcome = domain.OutcomeAlreadyPaid
		return result, nil
	}
	result.Outcome = domain.OutcomeNotPayable
	return result, nil
}

func (s *Service) Summary(ctx context.Context) (*domain.Summary, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.Summary(ctx, s.db, orgID)
}

func (s *Service) List(ctx context.Context, status dealdomain.PayoutStatus) ([]dealdomain.Deal, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if status == "" {
		status = dealdomain.PayoutPending
	}
	return s.repo.ListByPayoutStatus(ctx, s.db, orgID, status)
}
