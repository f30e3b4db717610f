package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/incentra/internal/audit/domain"
	"github.com/smallbiznis/incentra/internal/clock"
	"github.com/smallbiznis/incentra/internal/config"
	"github.com/smallbiznis/incentra/internal/orgcontext"
	policyengine "github.com/smallbiznis/incentra/internal/policy/engine"
	"github.com/smallbiznis/incentra/internal/target/domain"
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
}

type Service struct {
	cfg      config.Config
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		cfg:      p.Cfg,
		db:       p.DB,
		log:      p.Log.Named("target.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Set(ctx context.Context, req domain.SetRequest) (*domain.SalesTarget, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	ownerID := strings.TrimSpace(req.OwnerID)
	if ownerID == "" {
		return nil, domain.ErrInvalidOwner
	}
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	now := s.clock.Now()
	target := domain.SalesTarget{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		OwnerID:   ownerID,
		Amount:    req.Amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, s.db, &target); err != nil {
		return nil, err
	}

	stored, err := s.repo.FindByOwner(ctx, s.db, orgID, ownerID)
	if err != nil {
		return nil, err
	}

	targetID := stored.ID.String()
	if err := s.auditSvc.AuditLog(ctx, nil, "", nil, "target.set", "sales_target", &targetID, map[string]any{
		"owner_id": ownerID,
		"amount":   req.Amount,
	}); err != nil {
		s.log.Warn("audit write failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
	return stored, nil
}

// Get returns the rep's target with month-to-date attainment. Reps
// without a stored target fall back to the configured default.
func (s *Service) Get(ctx context.Context, ownerID string) (*domain.TargetView, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domain.ErrInvalidOwner
	}

	target, err := s.repo.FindByOwner(ctx, s.db, orgID, ownerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		target = &domain.SalesTarget{
			OrgID:   orgID,
			OwnerID: ownerID,
			Amount:  s.cfg.Incentive.DefaultMonthlyTarget,
		}
	}

	now := s.clock.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	achieved, err := s.repo.ApprovedAmountSince(ctx, s.db, orgID, ownerID, monthStart)
	if err != nil {
		return nil, err
	}

	view := domain.TargetView{
		SalesTarget:       *target,
		AchievedThisMonth: achieved,
	}
	if target.Amount > 0 {
		view.AttainmentPct = policyengine.RoundHalfUp(achieved / target.Amount * 100)
	}
	return &view, nil
}

func (s *Service) List(ctx context.Context) ([]domain.SalesTarget, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.List(ctx, s.db, orgID)
}

func (s *Service) Delete(ctx context.Context, ownerID string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ErrInvalidOrganization
	}

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return domain.ErrInvalidOwner
	}

	affected, err := s.repo.Delete(ctx, s.db, orgID, ownerID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	if err := s.auditSvc.AuditLog(ctx, nil, "", nil, "target.deleted", "sales_target", &ownerID, nil); err != nil {
		s.log.Warn("audit write failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
	return nil
}
