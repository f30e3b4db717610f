package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/incentra/internal/audit/domain"
	"github.com/smallbiznis/incentra/internal/clock"
	"github.com/smallbiznis/incentra/internal/orgcontext"
	"github.com/smallbiznis/incentra/internal/policy/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Repo     domain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("policy.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.IncentivePolicy, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if err := validateTerms(req.CommissionRate, req.MinDealAmount, req.MaxDealAmount, req.BonusThreshold, req.BonusAmount); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	policy := domain.IncentivePolicy{
		ID:             s.genID.Generate(),
		OrgID:          orgID,
		Title:          title,
		Description:    strings.TrimSpace(req.Description),
		CommissionRate: req.CommissionRate,
		MinDealAmount:  req.MinDealAmount,
		MaxDealAmount:  req.MaxDealAmount,
		BonusThreshold: req.BonusThreshold,
		BonusAmount:    req.BonusAmount,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Active != nil {
		policy.Active = *req.Active
	}

	if err := s.repo.Insert(ctx, s.db, &policy); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, "policy.created", policy.ID, map[string]any{
		"title":           policy.Title,
		"commission_rate": policy.CommissionRate,
		"active":          policy.Active,
	})
	return &policy, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.IncentivePolicy, error) {
	policy, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		policy.Title = title
	}
	if req.Description != nil {
		policy.Description = strings.TrimSpace(*req.Description)
	}
	if req.CommissionRate != nil {
		policy.CommissionRate = *req.CommissionRate
	}
	if req.MinDealAmount != nil {
		policy.MinDealAmount = req.MinDealAmount
	}
	if req.MaxDealAmount != nil {
		policy.MaxDealAmount = req.MaxDealAmount
	}
	if req.BonusThreshold != nil {
		policy.BonusThreshold = req.BonusThreshold
	}
	if req.BonusAmount != nil {
		policy.BonusAmount = req.BonusAmount
	}
	if req.Active != nil {
		policy.Active = *req.Active
	}

	if err := validateTerms(policy.CommissionRate, policy.MinDealAmount, policy.MaxDealAmount, policy.BonusThreshold, policy.BonusAmount); err != nil {
		return nil, err
	}

	policy.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, policy); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, "policy.updated", policy.ID, map[string]any{
		"title":  policy.Title,
		"active": policy.Active,
	})
	return policy, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.IncentivePolicy, error) {
	return s.load(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.IncentivePolicy, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.List(ctx, s.db, orgID, activeOnly)
}

func (s *Service) Deactivate(ctx context.Context, id string) (*domain.IncentivePolicy, error) {
	policy, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Active {
		return policy, nil
	}

	policy.Active = false
	policy.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, policy); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, "policy.deactivated", policy.ID, nil)
	return policy, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.IncentivePolicy, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	policyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || policyID == 0 {
		return nil, domain.ErrInvalidID
	}

	policy, err := s.repo.FindByID(ctx, s.db, orgID, policyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return policy, nil
}

func (s *Service) writeAudit(ctx context.Context, action string, policyID snowflake.ID, metadata map[string]any) {
	targetID := policyID.String()
	if err := s.auditSvc.AuditLog(ctx, nil, "", nil, action, "incentive_policy", &targetID, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func validateTerms(rate float64, minAmount, maxAmount, bonusThreshold, bonusAmount *float64) error {
	if rate < 0 || rate > 100 {
		return domain.ErrInvalidCommissionRate
	}
	if minAmount != nil && *minAmount < 0 {
		return domain.ErrInvalidRange
	}
	if maxAmount != nil && *maxAmount < 0 {
		return domain.ErrInvalidRange
	}
	if minAmount != nil && maxAmount != nil && *minAmount > *maxAmount {
		return domain.ErrInvalidRange
	}
	if bonusThreshold != nil && *bonusThreshold < 0 {
		return domain.ErrInvalidBonus
	}
	if bonusAmount != nil && *bonusAmount < 0 {
		return domain.ErrInvalidBonus
	}
	if bonusAmount != nil && bonusThreshold == nil {
		return domain.ErrInvalidBonus
	}
	return nil
}
