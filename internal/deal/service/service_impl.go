package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/incentra/internal/audit/domain"
	"github.com/smallbiznis/incentra/internal/clock"
	"github.com/smallbiznis/incentra/internal/config"
	"github.com/smallbiznis/incentra/internal/deal/domain"
	"github.com/smallbiznis/incentra/internal/observability/metrics"
	"github.com/smallbiznis/incentra/internal/orgcontext"
	policydomain "github.com/smallbiznis/incentra/internal/policy/domain"
	policyengine "github.com/smallbiznis/incentra/internal/policy/engine"
	ruledomain "github.com/smallbiznis/incentra/internal/rule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Repo       domain.Repository
	PolicyRepo policydomain.Repository
	Rules      ruledomain.Service
	AuditSvc   auditdomain.Service
	Metrics    *metrics.Metrics
}

type Service struct {
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	genID      *snowflake.Node
	repo       domain.Repository
	policyRepo policydomain.Repository
	rules      ruledomain.Service
	auditSvc   auditdomain.Service
	metrics    *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("deal.service"),
		clock:      p.Clock,
		genID:      p.GenID,
		repo:       p.Repo,
		policyRepo: p.PolicyRepo,
		rules:      p.Rules,
		auditSvc:   p.AuditSvc,
		metrics:    p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Deal, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	ownerID := strings.TrimSpace(req.OwnerID)
	if ownerID == "" {
		return nil, domain.ErrInvalidOwner
	}
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if req.DiscountRate < 0 || req.DiscountRate > 100 {
		return nil, domain.ErrInvalidDiscount
	}
	if req.RiskLevel != nil && !req.RiskLevel.Valid() {
		return nil, domain.ErrInvalidRiskLevel
	}

	now := s.clock.Now()
	dealDate := now
	if req.DealDate != nil && !req.DealDate.IsZero() {
		dealDate = req.DealDate.UTC()
	}

	deal := domain.Deal{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		OwnerID:      ownerID,
		Title:        title,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Amount:       req.Amount,
		DiscountRate: req.DiscountRate,
		Status:       domain.StatusDraft,
		RiskLevel:    req.RiskLevel,
		DealDate:     dealDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, &deal); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, "deal.created", deal.ID, map[string]any{
		"owner_id": deal.OwnerID,
		"amount":   deal.Amount,
	})
	return &deal, nil
}

func (s *Service) Submit(ctx context.Context, id string) (*domain.Deal, error) {
	orgID, dealID, err := s.resolveIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var deal *domain.Deal
	err = s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, dealID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if current.Status != domain.StatusDraft {
			return domain.ErrInvalidTransition
		}

		affected, err := s.repo.TransitionFrom(ctx, tx, orgID, dealID, domain.StatusDraft, domain.UpdateFields{
			Status:    domain.StatusSubmitted,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidTransition
		}

		current.Status = domain.StatusSubmitted
		current.UpdatedAt = now
		deal = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDealTransition(ctx, "submit")
	s.writeAudit(ctx, "deal.submitted", deal.ID, map[string]any{"amount": deal.Amount})
	s.applyAlertRules(ctx, deal)
	return deal, nil
}

func (s *Service) Approve(ctx context.Context, id string, comment string) (*domain.Deal, error) {
	orgID, dealID, err := s.resolveIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	comment = strings.TrimSpace(comment)

	var (
		deal    *domain.Deal
		matched bool
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, dealID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if current.Status != domain.StatusSubmitted {
			return domain.ErrInvalidTransition
		}

		policies, err := s.policyRepo.List(ctx, tx, orgID, true)
		if err != nil {
			return err
		}
		result, err := policyengine.ComputeIncentive(current.Amount, policies)
		if err != nil {
			return err
		}

		pending := domain.PayoutPending
		fields := domain.UpdateFields{
			Status:       domain.StatusApproved,
			Incentive:    &result.Amount,
			PayoutStatus: &pending,
			UpdatedAt:    now,
		}
		if result.Policy != nil {
			fields.AppliedPolicyID = &result.Policy.ID
		}
		if comment != "" {
			fields.AdminComment = &comment
		}

		affected, err := s.repo.TransitionFrom(ctx, tx, orgID, dealID, domain.StatusSubmitted, fields)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidTransition
		}

		current.Status = domain.StatusApproved
		current.Incentive = result.Amount
		current.PayoutStatus = &pending
		current.AppliedPolicyID = fields.AppliedPolicyID
		current.AdminComment = fields.AdminComment
		current.UpdatedAt = now
		deal = current
		matched = result.Matched
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDealTransition(ctx, "approve")
	s.metrics.RecordIncentiveComputed(ctx, matched)

	auditMeta := map[string]any{
		"amount":    deal.Amount,
		"incentive": deal.Incentive,
	}
	if deal.AppliedPolicyID != nil {
		auditMeta["policy_id"] = deal.AppliedPolicyID.String()
	}
	s.writeAudit(ctx, "deal.approved", deal.ID, auditMeta)
	return deal, nil
}

func (s *Service) Reject(ctx context.Context, id string, reason string) (*domain.Deal, error) {
	orgID, dealID, err := s.resolveIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrEmptyReason
	}

	now := s.clock.Now()
	var deal *domain.Deal
	err = s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, dealID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if current.Status != domain.StatusSubmitted {
			return domain.ErrInvalidTransition
		}

		zero := 0.0
		affected, err := s.repo.TransitionFrom(ctx, tx, orgID, dealID, domain.StatusSubmitted, domain.UpdateFields{
			Status:          domain.StatusRejected,
			Incentive:       &zero,
			RejectionReason: &reason,
			UpdatedAt:       now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInvalidTransition
		}

		current.Status = domain.StatusRejected
		current.Incentive = 0
		current.RejectionReason = &reason
		current.UpdatedAt = now
		deal = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDealTransition(ctx, "reject")
	s.writeAudit(ctx, "deal.rejected", deal.ID, map[string]any{"reason": reason})
	return deal, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.DealView, error) {
	orgID, dealID, err := s.resolveIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	deal, err := s.repo.FindByID(ctx, s.db, orgID, dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	view := s.view(*deal)
	return &view, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.DealView, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	filter := domain.ListFilter{
		OrgID:   orgID,
		OwnerID: req.OwnerID,
		Status:  req.Status,
	}
	if req.PayoutStatus != "" {
		payoutStatus := req.PayoutStatus
		filter.PayoutStatus = &payoutStatus
	}

	deals, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	views := make([]domain.DealView, 0, len(deals))
	for _, deal := range deals {
		views = append(views, s.view(deal))
	}
	return views, nil
}

// applyAlertRules runs the org's rules after a successful submit.
// FLAG_RISK escalates the deal to HIGH; evaluation failures never roll
// back the transition.
func (s *Service) applyAlertRules(ctx context.Context, deal *domain.Deal) {
	triggered, err := s.rules.Evaluate(ctx, ruledomain.EvaluationInput{
		DealID:       deal.ID.String(),
		Amount:       deal.Amount,
		DiscountRate: deal.DiscountRate,
	})
	if err != nil {
		s.log.Warn("alert rule evaluation failed", zap.String("deal_id", deal.ID.String()), zap.Error(err))
		return
	}

	for _, hit := range triggered {
		if hit.Action != ruledomain.ActionFlagRisk {
			continue
		}
		// FLAG_RISK only fills in a missing level; an explicit one,
		// whatever it is, stays.
		if deal.RiskLevel != nil {
			continue
		}
		high := domain.RiskHigh
		if err := s.db.WithContext(ctx).
			Model(&domain.Deal{}).
			Where("id = ? AND org_id = ?", deal.ID, deal.OrgID).
			Update("risk_level", high).Error; err != nil {
			s.log.Warn("failed to flag deal risk", zap.String("deal_id", deal.ID.String()), zap.Error(err))
			continue
		}
		deal.RiskLevel = &high
	}
}

func (s *Service) view(deal domain.Deal) domain.DealView {
	return domain.DealView{
		Deal:      deal,
		RiskBadge: deal.RiskBadge(s.cfg.Incentive.RiskAmountThreshold),
	}
}

func (s *Service) resolveIDs(ctx context.Context, id string) (snowflake.ID, snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, 0, domain.ErrInvalidOrganization
	}
	dealID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || dealID == 0 {
		return 0, 0, domain.ErrInvalidID
	}
	return orgID, dealID, nil
}

func (s *Service) writeAudit(ctx context.Context, action string, dealID snowflake.ID, metadata map[string]any) {
	targetID := dealID.String()
	if err := s.auditSvc.AuditLog(ctx, nil, "", nil, action, "deal", &targetID, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
