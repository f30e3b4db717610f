package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/incentra/internal/audit/domain"
	"github.com/smallbiznis/incentra/internal/clock"
	"github.com/smallbiznis/incentra/internal/observability/metrics"
	"github.com/smallbiznis/incentra/internal/orgcontext"
	"github.com/smallbiznis/incentra/internal/rule/domain"
	pkgdb "github.com/smallbiznis/incentra/pkg/db"
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
	Metrics  *metrics.Metrics
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	repo     domain.Repository
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("rule.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

// List returns the org's alert rules, seeding the defaults on first use.
func (s *Service) List(ctx context.Context) ([]domain.AlertRule, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	rules, err := s.repo.List(ctx, s.db, orgID, false)
	if err != nil {
		return nil, err
	}
	if len(rules) > 0 {
		return rules, nil
	}

	if err := s.seedDefaults(ctx, orgID); err != nil {
		s.log.Warn("failed to seed default alert rules", zap.Error(err))
		return rules, nil
	}
	return s.repo.List(ctx, s.db, orgID, false)
}

func (s *Service) Save(ctx context.Context, req domain.SaveRequest) (*domain.AlertRule, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if !req.Metric.Valid() {
		return nil, domain.ErrInvalidMetric
	}
	if !req.Operator.Valid() {
		return nil, domain.ErrInvalidOperator
	}
	if !req.Action.Valid() {
		return nil, domain.ErrInvalidAction
	}

	now := s.clock.Now()
	if strings.TrimSpace(req.ID) == "" {
		rule := domain.AlertRule{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			Name:      name,
			Metric:    req.Metric,
			Operator:  req.Operator,
			Threshold: req.Threshold,
			Action:    req.Action,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if req.Active != nil {
			rule.Active = *req.Active
		}
		if err := s.repo.Insert(ctx, s.db, &rule); err != nil {
			return nil, err
		}
		s.writeAudit(ctx, "rule.created", rule.ID, map[string]any{"name": rule.Name})
		return &rule, nil
	}

	ruleID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || ruleID == 0 {
		return nil, domain.ErrInvalidID
	}

	rule, err := s.repo.FindByID(ctx, s.db, orgID, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rule.Name = name
	rule.Metric = req.Metric
	rule.Operator = req.Operator
	rule.Threshold = req.Threshold
	rule.Action = req.Action
	if req.Active != nil {
		rule.Active = *req.Active
	}
	rule.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, rule); err != nil {
		return nil, err
	}
	s.writeAudit(ctx, "rule.updated", rule.ID, map[string]any{"name": rule.Name})
	return rule, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ErrInvalidOrganization
	}

	ruleID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || ruleID == 0 {
		return domain.ErrInvalidID
	}

	affected, err := s.repo.Delete(ctx, s.db, orgID, ruleID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	s.writeAudit(ctx, "rule.deleted", ruleID, nil)
	return nil
}

// Evaluate runs the org's active rules against a deal and returns the
// ones that fired. NOTIFY_ADMIN actions are recorded in the audit trail
// here; FLAG_RISK is applied by the caller that owns the deal row.
func (s *Service) Evaluate(ctx context.Context, input domain.EvaluationInput) ([]domain.Triggered, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	rules, err := s.repo.List(ctx, s.db, orgID, true)
	if err != nil {
		return nil, err
	}

	var triggered []domain.Triggered
	for _, rule := range rules {
		value := input.Amount
		if rule.Metric == domain.MetricDiscountRate {
			value = input.DiscountRate
		}
		if !rule.Matches(value) {
			continue
		}

		triggered = append(triggered, domain.Triggered{Rule: rule, Action: rule.Action})
		s.metrics.RecordRuleTriggered(ctx, string(rule.Action))

		if rule.Action == domain.ActionNotifyAdmin {
			dealID := input.DealID
			if err := s.auditSvc.AuditLog(ctx, nil, "", nil, "rule.notify_admin", "deal", &dealID, map[string]any{
				"rule_id":   rule.ID.String(),
				"rule_name": rule.Name,
				"metric":    rule.Metric,
				"threshold": rule.Threshold,
				"value":     value,
			}); err != nil {
				s.log.Warn("failed to record rule notification", zap.String("rule_id", rule.ID.String()), zap.Error(err))
			}
		}
	}
	return triggered, nil
}

func (s *Service) seedDefaults(ctx context.Context, orgID snowflake.ID) error {
	now := s.clock.Now()
	defaults := []domain.AlertRule{
		{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			Name:      "Big Deal Alert",
			Metric:    domain.MetricDealAmount,
			Operator:  domain.OperatorGT,
			Threshold: 100_000,
			Action:    domain.ActionNotifyAdmin,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			Name:      "High Discount Warning",
			Metric:    domain.MetricDiscountRate,
			Operator:  domain.OperatorGT,
			Threshold: 15,
			Action:    domain.ActionFlagRisk,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	for i := range defaults {
		if err := s.repo.Insert(ctx, s.db, &defaults[i]); err != nil {
			// another request seeded concurrently
			if pkgdb.IsDuplicateKeyErr(err) {
				continue
			}
			return err
		}
	}
	return nil
}

func (s *Service) writeAudit(ctx context.Context, action string, ruleID snowflake.ID, metadata map[string]any) {
	targetID := ruleID.String()
	if err := s.auditSvc.AuditLog(ctx, nil, "", nil, action, "alert_rule", &targetID, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
