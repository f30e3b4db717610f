package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/incentra/internal/policy/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, policy *domain.IncentivePolicy) error {
	return db.WithContext(ctx).Create(policy).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, policy *domain.IncentivePolicy) error {
	return db.WithContext(ctx).
		Model(&domain.IncentivePolicy{}).
		Where("id = ? AND org_id = ?", policy.ID, policy.OrgID).
		Updates(map[string]any{
			"title":           policy.Title,
			"description":     policy.Description,
			"commission_rate": policy.CommissionRate,
			"min_deal_amount": policy.MinDealAmount,
			"max_deal_amount": policy.MaxDealAmount,
			"bonus_threshold": policy.BonusThreshold,
			"bonus_amount":    policy.BonusAmount,
			"active":          policy.Active,
			"updated_at":      policy.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.IncentivePolicy, error) {
	var policy domain.IncentivePolicy
	if err := db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		First(&policy).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, activeOnly bool) ([]domain.IncentivePolicy, error) {
	stmt := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at desc, id desc")
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}

	var policies []domain.IncentivePolicy
	if err := stmt.Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}
