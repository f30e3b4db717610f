package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/incentra/internal/rule/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rule *domain.AlertRule) error {
	return db.WithContext(ctx).Create(rule).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rule *domain.AlertRule) error {
	return db.WithContext(ctx).
		Model(&domain.AlertRule{}).
		Where("id = ? AND org_id = ?", rule.ID, rule.OrgID).
		Updates(map[string]any{
			"name":       rule.Name,
			"metric":     rule.Metric,
			"operator":   rule.Operator,
			"threshold":  rule.Threshold,
			"action":     rule.Action,
			"active":     rule.Active,
			"updated_at": rule.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		Delete(&domain.AlertRule{})
	return result.RowsAffected, result.Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, activeOnly bool) ([]domain.AlertRule, error) {
	stmt := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at asc, id asc")
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}

	var rules []domain.AlertRule
	if err := stmt.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.AlertRule, error) {
	var rule domain.AlertRule
	if err := db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}
