package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/incentra/internal/deal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, deal *domain.Deal) error {
	return db.WithContext(ctx).Create(deal).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Deal, error) {
	var deal domain.Deal
	if err := db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		First(&deal).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Deal, error) {
	stmt := db.WithContext(ctx)
	// sqlite serializes writers on its own and rejects FOR UPDATE.
	if db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var deal domain.Deal
	if err := stmt.
		Where("id = ? AND org_id = ?", id, orgID).
		First(&deal).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Deal, error) {
	stmt := db.WithContext(ctx).
		Where("org_id = ?", filter.OrgID).
		Order("created_at desc, id desc")

	if ownerID := strings.TrimSpace(filter.OwnerID); ownerID != "" {
		stmt = stmt.Where("owner_id = ?", ownerID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.PayoutStatus != nil {
		if *filter.PayoutStatus == domain.PayoutPending {
			stmt = stmt.Where("payout_status = ? OR payout_status IS NULL", domain.PayoutPending)
		} else {
			stmt = stmt.Where("payout_status = ?", *filter.PayoutStatus)
		}
	}

	var deals []domain.Deal
	if err := stmt.Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

// TransitionFrom applies a guarded status change. The WHERE clause pins
// the expected current status so concurrent racers cannot both win.
func (r *repo) TransitionFrom(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, from domain.Status, fields domain.UpdateFields) (int64, error) {
	updates := map[string]any{
		"status":     fields.Status,
		"updated_at": fields.UpdatedAt,
	}
	if fields.Incentive != nil {
		updates["incentive"] = *fields.Incentive
	}
	if fields.AppliedPolicyID != nil {
		updates["applied_policy_id"] = *fields.AppliedPolicyID
	}
	if fields.PayoutStatus != nil {
		updates["payout_status"] = *fields.PayoutStatus
	}
	if fields.RiskLevel != nil {
		updates["risk_level"] = *fields.RiskLevel
	}
	if fields.AdminComment != nil {
		updates["admin_comment"] = *fields.AdminComment
	}
	if fields.RejectionReason != nil {
		updates["rejection_reason"] = *fields.RejectionReason
	}

	result := db.WithContext(ctx).
		Model(&domain.Deal{}).
		Where("id = ? AND org_id = ? AND status = ?", id, orgID, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}
