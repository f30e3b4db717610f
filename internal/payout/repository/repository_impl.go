package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	"github.com/smallbiznis/incentra/internal/payout/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Settle(ctx context.Context, db *gorm.DB, orgID, dealID snowflake.ID, paidAt time.Time) (int64, error) {
	// NULL payout status on an approved deal counts as pending; older
	// rows predate the column.
	result := db.WithContext(ctx).
		Model(&dealdomain.Deal{}).
		Where("id = ? AND org_id = ? AND status = ?", dealID, orgID, dealdomain.StatusApproved).
		Where("payout_status = ? OR payout_status IS NULL", dealdomain.PayoutPending).
		Updates(map[string]any{
			"payout_status": dealdomain.PayoutPaid,
			"payout_date":   paidAt,
			"updated_at":    paidAt,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, dealID snowflake.ID) (*dealdomain.Deal, error) {
	var deal dealdomain.Deal
	if err := db.WithContext(ctx).
		Where("id = ? AND org_id = ?", dealID, orgID).
		First(&deal).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

func (r *repo) Summary(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.Summary, error) {
	var summary domain.Summary
	err := db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN payout_status = ? OR payout_status IS NULL THEN incentive ELSE 0 END), 0) AS total_pending,
			COALESCE(SUM(CASE WHEN payout_status = ? THEN incentive ELSE 0 END), 0) AS total_paid,
			COALESCE(SUM(CASE WHEN payout_status = ? OR payout_status IS NULL THEN 1 ELSE 0 END), 0) AS pending_count,
			COALESCE(SUM(CASE WHEN payout_status = ? THEN 1 ELSE 0 END), 0) AS paid_count
		FROM deals
		WHERE org_id = ? AND status = ?`,
		dealdomain.PayoutPending,
		dealdomain.PayoutPaid,
		dealdomain.PayoutPending,
		dealdomain.PayoutPaid,
		orgID,
		dealdomain.StatusApproved,
	).Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *repo) ListByPayoutStatus(ctx context.Context, db *gorm.DB, orgID snowflake.ID, status dealdomain.PayoutStatus) ([]dealdomain.Deal, error) {
	stmt := db.WithContext(ctx).
		Where("org_id = ? AND status = ?", orgID, dealdomain.StatusApproved).
		Order("created_at desc, id desc")
	if status == dealdomain.PayoutPending {
		stmt = stmt.Where("payout_status = ? OR payout_status IS NULL", dealdomain.PayoutPending)
	} else {
		stmt = stmt.Where("payout_status = ?", status)
	}

	var deals []dealdomain.Deal
	if err := stmt.Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}
