package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	"github.com/smallbiznis/incentra/internal/performance/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListByOwner(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ownerID string) ([]dealdomain.Deal, error) {
	var deals []dealdomain.Deal
	if err := db.WithContext(ctx).
		Where("org_id = ? AND owner_id = ?", orgID, ownerID).
		Order("deal_date asc, id asc").
		Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

func (r *repo) Leaderboard(ctx context.Context, db *gorm.DB, filter domain.LeaderboardFilter) ([]domain.LeaderboardEntry, error) {
	stmt := db.WithContext(ctx).
		Model(&dealdomain.Deal{}).
		Select("owner_id, COUNT(*) AS deal_count, COALESCE(SUM(amount), 0) AS total_amount, COALESCE(SUM(incentive), 0) AS total_incentive").
		Where("org_id = ? AND status = ?", filter.OrgID, dealdomain.StatusApproved).
		Group("owner_id").
		Order("total_incentive DESC, owner_id ASC")

	if filter.From != nil {
		stmt = stmt.Where("deal_date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		stmt = stmt.Where("deal_date < ?", filter.To.UTC())
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var entries []domain.LeaderboardEntry
	if err := stmt.Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
