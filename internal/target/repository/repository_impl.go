package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	"github.com/smallbiznis/incentra/internal/target/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, target *domain.SalesTarget) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "org_id"}, {Name: "owner_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"amount":     target.Amount,
				"updated_at": target.UpdatedAt,
			}),
		}).
		Create(target).Error
}

func (r *repo) FindByOwner(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ownerID string) (*domain.SalesTarget, error) {
	var target domain.SalesTarget
	if err := db.WithContext(ctx).
		Where("org_id = ? AND owner_id = ?", orgID, ownerID).
		First(&target).Error; err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.SalesTarget, error) {
	var targets []domain.SalesTarget
	if err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("owner_id asc").
		Find(&targets).Error; err != nil {
		return nil, err
	}
	return targets, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ownerID string) (int64, error) {
	result := db.WithContext(ctx).
		Where("org_id = ? AND owner_id = ?", orgID, ownerID).
		Delete(&domain.SalesTarget{})
	return result.RowsAffected, result.Error
}

func (r *repo) ApprovedAmountSince(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ownerID string, since time.Time) (float64, error) {
	var total float64
	err := db.WithContext(ctx).
		Model(&dealdomain.Deal{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("org_id = ? AND owner_id = ? AND status = ? AND deal_date >= ?",
			orgID, ownerID, dealdomain.StatusApproved, since.UTC()).
		Scan(&total).Error
	return total, err
}
