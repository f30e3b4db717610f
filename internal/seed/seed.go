package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	policydomain "github.com/smallbiznis/incentra/internal/policy/domain"
	"gorm.io/gorm"
)

// EnsureDefaultPolicy inserts a starter commission policy for the
// default org so a fresh install can approve deals with a nonzero
// incentive. Orgs that already carry any policy are left alone.
func EnsureDefaultPolicy(db *gorm.DB, orgID int64) error {
	var count int64
	if err := db.Model(&policydomain.IncentivePolicy{}).
		Where("org_id = ?", orgID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	node, err := snowflake.NewNode(0)
	if err != nil {
		return err
	}

	bonusThreshold := 50_000.0
	bonusAmount := 10_000.0
	now := time.Now().UTC()
	policy := policydomain.IncentivePolicy{
		ID:             node.Generate(),
		OrgID:          snowflake.ID(orgID),
		Title:          "Standard Commission",
		Description:    "Default 5% commission with a large-deal bonus.",
		CommissionRate: 5,
		BonusThreshold: &bonusThreshold,
		BonusAmount:    &bonusAmount,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return db.Create(&policy).Error
}
