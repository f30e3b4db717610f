package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, policy *IncentivePolicy) error
	Update(ctx context.Context, db *gorm.DB, policy *IncentivePolicy) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*IncentivePolicy, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, activeOnly bool) ([]IncentivePolicy, error)
}
