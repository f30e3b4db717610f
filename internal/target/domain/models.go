package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// SalesTarget is the monthly revenue goal for one sales rep. At most
// one row exists per (org, owner).
type SalesTarget struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID     snowflake.ID `json:"organization_id" gorm:"column:org_id;not null;uniqueIndex:idx_targets_org_owner"`
	OwnerID   string       `json:"owner_id" gorm:"type:text;not null;uniqueIndex:idx_targets_org_owner"`
	Amount    float64      `json:"amount" gorm:"type:numeric;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (SalesTarget) TableName() string { return "sales_targets" }

// TargetView is a target together with the current month's approved
// deal volume against it.
type TargetView struct {
	SalesTarget
	AchievedThisMonth float64 `json:"achieved_this_month"`
	AttainmentPct     float64 `json:"attainment_pct"`
}

type SetRequest struct {
	OwnerID string  `json:"owner_id"`
	Amount  float64 `json:"amount"`
}

type Service interface {
	Set(ctx context.Context, req SetRequest) (*SalesTarget, error)
	Get(ctx context.Context, ownerID string) (*TargetView, error)
	List(ctx context.Context) ([]SalesTarget, error)
	Delete(ctx context.Context, ownerID string) error
}

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, target *SalesTarget) error
	FindByOwner(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ownerID string) (*SalesTarget, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]SalesTarget, error)
	Delete(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ownerID string) (int64, error)
	ApprovedAmountSince(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ownerID string, since time.Time) (float64, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidOwner        = errors.New("invalid_owner")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrNotFound            = errors.New("not_found")
)
