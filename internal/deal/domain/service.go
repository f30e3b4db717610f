package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateRequest struct {
	Title        string     `json:"title"`
	CustomerName string     `json:"customer_name"`
	OwnerID      string     `json:"owner_id"`
	Amount       float64    `json:"amount"`
	DiscountRate float64    `json:"discount_rate"`
	RiskLevel    *RiskLevel `json:"risk_level"`
	DealDate     *time.Time `json:"deal_date"`
}

type ListRequest struct {
	OwnerID      string
	Status       Status
	PayoutStatus PayoutStatus
}

// DealView is a deal plus derived display fields.
type DealView struct {
	Deal
	RiskBadge RiskLevel `json:"risk_badge"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Deal, error)
	Submit(ctx context.Context, id string) (*Deal, error)
	Approve(ctx context.Context, id string, comment string) (*Deal, error)
	Reject(ctx context.Context, id string, reason string) (*Deal, error)
	Get(ctx context.Context, id string) (*DealView, error)
	List(ctx context.Context, req ListRequest) ([]DealView, error)
}

// UpdateFields is the column set a guarded transition writes. The
// repository applies it only when the row is still in FromStatus, so a
// losing racer observes zero affected rows instead of clobbering the
// winner.
type UpdateFields struct {
	Status          Status
	Incentive       *float64
	AppliedPolicyID *snowflake.ID
	PayoutStatus    *PayoutStatus
	RiskLevel       *RiskLevel
	AdminComment    *string
	RejectionReason *string
	UpdatedAt       time.Time
}

type ListFilter struct {
	OrgID        snowflake.ID
	OwnerID      string
	Status       Status
	PayoutStatus *PayoutStatus
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, deal *Deal) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Deal, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Deal, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Deal, error)
	TransitionFrom(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, from Status, fields UpdateFields) (int64, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrInvalidOwner        = errors.New("invalid_owner")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidDiscount     = errors.New("invalid_discount_rate")
	ErrInvalidRiskLevel    = errors.New("invalid_risk_level")
	ErrEmptyReason         = errors.New("empty_rejection_reason")
	ErrInvalidTransition   = errors.New("invalid_transition")
	ErrNotFound            = errors.New("not_found")
)
