package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*IncentivePolicy, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*IncentivePolicy, error)
	Get(ctx context.Context, id string) (*IncentivePolicy, error)
	List(ctx context.Context, activeOnly bool) ([]IncentivePolicy, error)
	Deactivate(ctx context.Context, id string) (*IncentivePolicy, error)
}

type CreateRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	CommissionRate float64  `json:"commission_rate"`
	MinDealAmount  *float64 `json:"min_deal_amount"`
	MaxDealAmount  *float64 `json:"max_deal_amount"`
	BonusThreshold *float64 `json:"bonus_threshold"`
	BonusAmount    *float64 `json:"bonus_amount"`
	Active         *bool    `json:"active"`
}

type UpdateRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	CommissionRate *float64 `json:"commission_rate"`
	MinDealAmount  *float64 `json:"min_deal_amount"`
	MaxDealAmount  *float64 `json:"max_deal_amount"`
	BonusThreshold *float64 `json:"bonus_threshold"`
	BonusAmount    *float64 `json:"bonus_amount"`
	Active         *bool    `json:"active"`
}

var (
	ErrInvalidOrganization   = errors.New("invalid_organization")
	ErrInvalidID             = errors.New("invalid_id")
	ErrInvalidTitle          = errors.New("invalid_title")
	ErrInvalidCommissionRate = errors.New("invalid_commission_rate")
	ErrInvalidRange          = errors.New("invalid_deal_amount_range")
	ErrInvalidBonus          = errors.New("invalid_bonus")
	ErrInvalidAmount         = errors.New("invalid_amount")
	ErrNotFound              = errors.New("not_found")
)
