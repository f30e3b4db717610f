package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type SaveRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Metric    Metric   `json:"metric"`
	Operator  Operator `json:"operator"`
	Threshold float64  `json:"threshold"`
	Action    Action   `json:"action"`
	Active    *bool    `json:"active"`
}

// EvaluationInput carries the deal attributes rules can inspect.
type EvaluationInput struct {
	DealID       string
	Amount       float64
	DiscountRate float64
}

// Triggered is one rule that fired during evaluation.
type Triggered struct {
	Rule   AlertRule `json:"rule"`
	Action Action    `json:"action"`
}

type Service interface {
	List(ctx context.Context) ([]AlertRule, error)
	Save(ctx context.Context, req SaveRequest) (*AlertRule, error)
	Delete(ctx context.Context, id string) error
	Evaluate(ctx context.Context, input EvaluationInput) ([]Triggered, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *AlertRule) error
	Update(ctx context.Context, db *gorm.DB, rule *AlertRule) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (int64, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, activeOnly bool) ([]AlertRule, error)
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*AlertRule, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidMetric       = errors.New("invalid_metric")
	ErrInvalidOperator     = errors.New("invalid_operator")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrNotFound            = errors.New("not_found")
)
