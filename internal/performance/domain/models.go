package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	"gorm.io/gorm"
)

// Period bounds a leaderboard query.
type Period string

const (
	PeriodThisMonth Period = "THIS_MONTH"
	PeriodLastMonth Period = "LAST_MONTH"
	PeriodAllTime   Period = "ALL_TIME"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodThisMonth, PeriodLastMonth, PeriodAllTime:
		return true
	}
	return false
}

// MonthlyPoint is one calendar month of approved-deal activity.
// Months without approved deals produce no point.
type MonthlyPoint struct {
	Month           string  `json:"month"`
	IncentiveSum    float64 `json:"incentive_sum"`
	DealCount       int     `json:"deal_count"`
	AverageDealSize float64 `json:"average_deal_size"`
}

// UserSummary is the derived performance view for one sales rep.
type UserSummary struct {
	OwnerID          string         `json:"owner_id"`
	TotalDeals       int            `json:"total_deals"`
	ApprovedCount    int            `json:"approved_count"`
	RejectedCount    int            `json:"rejected_count"`
	PendingReview    int            `json:"pending_review"`
	ApprovalRate     float64        `json:"approval_rate"`
	AverageDealValue float64        `json:"average_deal_value"`
	TotalIncentive   float64        `json:"total_incentive"`
	ConsistencyScore float64        `json:"consistency_score"`
	MonthlyTrend     []MonthlyPoint `json:"monthly_trend"`
}

// LeaderboardEntry ranks reps by settledable incentive in a period.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	OwnerID        string  `json:"owner_id"`
	DealCount      int64   `json:"deal_count"`
	TotalAmount    float64 `json:"total_amount"`
	TotalIncentive float64 `json:"total_incentive"`
}

type Service interface {
	Summary(ctx context.Context, ownerID string) (*UserSummary, error)
	Leaderboard(ctx context.Context, period Period, limit int) ([]LeaderboardEntry, error)
}

type LeaderboardFilter struct {
	OrgID snowflake.ID
	From  *time.Time
	To    *time.Time
	Limit int
}

type Repository interface {
	ListByOwner(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ownerID string) ([]dealdomain.Deal, error)
	Leaderboard(ctx context.Context, db *gorm.DB, filter LeaderboardFilter) ([]LeaderboardEntry, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidOwner        = errors.New("invalid_owner")
	ErrInvalidPeriod       = errors.New("invalid_period")
)
