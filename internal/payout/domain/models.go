package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	"gorm.io/gorm"
)

// Outcome classifies what settlement did with one deal id.
type Outcome string

const (
	OutcomeSettled     Outcome = "settled"
	OutcomeAlreadyPaid Outcome = "already_paid"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeNotPayable  Outcome = "not_payable"
)

// ItemResult is the per-id verdict of a settlement run.
type ItemResult struct {
	DealID    string  `json:"deal_id"`
	Outcome   Outcome `json:"outcome"`
	Incentive float64 `json:"incentive,omitempty"`
}

// RunResult reports a whole settlement run. Settlement is best-effort:
// each id is settled or reported independently, so one bad id never
// blocks the rest of the batch.
type RunResult struct {
	RunID        string       `json:"run_id"`
	Results      []ItemResult `json:"results"`
	SettledCount int          `json:"settled_count"`
	SettledTotal float64      `json:"settled_total"`
}

// Summary aggregates incentive owed and paid over approved deals.
type Summary struct {
	TotalPending float64 `json:"total_pending"`
	TotalPaid    float64 `json:"total_paid"`
	PendingCount int64   `json:"pending_count"`
	PaidCount    int64   `json:"paid_count"`
}

type Service interface {
	MarkPaid(ctx context.Context, dealIDs []string) (*RunResult, error)
	Summary(ctx context.Context) (*Summary, error)
	List(ctx context.Context, status dealdomain.PayoutStatus) ([]dealdomain.Deal, error)
}

type Repository interface {
	// Settle flips one approved pending deal to PAID. Zero affected
	// rows means the guard failed and the caller should classify why.
	Settle(ctx context.Context, db *gorm.DB, orgID, dealID snowflake.ID, paidAt time.Time) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, orgID, dealID snowflake.ID) (*dealdomain.Deal, error)
	Summary(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*Summary, error)
	ListByPayoutStatus(ctx context.Context, db *gorm.DB, orgID snowflake.ID, status dealdomain.PayoutStatus) ([]dealdomain.Deal, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrEmptyBatch          = errors.New("empty_batch")
	ErrRunInProgress       = errors.New("settlement_run_in_progress")
)
