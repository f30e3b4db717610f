package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is a deal's lifecycle state. Approved and Rejected are
// terminal; only payout status may change afterwards.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusSubmitted Status = "Submitted"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
)

// Terminal reports whether the status accepts no further review
// transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// PayoutStatus tracks settlement of an approved deal's incentive.
type PayoutStatus string

const (
	PayoutPending PayoutStatus = "PENDING"
	PayoutPaid    PayoutStatus = "PAID"
)

// RiskLevel classifies a deal for review triage.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Deal is one recorded sale, owned by a sales rep and reviewed by an
// admin. Incentive is computed exactly once, at approval time, and is
// zero in every other state.
type Deal struct {
	ID              snowflake.ID  `json:"id" gorm:"primaryKey"`
	OrgID           snowflake.ID  `json:"organization_id" gorm:"column:org_id;not null;index"`
	OwnerID         string        `json:"owner_id" gorm:"type:text;not null;index"`
	Title           string        `json:"title" gorm:"type:text;not null"`
	CustomerName    string        `json:"customer_name,omitempty" gorm:"type:text"`
	Amount          float64       `json:"amount" gorm:"type:numeric;not null"`
	DiscountRate    float64       `json:"discount_rate" gorm:"type:numeric;not null;default:0"`
	Status          Status        `json:"status" gorm:"type:text;not null;index"`
	RiskLevel       *RiskLevel    `json:"risk_level,omitempty" gorm:"type:text"`
	Incentive       float64       `json:"incentive" gorm:"type:numeric;not null;default:0"`
	AppliedPolicyID *snowflake.ID `json:"applied_policy_id,omitempty"`
	PayoutStatus    *PayoutStatus `json:"payout_status,omitempty" gorm:"type:text;index"`
	PayoutDate      *time.Time    `json:"payout_date,omitempty"`
	AdminComment    *string       `json:"admin_comment,omitempty" gorm:"type:text"`
	RejectionReason *string       `json:"rejection_reason,omitempty" gorm:"type:text"`
	DealDate        time.Time     `json:"deal_date" gorm:"not null;index"`
	CreatedAt       time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Deal) TableName() string { return "deals" }

// EffectivePayoutStatus treats an unset payout status on an approved
// deal as PENDING, which older records may carry.
func (d Deal) EffectivePayoutStatus() PayoutStatus {
	if d.PayoutStatus != nil {
		return *d.PayoutStatus
	}
	return PayoutPending
}

// RiskBadge derives the review badge. An explicit risk level always
// wins; otherwise the amount threshold splits LOW from HIGH. MEDIUM is
// only ever explicit.
func (d Deal) RiskBadge(amountThreshold float64) RiskLevel {
	if d.RiskLevel != nil && d.RiskLevel.Valid() {
		return *d.RiskLevel
	}
	if d.Amount > amountThreshold {
		return RiskHigh
	}
	return RiskLow
}
