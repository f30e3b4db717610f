package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// IncentivePolicy is an admin-defined commission rule. A policy applies to
// deals whose amount falls inside [MinDealAmount, MaxDealAmount]; a nil bound
// leaves that side open.
type IncentivePolicy struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID          snowflake.ID `json:"organization_id" gorm:"column:org_id;not null;index"`
	Title          string       `json:"title" gorm:"type:text;not null"`
	Description    string       `json:"description,omitempty" gorm:"type:text"`
	CommissionRate float64      `json:"commission_rate" gorm:"type:numeric;not null"`
	MinDealAmount  *float64     `json:"min_deal_amount,omitempty" gorm:"type:numeric"`
	MaxDealAmount  *float64     `json:"max_deal_amount,omitempty" gorm:"type:numeric"`
	BonusThreshold *float64     `json:"bonus_threshold,omitempty" gorm:"type:numeric"`
	BonusAmount    *float64     `json:"bonus_amount,omitempty" gorm:"type:numeric"`
	Active         bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (IncentivePolicy) TableName() string { return "incentive_policies" }

// AppliesTo reports whether the policy range contains the amount.
func (p IncentivePolicy) AppliesTo(amount float64) bool {
	if p.MinDealAmount != nil && amount < *p.MinDealAmount {
		return false
	}
	if p.MaxDealAmount != nil && amount > *p.MaxDealAmount {
		return false
	}
	return true
}
