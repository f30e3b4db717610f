package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Metric names the deal attribute a rule inspects.
type Metric string

const (
	MetricDealAmount   Metric = "DEAL_AMOUNT"
	MetricDiscountRate Metric = "DISCOUNT_RATE"
)

// Operator compares the metric value against the rule threshold.
type Operator string

const (
	OperatorGT  Operator = "GT"
	OperatorGTE Operator = "GTE"
	OperatorLT  Operator = "LT"
	OperatorLTE Operator = "LTE"
	OperatorEQ  Operator = "EQ"
)

// Action is what happens when a rule fires.
type Action string

const (
	ActionNotifyAdmin Action = "NOTIFY_ADMIN"
	ActionFlagRisk    Action = "FLAG_RISK"
)

// AlertRule fires on deal submission when its condition matches.
type AlertRule struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID     snowflake.ID `json:"organization_id" gorm:"column:org_id;not null;uniqueIndex:idx_alert_rules_org_name"`
	Name      string       `json:"name" gorm:"type:text;not null;uniqueIndex:idx_alert_rules_org_name"`
	Metric    Metric       `json:"metric" gorm:"type:text;not null"`
	Operator  Operator     `json:"operator" gorm:"type:text;not null"`
	Threshold float64      `json:"threshold" gorm:"type:numeric;not null"`
	Action    Action       `json:"action" gorm:"type:text;not null"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AlertRule) TableName() string { return "alert_rules" }

// Matches evaluates the rule condition against a metric value.
func (r AlertRule) Matches(value float64) bool {
	switch r.Operator {
	case OperatorGT:
		return value > r.Threshold
	case OperatorGTE:
		return value >= r.Threshold
	case OperatorLT:
		return value < r.Threshold
	case OperatorLTE:
		return value <= r.Threshold
	case OperatorEQ:
		return value == r.Threshold
	default:
		return false
	}
}

func (m Metric) Valid() bool {
	switch m {
	case MetricDealAmount, MetricDiscountRate:
		return true
	}
	return false
}

func (o Operator) Valid() bool {
	switch o {
	case OperatorGT, OperatorGTE, OperatorLT, OperatorLTE, OperatorEQ:
		return true
	}
	return false
}

func (a Action) Valid() bool {
	switch a {
	case ActionNotifyAdmin, ActionFlagRisk:
		return true
	}
	return false
}
