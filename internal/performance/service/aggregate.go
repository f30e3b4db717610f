package service

import (
	"math"
	"sort"

	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	"github.com/smallbiznis/incentra/internal/performance/domain"
	policyengine "github.com/smallbiznis/incentra/internal/policy/engine"
)

const monthKey = "2006-01"

// aggregate derives the full performance view from a rep's deal
// history. Draft deals never count against the approval rate; trend
// months key off the deal's business date.
func aggregate(ownerID string, deals []dealdomain.Deal) *domain.UserSummary {
	summary := &domain.UserSummary{
		OwnerID:      ownerID,
		TotalDeals:   len(deals),
		MonthlyTrend: []domain.MonthlyPoint{},
	}

	var (
		reviewed       int
		approvedAmount float64
		months         = map[string]*domain.MonthlyPoint{}
		monthAmount    = map[string]float64{}
	)

	for _, deal := range deals {
		switch deal.Status {
		case dealdomain.StatusApproved:
			summary.ApprovedCount++
			reviewed++
		case dealdomain.StatusRejected:
			summary.RejectedCount++
			reviewed++
		case dealdomain.StatusSubmitted:
			summary.PendingReview++
			reviewed++
		}

		if deal.Status != dealdomain.StatusApproved {
			continue
		}

		approvedAmount += deal.Amount
		summary.TotalIncentive += deal.Incentive

		key := deal.DealDate.UTC().Format(monthKey)
		point, ok := months[key]
		if !ok {
			point = &domain.MonthlyPoint{Month: key}
			months[key] = point
		}
		point.IncentiveSum += deal.Incentive
		point.DealCount++
		monthAmount[key] += deal.Amount
	}

	if reviewed > 0 {
		summary.ApprovalRate = policyengine.RoundHalfUp(float64(summary.ApprovedCount) / float64(reviewed) * 100)
	}
	if summary.ApprovedCount > 0 {
		summary.AverageDealValue = policyengine.RoundHalfUp(approvedAmount / float64(summary.ApprovedCount))
	}
	summary.TotalIncentive = policyengine.RoundHalfUp(summary.TotalIncentive)

	keys := make([]string, 0, len(months))
	for key := range months {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	monthlyIncentives := make([]float64, 0, len(keys))
	for _, key := range keys {
		point := months[key]
		point.IncentiveSum = policyengine.RoundHalfUp(point.IncentiveSum)
		point.AverageDealSize = policyengine.RoundHalfUp(monthAmount[key] / float64(point.DealCount))
		summary.MonthlyTrend = append(summary.MonthlyTrend, *point)
		monthlyIncentives = append(monthlyIncentives, point.IncentiveSum)
	}

	summary.ConsistencyScore = consistencyScore(monthlyIncentives)
	return summary
}

// consistencyScore is 100*(1 - cv) clamped to [0,100], where cv is the
// coefficient of variation of the monthly incentive sums. Fewer than
// two active months scores 0.
func consistencyScore(monthly []float64) float64 {
	if len(monthly) < 2 {
		return 0
	}

	var sum float64
	for _, v := range monthly {
		sum += v
	}
	mean := sum / float64(len(monthly))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, v := range monthly {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(monthly))

	cv := math.Sqrt(variance) / mean
	score := 100 * (1 - cv)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return policyengine.RoundHalfUp(score)
}
