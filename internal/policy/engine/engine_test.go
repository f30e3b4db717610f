package engine

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/incentra/internal/policy/domain"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func policy(id int64, rate float64, opts func(*domain.IncentivePolicy)) domain.IncentivePolicy {
	p := domain.IncentivePolicy{
		ID:             snowflake.ID(id),
		Title:          "policy",
		CommissionRate: rate,
		Active:         true,
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if opts != nil {
		opts(&p)
	}
	return p
}

func TestComputeIncentive(t *testing.T) {
	t.Run("rate with bonus", func(t *testing.T) {
		policies := []domain.IncentivePolicy{
			policy(1, 5, func(p *domain.IncentivePolicy) {
				p.BonusThreshold = f(50_000)
				p.BonusAmount = f(10_000)
			}),
		}

		result, err := ComputeIncentive(75_000, policies)
		require.NoError(t, err)
		require.True(t, result.Matched)
		require.True(t, result.BonusHit)
		require.Equal(t, 13_750.0, result.Amount)
	})

	t.Run("bonus at exact threshold", func(t *testing.T) {
		policies := []domain.IncentivePolicy{
			policy(1, 10, func(p *domain.IncentivePolicy) {
				p.BonusThreshold = f(50_000)
				p.BonusAmount = f(1_000)
			}),
		}

		result, err := ComputeIncentive(50_000, policies)
		require.NoError(t, err)
		require.True(t, result.BonusHit)
		require.Equal(t, 6_000.0, result.Amount)
	})

	t.Run("below minimum yields zero", func(t *testing.T) {
		policies := []domain.IncentivePolicy{
			policy(1, 5, func(p *domain.IncentivePolicy) {
				p.MinDealAmount = f(10_000)
			}),
		}

		result, err := ComputeIncentive(5_000, policies)
		require.NoError(t, err)
		require.False(t, result.Matched)
		require.Zero(t, result.Amount)
	})

	t.Run("inactive policy is skipped", func(t *testing.T) {
		policies := []domain.IncentivePolicy{
			policy(1, 5, func(p *domain.IncentivePolicy) { p.Active = false }),
		}

		result, err := ComputeIncentive(1_000, policies)
		require.NoError(t, err)
		require.False(t, result.Matched)
		require.Zero(t, result.Amount)
	})

	t.Run("rounds half up to cents", func(t *testing.T) {
		policies := []domain.IncentivePolicy{policy(1, 1.25, nil)}

		// 1001 * 1.25% = 12.5125 -> 12.51; 1002 * 1.25% = 12.525 -> 12.53
		result, err := ComputeIncentive(1_001, policies)
		require.NoError(t, err)
		require.Equal(t, 12.51, result.Amount)

		result, err = ComputeIncentive(1_002, policies)
		require.NoError(t, err)
		require.Equal(t, 12.53, result.Amount)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := ComputeIncentive(-1, []domain.IncentivePolicy{policy(1, 5, nil)})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestSelectTieBreaks(t *testing.T) {
	t.Run("narrowest range wins", func(t *testing.T) {
		policies := []domain.IncentivePolicy{
			policy(1, 5, nil),
			policy(2, 7, func(p *domain.IncentivePolicy) {
				p.MinDealAmount = f(10_000)
				p.MaxDealAmount = f(100_000)
			}),
			policy(3, 9, func(p *domain.IncentivePolicy) {
				p.MinDealAmount = f(40_000)
				p.MaxDealAmount = f(60_000)
			}),
		}

		selected := Select(50_000, policies)
		require.NotNil(t, selected)
		require.Equal(t, snowflake.ID(3), selected.ID)
	})

	t.Run("half open range counts as unbounded", func(t *testing.T) {
		policies := []domain.IncentivePolicy{
			policy(1, 5, func(p *domain.IncentivePolicy) {
				p.MinDealAmount = f(1_000)
			}),
			policy(2, 7, func(p *domain.IncentivePolicy) {
				p.MinDealAmount = f(1_000)
				p.MaxDealAmount = f(1_000_000)
			}),
		}

		selected := Select(5_000, policies)
		require.NotNil(t, selected)
		require.Equal(t, snowflake.ID(2), selected.ID)
	})

	t.Run("equal ranges fall back to newest then highest id", func(t *testing.T) {
		older := policy(10, 5, func(p *domain.IncentivePolicy) {
			p.MinDealAmount = f(0)
			p.MaxDealAmount = f(100_000)
		})
		newer := policy(4, 7, func(p *domain.IncentivePolicy) {
			p.MinDealAmount = f(0)
			p.MaxDealAmount = f(100_000)
			p.CreatedAt = older.CreatedAt.Add(time.Hour)
		})

		selected := Select(1_000, []domain.IncentivePolicy{older, newer})
		require.NotNil(t, selected)
		require.Equal(t, snowflake.ID(4), selected.ID)

		sameTime := policy(11, 9, func(p *domain.IncentivePolicy) {
			p.MinDealAmount = f(0)
			p.MaxDealAmount = f(100_000)
		})
		selected = Select(1_000, []domain.IncentivePolicy{older, sameTime})
		require.NotNil(t, selected)
		require.Equal(t, snowflake.ID(11), selected.ID)
	})

	t.Run("selection is order independent", func(t *testing.T) {
		a := policy(1, 5, func(p *domain.IncentivePolicy) {
			p.MinDealAmount = f(0)
			p.MaxDealAmount = f(50_000)
		})
		b := policy(2, 7, func(p *domain.IncentivePolicy) {
			p.MinDealAmount = f(0)
			p.MaxDealAmount = f(80_000)
		})

		first := Select(10_000, []domain.IncentivePolicy{a, b})
		second := Select(10_000, []domain.IncentivePolicy{b, a})
		require.NotNil(t, first)
		require.NotNil(t, second)
		require.Equal(t, first.ID, second.ID)
	})
}
