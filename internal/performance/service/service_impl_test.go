package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/incentra/internal/clock"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	"github.com/smallbiznis/incentra/internal/orgcontext"
	"github.com/smallbiznis/incentra/internal/performance/domain"
	"github.com/smallbiznis/incentra/internal/performance/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   domain.Service
	clock *clock.FakeClock
	genID *snowflake.Node
	orgID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&dealdomain.Deal{}))

	genID, err := snowflake.NewNode(3)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fakeClock,
		Repo:  repository.Provide(),
	})

	return &fixture{
		db:    db,
		svc:   svc,
		clock: fakeClock,
		genID: genID,
		orgID: genID.Generate(),
	}
}

func (f *fixture) ctx() context.Context {
	return orgcontext.WithOrgID(context.Background(), int64(f.orgID))
}

func (f *fixture) seedDeal(t *testing.T, owner string, status dealdomain.Status, amount, incentive float64, dealDate time.Time) {
	t.Helper()
	deal := dealdomain.Deal{
		ID:        f.genID.Generate(),
		OrgID:     f.orgID,
		OwnerID:   owner,
		Title:     "deal",
		Amount:    amount,
		Status:    status,
		Incentive: incentive,
		DealDate:  dealDate,
		CreatedAt: dealDate,
		UpdatedAt: dealDate,
	}
	require.NoError(t, f.db.Create(&deal).Error)
}

func TestSummary(t *testing.T) {
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)

	t.Run("monthly trend groups by business month", func(t *testing.T) {
		fx := newFixture(t)
		fx.seedDeal(t, "rep-1", dealdomain.StatusApproved, 10_000, 500, jan)
		fx.seedDeal(t, "rep-1", dealdomain.StatusApproved, 20_000, 1_000, jan.AddDate(0, 0, 5))
		fx.seedDeal(t, "rep-1", dealdomain.StatusApproved, 30_000, 1_500, feb)

		summary, err := fx.svc.Summary(fx.ctx(), "rep-1")
		require.NoError(t, err)

		require.Len(t, summary.MonthlyTrend, 2)
		require.Equal(t, "2026-01", summary.MonthlyTrend[0].Month)
		require.Equal(t, 1_500.0, summary.MonthlyTrend[0].IncentiveSum)
		require.Equal(t, 2, summary.MonthlyTrend[0].DealCount)
		require.Equal(t, 15_000.0, summary.MonthlyTrend[0].AverageDealSize)
		require.Equal(t, "2026-02", summary.MonthlyTrend[1].Month)
		require.Equal(t, 1_500.0, summary.MonthlyTrend[1].IncentiveSum)
		require.Equal(t, 1, summary.MonthlyTrend[1].DealCount)
	})

	t.Run("approval rate excludes drafts", func(t *testing.T) {
		fx := newFixture(t)
		fx.seedDeal(t, "rep-1", dealdomain.StatusApproved, 10_000, 500, jan)
		fx.seedDeal(t, "rep-1", dealdomain.StatusApproved, 10_000, 500, jan)
		fx.seedDeal(t, "rep-1", dealdomain.StatusRejected, 10_000, 0, jan)
		fx.seedDeal(t, "rep-1", dealdomain.StatusSubmitted, 10_000, 0, feb)
		fx.seedDeal(t, "rep-1", dealdomain.StatusDraft, 10_000, 0, feb)

		summary, err := fx.svc.Summary(fx.ctx(), "rep-1")
		require.NoError(t, err)

		require.Equal(t, 5, summary.TotalDeals)
		require.Equal(t, 2, summary.ApprovedCount)
		require.Equal(t, 1, summary.RejectedCount)
		require.Equal(t, 1, summary.PendingReview)
		// 2 approved out of 4 reviewed, draft excluded
		require.Equal(t, 50.0, summary.ApprovalRate)
		require.Equal(t, 10_000.0, summary.AverageDealValue)
	})

	t.Run("consistency scores stable earnings high", func(t *testing.T) {
		fx := newFixture(t)
		fx.seedDeal(t, "steady", dealdomain.StatusApproved, 10_000, 1_000, jan)
		fx.seedDeal(t, "steady", dealdomain.StatusApproved, 10_000, 1_000, feb)

		fx.seedDeal(t, "spiky", dealdomain.StatusApproved, 10_000, 100, jan)
		fx.seedDeal(t, "spiky", dealdomain.StatusApproved, 10_000, 2_000, feb)

		steady, err := fx.svc.Summary(fx.ctx(), "steady")
		require.NoError(t, err)
		require.Equal(t, 100.0, steady.ConsistencyScore)

		spiky, err := fx.svc.Summary(fx.ctx(), "spiky")
		require.NoError(t, err)
		require.Less(t, spiky.ConsistencyScore, steady.ConsistencyScore)
	})

	t.Run("single active month scores zero", func(t *testing.T) {
		fx := newFixture(t)
		fx.seedDeal(t, "rep-1", dealdomain.StatusApproved, 10_000, 1_000, jan)

		summary, err := fx.svc.Summary(fx.ctx(), "rep-1")
		require.NoError(t, err)
		require.Zero(t, summary.ConsistencyScore)
		require.Len(t, summary.MonthlyTrend, 1)
	})

	t.Run("empty history", func(t *testing.T) {
		fx := newFixture(t)
		summary, err := fx.svc.Summary(fx.ctx(), "rep-1")
		require.NoError(t, err)
		require.Zero(t, summary.TotalDeals)
		require.Zero(t, summary.ApprovalRate)
		require.Zero(t, summary.AverageDealValue)
		require.Empty(t, summary.MonthlyTrend)
	})

	t.Run("owner required", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.svc.Summary(fx.ctx(), "  ")
		require.ErrorIs(t, err, domain.ErrInvalidOwner)
	})
}

func TestLeaderboard(t *testing.T) {
	fx := newFixture(t)
	thisMonth := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)

	fx.seedDeal(t, "rep-a", dealdomain.StatusApproved, 50_000, 2_500, thisMonth)
	fx.seedDeal(t, "rep-b", dealdomain.StatusApproved, 80_000, 4_000, thisMonth)
	fx.seedDeal(t, "rep-b", dealdomain.StatusRejected, 90_000, 0, thisMonth)
	fx.seedDeal(t, "rep-c", dealdomain.StatusApproved, 70_000, 3_500, lastMonth)

	t.Run("this month ranks by incentive", func(t *testing.T) {
		entries, err := fx.svc.Leaderboard(fx.ctx(), domain.PeriodThisMonth, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "rep-b", entries[0].OwnerID)
		require.Equal(t, 1, entries[0].Rank)
		require.Equal(t, 4_000.0, entries[0].TotalIncentive)
		require.Equal(t, int64(1), entries[0].DealCount)
		require.Equal(t, "rep-a", entries[1].OwnerID)
		require.Equal(t, 2, entries[1].Rank)
	})

	t.Run("last month window", func(t *testing.T) {
		entries, err := fx.svc.Leaderboard(fx.ctx(), domain.PeriodLastMonth, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "rep-c", entries[0].OwnerID)
	})

	t.Run("all time", func(t *testing.T) {
		entries, err := fx.svc.Leaderboard(fx.ctx(), domain.PeriodAllTime, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
	})

	t.Run("invalid period", func(t *testing.T) {
		_, err := fx.svc.Leaderboard(fx.ctx(), domain.Period("NEXT_WEEK"), 10)
		require.ErrorIs(t, err, domain.ErrInvalidPeriod)
	})
}

func TestConsistencyScoreFormula(t *testing.T) {
	require.Zero(t, consistencyScore(nil))
	require.Zero(t, consistencyScore([]float64{500}))
	require.Equal(t, 100.0, consistencyScore([]float64{500, 500, 500}))
	require.Zero(t, consistencyScore([]float64{0, 0}))

	// mean 100, stddev 100 -> cv 1 -> score 0
	require.Zero(t, consistencyScore([]float64{0, 200}))

	// mean 150, stddev 50 -> cv 1/3 -> score 66.67
	require.Equal(t, 66.67, consistencyScore([]float64{100, 200}))
}
