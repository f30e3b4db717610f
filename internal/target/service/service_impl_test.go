package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/incentra/internal/audit/domain"
	auditrepository "github.com/smallbiznis/incentra/internal/audit/repository"
	auditservice "github.com/smallbiznis/incentra/internal/audit/service"
	"github.com/smallbiznis/incentra/internal/clock"
	"github.com/smallbiznis/incentra/internal/config"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	"github.com/smallbiznis/incentra/internal/orgcontext"
	"github.com/smallbiznis/incentra/internal/target/domain"
	targetrepository "github.com/smallbiznis/incentra/internal/target/repository"
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

	require.NoError(t, db.AutoMigrate(
		&domain.SalesTarget{},
		&dealdomain.Deal{},
		&auditdomain.AuditLog{},
	))

	genID, err := snowflake.NewNode(4)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		Clock: fakeClock,
		GenID: genID,
		Repo:  auditrepository.Provide(),
	})

	svc := NewService(Params{
		Cfg:      config.Config{Incentive: config.IncentiveConfig{DefaultMonthlyTarget: 100_000}},
		DB:       db,
		Log:      log,
		Clock:    fakeClock,
		GenID:    genID,
		Repo:     targetrepository.Provide(),
		AuditSvc: auditSvc,
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

func (f *fixture) seedApprovedDeal(t *testing.T, owner string, amount float64, dealDate time.Time) {
	t.Helper()
	deal := dealdomain.Deal{
		ID:        f.genID.Generate(),
		OrgID:     f.orgID,
		OwnerID:   owner,
		Title:     "deal",
		Amount:    amount,
		Status:    dealdomain.StatusApproved,
		DealDate:  dealDate,
		CreatedAt: dealDate,
		UpdatedAt: dealDate,
	}
	require.NoError(t, f.db.Create(&deal).Error)
}

func TestTargets(t *testing.T) {
	t.Run("set then update keeps one row per owner", func(t *testing.T) {
		fx := newFixture(t)

		first, err := fx.svc.Set(fx.ctx(), domain.SetRequest{OwnerID: "rep-1", Amount: 120_000})
		require.NoError(t, err)
		require.Equal(t, 120_000.0, first.Amount)

		second, err := fx.svc.Set(fx.ctx(), domain.SetRequest{OwnerID: "rep-1", Amount: 150_000})
		require.NoError(t, err)
		require.Equal(t, 150_000.0, second.Amount)
		require.Equal(t, first.ID, second.ID)

		all, err := fx.svc.List(fx.ctx())
		require.NoError(t, err)
		require.Len(t, all, 1)
	})

	t.Run("get falls back to default target", func(t *testing.T) {
		fx := newFixture(t)

		view, err := fx.svc.Get(fx.ctx(), "rep-1")
		require.NoError(t, err)
		require.Equal(t, 100_000.0, view.Amount)
		require.Zero(t, view.AchievedThisMonth)
	})

	t.Run("attainment counts this month only", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.svc.Set(fx.ctx(), domain.SetRequest{OwnerID: "rep-1", Amount: 100_000})
		require.NoError(t, err)

		fx.seedApprovedDeal(t, "rep-1", 30_000, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
		fx.seedApprovedDeal(t, "rep-1", 20_000, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
		fx.seedApprovedDeal(t, "rep-1", 99_000, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))

		view, err := fx.svc.Get(fx.ctx(), "rep-1")
		require.NoError(t, err)
		require.Equal(t, 50_000.0, view.AchievedThisMonth)
		require.Equal(t, 50.0, view.AttainmentPct)

		// the window follows the clock: next month starts from zero
		fx.clock.Advance(31 * 24 * time.Hour)
		view, err = fx.svc.Get(fx.ctx(), "rep-1")
		require.NoError(t, err)
		require.Zero(t, view.AchievedThisMonth)
		require.Zero(t, view.AttainmentPct)
	})

	t.Run("delete", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.svc.Set(fx.ctx(), domain.SetRequest{OwnerID: "rep-1", Amount: 90_000})
		require.NoError(t, err)

		require.NoError(t, fx.svc.Delete(fx.ctx(), "rep-1"))
		require.ErrorIs(t, fx.svc.Delete(fx.ctx(), "rep-1"), domain.ErrNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.svc.Set(fx.ctx(), domain.SetRequest{OwnerID: "", Amount: 1})
		require.ErrorIs(t, err, domain.ErrInvalidOwner)
		_, err = fx.svc.Set(fx.ctx(), domain.SetRequest{OwnerID: "rep-1", Amount: 0})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}
