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
	"github.com/smallbiznis/incentra/internal/observability/metrics"
	"github.com/smallbiznis/incentra/internal/orgcontext"
	"github.com/smallbiznis/incentra/internal/payout/domain"
	payoutrepository "github.com/smallbiznis/incentra/internal/payout/repository"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
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

	require.NoError(t, db.AutoMigrate(&dealdomain.Deal{}, &auditdomain.AuditLog{}))

	genID, err := snowflake.NewNode(2)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	m, err := metrics.New(metrics.Config{}, noop.NewMeterProvider())
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		Clock: fakeClock,
		GenID: genID,
		Repo:  auditrepository.Provide(),
	})

	svc := NewService(Params{
		Cfg:      config.Config{Incentive: config.IncentiveConfig{SettlementLockTTLSeconds: 30}},
		DB:       db,
		Log:      log,
		Clock:    fakeClock,
		GenID:    genID,
		Repo:     payoutrepository.Provide(),
		AuditSvc: auditSvc,
		Metrics:  m,
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

func (f *fixture) seedDeal(t *testing.T, status dealdomain.Status, payout *dealdomain.PayoutStatus, incentive float64) dealdomain.Deal {
	t.Helper()
	now := f.clock.Now()
	deal := dealdomain.Deal{
		ID:           f.genID.Generate(),
		OrgID:        f.orgID,
		OwnerID:      "rep-1",
		Title:        "deal",
		Amount:       incentive * 20,
		Status:       status,
		Incentive:    incentive,
		PayoutStatus: payout,
		DealDate:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.db.Create(&deal).Error)
	return deal
}

func payoutStatus(s dealdomain.PayoutStatus) *dealdomain.PayoutStatus { return &s }

func TestMarkPaid(t *testing.T) {
	t.Run("settles pending and skips paid", func(t *testing.T) {
		fx := newFixture(t)
		pending := fx.seedDeal(t, dealdomain.StatusApproved, payoutStatus(dealdomain.PayoutPending), 500)
		paid := fx.seedDeal(t, dealdomain.StatusApproved, payoutStatus(dealdomain.PayoutPaid), 300)

		before, err := fx.svc.Summary(fx.ctx())
		require.NoError(t, err)

		run, err := fx.svc.MarkPaid(fx.ctx(), []string{pending.ID.String(), paid.ID.String()})
		require.NoError(t, err)
		require.Len(t, run.Results, 2)
		require.Equal(t, domain.OutcomeSettled, run.Results[0].Outcome)
		require.Equal(t, 500.0, run.Results[0].Incentive)
		require.Equal(t, domain.OutcomeAlreadyPaid, run.Results[1].Outcome)
		require.Equal(t, 1, run.SettledCount)
		require.Equal(t, 500.0, run.SettledTotal)

		after, err := fx.svc.Summary(fx.ctx())
		require.NoError(t, err)
		require.Equal(t, before.TotalPaid+500, after.TotalPaid)
		require.Zero(t, after.TotalPending)
	})

	t.Run("run is idempotent", func(t *testing.T) {
		fx := newFixture(t)
		deal := fx.seedDeal(t, dealdomain.StatusApproved, payoutStatus(dealdomain.PayoutPending), 250)
		ids := []string{deal.ID.String()}

		run, err := fx.svc.MarkPaid(fx.ctx(), ids)
		require.NoError(t, err)
		require.Equal(t, 1, run.SettledCount)

		run, err = fx.svc.MarkPaid(fx.ctx(), ids)
		require.NoError(t, err)
		require.Zero(t, run.SettledCount)
		require.Equal(t, domain.OutcomeAlreadyPaid, run.Results[0].Outcome)

		summary, err := fx.svc.Summary(fx.ctx())
		require.NoError(t, err)
		require.Equal(t, 250.0, summary.TotalPaid)
	})

	t.Run("null payout status counts as pending", func(t *testing.T) {
		fx := newFixture(t)
		deal := fx.seedDeal(t, dealdomain.StatusApproved, nil, 120)

		summary, err := fx.svc.Summary(fx.ctx())
		require.NoError(t, err)
		require.Equal(t, 120.0, summary.TotalPending)
		require.Equal(t, int64(1), summary.PendingCount)

		run, err := fx.svc.MarkPaid(fx.ctx(), []string{deal.ID.String()})
		require.NoError(t, err)
		require.Equal(t, domain.OutcomeSettled, run.Results[0].Outcome)
	})

	t.Run("reports bad ids without aborting the batch", func(t *testing.T) {
		fx := newFixture(t)
		pending := fx.seedDeal(t, dealdomain.StatusApproved, payoutStatus(dealdomain.PayoutPending), 100)
		submitted := fx.seedDeal(t, dealdomain.StatusSubmitted, nil, 0)
		missing := fx.genID.Generate()

		run, err := fx.svc.MarkPaid(fx.ctx(), []string{
			submitted.ID.String(),
			missing.String(),
			pending.ID.String(),
		})
		require.NoError(t, err)
		require.Len(t, run.Results, 3)
		require.Equal(t, domain.OutcomeNotPayable, run.Results[0].Outcome)
		require.Equal(t, domain.OutcomeNotFound, run.Results[1].Outcome)
		require.Equal(t, domain.OutcomeSettled, run.Results[2].Outcome)
		require.Equal(t, 1, run.SettledCount)
	})

	t.Run("repeated ids get a result but settle once", func(t *testing.T) {
		fx := newFixture(t)
		deal := fx.seedDeal(t, dealdomain.StatusApproved, payoutStatus(dealdomain.PayoutPending), 400)
		id := deal.ID.String()

		run, err := fx.svc.MarkPaid(fx.ctx(), []string{id, id, id})
		require.NoError(t, err)
		require.Len(t, run.Results, 3)
		require.Equal(t, domain.OutcomeSettled, run.Results[0].Outcome)
		require.Equal(t, domain.OutcomeAlreadyPaid, run.Results[1].Outcome)
		require.Equal(t, domain.OutcomeAlreadyPaid, run.Results[2].Outcome)
		require.Equal(t, 1, run.SettledCount)
		require.Equal(t, 400.0, run.SettledTotal)

		summary, err := fx.svc.Summary(fx.ctx())
		require.NoError(t, err)
		require.Equal(t, 400.0, summary.TotalPaid)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.svc.MarkPaid(fx.ctx(), nil)
		require.ErrorIs(t, err, domain.ErrEmptyBatch)
	})
}

func TestSummaryConservation(t *testing.T) {
	fx := newFixture(t)
	a := fx.seedDeal(t, dealdomain.StatusApproved, payoutStatus(dealdomain.PayoutPending), 111)
	fx.seedDeal(t, dealdomain.StatusApproved, payoutStatus(dealdomain.PayoutPending), 222)
	fx.seedDeal(t, dealdomain.StatusApproved, payoutStatus(dealdomain.PayoutPaid), 333)
	fx.seedDeal(t, dealdomain.StatusRejected, nil, 0)

	total := 111.0 + 222 + 333

	summary, err := fx.svc.Summary(fx.ctx())
	require.NoError(t, err)
	require.Equal(t, total, summary.TotalPending+summary.TotalPaid)

	_, err = fx.svc.MarkPaid(fx.ctx(), []string{a.ID.String()})
	require.NoError(t, err)

	summary, err = fx.svc.Summary(fx.ctx())
	require.NoError(t, err)
	require.Equal(t, total, summary.TotalPending+summary.TotalPaid)
	require.Equal(t, 444.0, summary.TotalPaid)
	require.Equal(t, int64(2), summary.PaidCount)
}

func TestListByPayoutStatus(t *testing.T) {
	fx := newFixture(t)
	fx.seedDeal(t, dealdomain.StatusApproved, payoutStatus(dealdomain.PayoutPending), 100)
	fx.seedDeal(t, dealdomain.StatusApproved, nil, 200)
	fx.seedDeal(t, dealdomain.StatusApproved, payoutStatus(dealdomain.PayoutPaid), 300)

	pending, err := fx.svc.List(fx.ctx(), dealdomain.PayoutPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	paid, err := fx.svc.List(fx.ctx(), dealdomain.PayoutPaid)
	require.NoError(t, err)
	require.Len(t, paid, 1)
}
