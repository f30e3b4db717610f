package server

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/incentra/internal/audit/domain"
	auditrepository "github.com/smallbiznis/incentra/internal/audit/repository"
	auditservice "github.com/smallbiznis/incentra/internal/audit/service"
	"github.com/smallbiznis/incentra/internal/clock"
	"github.com/smallbiznis/incentra/internal/config"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	dealrepository "github.com/smallbiznis/incentra/internal/deal/repository"
	dealservice "github.com/smallbiznis/incentra/internal/deal/service"
	"github.com/smallbiznis/incentra/internal/observability/metrics"
	payoutrepository "github.com/smallbiznis/incentra/internal/payout/repository"
	payoutservice "github.com/smallbiznis/incentra/internal/payout/service"
	performancerepository "github.com/smallbiznis/incentra/internal/performance/repository"
	performanceservice "github.com/smallbiznis/incentra/internal/performance/service"
	policydomain "github.com/smallbiznis/incentra/internal/policy/domain"
	policyrepository "github.com/smallbiznis/incentra/internal/policy/repository"
	policyservice "github.com/smallbiznis/incentra/internal/policy/service"
	ruledomain "github.com/smallbiznis/incentra/internal/rule/domain"
	rulerepository "github.com/smallbiznis/incentra/internal/rule/repository"
	ruleservice "github.com/smallbiznis/incentra/internal/rule/service"
	targetdomain "github.com/smallbiznis/incentra/internal/target/domain"
	targetrepository "github.com/smallbiznis/incentra/internal/target/repository"
	targetservice "github.com/smallbiznis/incentra/internal/target/service"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	server *Server
	engine *gin.Engine
	db     *gorm.DB
	clock  *clock.FakeClock
	genID  *snowflake.Node
	orgID  snowflake.ID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&dealdomain.Deal{},
		&policydomain.IncentivePolicy{},
		&ruledomain.AlertRule{},
		&targetdomain.SalesTarget{},
		&auditdomain.AuditLog{},
	))

	genID, err := snowflake.NewNode(5)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	cfg := config.Config{
		HTTPAddr: ":0",
		Incentive: config.IncentiveConfig{
			RiskAmountThreshold:      50_000,
			SettlementLockTTLSeconds: 30,
			DefaultMonthlyTarget:     100_000,
		},
	}

	m, err := metrics.New(metrics.Config{}, noop.NewMeterProvider())
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, Clock: fakeClock, GenID: genID,
		Repo: auditrepository.Provide(),
	})
	policySvc := policyservice.NewService(policyservice.Params{
		DB: db, Log: log, Clock: fakeClock, GenID: genID,
		Repo: policyrepository.Provide(), AuditSvc: auditSvc,
	})
	ruleSvc := ruleservice.NewService(ruleservice.Params{
		DB: db, Log: log, Clock: fakeClock, GenID: genID,
		Repo: rulerepository.Provide(), AuditSvc: auditSvc, Metrics: m,
	})
	dealSvc := dealservice.NewService(dealservice.Params{
		Cfg: cfg, DB: db, Log: log, Clock: fakeClock, GenID: genID,
		Repo: dealrepository.Provide(), PolicyRepo: policyrepository.Provide(),
		Rules: ruleSvc, AuditSvc: auditSvc, Metrics: m,
	})
	payoutSvc := payoutservice.NewService(payoutservice.Params{
		Cfg: cfg, DB: db, Log: log, Clock: fakeClock, GenID: genID,
		Repo: payoutrepository.Provide(), AuditSvc: auditSvc, Metrics: m,
	})
	performanceSvc := performanceservice.NewService(performanceservice.Params{
		DB: db, Log: log, Clock: fakeClock,
		Repo: performancerepository.Provide(),
	})
	targetSvc := targetservice.NewService(targetservice.Params{
		Cfg: cfg, DB: db, Log: log, Clock: fakeClock, GenID: genID,
		Repo: targetrepository.Provide(), AuditSvc: auditSvc,
	})

	engine := gin.New()
	engine.Use(RequestContextMiddleware())
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:            engine,
		Cfg:            cfg,
		DB:             db,
		GenID:          genID,
		PolicySvc:      policySvc,
		DealSvc:        dealSvc,
		PayoutSvc:      payoutSvc,
		PerformanceSvc: performanceSvc,
		TargetSvc:      targetSvc,
		RuleSvc:        ruleSvc,
		AuditSvc:       auditSvc,
	})
	srv.RegisterAPIRoutes()
	srv.RegisterAdminRoutes()

	return &testServer{
		server: srv,
		engine: engine,
		db:     db,
		clock:  fakeClock,
		genID:  genID,
		orgID:  genID.Generate(),
	}
}
