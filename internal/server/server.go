package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/incentra/internal/audit"
	auditdomain "github.com/smallbiznis/incentra/internal/audit/domain"
	"github.com/smallbiznis/incentra/internal/config"
	"github.com/smallbiznis/incentra/internal/deal"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	"github.com/smallbiznis/incentra/internal/observability"
	obslogger "github.com/smallbiznis/incentra/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/incentra/internal/observability/metrics"
	obstracing "github.com/smallbiznis/incentra/internal/observability/tracing"
	"github.com/smallbiznis/incentra/internal/payout"
	payoutdomain "github.com/smallbiznis/incentra/internal/payout/domain"
	"github.com/smallbiznis/incentra/internal/performance"
	performancedomain "github.com/smallbiznis/incentra/internal/performance/domain"
	"github.com/smallbiznis/incentra/internal/policy"
	policydomain "github.com/smallbiznis/incentra/internal/policy/domain"
	"github.com/smallbiznis/incentra/internal/rule"
	ruledomain "github.com/smallbiznis/incentra/internal/rule/domain"
	"github.com/smallbiznis/incentra/internal/target"
	targetdomain "github.com/smallbiznis/incentra/internal/target/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	audit.Module,
	policy.Module,
	deal.Module,
	payout.Module,
	performance.Module,
	target.Module,
	rule.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterAPIRoutes()
		s.RegisterAdminRoutes()
	}),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(RequestContextMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	genID          *snowflake.Node
	policySvc      policydomain.Service
	dealSvc        dealdomain.Service
	payoutSvc      payoutdomain.Service
	performanceSvc performancedomain.Service
	targetSvc      targetdomain.Service
	ruleSvc        ruledomain.Service
	auditSvc       auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	GenID          *snowflake.Node
	PolicySvc      policydomain.Service
	DealSvc        dealdomain.Service
	PayoutSvc      payoutdomain.Service
	PerformanceSvc performancedomain.Service
	TargetSvc      targetdomain.Service
	RuleSvc        ruledomain.Service
	AuditSvc       auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		genID:          p.GenID,
		policySvc:      p.PolicySvc,
		dealSvc:        p.DealSvc,
		payoutSvc:      p.PayoutSvc,
		performanceSvc: p.PerformanceSvc,
		targetSvc:      p.TargetSvc,
		ruleSvc:        p.RuleSvc,
		auditSvc:       p.AuditSvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterAPIRoutes mounts the sales-facing surface: logging deals,
// submitting them, and reading back performance.
func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")

	deals := v1.Group("/deals")
	deals.POST("", s.CreateDeal)
	deals.GET("", s.ListDeals)
	deals.GET("/:id", s.GetDeal)
	deals.POST("/:id/submit", s.SubmitDeal)

	v1.GET("/performance/:owner_id", s.GetPerformanceSummary)
	v1.GET("/leaderboard", s.GetLeaderboard)
	v1.GET("/targets/:owner_id", s.GetTarget)
}

// RegisterAdminRoutes mounts review, settlement, and configuration.
func (s *Server) RegisterAdminRoutes() {
	v1 := s.engine.Group("/v1")

	deals := v1.Group("/deals")
	deals.POST("/:id/approve", s.ApproveDeal)
	deals.POST("/:id/reject", s.RejectDeal)

	policies := v1.Group("/policies")
	policies.POST("", s.CreatePolicy)
	policies.GET("", s.ListPolicies)
	policies.GET("/:id", s.GetPolicy)
	policies.PATCH("/:id", s.UpdatePolicy)
	policies.POST("/:id/deactivate", s.DeactivatePolicy)

	payouts := v1.Group("/payouts")
	payouts.GET("", s.ListPayouts)
	payouts.POST("/mark-paid", s.MarkPayoutsPaid)
	payouts.GET("/summary", s.GetPayoutSummary)

	targets := v1.Group("/targets")
	targets.POST("", s.SetTarget)
	targets.GET("", s.ListTargets)
	targets.DELETE("/:owner_id", s.DeleteTarget)

	rules := v1.Group("/rules")
	rules.GET("", s.ListRules)
	rules.POST("", s.SaveRule)
	rules.DELETE("/:id", s.DeleteRule)

	v1.GET("/audit-logs", s.ListAuditLogs)
}
