package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/incentra/internal/audit"
	"github.com/smallbiznis/incentra/internal/clock"
	"github.com/smallbiznis/incentra/internal/config"
	"github.com/smallbiznis/incentra/internal/deal"
	"github.com/smallbiznis/incentra/internal/migration"
	"github.com/smallbiznis/incentra/internal/observability"
	"github.com/smallbiznis/incentra/internal/payout"
	"github.com/smallbiznis/incentra/internal/performance"
	"github.com/smallbiznis/incentra/internal/policy"
	"github.com/smallbiznis/incentra/internal/rule"
	"github.com/smallbiznis/incentra/internal/server"
	"github.com/smallbiznis/incentra/internal/target"
	"github.com/smallbiznis/incentra/pkg/db"
	"github.com/smallbiznis/incentra/pkg/redisconn"
	"go.uber.org/fx"
)

// The admin binary serves the review and settlement surface: deal
// approval, policies, payouts, rules, targets, and the audit trail.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		redisconn.Module,
		migration.Module,

		audit.Module,
		policy.Module,
		deal.Module,
		payout.Module,
		performance.Module,
		target.Module,
		rule.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAdminRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	return node
}
