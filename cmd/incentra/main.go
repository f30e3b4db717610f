package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/incentra/internal/clock"
	"github.com/smallbiznis/incentra/internal/config"
	"github.com/smallbiznis/incentra/internal/migration"
	"github.com/smallbiznis/incentra/internal/observability"
	"github.com/smallbiznis/incentra/internal/server"
	"github.com/smallbiznis/incentra/pkg/db"
	"github.com/smallbiznis/incentra/pkg/redisconn"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		redisconn.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
