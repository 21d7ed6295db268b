package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketfee/internal/billing"
	"github.com/smallbiznis/marketfee/internal/clock"
	"github.com/smallbiznis/marketfee/internal/config"
	"github.com/smallbiznis/marketfee/internal/discount"
	"github.com/smallbiznis/marketfee/internal/migration"
	"github.com/smallbiznis/marketfee/internal/notify"
	"github.com/smallbiznis/marketfee/internal/scheduler"
	"github.com/smallbiznis/marketfee/internal/server"
	"github.com/smallbiznis/marketfee/internal/tariff"
	"github.com/smallbiznis/marketfee/internal/usage"
	"github.com/smallbiznis/marketfee/internal/vendors"
	"github.com/smallbiznis/marketfee/pkg/db"
	"github.com/smallbiznis/marketfee/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		config.BillingModule,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		vendor.Module,
		tariff.Module,
		usage.Module,
		discount.Module,
		notify.Module,
		billing.Module,

		server.Module,
		scheduler.Module,
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
