// Command billbatch runs a single due-billing sweep and exits. Meant
// for cron; a vendor failing to bill is logged and never fails the run.
package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketfee/internal/billing"
	"github.com/smallbiznis/marketfee/internal/clock"
	"github.com/smallbiznis/marketfee/internal/config"
	"github.com/smallbiznis/marketfee/internal/discount"
	"github.com/smallbiznis/marketfee/internal/migration"
	"github.com/smallbiznis/marketfee/internal/notify"
	"github.com/smallbiznis/marketfee/internal/scheduler"
	"github.com/smallbiznis/marketfee/internal/tariff"
	"github.com/smallbiznis/marketfee/internal/usage"
	"github.com/smallbiznis/marketfee/internal/vendors"
	"github.com/smallbiznis/marketfee/pkg/db"
	"github.com/smallbiznis/marketfee/pkg/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
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

		fx.Provide(scheduler.New),
		fx.Invoke(RunSweep),
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

func RunSweep(lc fx.Lifecycle, sched *scheduler.Scheduler, logger *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := sched.RunOnce(context.Background()); err != nil {
					logger.Error("sweep finished with errors", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
	})
}
