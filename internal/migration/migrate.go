// Package migration bootstraps the schema via gorm auto-migration.
package migration

import (
	billingdomain "github.com/smallbiznis/marketfee/internal/billing/domain"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	"github.com/smallbiznis/marketfee/internal/seed"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	usagedomain "github.com/smallbiznis/marketfee/internal/usage/domain"
	vendordomain "github.com/smallbiznis/marketfee/internal/vendors/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migration",
	fx.Invoke(func(conn *gorm.DB) error {
		if err := Run(conn); err != nil {
			return err
		}
		return seed.EnsureTariffs(conn)
	}),
)

// Models lists every persisted model, in dependency order.
func Models() []any {
	return []any{
		&vendordomain.Vendor{},
		&vendordomain.Offer{},
		&tariffdomain.Tariff{},
		&usagedomain.Snapshot{},
		&billingdomain.Billing{},
		&billingdomain.Bill{},
		&billingdomain.BillItem{},
		&discountdomain.Discount{},
		&discountdomain.Campaign{},
		&discountdomain.CampaignRedemption{},
	}
}

func Run(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
