// Package seed bootstraps the tariff reference table.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	"gorm.io/gorm"
)

type tierSpec struct {
	name            string
	slug            string
	dailyCents      int64
	quantityLimit   int64
	priceLimitCents int64
}

// The ladder must be closed upward: the top tier has to cover any
// usage a vendor can realistically reach, otherwise tier selection
// fails hard.
var defaultTiers = []tierSpec{
	{name: "Free", slug: "free", dailyCents: 0, quantityLimit: 3, priceLimitCents: 3_000},
	{name: "Starter", slug: "starter", dailyCents: 115, quantityLimit: 10, priceLimitCents: 10_000},
	{name: "Standard", slug: "standard", dailyCents: 250, quantityLimit: 50, priceLimitCents: 100_000},
	{name: "Business", slug: "business", dailyCents: 700, quantityLimit: 200, priceLimitCents: 1_000_000},
	{name: "Enterprise", slug: "enterprise", dailyCents: 7_000, quantityLimit: 1_000_000, priceLimitCents: 1_000_000_000},
}

// EnsureTariffs inserts the default tier ladder when missing. Existing
// rows are left untouched, tariffs are immutable reference data.
func EnsureTariffs(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, spec := range defaultTiers {
			var count int64
			if err := tx.Model(&tariffdomain.Tariff{}).Where("slug = ?", spec.slug).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			tier := &tariffdomain.Tariff{
				ID:              node.Generate(),
				Name:            spec.name,
				Slug:            spec.slug,
				DailyCents:      spec.dailyCents,
				Active:          true,
				QuantityLimit:   spec.quantityLimit,
				PriceLimitCents: spec.priceLimitCents,
			}
			if err := tx.Create(tier).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
