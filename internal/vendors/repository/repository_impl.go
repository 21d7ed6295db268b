package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	vendordomain "github.com/smallbiznis/marketfee/internal/vendors/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() vendordomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*vendordomain.Vendor, error) {
	var vendor vendordomain.Vendor
	err := db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, vendordomain.ErrVendorNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *repo) ActiveOfferStats(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (vendordomain.OfferStats, error) {
	var stats vendordomain.OfferStats
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) AS quantity, COALESCE(SUM(unit_price_cents), 0) AS price_cents
		 FROM offers
		 WHERE vendor_id = ? AND active = ? AND quantity <> 0`,
		vendorID,
		true,
	).Scan(&stats).Error
	if err != nil {
		return vendordomain.OfferStats{}, err
	}
	return stats, nil
}
