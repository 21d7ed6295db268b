// Package domain contains persistence models for vendors and their
// listings. Only the slice of the catalog that billing consumes lives
// here; the storefront itself is a separate application.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var ErrVendorNotFound = errors.New("vendor_not_found")

// Vendor represents a selling party on the marketplace.
type Vendor struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	Email     string       `gorm:"type:text;not null"`
	Active    bool         `gorm:"not null;default:true;index"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Vendor) TableName() string { return "vendors" }

// Offer is a single active listing. Billing only ever aggregates
// offers; their lifecycle belongs to the catalog application.
type Offer struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	VendorID       snowflake.ID `gorm:"not null;index"`
	Active         bool         `gorm:"not null;default:true"`
	Quantity       int64        `gorm:"not null;default:0"`
	UnitPriceCents int64        `gorm:"not null;default:0"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Offer) TableName() string { return "offers" }

// OfferStats is the usage pair billing snapshots are built from.
type OfferStats struct {
	Quantity   int64
	PriceCents int64
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Vendor, error)
	// ActiveOfferStats counts active offers with stock remaining and sums
	// their unit prices.
	ActiveOfferStats(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (OfferStats, error)
}
