// Package domain contains the append-only usage snapshot log.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	"gorm.io/gorm"
)

// ErrNoSnapshot means a vendor has no usage history covering a billed
// interval. Every vendor gets a bootstrap snapshot at opening, so this
// indicates corrupted history and aborts the vendor's billing run.
var ErrNoSnapshot = errors.New("no_usage_snapshot")

// Snapshot is one point-in-time record of a vendor's listing count and
// value, pinned to the tariff tier selected at creation time. The log
// is append-only and ordered by CreatedAt.
type Snapshot struct {
	ID         snowflake.ID        `gorm:"primaryKey"`
	VendorID   snowflake.ID        `gorm:"not null;index:idx_snapshots_vendor_created"`
	CreatedAt  time.Time           `gorm:"not null;index:idx_snapshots_vendor_created"`
	Quantity   int64               `gorm:"not null;default:0"`
	PriceCents int64               `gorm:"not null;default:0"`
	TariffID   snowflake.ID        `gorm:"not null"`
	Tariff     tariffdomain.Tariff `gorm:"foreignKey:TariffID"`
}

// TableName sets the database table name.
func (Snapshot) TableName() string { return "usage_snapshots" }

// SameUsage reports no-op equality: quantity and price only, the
// pinned tariff is deliberately excluded.
func (s Snapshot) SameUsage(other Snapshot) bool {
	return s.Quantity == other.Quantity && s.PriceCents == other.PriceCents
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, snapshot *Snapshot) error
	// Latest returns the newest snapshot for a vendor, or nil.
	Latest(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (*Snapshot, error)
	// EffectiveAt returns the newest snapshot created at or before t, or nil.
	EffectiveAt(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, t time.Time) (*Snapshot, error)
	// Within returns snapshots with start < created_at <= end, ascending.
	Within(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, start, end time.Time) ([]Snapshot, error)
}

type Service interface {
	// RecordOfferChange re-evaluates a vendor's usage after an offer
	// mutation. Appends a snapshot unless usage is unchanged; notifies
	// the vendor when the applicable tariff moved.
	RecordOfferChange(ctx context.Context, vendorID snowflake.ID) (*Snapshot, error)
	// Bootstrap appends the vendor's initial snapshot unconditionally.
	Bootstrap(ctx context.Context, vendorID snowflake.ID) (*Snapshot, error)
	Current(ctx context.Context, vendorID snowflake.ID) (*Snapshot, error)
}
