// Package domain contains the tariff tier table and selection contract.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketfee/internal/period"
	"gorm.io/gorm"
)

// ErrNoTier means no active tier covers the given usage. That is a
// configuration error: the tier table must always be closed upward.
// Callers must alert, never substitute a default tier.
var ErrNoTier = errors.New("no_tier_for_usage")

// Tariff is a priced usage bracket. A vendor is billed the daily rate
// of the cheapest active tier whose limits its usage stays under.
// Rows referenced by a usage snapshot are never deleted, only
// deactivated, so historical bills stay reconstructible.
type Tariff struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Name        string       `gorm:"type:text;not null"`
	Description string       `gorm:"type:text"`
	Slug        string       `gorm:"type:text;not null;uniqueIndex"`
	DailyCents  int64        `gorm:"not null;default:0"`
	Active      bool         `gorm:"not null;default:true;index"`
	// QuantityLimit and PriceLimitCents bound the usage this tier covers.
	QuantityLimit   int64     `gorm:"not null"`
	PriceLimitCents int64     `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tariff) TableName() string { return "tariffs" }

// Total prices the tier over [start, end), whole days only.
func (t Tariff) Total(start, end time.Time) int64 {
	return t.TotalDays(period.DaysBetween(start, end))
}

// TotalDays prices the tier for a day count.
func (t Tariff) TotalDays(days int) int64 {
	if days <= 0 {
		return 0
	}
	return t.DailyCents * int64(days)
}

// MonthlyCents is the display price for a 30-day month.
func (t Tariff) MonthlyCents() int64 {
	return t.DailyCents * 30
}

type Repository interface {
	List(ctx context.Context, db *gorm.DB) ([]Tariff, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tariff, error)
	// FindCheapestCovering returns the active tier with the lowest daily
	// rate whose limits are not exceeded by the usage pair, or nil.
	FindCheapestCovering(ctx context.Context, db *gorm.DB, quantity int64, priceCents int64) (*Tariff, error)
}

type Service interface {
	List(ctx context.Context) ([]Tariff, error)
	// SelectTier picks the tier for a usage pair or fails with ErrNoTier.
	SelectTier(ctx context.Context, quantity int64, priceCents int64) (*Tariff, error)
}
