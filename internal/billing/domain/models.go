// Package domain contains the billing period tracker and the issued
// bill records.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrTooEarly means Bill was called before the period end. End the
	// period prematurely with Close instead.
	ErrTooEarly        = errors.New("billing_period_not_over")
	ErrBillingNotFound = errors.New("billing_not_found")
	// ErrBillingClosed rejects Bill on a deactivated tracker; a closed
	// vendor is settled once by Close and never again.
	ErrBillingClosed = errors.New("billing_closed")
	ErrInvalidPeriod = errors.New("invalid_billing_period")
	// ErrNegativeTotal guards the clamp invariant; a bill persisted with
	// a negative total would be a data-integrity bug.
	ErrNegativeTotal = errors.New("negative_bill_total")
)

// Periods lists the billing cadences vendors may choose, in months.
var Periods = []int{1, 3, 6, 12}

// ValidPeriod reports whether months is an offered cadence.
func ValidPeriod(months int) bool {
	for _, p := range Periods {
		if p == months {
			return true
		}
	}
	return false
}

// Billing is the per-vendor billing period tracker, one row per vendor.
//
// NextBilling is always derived as LastBilled + PeriodMonths calendar
// months. A cadence change is written to NextPeriodMonths and takes
// effect only when a save coincides with a period boundary.
type Billing struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	VendorID         snowflake.ID `gorm:"not null;uniqueIndex"`
	PeriodMonths     int          `gorm:"not null;default:3"`
	NextPeriodMonths int          `gorm:"not null;default:3"`
	LastBilled       time.Time    `gorm:"not null"`
	NextBilling      time.Time    `gorm:"not null;index"`
	Active           bool         `gorm:"not null;default:true;index"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Billing) TableName() string { return "billings" }

// Bill is the invoice issued for one closed billing period. Immutable
// once issued.
type Bill struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	VendorID    snowflake.ID      `gorm:"not null;index"`
	PeriodStart time.Time         `gorm:"not null"`
	PeriodEnd   time.Time         `gorm:"not null;index"`
	TotalCents  int64             `gorm:"not null;default:0"`
	IssuedAt    time.Time         `gorm:"not null"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb"`
}

// TableName sets the database table name.
func (Bill) TableName() string { return "bills" }

// BillItem is one line on a bill. Position preserves presentation
// order; discount lines carry a negative amount at zero tax.
type BillItem struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	BillID      snowflake.ID `gorm:"not null;index"`
	Position    int          `gorm:"not null"`
	Description string       `gorm:"type:text;not null"`
	AmountCents int64        `gorm:"not null"`
	TaxPercent  int          `gorm:"not null;default:0"`
}

// TableName sets the database table name.
func (BillItem) TableName() string { return "bill_items" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, billing *Billing) error
	Save(ctx context.Context, db *gorm.DB, billing *Billing) error
	FindByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (*Billing, error)
	// FindByVendorForUpdate locks the tracker row for the span of the
	// surrounding transaction, serializing concurrent runs per vendor.
	FindByVendorForUpdate(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (*Billing, error)
	ListDue(ctx context.Context, db *gorm.DB, before time.Time) ([]Billing, error)
	InsertBill(ctx context.Context, db *gorm.DB, bill *Bill, items []BillItem) error
	FindBillForPeriodEnd(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, periodEnd time.Time) (*Bill, error)
	ListBills(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]Bill, error)
	ListBillItems(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]BillItem, error)
}

type Service interface {
	// Bill settles the vendor's completed billing period. Idempotent on
	// re-entry within the same day; ErrTooEarly before the period end.
	Bill(ctx context.Context, vendorID snowflake.ID) (*Bill, error)
	// Close settles the partial running period and deactivates the
	// tracker. Terminal.
	Close(ctx context.Context, vendorID snowflake.ID) (*Bill, error)
	// RunDueBilling bills every active vendor whose period has ended.
	// One vendor's failure never aborts the sweep.
	RunDueBilling(ctx context.Context) error

	OnVendorOpened(ctx context.Context, vendorID snowflake.ID) error
	OnVendorClosed(ctx context.Context, vendorID snowflake.ID) error

	GetByVendor(ctx context.Context, vendorID snowflake.ID) (*Billing, error)
	// SetNextPeriod stores a pending cadence change.
	SetNextPeriod(ctx context.Context, vendorID snowflake.ID, months int) (*Billing, error)
	ListBills(ctx context.Context, vendorID snowflake.ID) ([]Bill, error)
	ListBillItems(ctx context.Context, billID snowflake.ID) ([]BillItem, error)
}
