// Package domain contains the discount grants and promo campaigns
// consumed during billing.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrCampaignNotFound  = errors.New("campaign_not_found")
	ErrCampaignExpired   = errors.New("campaign_expired")
	ErrCampaignExhausted = errors.New("campaign_exhausted")
	ErrAlreadyRedeemed   = errors.New("campaign_already_redeemed")
)

// Discount is a consumable percentage reduction. One use offsets one
// monthly sub-interval of a bill. Rows with VendorID unset are
// campaign templates, never selected for billing.
type Discount struct {
	ID       snowflake.ID  `gorm:"primaryKey"`
	VendorID *snowflake.ID `gorm:"index"`
	Name     string        `gorm:"type:text;not null"`
	Percent  int           `gorm:"not null;default:100"`
	// Usages counts remaining applications, in months.
	Usages    int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Discount) TableName() string { return "discounts" }

// Campaign is a redeemable promo code that mints discount grants from
// its template.
type Campaign struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Code       string       `gorm:"type:text;not null;uniqueIndex"`
	Expiration time.Time    `gorm:"not null"`
	Usages     int          `gorm:"not null"`
	DiscountID snowflake.ID `gorm:"not null"`
	Discount   Discount     `gorm:"foreignKey:DiscountID"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Campaign) TableName() string { return "campaigns" }

// CampaignRedemption records that a vendor used a campaign, at most once.
type CampaignRedemption struct {
	CampaignID snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	VendorID   snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CampaignRedemption) TableName() string { return "campaign_redemptions" }

// Applied is one consumed discount ready to be appended to a bill as a
// negative line.
type Applied struct {
	Name        string
	AmountCents int64
	TaxPercent  int
}

type Repository interface {
	// BestUsable returns the highest-percent grant with uses left for the
	// vendor; percent ties resolve to the lowest id so repeated runs pick
	// the same grant.
	BestUsable(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (*Discount, error)
	ListUsable(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]Discount, error)
	ListByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]Discount, error)
	Consume(ctx context.Context, db *gorm.DB, discountID snowflake.ID) error
	Insert(ctx context.Context, db *gorm.DB, discount *Discount) error
	FindCampaignByCode(ctx context.Context, db *gorm.DB, code string) (*Campaign, error)
	HasRedeemed(ctx context.Context, db *gorm.DB, campaignID, vendorID snowflake.ID) (bool, error)
	InsertRedemption(ctx context.Context, db *gorm.DB, campaignID, vendorID snowflake.ID) error
	DecrementCampaignUsages(ctx context.Context, db *gorm.DB, campaignID snowflake.ID) error
}

type Service interface {
	// CutThePrice consumes the vendor's best usable grant against a
	// positive month total within the caller's transaction. Returns nil
	// when the total is not positive or no grant is usable.
	CutThePrice(ctx context.Context, tx *gorm.DB, vendorID snowflake.ID, totalCents int64) (*Applied, error)
	ListUsable(ctx context.Context, vendorID snowflake.ID) ([]Discount, error)
	ListByVendor(ctx context.Context, vendorID snowflake.ID) ([]Discount, error)
	// Redeem turns a campaign code into a fresh grant for the vendor.
	Redeem(ctx context.Context, code string, vendorID snowflake.ID) (*Discount, error)
}
