package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() discountdomain.Repository {
	return &repo{}
}

func (r *repo) BestUsable(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (*discountdomain.Discount, error) {
	var discount discountdomain.Discount
	err := db.WithContext(ctx).
		Where("vendor_id = ? AND usages > 0", vendorID).
		Order("percent DESC, id ASC").
		First(&discount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

func (r *repo) ListUsable(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]discountdomain.Discount, error) {
	var discounts []discountdomain.Discount
	err := db.WithContext(ctx).
		Where("vendor_id = ? AND usages > 0", vendorID).
		Order("percent DESC, id ASC").
		Find(&discounts).Error
	return discounts, err
}

func (r *repo) ListByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]discountdomain.Discount, error) {
	var discounts []discountdomain.Discount
	err := db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("usages DESC, id ASC").
		Find(&discounts).Error
	return discounts, err
}

func (r *repo) Consume(ctx context.Context, db *gorm.DB, discountID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE discounts SET usages = usages - 1 WHERE id = ? AND usages > 0`,
		discountID,
	).Error
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, discount *discountdomain.Discount) error {
	return db.WithContext(ctx).Create(discount).Error
}

func (r *repo) FindCampaignByCode(ctx context.Context, db *gorm.DB, code string) (*discountdomain.Campaign, error) {
	var campaign discountdomain.Campaign
	err := db.WithContext(ctx).
		Preload("Discount").
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

func (r *repo) HasRedeemed(ctx context.Context, db *gorm.DB, campaignID, vendorID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&discountdomain.CampaignRedemption{}).
		Where("campaign_id = ? AND vendor_id = ?", campaignID, vendorID).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) InsertRedemption(ctx context.Context, db *gorm.DB, campaignID, vendorID snowflake.ID) error {
	return db.WithContext(ctx).Create(&discountdomain.CampaignRedemption{
		CampaignID: campaignID,
		VendorID:   vendorID,
		CreatedAt:  time.Now().UTC(),
	}).Error
}

func (r *repo) DecrementCampaignUsages(ctx context.Context, db *gorm.DB, campaignID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE campaigns SET usages = usages - 1 WHERE id = ? AND usages > 0`,
		campaignID,
	).Error
}
