package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/marketfee/internal/billing/domain"
	"github.com/smallbiznis/marketfee/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() billingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, billing *billingdomain.Billing) error {
	return tx.WithContext(ctx).Create(billing).Error
}

func (r *repo) Save(ctx context.Context, tx *gorm.DB, billing *billingdomain.Billing) error {
	billing.UpdatedAt = time.Now().UTC()
	return tx.WithContext(ctx).Save(billing).Error
}

func (r *repo) FindByVendor(ctx context.Context, tx *gorm.DB, vendorID snowflake.ID) (*billingdomain.Billing, error) {
	return r.findByVendor(ctx, tx.WithContext(ctx), vendorID)
}

func (r *repo) FindByVendorForUpdate(ctx context.Context, tx *gorm.DB, vendorID snowflake.ID) (*billingdomain.Billing, error) {
	return r.findByVendor(ctx, db.ForUpdate(tx.WithContext(ctx)), vendorID)
}

func (r *repo) findByVendor(ctx context.Context, stmt *gorm.DB, vendorID snowflake.ID) (*billingdomain.Billing, error) {
	var billing billingdomain.Billing
	err := stmt.Where("vendor_id = ?", vendorID).First(&billing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &billing, nil
}

func (r *repo) ListDue(ctx context.Context, tx *gorm.DB, before time.Time) ([]billingdomain.Billing, error) {
	var billings []billingdomain.Billing
	err := tx.WithContext(ctx).
		Where("active = ? AND next_billing <= ?", true, before).
		Order("next_billing ASC, id ASC").
		Find(&billings).Error
	return billings, err
}

func (r *repo) InsertBill(ctx context.Context, tx *gorm.DB, bill *billingdomain.Bill, items []billingdomain.BillItem) error {
	if err := tx.WithContext(ctx).Create(bill).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(items).Error
}

func (r *repo) FindBillForPeriodEnd(ctx context.Context, tx *gorm.DB, vendorID snowflake.ID, periodEnd time.Time) (*billingdomain.Bill, error) {
	var bill billingdomain.Bill
	err := tx.WithContext(ctx).
		Where("vendor_id = ? AND period_end = ?", vendorID, periodEnd).
		Order("issued_at DESC, id DESC").
		First(&bill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

func (r *repo) ListBills(ctx context.Context, tx *gorm.DB, vendorID snowflake.ID) ([]billingdomain.Bill, error) {
	var bills []billingdomain.Bill
	err := tx.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("period_end DESC, id DESC").
		Find(&bills).Error
	return bills, err
}

func (r *repo) ListBillItems(ctx context.Context, tx *gorm.DB, billID snowflake.ID) ([]billingdomain.BillItem, error) {
	var items []billingdomain.BillItem
	err := tx.WithContext(ctx).
		Where("bill_id = ?", billID).
		Order("position ASC").
		Find(&items).Error
	return items, err
}
