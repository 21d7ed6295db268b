package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/smallbiznis/marketfee/internal/usage/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, snapshot *usagedomain.Snapshot) error {
	return db.WithContext(ctx).Omit("Tariff").Create(snapshot).Error
}

func (r *repo) Latest(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) (*usagedomain.Snapshot, error) {
	var snapshot usagedomain.Snapshot
	err := db.WithContext(ctx).
		Preload("Tariff").
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC, id DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *repo) EffectiveAt(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, t time.Time) (*usagedomain.Snapshot, error) {
	var snapshot usagedomain.Snapshot
	err := db.WithContext(ctx).
		Preload("Tariff").
		Where("vendor_id = ? AND created_at <= ?", vendorID, t).
		Order("created_at DESC, id DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *repo) Within(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, start, end time.Time) ([]usagedomain.Snapshot, error) {
	var snapshots []usagedomain.Snapshot
	err := db.WithContext(ctx).
		Preload("Tariff").
		Where("vendor_id = ? AND created_at > ? AND created_at <= ?", vendorID, start, end).
		Order("created_at ASC, id ASC").
		Find(&snapshots).Error
	return snapshots, err
}
