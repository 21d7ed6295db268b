package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tariffdomain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]tariffdomain.Tariff, error) {
	var tariffs []tariffdomain.Tariff
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("daily_cents ASC").
		Find(&tariffs).Error
	return tariffs, err
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tariffdomain.Tariff, error) {
	var tariff tariffdomain.Tariff
	err := db.WithContext(ctx).Where("id = ?", id).First(&tariff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tariff, nil
}

func (r *repo) FindCheapestCovering(ctx context.Context, db *gorm.DB, quantity int64, priceCents int64) (*tariffdomain.Tariff, error) {
	var tariff tariffdomain.Tariff
	err := db.WithContext(ctx).
		Where("active = ? AND quantity_limit >= ? AND price_limit_cents >= ?", true, quantity, priceCents).
		Order("daily_cents ASC").
		First(&tariff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tariff, nil
}
