package service

import (
	"context"

	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo tariffdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo tariffdomain.Repository
}

func NewService(p ServiceParam) tariffdomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("tariff.service"),
		repo: p.Repo,
	}
}

func (s *Service) List(ctx context.Context) ([]tariffdomain.Tariff, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) SelectTier(ctx context.Context, quantity int64, priceCents int64) (*tariffdomain.Tariff, error) {
	tier, err := s.repo.FindCheapestCovering(ctx, s.db, quantity, priceCents)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		// The tier table is supposed to cover every reachable usage pair.
		s.log.Error("no active tariff covers usage",
			zap.Int64("quantity", quantity),
			zap.Int64("price_cents", priceCents),
		)
		return nil, tariffdomain.ErrNoTier
	}
	return tier, nil
}
