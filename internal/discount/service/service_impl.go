package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketfee/internal/clock"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	"github.com/smallbiznis/marketfee/internal/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  discountdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  discountdomain.Repository
}

func NewService(p ServiceParam) discountdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("discount.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CutThePrice(ctx context.Context, tx *gorm.DB, vendorID snowflake.ID, totalCents int64) (*discountdomain.Applied, error) {
	if totalCents <= 0 {
		// Free months must not burn grant uses.
		return nil, nil
	}

	best, err := s.repo.BestUsable(ctx, tx, vendorID)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, nil
	}

	if err := s.repo.Consume(ctx, tx, best.ID); err != nil {
		return nil, err
	}

	return &discountdomain.Applied{
		Name:        best.Name,
		AmountCents: -money.Percent(totalCents, best.Percent),
		TaxPercent:  0,
	}, nil
}

func (s *Service) ListUsable(ctx context.Context, vendorID snowflake.ID) ([]discountdomain.Discount, error) {
	return s.repo.ListUsable(ctx, s.db, vendorID)
}

func (s *Service) ListByVendor(ctx context.Context, vendorID snowflake.ID) ([]discountdomain.Discount, error) {
	return s.repo.ListByVendor(ctx, s.db, vendorID)
}

func (s *Service) Redeem(ctx context.Context, code string, vendorID snowflake.ID) (*discountdomain.Discount, error) {
	var granted *discountdomain.Discount

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		campaign, err := s.repo.FindCampaignByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if campaign == nil {
			return discountdomain.ErrCampaignNotFound
		}
		if campaign.Usages <= 0 {
			return discountdomain.ErrCampaignExhausted
		}
		if !campaign.Expiration.After(s.clock.Now()) {
			return discountdomain.ErrCampaignExpired
		}

		redeemed, err := s.repo.HasRedeemed(ctx, tx, campaign.ID, vendorID)
		if err != nil {
			return err
		}
		if redeemed {
			return discountdomain.ErrAlreadyRedeemed
		}

		if err := s.repo.DecrementCampaignUsages(ctx, tx, campaign.ID); err != nil {
			return err
		}
		if err := s.repo.InsertRedemption(ctx, tx, campaign.ID, vendorID); err != nil {
			return err
		}

		grant := &discountdomain.Discount{
			ID:       s.genID.Generate(),
			VendorID: &vendorID,
			Name:     campaign.Discount.Name,
			Percent:  campaign.Discount.Percent,
			Usages:   campaign.Discount.Usages,
		}
		if err := s.repo.Insert(ctx, tx, grant); err != nil {
			return err
		}
		granted = grant
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("campaign redeemed",
		zap.String("code", code),
		zap.String("vendor_id", vendorID.String()),
		zap.Int("percent", granted.Percent),
	)
	return granted, nil
}
