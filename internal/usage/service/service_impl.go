package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketfee/internal/clock"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	"github.com/smallbiznis/marketfee/internal/notify"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	usagedomain "github.com/smallbiznis/marketfee/internal/usage/domain"
	vendordomain "github.com/smallbiznis/marketfee/internal/vendors/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo      usagedomain.Repository
	tariffs   tariffdomain.Service
	vendors   vendordomain.Repository
	discounts discountdomain.Service
	notifier  notify.Notifier
}

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      usagedomain.Repository
	Tariffs   tariffdomain.Service
	Vendors   vendordomain.Repository
	Discounts discountdomain.Service
	Notifier  notify.Notifier
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("usage.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		tariffs:   p.Tariffs,
		vendors:   p.Vendors,
		discounts: p.Discounts,
		notifier:  p.Notifier,
	}
}

func (s *Service) RecordOfferChange(ctx context.Context, vendorID snowflake.ID) (*usagedomain.Snapshot, error) {
	prev, err := s.repo.Latest(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.compute(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if prev != nil && prev.SameUsage(*snapshot) {
		// Usage numbers unchanged, keep the log free of duplicates.
		return prev, nil
	}

	if err := s.repo.Insert(ctx, s.db, snapshot); err != nil {
		return nil, err
	}

	if prev == nil || prev.TariffID != snapshot.TariffID {
		s.notifyTariffChanged(ctx, vendorID, &snapshot.Tariff)
	}
	return snapshot, nil
}

func (s *Service) Bootstrap(ctx context.Context, vendorID snowflake.ID) (*usagedomain.Snapshot, error) {
	snapshot, err := s.compute(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, s.db, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *Service) Current(ctx context.Context, vendorID snowflake.ID) (*usagedomain.Snapshot, error) {
	snapshot, err := s.repo.Latest(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, usagedomain.ErrNoSnapshot
	}
	return snapshot, nil
}

// compute builds an unsaved snapshot from the vendor's current active
// listings with the tariff selected for that usage.
func (s *Service) compute(ctx context.Context, vendorID snowflake.ID) (*usagedomain.Snapshot, error) {
	stats, err := s.vendors.ActiveOfferStats(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}

	tier, err := s.tariffs.SelectTier(ctx, stats.Quantity, stats.PriceCents)
	if err != nil {
		return nil, err
	}

	return &usagedomain.Snapshot{
		ID:         s.genID.Generate(),
		VendorID:   vendorID,
		CreatedAt:  s.clock.Now(),
		Quantity:   stats.Quantity,
		PriceCents: stats.PriceCents,
		TariffID:   tier.ID,
		Tariff:     *tier,
	}, nil
}

func (s *Service) notifyTariffChanged(ctx context.Context, vendorID snowflake.ID, tier *tariffdomain.Tariff) {
	vendor, err := s.vendors.FindByID(ctx, s.db, vendorID)
	if err != nil {
		s.log.Warn("tariff change notification skipped", zap.String("vendor_id", vendorID.String()), zap.Error(err))
		return
	}
	grants, err := s.discounts.ListUsable(ctx, vendorID)
	if err != nil {
		s.log.Warn("could not load discounts for notification", zap.String("vendor_id", vendorID.String()), zap.Error(err))
	}
	if err := s.notifier.TariffChanged(ctx, vendor, tier, grants); err != nil {
		s.log.Warn("tariff change notification failed", zap.String("vendor_id", vendorID.String()), zap.Error(err))
	}
}
