package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/marketfee/internal/clock"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	discountrepository "github.com/smallbiznis/marketfee/internal/discount/repository"
	discountservice "github.com/smallbiznis/marketfee/internal/discount/service"
	"github.com/smallbiznis/marketfee/internal/notify"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	tariffrepository "github.com/smallbiznis/marketfee/internal/tariff/repository"
	tariffservice "github.com/smallbiznis/marketfee/internal/tariff/service"
	usagedomain "github.com/smallbiznis/marketfee/internal/usage/domain"
	"github.com/smallbiznis/marketfee/internal/usage/repository"
	vendordomain "github.com/smallbiznis/marketfee/internal/vendors/domain"
	vendorrepository "github.com/smallbiznis/marketfee/internal/vendors/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clk      *clock.FakeClock
	notifier *notify.RecordingNotifier
	svc      usagedomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&vendordomain.Vendor{},
		&vendordomain.Offer{},
		&tariffdomain.Tariff{},
		&usagedomain.Snapshot{},
		&discountdomain.Discount{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC))
	logger := zaptest.NewLogger(t)
	rec := &notify.RecordingNotifier{}

	vendorRepo := vendorrepository.Provide()
	tariffSvc := tariffservice.NewService(tariffservice.ServiceParam{
		DB:   db,
		Log:  logger,
		Repo: tariffrepository.Provide(),
	})
	discountSvc := discountservice.NewService(discountservice.ServiceParam{
		DB:    db,
		Log:   logger,
		GenID: node,
		Clock: clk,
		Repo:  discountrepository.Provide(),
	})

	svc := NewService(ServiceParam{
		DB:        db,
		Log:       logger,
		GenID:     node,
		Clock:     clk,
		Repo:      repository.Provide(),
		Tariffs:   tariffSvc,
		Vendors:   vendorRepo,
		Discounts: discountSvc,
		Notifier:  rec,
	})

	return &fixture{db: db, node: node, clk: clk, notifier: rec, svc: svc}
}

func (f *fixture) createVendor(t *testing.T) snowflake.ID {
	t.Helper()
	vendor := vendordomain.Vendor{
		ID:     f.node.Generate(),
		Name:   "Knife Shop",
		Email:  "shop@example.com",
		Active: true,
	}
	require.NoError(t, f.db.Create(&vendor).Error)
	return vendor.ID
}

func (f *fixture) createTier(t *testing.T, name string, dailyCents, quantityLimit, priceLimitCents int64) tariffdomain.Tariff {
	t.Helper()
	tier := tariffdomain.Tariff{
		ID:              f.node.Generate(),
		Name:            name,
		Slug:            name,
		DailyCents:      dailyCents,
		Active:          true,
		QuantityLimit:   quantityLimit,
		PriceLimitCents: priceLimitCents,
	}
	require.NoError(t, f.db.Create(&tier).Error)
	return tier
}

func (f *fixture) addOffer(t *testing.T, vendorID snowflake.ID, quantity, unitPriceCents int64, active bool) snowflake.ID {
	t.Helper()
	offer := vendordomain.Offer{
		ID:             f.node.Generate(),
		VendorID:       vendorID,
		Active:         active,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
	}
	require.NoError(t, f.db.Create(&offer).Error)
	return offer.ID
}

func TestRecordOfferChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	free := f.createTier(t, "free", 0, 3, 3_000)
	starter := f.createTier(t, "starter", 115, 10, 10_000)
	vendorID := f.createVendor(t)

	first, err := f.svc.RecordOfferChange(ctx, vendorID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Quantity)
	assert.Equal(t, free.ID, first.TariffID)
	// The very first snapshot counts as a tariff change.
	require.Len(t, f.notifier.TariffChanges, 1)

	t.Run("unchanged usage appends nothing", func(t *testing.T) {
		f.clk.Advance(time.Hour)
		again, err := f.svc.RecordOfferChange(ctx, vendorID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)

		var count int64
		require.NoError(t, f.db.Model(&usagedomain.Snapshot{}).Where("vendor_id = ?", vendorID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("new offer appends and may change the tier", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			f.addOffer(t, vendorID, 2, 900, true)
		}
		f.clk.Advance(time.Hour)

		snap, err := f.svc.RecordOfferChange(ctx, vendorID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), snap.Quantity)
		assert.Equal(t, int64(4_500), snap.PriceCents)
		assert.Equal(t, starter.ID, snap.TariffID)
		require.Len(t, f.notifier.TariffChanges, 2)
		assert.Equal(t, starter.ID, f.notifier.TariffChanges[1].ID)
	})

	t.Run("same usage same tier stays quiet", func(t *testing.T) {
		f.clk.Advance(time.Hour)
		_, err := f.svc.RecordOfferChange(ctx, vendorID)
		require.NoError(t, err)
		assert.Len(t, f.notifier.TariffChanges, 2)
	})

	t.Run("inactive and empty offers are not usage", func(t *testing.T) {
		f.addOffer(t, vendorID, 2, 900, false)
		f.addOffer(t, vendorID, 0, 900, true)
		f.clk.Advance(time.Hour)

		snap, err := f.svc.RecordOfferChange(ctx, vendorID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), snap.Quantity)
	})
}

func TestBootstrapAlwaysAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createTier(t, "free", 0, 100, 1_000_000)
	vendorID := f.createVendor(t)

	_, err := f.svc.Bootstrap(ctx, vendorID)
	require.NoError(t, err)
	f.clk.Advance(time.Hour)
	_, err = f.svc.Bootstrap(ctx, vendorID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&usagedomain.Snapshot{}).Where("vendor_id = ?", vendorID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createTier(t, "free", 0, 100, 1_000_000)
	vendorID := f.createVendor(t)

	t.Run("no history", func(t *testing.T) {
		_, err := f.svc.Current(ctx, vendorID)
		assert.ErrorIs(t, err, usagedomain.ErrNoSnapshot)
	})

	t.Run("returns newest snapshot with tariff loaded", func(t *testing.T) {
		_, err := f.svc.Bootstrap(ctx, vendorID)
		require.NoError(t, err)

		snap, err := f.svc.Current(ctx, vendorID)
		require.NoError(t, err)
		assert.Equal(t, "free", snap.Tariff.Name)
	})
}
