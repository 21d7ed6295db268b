package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/marketfee/internal/billing/domain"
	"github.com/smallbiznis/marketfee/internal/config"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	usagedomain "github.com/smallbiznis/marketfee/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTariffService struct {
	tiers []tariffdomain.Tariff
}

func (f *fakeTariffService) List(context.Context) ([]tariffdomain.Tariff, error) {
	return f.tiers, nil
}

func (f *fakeTariffService) SelectTier(context.Context, int64, int64) (*tariffdomain.Tariff, error) {
	return nil, tariffdomain.ErrNoTier
}

type fakeBillingService struct {
	tracker *billingdomain.Billing

	setNextCalls int
}

func (f *fakeBillingService) Bill(context.Context, snowflake.ID) (*billingdomain.Bill, error) {
	return nil, billingdomain.ErrTooEarly
}

func (f *fakeBillingService) Close(context.Context, snowflake.ID) (*billingdomain.Bill, error) {
	return nil, nil
}

func (f *fakeBillingService) RunDueBilling(context.Context) error { return nil }

func (f *fakeBillingService) OnVendorOpened(context.Context, snowflake.ID) error { return nil }
func (f *fakeBillingService) OnVendorClosed(context.Context, snowflake.ID) error { return nil }

func (f *fakeBillingService) GetByVendor(_ context.Context, vendorID snowflake.ID) (*billingdomain.Billing, error) {
	if f.tracker == nil || f.tracker.VendorID != vendorID {
		return nil, billingdomain.ErrBillingNotFound
	}
	return f.tracker, nil
}

func (f *fakeBillingService) SetNextPeriod(_ context.Context, _ snowflake.ID, months int) (*billingdomain.Billing, error) {
	if !billingdomain.ValidPeriod(months) {
		return nil, billingdomain.ErrInvalidPeriod
	}
	f.setNextCalls++
	f.tracker.NextPeriodMonths = months
	return f.tracker, nil
}

func (f *fakeBillingService) ListBills(context.Context, snowflake.ID) ([]billingdomain.Bill, error) {
	return nil, nil
}

func (f *fakeBillingService) ListBillItems(context.Context, snowflake.ID) ([]billingdomain.BillItem, error) {
	return nil, nil
}

type fakeDiscountService struct {
	redeemErr error
}

func (f *fakeDiscountService) CutThePrice(context.Context, *gorm.DB, snowflake.ID, int64) (*discountdomain.Applied, error) {
	return nil, nil
}

func (f *fakeDiscountService) ListUsable(context.Context, snowflake.ID) ([]discountdomain.Discount, error) {
	return nil, nil
}

func (f *fakeDiscountService) ListByVendor(context.Context, snowflake.ID) ([]discountdomain.Discount, error) {
	return nil, nil
}

func (f *fakeDiscountService) Redeem(context.Context, string, snowflake.ID) (*discountdomain.Discount, error) {
	if f.redeemErr != nil {
		return nil, f.redeemErr
	}
	return &discountdomain.Discount{Name: "Promo", Percent: 30, Usages: 3}, nil
}

type fakeUsageService struct{}

func (f *fakeUsageService) RecordOfferChange(context.Context, snowflake.ID) (*usagedomain.Snapshot, error) {
	return nil, nil
}

func (f *fakeUsageService) Bootstrap(context.Context, snowflake.ID) (*usagedomain.Snapshot, error) {
	return nil, nil
}

func (f *fakeUsageService) Current(context.Context, snowflake.ID) (*usagedomain.Snapshot, error) {
	return nil, usagedomain.ErrNoSnapshot
}

func newTestServer(billing *fakeBillingService, discounts *fakeDiscountService) *Server {
	gin.SetMode(gin.TestMode)
	return NewServer(ServerParams{
		Gin: NewEngine(),
		Cfg: config.Config{},
		TariffSvc: &fakeTariffService{tiers: []tariffdomain.Tariff{
			{Name: "free"},
			{Name: "starter", DailyCents: 115},
		}},
		BillingSvc:  billing,
		DiscountSvc: discounts,
		UsageSvc:    &fakeUsageService{},
	})
}

func do(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeBillingService{}, &fakeDiscountService{})
	w := do(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListTariffs(t *testing.T) {
	s := newTestServer(&fakeBillingService{}, &fakeDiscountService{})
	w := do(s, http.MethodGet, "/v1/tariffs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []tariffdomain.Tariff `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestBillingSettingsRoutes(t *testing.T) {
	vendorID := snowflake.ID(42)
	billing := &fakeBillingService{tracker: &billingdomain.Billing{
		VendorID:         vendorID,
		PeriodMonths:     3,
		NextPeriodMonths: 3,
	}}
	s := newTestServer(billing, &fakeDiscountService{})

	t.Run("get", func(t *testing.T) {
		w := do(s, http.MethodGet, "/v1/vendors/42/billing", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown vendor is 404", func(t *testing.T) {
		w := do(s, http.MethodGet, "/v1/vendors/43/billing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed vendor id is 400", func(t *testing.T) {
		w := do(s, http.MethodGet, "/v1/vendors/not-a-number/billing", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update cadence", func(t *testing.T) {
		w := do(s, http.MethodPut, "/v1/vendors/42/billing", []byte(`{"period_months":6}`))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, billing.setNextCalls)
	})

	t.Run("cadence outside the offered set is 400", func(t *testing.T) {
		w := do(s, http.MethodPut, "/v1/vendors/42/billing", []byte(`{"period_months":5}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRedeemRoute(t *testing.T) {
	t.Run("grants the discount", func(t *testing.T) {
		s := newTestServer(&fakeBillingService{}, &fakeDiscountService{})
		w := do(s, http.MethodPost, "/v1/vendors/42/redeem", []byte(`{"code":"WELCOME"}`))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing code is 400", func(t *testing.T) {
		s := newTestServer(&fakeBillingService{}, &fakeDiscountService{})
		w := do(s, http.MethodPost, "/v1/vendors/42/redeem", []byte(`{}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("redemption failures are 422", func(t *testing.T) {
		for _, redeemErr := range []error{
			discountdomain.ErrAlreadyRedeemed,
			discountdomain.ErrCampaignExpired,
			discountdomain.ErrCampaignExhausted,
		} {
			s := newTestServer(&fakeBillingService{}, &fakeDiscountService{redeemErr: redeemErr})
			w := do(s, http.MethodPost, "/v1/vendors/42/redeem", []byte(`{"code":"WELCOME"}`))
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		}
	})

	t.Run("unknown code is 404", func(t *testing.T) {
		s := newTestServer(&fakeBillingService{}, &fakeDiscountService{redeemErr: discountdomain.ErrCampaignNotFound})
		w := do(s, http.MethodPost, "/v1/vendors/42/redeem", []byte(`{"code":"NOPE"}`))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUsageRoute(t *testing.T) {
	s := newTestServer(&fakeBillingService{}, &fakeDiscountService{})
	w := do(s, http.MethodGet, "/v1/vendors/42/usage", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBillTooEarlyMapsToConflict(t *testing.T) {
	// Not routed directly, but the mapping must hold for any handler
	// that surfaces it.
	status, payload := mapError(billingdomain.ErrTooEarly)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", payload.Type)
}
