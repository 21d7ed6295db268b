// Package server exposes the vendor-facing tariff management API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/marketfee/internal/billing/domain"
	"github.com/smallbiznis/marketfee/internal/config"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	usagedomain "github.com/smallbiznis/marketfee/internal/usage/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	tariffSvc   tariffdomain.Service
	billingSvc  billingdomain.Service
	discountSvc discountdomain.Service
	usageSvc    usagedomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	TariffSvc   tariffdomain.Service
	BillingSvc  billingdomain.Service
	DiscountSvc discountdomain.Service
	UsageSvc    usagedomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		tariffSvc:   p.TariffSvc,
		billingSvc:  p.BillingSvc,
		discountSvc: p.DiscountSvc,
		usageSvc:    p.UsageSvc,
	}

	s.registerAPIRoutes()

	return s
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.GET("/tariffs", s.ListTariffs)

	vendors := v1.Group("/vendors/:id")
	vendors.GET("/usage", s.GetVendorUsage)
	vendors.GET("/billing", s.GetBillingSettings)
	vendors.PUT("/billing", s.UpdateBillingSettings)
	vendors.GET("/bills", s.ListVendorBills)
	vendors.GET("/bills/:bill_id/items", s.ListBillItems)
	vendors.GET("/discounts", s.ListVendorDiscounts)
	vendors.POST("/redeem", s.RedeemCampaign)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
