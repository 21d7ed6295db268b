package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/marketfee/internal/billing/domain"
	"github.com/smallbiznis/marketfee/internal/clock"
	"github.com/smallbiznis/marketfee/internal/config"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	"github.com/smallbiznis/marketfee/internal/notify"
	"github.com/smallbiznis/marketfee/internal/period"
	usagedomain "github.com/smallbiznis/marketfee/internal/usage/domain"
	vendordomain "github.com/smallbiznis/marketfee/internal/vendors/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	cfg        config.Config
	billingCfg config.BillingConfig

	repo      billingdomain.Repository
	snapshots usagedomain.Repository
	usageSvc  usagedomain.Service
	discounts discountdomain.Service
	vendors   vendordomain.Repository
	notifier  notify.Notifier
}

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Cfg        config.Config
	BillingCfg config.BillingConfig
	Repo       billingdomain.Repository
	Snapshots  usagedomain.Repository
	UsageSvc   usagedomain.Service
	Discounts  discountdomain.Service
	Vendors    vendordomain.Repository
	Notifier   notify.Notifier
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("billing.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		cfg:        p.Cfg,
		billingCfg: p.BillingCfg,
		repo:       p.Repo,
		snapshots:  p.Snapshots,
		usageSvc:   p.UsageSvc,
		discounts:  p.Discounts,
		vendors:    p.Vendors,
		notifier:   p.Notifier,
	}
}

// settled carries the outcome of one billing transaction out to the
// post-commit notification step.
type settled struct {
	bill   *billingdomain.Bill
	items  []billingdomain.BillItem
	issued bool
}

func (s *Service) Bill(ctx context.Context, vendorID snowflake.ID) (*billingdomain.Bill, error) {
	var out settled

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		billing, err := s.repo.FindByVendorForUpdate(ctx, tx, vendorID)
		if err != nil {
			return err
		}
		if billing == nil {
			return billingdomain.ErrBillingNotFound
		}
		if !billing.Active {
			return billingdomain.ErrBillingClosed
		}

		today := period.DateOf(s.clock.Now())
		if !billing.LastBilled.Before(today) {
			// Already settled today (or dated into the future): hand back
			// the existing bill instead of double-charging.
			bill, err := s.repo.FindBillForPeriodEnd(ctx, tx, vendorID, billing.LastBilled)
			if err != nil {
				return err
			}
			if bill == nil {
				return billingdomain.ErrTooEarly
			}
			out.bill = bill
			return nil
		}
		if billing.NextBilling.After(today) {
			return billingdomain.ErrTooEarly
		}

		return s.settle(ctx, tx, billing, billing.NextBilling, &out)
	})
	if err != nil {
		return nil, err
	}

	if out.issued {
		s.notifyIssued(ctx, vendorID, out)
	}
	return out.bill, nil
}

func (s *Service) Close(ctx context.Context, vendorID snowflake.ID) (*billingdomain.Bill, error) {
	var out settled

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		billing, err := s.repo.FindByVendorForUpdate(ctx, tx, vendorID)
		if err != nil {
			return err
		}
		if billing == nil {
			return billingdomain.ErrBillingNotFound
		}
		if !billing.Active {
			return billingdomain.ErrBillingClosed
		}

		billing.Active = false
		today := period.DateOf(s.clock.Now())
		if !billing.LastBilled.Before(today) {
			// Opened and closed within one day: nothing billable.
			return s.saveTracker(ctx, tx, billing)
		}
		return s.settle(ctx, tx, billing, today, &out)
	})
	if err != nil {
		return nil, err
	}

	if out.issued {
		s.notifyIssued(ctx, vendorID, out)
	}
	return out.bill, nil
}

// settle prices [billing.LastBilled, periodEnd), persists the bill and
// advances the tracker. Runs entirely inside the caller's transaction.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, billing *billingdomain.Billing, periodEnd time.Time, out *settled) error {
	lines, err := s.billInterval(ctx, tx, billing.VendorID, billing.LastBilled, periodEnd)
	if err != nil {
		return err
	}

	var total int64
	for _, l := range lines {
		total += l.amountCents
	}
	if total < 0 {
		return billingdomain.ErrNegativeTotal
	}

	bill := &billingdomain.Bill{
		ID:          s.genID.Generate(),
		VendorID:    billing.VendorID,
		PeriodStart: billing.LastBilled,
		PeriodEnd:   periodEnd,
		TotalCents:  total,
		IssuedAt:    s.clock.Now(),
		Metadata: datatypes.JSONMap{
			"contractor_name":  s.cfg.ContractorName,
			"contractor_email": s.cfg.ContractorEmail,
			"contractor_bank":  s.cfg.ContractorBank,
		},
	}
	items := make([]billingdomain.BillItem, 0, len(lines))
	for i, l := range lines {
		items = append(items, billingdomain.BillItem{
			ID:          s.genID.Generate(),
			BillID:      bill.ID,
			Position:    i,
			Description: l.description,
			AmountCents: l.amountCents,
			TaxPercent:  l.taxPercent,
		})
	}
	if err := s.repo.InsertBill(ctx, tx, bill, items); err != nil {
		return err
	}

	billing.LastBilled = periodEnd
	if err := s.saveTracker(ctx, tx, billing); err != nil {
		return err
	}

	out.bill = bill
	out.items = items
	out.issued = true
	return nil
}

// saveTracker recomputes NextBilling and applies a pending cadence
// change when the save lands on a period boundary.
func (s *Service) saveTracker(ctx context.Context, tx *gorm.DB, billing *billingdomain.Billing) error {
	today := period.DateOf(s.clock.Now())
	if billing.NextPeriodMonths != billing.PeriodMonths &&
		(today.Equal(billing.LastBilled) || today.Equal(billing.NextBilling)) {
		billing.PeriodMonths = billing.NextPeriodMonths
	}
	billing.NextBilling = period.AddMonths(billing.LastBilled, billing.PeriodMonths)
	return s.repo.Save(ctx, tx, billing)
}

func (s *Service) RunDueBilling(ctx context.Context) error {
	today := period.DateOf(s.clock.Now())
	due, err := s.repo.ListDue(ctx, s.db, today)
	if err != nil {
		return err
	}

	var failed int
	for _, billing := range due {
		if _, err := s.Bill(ctx, billing.VendorID); err != nil {
			// One vendor must not take the batch down.
			failed++
			s.log.Error("billing run failed",
				zap.String("vendor_id", billing.VendorID.String()),
				zap.Error(err),
			)
		}
	}

	s.log.Info("due billing sweep finished",
		zap.Int("due", len(due)),
		zap.Int("failed", failed),
	)
	return nil
}

func (s *Service) OnVendorOpened(ctx context.Context, vendorID snowflake.ID) error {
	billing, err := s.repo.FindByVendor(ctx, s.db, vendorID)
	if err != nil {
		return err
	}

	today := period.DateOf(s.clock.Now())
	if billing == nil {
		months := s.billingCfg.DefaultPeriodMonths
		billing = &billingdomain.Billing{
			ID:               s.genID.Generate(),
			VendorID:         vendorID,
			PeriodMonths:     months,
			NextPeriodMonths: months,
			LastBilled:       today,
			NextBilling:      period.AddMonths(today, months),
			Active:           true,
		}
		if err := s.repo.Insert(ctx, s.db, billing); err != nil {
			return err
		}
		_, err := s.usageSvc.Bootstrap(ctx, vendorID)
		return err
	}

	if !billing.Active {
		// Reopening starts a fresh period; a cadence chosen while closed
		// takes effect now.
		billing.Active = true
		billing.LastBilled = today
		billing.PeriodMonths = billing.NextPeriodMonths
		if err := s.saveTracker(ctx, s.db, billing); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) OnVendorClosed(ctx context.Context, vendorID snowflake.ID) error {
	if _, err := s.Close(ctx, vendorID); err != nil {
		return err
	}
	// Final snapshot records the usage the vendor closed with.
	if _, err := s.usageSvc.Bootstrap(ctx, vendorID); err != nil {
		return err
	}

	vendor, err := s.vendors.FindByID(ctx, s.db, vendorID)
	if err != nil {
		return err
	}
	if err := s.notifier.VendorClosed(ctx, vendor); err != nil {
		s.log.Warn("vendor closed notification failed",
			zap.String("vendor_id", vendorID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (s *Service) GetByVendor(ctx context.Context, vendorID snowflake.ID) (*billingdomain.Billing, error) {
	billing, err := s.repo.FindByVendor(ctx, s.db, vendorID)
	if err != nil {
		return nil, err
	}
	if billing == nil {
		return nil, billingdomain.ErrBillingNotFound
	}
	return billing, nil
}

func (s *Service) SetNextPeriod(ctx context.Context, vendorID snowflake.ID, months int) (*billingdomain.Billing, error) {
	if !billingdomain.ValidPeriod(months) {
		return nil, billingdomain.ErrInvalidPeriod
	}

	var out *billingdomain.Billing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		billing, err := s.repo.FindByVendorForUpdate(ctx, tx, vendorID)
		if err != nil {
			return err
		}
		if billing == nil {
			return billingdomain.ErrBillingNotFound
		}
		billing.NextPeriodMonths = months
		if err := s.saveTracker(ctx, tx, billing); err != nil {
			return err
		}
		out = billing
		return nil
	})
	return out, err
}

func (s *Service) ListBills(ctx context.Context, vendorID snowflake.ID) ([]billingdomain.Bill, error) {
	return s.repo.ListBills(ctx, s.db, vendorID)
}

func (s *Service) ListBillItems(ctx context.Context, billID snowflake.ID) ([]billingdomain.BillItem, error) {
	return s.repo.ListBillItems(ctx, s.db, billID)
}

func (s *Service) notifyIssued(ctx context.Context, vendorID snowflake.ID, out settled) {
	vendor, err := s.vendors.FindByID(ctx, s.db, vendorID)
	if err != nil {
		s.log.Warn("bill notification skipped", zap.String("vendor_id", vendorID.String()), zap.Error(err))
		return
	}
	if err := s.notifier.InvoiceIssued(ctx, vendor, out.bill, out.items); err != nil {
		s.log.Warn("bill notification failed",
			zap.String("vendor_id", vendorID.String()),
			zap.String("bill_id", out.bill.ID.String()),
			zap.Error(err),
		)
	}
}
