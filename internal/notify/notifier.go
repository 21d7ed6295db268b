// Package notify delivers billing emails. Delivery is best-effort:
// callers log failures and never roll back a committed billing run
// because of one.
package notify

import (
	"context"

	billingdomain "github.com/smallbiznis/marketfee/internal/billing/domain"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	vendordomain "github.com/smallbiznis/marketfee/internal/vendors/domain"
)

type Notifier interface {
	InvoiceIssued(ctx context.Context, vendor *vendordomain.Vendor, bill *billingdomain.Bill, items []billingdomain.BillItem) error
	TariffChanged(ctx context.Context, vendor *vendordomain.Vendor, tier *tariffdomain.Tariff, discounts []discountdomain.Discount) error
	VendorClosed(ctx context.Context, vendor *vendordomain.Vendor) error
}

type NoOpNotifier struct{}

func (NoOpNotifier) InvoiceIssued(context.Context, *vendordomain.Vendor, *billingdomain.Bill, []billingdomain.BillItem) error {
	return nil
}

func (NoOpNotifier) TariffChanged(context.Context, *vendordomain.Vendor, *tariffdomain.Tariff, []discountdomain.Discount) error {
	return nil
}

func (NoOpNotifier) VendorClosed(context.Context, *vendordomain.Vendor) error {
	return nil
}
