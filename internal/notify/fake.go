package notify

import (
	"context"
	"sync"

	billingdomain "github.com/smallbiznis/marketfee/internal/billing/domain"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	vendordomain "github.com/smallbiznis/marketfee/internal/vendors/domain"
)

// RecordingNotifier captures notifications for assertions in tests.
type RecordingNotifier struct {
	mu sync.Mutex

	Invoices      []*billingdomain.Bill
	TariffChanges []*tariffdomain.Tariff
	Closed        []*vendordomain.Vendor
	Err           error
}

func (r *RecordingNotifier) InvoiceIssued(_ context.Context, _ *vendordomain.Vendor, bill *billingdomain.Bill, _ []billingdomain.BillItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Invoices = append(r.Invoices, bill)
	return r.Err
}

func (r *RecordingNotifier) TariffChanged(_ context.Context, _ *vendordomain.Vendor, tier *tariffdomain.Tariff, _ []discountdomain.Discount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TariffChanges = append(r.TariffChanges, tier)
	return r.Err
}

func (r *RecordingNotifier) VendorClosed(_ context.Context, vendor *vendordomain.Vendor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closed = append(r.Closed, vendor)
	return r.Err
}
