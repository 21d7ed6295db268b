package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	billingdomain "github.com/smallbiznis/marketfee/internal/billing/domain"
	discountdomain "github.com/smallbiznis/marketfee/internal/discount/domain"
	"github.com/smallbiznis/marketfee/internal/money"
	tariffdomain "github.com/smallbiznis/marketfee/internal/tariff/domain"
	vendordomain "github.com/smallbiznis/marketfee/internal/vendors/domain"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPNotifier struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

var invoiceTmpl = template.Must(template.New("invoice").Parse(`
<p>Hello {{.Vendor.Name}},</p>
<p>Your bill for {{.Bill.PeriodStart.Format "02.01.2006"}} &ndash; {{.Bill.PeriodEnd.Format "02.01.2006"}}:</p>
<table>
{{range .Items}}<tr><td>{{.Description}}</td><td>{{.Amount}}</td></tr>
{{end}}</table>
<p>Total: {{.Total}}</p>
`))

var tariffChangedTmpl = template.Must(template.New("tariff_changed").Parse(`
<p>Hello {{.Vendor.Name}},</p>
<p>Your listings now fall under the <strong>{{.Tier.Name}}</strong> tariff
({{.Monthly}} per 30 days).</p>
{{if .Discounts}}<p>Discounts still available to you:</p>
<ul>{{range .Discounts}}<li>{{.Name}} &mdash; {{.Percent}}%, {{.Usages}} months left</li>{{end}}</ul>{{end}}
`))

var vendorClosedTmpl = template.Must(template.New("vendor_closed").Parse(`
<p>Hello {{.Vendor.Name}},</p>
<p>Your shop has been closed and the final bill for the running period issued.</p>
`))

func (n *SMTPNotifier) InvoiceIssued(ctx context.Context, vendor *vendordomain.Vendor, bill *billingdomain.Bill, items []billingdomain.BillItem) error {
	type line struct {
		Description string
		Amount      string
	}
	lines := make([]line, 0, len(items))
	for _, item := range items {
		lines = append(lines, line{Description: item.Description, Amount: money.Format(item.AmountCents)})
	}
	return n.render(invoiceTmpl, vendor.Email, "Your marketplace bill", map[string]any{
		"Vendor": vendor,
		"Bill":   bill,
		"Items":  lines,
		"Total":  money.Format(bill.TotalCents),
	})
}

func (n *SMTPNotifier) TariffChanged(ctx context.Context, vendor *vendordomain.Vendor, tier *tariffdomain.Tariff, discounts []discountdomain.Discount) error {
	return n.render(tariffChangedTmpl, vendor.Email, "Your tariff has changed", map[string]any{
		"Vendor":    vendor,
		"Tier":      tier,
		"Monthly":   money.Format(tier.MonthlyCents()),
		"Discounts": discounts,
	})
}

func (n *SMTPNotifier) VendorClosed(ctx context.Context, vendor *vendordomain.Vendor) error {
	return n.render(vendorClosedTmpl, vendor.Email, "Your shop has been closed", map[string]any{
		"Vendor": vendor,
	})
}

func (n *SMTPNotifier) render(tmpl *template.Template, to, subject string, data any) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return n.send(to, subject, body.String())
}

func (n *SMTPNotifier) send(to, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", to, subject, mime, htmlBody))

	return smtp.SendMail(addr, auth, n.cfg.From, []string{to}, msg)
}
