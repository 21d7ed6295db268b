package notify

import (
	"github.com/smallbiznis/marketfee/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("notify",
	fx.Provide(NewFromConfig),
)

// NewFromConfig wires the SMTP notifier, or a no-op when SMTP is not
// configured (local development).
func NewFromConfig(cfg config.Config) Notifier {
	if cfg.SMTPHost == "" {
		return NoOpNotifier{}
	}
	return NewSMTP(Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}
