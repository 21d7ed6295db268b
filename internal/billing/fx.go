package billing

import (
	"github.com/smallbiznis/marketfee/internal/billing/repository"
	"github.com/smallbiznis/marketfee/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
