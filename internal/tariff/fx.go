package tariff

import (
	"github.com/smallbiznis/marketfee/internal/tariff/repository"
	"github.com/smallbiznis/marketfee/internal/tariff/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tariff.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
