package vendor

import (
	"github.com/smallbiznis/marketfee/internal/vendors/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("vendor",
	fx.Provide(repository.Provide),
)
