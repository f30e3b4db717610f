package deal

import (
	"github.com/smallbiznis/incentra/internal/deal/repository"
	"github.com/smallbiznis/incentra/internal/deal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("deal.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
