package performance

import (
	"github.com/smallbiznis/incentra/internal/performance/repository"
	"github.com/smallbiznis/incentra/internal/performance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("performance.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
