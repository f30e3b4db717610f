package target

import (
	"github.com/smallbiznis/incentra/internal/target/repository"
	"github.com/smallbiznis/incentra/internal/target/service"
	"go.uber.org/fx"
)

var Module = fx.Module("target.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
