package policy

import (
	"github.com/smallbiznis/incentra/internal/policy/repository"
	"github.com/smallbiznis/incentra/internal/policy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("policy.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
