package migration

import (
	auditdomain "github.com/smallbiznis/incentra/internal/audit/domain"
	"github.com/smallbiznis/incentra/internal/config"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
	policydomain "github.com/smallbiznis/incentra/internal/policy/domain"
	ruledomain "github.com/smallbiznis/incentra/internal/rule/domain"
	"github.com/smallbiznis/incentra/internal/seed"
	targetdomain "github.com/smallbiznis/incentra/internal/target/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// The versioned SQL is postgres-flavored; other drivers
			// are dev conveniences and take the gorm schema directly.
			if err := conn.AutoMigrate(
				&policydomain.IncentivePolicy{},
				&dealdomain.Deal{},
				&ruledomain.AlertRule{},
				&targetdomain.SalesTarget{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		if cfg.DefaultOrgID != 0 {
			return seed.EnsureDefaultPolicy(conn, cfg.DefaultOrgID)
		}
		return nil
	}),
)
