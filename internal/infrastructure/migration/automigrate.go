package migration

import (
	"fmt"

	"gorm.io/gorm"

	"adapta/internal/infrastructure/persistence/models"
	"adapta/internal/shared/logger"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.IdentityModel{},
		&models.EntitlementStateModel{},
		&models.InviteRecordModel{},
		&models.BindingModel{},
		&models.SecureRecordModel{},
	}
}

// GormAutoMigrateStrategy migrates schemas straight from the model structs.
// Development only; release environments run versioned SQL scripts.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy() Strategy {
	return &GormAutoMigrateStrategy{
		logger: logger.NewLogger().With("component", "migration.automigrate"),
	}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, migrateModels ...interface{}) error {
	if len(migrateModels) == 0 {
		migrateModels = AutoMigrateModels()
	}

	s.logger.Infow("starting gorm auto migration", "models_count", len(migrateModels))

	if err := db.AutoMigrate(migrateModels...); err != nil {
		s.logger.Errorw("auto migration failed", "error", err)
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	s.logger.Info("auto migration completed successfully")
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}
