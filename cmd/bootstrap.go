package cmd

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/softex1/tably-paket1/config"
	"github.com/softex1/tably-paket1/database"
	"github.com/softex1/tably-paket1/utils"
)

// bootstrap loads configuration, sets up logging and opens a migrated
// database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	utils.InitLogger(cfg.Log)

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		utils.ErrorLogger.Errorf("%+v", errors.Wrap(err, "close database"))
	}
}
