package database

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/softex1/tably-paket1/models"
	"github.com/softex1/tably-paket1/utils"
)

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Table{},
		&models.Session{},
		&models.Call{},
		&models.Admin{},
		&models.LoginAttempt{},
	)
	if err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	utils.InfoLogger.Info("database schema is up to date")
	return nil
}

// MigratePasswords rehashes admin passwords that were stored in plain text.
// It returns the number of rows rewritten.
func MigratePasswords(db *gorm.DB) (int, error) {
	var admins []models.Admin
	if err := db.Find(&admins).Error; err != nil {
		return 0, errors.Wrap(err, "load admins")
	}

	migrated := 0
	for _, a := range admins {
		if utils.IsPasswordHash(a.Password) {
			continue
		}
		hash, err := utils.HashPassword(a.Password)
		if err != nil {
			return migrated, errors.Wrapf(err, "hash password for %s", a.Username)
		}
		if err := db.Model(&models.Admin{}).Where("id = ?", a.ID).Update("password", hash).Error; err != nil {
			return migrated, errors.Wrapf(err, "update password for %s", a.Username)
		}
		utils.InfoLogger.Infof("migrated plain-text password for admin %s", a.Username)
		migrated++
	}
	return migrated, nil
}
