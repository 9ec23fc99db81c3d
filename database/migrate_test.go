package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/softex1/tably-paket1/models"
	"github.com/softex1/tably-paket1/utils"
)

func TestMigratePasswords(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	hashed, err := utils.HashPassword("Already!Hashed1")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Admin{Username: "legacy", Password: "Plain!Text1"}).Error)
	require.NoError(t, db.Create(&models.Admin{Username: "modern", Password: hashed}).Error)

	n, err := MigratePasswords(db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var legacy models.Admin
	require.NoError(t, db.Where("username = ?", "legacy").First(&legacy).Error)
	assert.True(t, utils.IsPasswordHash(legacy.Password))
	assert.True(t, utils.VerifyPassword(legacy.Password, "Plain!Text1"))

	// a second run has nothing left to do
	n, err = MigratePasswords(db)
	require.NoError(t, err)
	assert.Zero(t, n)
}
