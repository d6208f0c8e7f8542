package main

import (
	"testing"

	"eims/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.RolePermission{},
	))
	return db
}

func TestSeedIsIdempotent(t *testing.T) {
	db := newSeedTestDB(t)

	runSeed := func() {
		require.NoError(t, createDefaultBranch(db))
		require.NoError(t, initializePermissionMatrix(db))
		require.NoError(t, createDefaultAdmin(db))
	}

	runSeed()

	var branches, grants, users int64
	db.Model(&models.Branch{}).Count(&branches)
	db.Model(&models.RolePermission{}).Count(&grants)
	db.Model(&models.User{}).Count(&users)
	assert.Equal(t, int64(1), branches)
	assert.Greater(t, grants, int64(0))
	assert.Equal(t, int64(1), users)

	// 重跑是 no-op
	runSeed()

	var branches2, grants2, users2 int64
	db.Model(&models.Branch{}).Count(&branches2)
	db.Model(&models.RolePermission{}).Count(&grants2)
	db.Model(&models.User{}).Count(&users2)
	assert.Equal(t, branches, branches2)
	assert.Equal(t, grants, grants2)
	assert.Equal(t, users, users2)
}

func TestSeedPermissionMatrixCoversBackOfficeRoles(t *testing.T) {
	db := newSeedTestDB(t)
	require.NoError(t, initializePermissionMatrix(db))

	// 后台角色都有行，门户角色刻意没有
	for _, role := range []string{
		models.RoleAdmin, models.RoleRegionalManager, models.RoleFranchise,
		models.RoleBranchManager, models.RoleStaff, models.RoleTrainer,
	} {
		var count int64
		db.Model(&models.RolePermission{}).Where("role = ?", role).Count(&count)
		assert.Greater(t, count, int64(0), "role %s", role)
	}
	for _, role := range []string{models.RoleStudent, models.RoleParent} {
		var count int64
		db.Model(&models.RolePermission{}).Where("role = ?", role).Count(&count)
		assert.Equal(t, int64(0), count, "role %s", role)
	}
}

func TestSeedDefaultAdminCredentials(t *testing.T) {
	db := newSeedTestDB(t)
	require.NoError(t, createDefaultAdmin(db))

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.CheckPassword("Admin@123"))
	assert.False(t, admin.CheckPassword("wrong"))
}
