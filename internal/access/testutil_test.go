package access

import (
	"eims/internal/models"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.RolePermission{},
		&models.BranchAssignment{},
		&models.Course{},
		&models.Batch{},
		&models.BatchTrainerAssignment{},
	)
	require.NoError(t, err)

	return db
}

func createUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		FullName: username,
		Role:     role,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Test@123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createBranch(t *testing.T, db *gorm.DB, name string) *models.Branch {
	t.Helper()

	branch := &models.Branch{
		Name:   name,
		Code:   fmt.Sprintf("BR-%s", name),
		Status: models.BranchStatusActive,
	}
	require.NoError(t, db.Create(branch).Error)
	return branch
}

func createBatch(t *testing.T, db *gorm.DB, name string, branchID uint) *models.Batch {
	t.Helper()

	course := &models.Course{
		Name:   "Course for " + name,
		Code:   "C-" + name,
		Status: models.CourseStatusActive,
	}
	require.NoError(t, db.Create(course).Error)

	batch := &models.Batch{
		Name:     name,
		CourseID: course.ID,
		BranchID: branchID,
		Status:   models.BatchStatusActive,
	}
	require.NoError(t, db.Create(batch).Error)
	return batch
}

func seedGrant(t *testing.T, db *gorm.DB, role, module, level string, canExport, canModify, canDelete, canCreate bool) {
	t.Helper()

	grant := &models.RolePermission{
		Role:            role,
		Module:          module,
		PermissionLevel: level,
		CanExport:       canExport,
		CanModify:       canModify,
		CanDelete:       canDelete,
		CanCreate:       canCreate,
	}
	require.NoError(t, db.Create(grant).Error)
}
