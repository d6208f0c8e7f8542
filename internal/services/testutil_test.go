package services

import (
	"eims/internal/models"
	"fmt"
	"testing"
	"time"

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
		&models.Student{},
		&models.StudentAttendance{},
		&models.Invoice{},
		&models.Installment{},
		&models.Payment{},
		&models.StaffProfile{},
		&models.AuditLog{},
		&models.LoginLog{},
	)
	require.NoError(t, err)

	return db
}

func createTestBranch(t *testing.T, db *gorm.DB, code string) *models.Branch {
	t.Helper()

	branch := &models.Branch{
		Name:   "分支 " + code,
		Code:   code,
		Status: models.BranchStatusActive,
	}
	require.NoError(t, db.Create(branch).Error)
	return branch
}

func createTestUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
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

func createTestCourse(t *testing.T, db *gorm.DB, code string) *models.Course {
	t.Helper()

	course := &models.Course{
		Name:   "课程 " + code,
		Code:   code,
		Fee:    10000,
		Status: models.CourseStatusActive,
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

func createTestBatch(t *testing.T, db *gorm.DB, name string, courseID, branchID uint) *models.Batch {
	t.Helper()

	batch := &models.Batch{
		Name:        name,
		CourseID:    courseID,
		BranchID:    branchID,
		MaxCapacity: 30,
		Status:      models.BatchStatusActive,
	}
	require.NoError(t, db.Create(batch).Error)
	return batch
}

func createTestStudent(t *testing.T, db *gorm.DB, name string, branchID uint, batchID *uint) *models.Student {
	t.Helper()

	now := time.Now().UTC()
	student := &models.Student{
		RegNumber:  fmt.Sprintf("T-%d-%s", branchID, name),
		FullName:   name,
		BranchID:   branchID,
		BatchID:    batchID,
		Status:     models.StudentStatusActive,
		EnrolledOn: &now,
	}
	require.NoError(t, db.Create(student).Error)
	return student
}
