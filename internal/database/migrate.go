package database

import (
	"eims/internal/models"
	"eims/pkg/logger"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		// 访问控制核心
		&models.Branch{},
		&models.User{},
		&models.RolePermission{},
		&models.BranchAssignment{},
		// 教务
		&models.Course{},
		&models.Batch{},
		&models.BatchTrainerAssignment{},
		&models.Student{},
		&models.StudentAttendance{},
		// 财务
		&models.Invoice{},
		&models.Installment{},
		&models.Payment{},
		// 人事与审计
		&models.StaffProfile{},
		&models.AuditLog{},
		&models.LoginLog{},
	)

	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")

	// 种子数据初始化在 main.go 中单独调用，避免循环依赖

	return nil
}
