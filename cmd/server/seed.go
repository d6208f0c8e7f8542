package main

import (
	"eims/internal/database"
	"eims/internal/models"
	"eims/pkg/logger"
	"fmt"

	"gorm.io/gorm"
)

// seedData 初始化种子数据
func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	// 1. 创建默认分支机构
	if err := createDefaultBranch(db); err != nil {
		return fmt.Errorf("创建默认分支失败: %v", err)
	}

	// 2. 初始化权限矩阵
	if err := initializePermissionMatrix(db); err != nil {
		return fmt.Errorf("初始化权限矩阵失败: %v", err)
	}

	// 3. 创建默认管理员用户
	if err := createDefaultAdmin(db); err != nil {
		return fmt.Errorf("创建默认管理员失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// createDefaultBranch 创建默认分支机构
func createDefaultBranch(db *gorm.DB) error {
	var count int64
	db.Model(&models.Branch{}).Where("code = ?", "HQ").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("默认分支已存在，跳过创建")
		return nil
	}

	branch := &models.Branch{
		Name:       "总部",
		Code:       "HQ",
		BranchType: models.BranchTypeCorporate,
		Status:     models.BranchStatusActive,
	}

	if err := db.Create(branch).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("默认分支创建成功")
	return nil
}

// permissionRow 种子权限行: role, module, level, export, modify, delete, create
type permissionRow struct {
	role, module, level                      string
	canExport, canModify, canDelete, canCreate bool
}

// initializePermissionMatrix 初始化 (角色, 模块) 权限矩阵
//
// 矩阵里没有的 (role, module) 组合一律视为无权限。student/parent
// 角色刻意不给任何行：门户类访问不走后台权限矩阵。
func initializePermissionMatrix(db *gorm.DB) error {
	defaultPermissions := []permissionRow{
		// admin - 全量权限
		{models.RoleAdmin, models.ModuleFinance, models.PermissionFull, true, true, true, true},
		{models.RoleAdmin, models.ModuleStudents, models.PermissionFull, true, true, true, true},
		{models.RoleAdmin, models.ModuleAttendance, models.PermissionFull, true, true, true, true},
		{models.RoleAdmin, models.ModuleCourses, models.PermissionFull, true, true, true, true},
		{models.RoleAdmin, models.ModuleBatches, models.PermissionFull, true, true, true, true},
		{models.RoleAdmin, models.ModuleStaff, models.PermissionFull, true, true, true, true},
		{models.RoleAdmin, models.ModuleReports, models.PermissionFull, true, true, true, true},
		{models.RoleAdmin, models.ModuleSettings, models.PermissionFull, true, true, true, true},

		// regional_manager - 接近全量，不可删
		{models.RoleRegionalManager, models.ModuleFinance, models.PermissionFull, true, true, true, true},
		{models.RoleRegionalManager, models.ModuleStudents, models.PermissionFull, true, true, false, true},
		{models.RoleRegionalManager, models.ModuleAttendance, models.PermissionWrite, true, true, false, true},
		{models.RoleRegionalManager, models.ModuleCourses, models.PermissionWrite, true, true, false, true},
		{models.RoleRegionalManager, models.ModuleBatches, models.PermissionWrite, true, true, false, true},
		{models.RoleRegionalManager, models.ModuleStaff, models.PermissionWrite, true, true, false, true},
		{models.RoleRegionalManager, models.ModuleReports, models.PermissionFull, true, false, false, false},
		{models.RoleRegionalManager, models.ModuleSettings, models.PermissionRead, false, false, false, false},

		// franchise - 财务与日常运营
		{models.RoleFranchise, models.ModuleFinance, models.PermissionWrite, true, true, false, true},
		{models.RoleFranchise, models.ModuleStudents, models.PermissionWrite, true, true, false, true},
		{models.RoleFranchise, models.ModuleAttendance, models.PermissionWrite, true, true, false, true},
		{models.RoleFranchise, models.ModuleCourses, models.PermissionRead, true, false, false, false},
		{models.RoleFranchise, models.ModuleBatches, models.PermissionWrite, true, true, false, true},
		{models.RoleFranchise, models.ModuleStaff, models.PermissionRead, true, false, false, false},
		{models.RoleFranchise, models.ModuleReports, models.PermissionRead, true, false, false, false},
		{models.RoleFranchise, models.ModuleSettings, models.PermissionRead, false, false, false, false},

		// branch_manager - 分支级运营
		{models.RoleBranchManager, models.ModuleFinance, models.PermissionWrite, true, true, false, true},
		{models.RoleBranchManager, models.ModuleStudents, models.PermissionWrite, true, true, false, true},
		{models.RoleBranchManager, models.ModuleAttendance, models.PermissionWrite, true, true, false, true},
		{models.RoleBranchManager, models.ModuleCourses, models.PermissionRead, true, false, false, false},
		{models.RoleBranchManager, models.ModuleBatches, models.PermissionWrite, true, true, false, true},
		{models.RoleBranchManager, models.ModuleStaff, models.PermissionRead, true, false, false, false},
		{models.RoleBranchManager, models.ModuleReports, models.PermissionRead, true, false, false, false},
		{models.RoleBranchManager, models.ModuleSettings, models.PermissionRead, false, false, false, false},

		// staff - 日常操作
		{models.RoleStaff, models.ModuleFinance, models.PermissionRead, true, false, false, false},
		{models.RoleStaff, models.ModuleStudents, models.PermissionWrite, false, true, false, true},
		{models.RoleStaff, models.ModuleAttendance, models.PermissionWrite, false, true, false, true},
		{models.RoleStaff, models.ModuleCourses, models.PermissionRead, false, false, false, false},
		{models.RoleStaff, models.ModuleBatches, models.PermissionRead, false, false, false, false},
		{models.RoleStaff, models.ModuleReports, models.PermissionRead, false, false, false, false},
		{models.RoleStaff, models.ModuleSettings, models.PermissionRead, false, false, false, false},

		// trainer - 以考勤为中心的最小权限
		{models.RoleTrainer, models.ModuleAttendance, models.PermissionWrite, false, true, false, true},
		{models.RoleTrainer, models.ModuleStudents, models.PermissionRead, false, false, false, false},
		{models.RoleTrainer, models.ModuleBatches, models.PermissionRead, false, false, false, false},
		{models.RoleTrainer, models.ModuleCourses, models.PermissionRead, false, false, false, false},
		{models.RoleTrainer, models.ModuleReports, models.PermissionRead, false, false, false, false},
		{models.RoleTrainer, models.ModuleSettings, models.PermissionRead, false, false, false, false},
	}

	// 幂等：已初始化过则跳过
	var existingCount int64
	if err := db.Model(&models.RolePermission{}).Count(&existingCount).Error; err != nil {
		return err
	}
	if existingCount > 0 {
		logger.GetLogger().Infof("权限矩阵已存在 %d 行，跳过初始化", existingCount)
		return nil
	}

	for _, row := range defaultPermissions {
		grant := models.RolePermission{
			Role:            row.role,
			Module:          row.module,
			PermissionLevel: row.level,
			CanExport:       row.canExport,
			CanModify:       row.canModify,
			CanDelete:       row.canDelete,
			CanCreate:       row.canCreate,
		}
		if err := db.Create(&grant).Error; err != nil {
			return err
		}
	}

	logger.GetLogger().Infof("权限矩阵初始化成功，共 %d 行", len(defaultPermissions))
	return nil
}

// createDefaultAdmin 创建默认管理员用户
func createDefaultAdmin(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("默认管理员已存在，跳过创建")
		return nil
	}

	admin := &models.User{
		Username: "admin",
		FullName: "系统管理员",
		Role:     models.RoleAdmin,
		Status:   models.UserStatusActive,
	}
	if err := admin.SetPassword("Admin@123"); err != nil {
		return err
	}

	if err := db.Create(admin).Error; err != nil {
		return err
	}

	logger.GetLogger().Warn("默认管理员创建成功（admin / Admin@123），请立即修改密码")
	return nil
}
