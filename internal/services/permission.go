package services

import (
	"eims/internal/models"
	"fmt"

	"gorm.io/gorm"
)

// PermissionService 权限矩阵的管理面
//
// 矩阵由种子程序初始化后，这里是唯一的写入口（仅 admin 可达的
// settings 模块路由）。每次变更都应由调用方落审计日志。
type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// GetWithPage 分页获取权限矩阵行
func (s *PermissionService) GetWithPage(role, module string, page, pageSize int) ([]*models.RolePermission, int64, error) {
	var grants []*models.RolePermission
	var total int64

	query := s.db.Model(&models.RolePermission{})

	if role != "" {
		query = query.Where("role = ?", role)
	}
	if module != "" {
		query = query.Where("module = ?", module)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("role ASC, module ASC").Offset(offset).Limit(pageSize).Find(&grants).Error
	if err != nil {
		return nil, 0, err
	}

	return grants, total, nil
}

// GetByRole 获取角色的全部权限行
func (s *PermissionService) GetByRole(role string) ([]*models.RolePermission, error) {
	var grants []*models.RolePermission
	err := s.db.Where("role = ?", role).Order("module ASC").Find(&grants).Error
	return grants, err
}

// UpdateGrant 更新 (role, module) 的权限行
//
// 只更新已存在的行；新增 (role, module) 组合属于结构性变更，
// 走种子程序而不是管理面。
func (s *PermissionService) UpdateGrant(role, module, level string, canExport, canModify, canDelete, canCreate bool) (*models.RolePermission, error) {
	switch level {
	case models.PermissionNone, models.PermissionRead, models.PermissionWrite, models.PermissionFull:
	default:
		return nil, fmt.Errorf("权限等级只能是 none/read/write/full")
	}

	var grant models.RolePermission
	err := s.db.Where("role = ? AND module = ?", role, module).First(&grant).Error
	if err != nil {
		return nil, err
	}

	grant.PermissionLevel = level
	grant.CanExport = canExport
	grant.CanModify = canModify
	grant.CanDelete = canDelete
	grant.CanCreate = canCreate

	err = s.db.Save(&grant).Error
	return &grant, err
}
