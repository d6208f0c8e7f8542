package access

import (
	"eims/internal/models"
	"eims/pkg/logger"
	"errors"

	"gorm.io/gorm"
)

// PermissionTable (角色, 模块) 权限矩阵的只读查询
//
// 矩阵由种子程序初始化，之后仅管理面可改，读多写极少。
// 查不到的组合一律按无权限处理：权限检查宁可误拒，绝不误放。
type PermissionTable struct {
	db *gorm.DB
}

// NewPermissionTable 创建权限矩阵查询器
func NewPermissionTable(db *gorm.DB) *PermissionTable {
	return &PermissionTable{db: db}
}

// GetGrant 查询 (role, module) 的权限行
//
// 缺行返回 (nil, nil)，不是错误——但会以WARN记一条配置缺口日志，
// 便于区分"矩阵没配"和"安全拒绝"。只有存储层故障才返回 error。
func (t *PermissionTable) GetGrant(role, module string) (*models.RolePermission, error) {
	var grant models.RolePermission
	err := t.db.Where("role = ? AND module = ?", role, module).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.GetLogger().WithFields(map[string]interface{}{
				"role":   role,
				"module": module,
				"kind":   "configuration_missing",
			}).Warn("权限矩阵缺少该 (role, module) 行，按无权限处理")
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

// HasAction 判断角色对模块是否允许指定操作
//
// 任何查询失败（缺行、存储故障）都返回 false，本方法永不抛错，
// 每个受保护路由都依赖它。
func (t *PermissionTable) HasAction(role, module, action string) bool {
	grant, err := t.GetGrant(role, module)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"role":   role,
			"module": module,
			"action": action,
		}).Errorf("权限查询失败，按拒绝处理: %v", err)
		return false
	}
	if grant == nil {
		return false
	}
	return grant.Allows(action)
}
