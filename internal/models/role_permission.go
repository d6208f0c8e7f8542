package models

// RolePermission (角色, 模块) 权限矩阵行
//
// 粗粒度等级 none/read/write/full 之外，export/modify/delete/create
// 为独立布尔位，不由等级推导：write 级角色完全可能没有删除权。
// 未命中的 (role, module) 组合一律视为无权限。
type RolePermission struct {
	BaseModel
	Role            string `json:"role" gorm:"not null;size:50;uniqueIndex:idx_role_module"`
	Module          string `json:"module" gorm:"not null;size:50;uniqueIndex:idx_role_module"`
	PermissionLevel string `json:"permission_level" gorm:"not null;default:'read';size:20"`
	CanExport       bool   `json:"can_export" gorm:"default:false"`
	CanModify       bool   `json:"can_modify" gorm:"default:false"`
	CanDelete       bool   `json:"can_delete" gorm:"default:false"`
	CanCreate       bool   `json:"can_create" gorm:"default:false"`
}

// TableName 表名
func (RolePermission) TableName() string {
	return "role_permissions"
}

// 权限等级常量
const (
	PermissionNone  = "none"
	PermissionRead  = "read"
	PermissionWrite = "write"
	PermissionFull  = "full"
)

// 权限操作常量
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionFull   = "full"
	ActionExport = "export"
	ActionModify = "modify"
	ActionDelete = "delete"
	ActionCreate = "create"
)

// 权限模块常量
const (
	ModuleStudents   = "students"   // 学员管理
	ModuleBatches    = "batches"    // 班级管理
	ModuleAttendance = "attendance" // 考勤管理
	ModuleFinance    = "finance"    // 费用与收款
	ModuleCourses    = "courses"    // 课程管理
	ModuleStaff      = "staff"      // 员工管理
	ModuleReports    = "reports"    // 报表
	ModuleSettings   = "settings"   // 系统设置（分支/权限矩阵）
)

// branchScopedModules 受分支范围约束的模块
//
// courses 与 settings 是全局资源，模块权限通过后不再做分支过滤。
var branchScopedModules = map[string]bool{
	ModuleStudents:   true,
	ModuleBatches:    true,
	ModuleAttendance: true,
	ModuleFinance:    true,
	ModuleStaff:      true,
	ModuleReports:    true,
}

// IsBranchScopedModule 判断模块是否受分支范围约束
func IsBranchScopedModule(module string) bool {
	return branchScopedModules[module]
}

// trainerNarrowedModules 讲师角色需要进一步收窄到所带班级的模块
var trainerNarrowedModules = map[string]bool{
	ModuleBatches:    true,
	ModuleAttendance: true,
}

// IsTrainerNarrowedModule 判断模块是否按讲师所带班级收窄
func IsTrainerNarrowedModule(module string) bool {
	return trainerNarrowedModules[module]
}

// Allows 判断该权限行是否允许指定操作
//
// read ⊆ write ⊆ full；export/modify/delete/create 只看布尔位。
// 未知操作一律拒绝。
func (p *RolePermission) Allows(action string) bool {
	switch action {
	case ActionRead:
		return p.PermissionLevel == PermissionRead ||
			p.PermissionLevel == PermissionWrite ||
			p.PermissionLevel == PermissionFull
	case ActionWrite:
		return p.PermissionLevel == PermissionWrite ||
			p.PermissionLevel == PermissionFull
	case ActionFull:
		return p.PermissionLevel == PermissionFull
	case ActionExport:
		return p.CanExport
	case ActionModify:
		return p.CanModify
	case ActionDelete:
		return p.CanDelete
	case ActionCreate:
		return p.CanCreate
	}
	return false
}
