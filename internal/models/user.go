package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 用户模型
//
// Role 为全局角色，驱动模块级权限；用户在各分支的身份由
// BranchAssignment.RoleAtBranch 记录，只收窄数据范围不参与权限判定。
type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"unique;not null;size:100;index"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	FullName     string     `json:"full_name" gorm:"not null;size:100"`
	Email        string     `json:"email" gorm:"size:100"`
	Phone        *string    `json:"phone" gorm:"size:20"`
	Role         string     `json:"role" gorm:"not null;size:50;index"`
	Status       string     `json:"status" gorm:"default:'active';size:20"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	IsDeleted    bool       `json:"is_deleted" gorm:"default:false;index"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusLocked   = "locked"
)

// 角色常量
const (
	RoleAdmin           = "admin"
	RoleRegionalManager = "regional_manager"
	RoleFranchise       = "franchise"
	RoleBranchManager   = "branch_manager"
	RoleStaff           = "staff"
	RoleTrainer         = "trainer"
	RoleStudent         = "student"
	RoleParent          = "parent"
)

// AllRoles 合法角色集合
var AllRoles = []string{
	RoleAdmin,
	RoleRegionalManager,
	RoleFranchise,
	RoleBranchManager,
	RoleStaff,
	RoleTrainer,
	RoleStudent,
	RoleParent,
}

// IsValidRole 校验角色是否合法
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsCrossBranchRole 是否跨分支角色（可同时指派多个分支）
func IsCrossBranchRole(role string) bool {
	return role == RoleRegionalManager || role == RoleFranchise
}

// SetPassword 设置密码 - 数据操作方法
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码 - 数据操作方法
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// GetBranchAssignments 获取用户的所有活跃分支指派
func (u *User) GetBranchAssignments(db *gorm.DB) ([]BranchAssignment, error) {
	var assignments []BranchAssignment
	err := db.Where("user_id = ? AND is_active = ?", u.ID, true).
		Order("assigned_on ASC, id ASC").
		Preload("Branch").
		Find(&assignments).Error
	return assignments, err
}
