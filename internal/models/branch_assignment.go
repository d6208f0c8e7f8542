package models

import (
	"time"
)

// BranchAssignment 用户-分支机构指派表
//
// (user_id, branch_id) 唯一，重复指派走幂等upsert（重新激活并更新），
// 解除指派只置 is_active=false，保留审计历史，永不物理删除。
type BranchAssignment struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_user_branch" json:"user_id"`
	BranchID     uint      `gorm:"not null;uniqueIndex:idx_user_branch" json:"branch_id"`
	RoleAtBranch string    `gorm:"size:50" json:"role_at_branch"` // 在该分支的身份标签，仅展示与审计
	AssignedBy   *uint     `json:"assigned_by"`                   // 指派人ID
	AssignedOn   time.Time `gorm:"not null" json:"assigned_on"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	Notes        string    `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// 关联
	User     User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Branch   *Branch `gorm:"foreignKey:BranchID;constraint:OnDelete:CASCADE" json:"branch,omitempty"`
	Assigner *User   `gorm:"foreignKey:AssignedBy" json:"assigner,omitempty"`
}

// TableName 指定表名
func (BranchAssignment) TableName() string {
	return "branch_assignments"
}
