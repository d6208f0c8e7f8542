package models

import (
	"time"
)

// BatchTrainerAssignment 讲师-班级指派表
//
// 讲师的可见范围比"所在分支"更窄：只限被明确指派的班级。
// (batch_id, trainer_id) 唯一，重复指派为幂等upsert。
type BatchTrainerAssignment struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	BatchID     uint      `gorm:"not null;uniqueIndex:idx_batch_trainer" json:"batch_id"`
	TrainerID   uint      `gorm:"not null;uniqueIndex:idx_batch_trainer" json:"trainer_id"`
	AssignedBy  *uint     `json:"assigned_by"`
	AssignedOn  time.Time `gorm:"not null" json:"assigned_on"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	RoleInBatch string    `gorm:"default:'Primary Trainer';size:50" json:"role_in_batch"` // Primary/Assistant/Guest Trainer
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联
	Batch   Batch `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"batch,omitempty"`
	Trainer User  `gorm:"foreignKey:TrainerID;constraint:OnDelete:CASCADE" json:"trainer,omitempty"`
}

// TableName 指定表名
func (BatchTrainerAssignment) TableName() string {
	return "batch_trainer_assignments"
}

// 班内角色常量
const (
	TrainerRolePrimary   = "Primary Trainer"
	TrainerRoleAssistant = "Assistant Trainer"
	TrainerRoleGuest     = "Guest Trainer"
)
