package models

import (
	"time"
)

// Batch 班级模型
type Batch struct {
	BaseModel
	Name         string     `json:"name" gorm:"not null;size:100"`
	CourseID     uint       `json:"course_id" gorm:"not null;index"`
	BranchID     uint       `json:"branch_id" gorm:"not null;index"` // 分支归属，范围过滤的依据
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	CheckinTime  string     `json:"checkin_time" gorm:"size:10"`  // 每日上课时间，如 09:00
	CheckoutTime string     `json:"checkout_time" gorm:"size:10"` // 每日下课时间，如 12:00
	MaxCapacity  int        `json:"max_capacity" gorm:"default:30"`
	Status       string     `json:"status" gorm:"default:'Active';size:20"`
	IsDeleted    bool       `json:"is_deleted" gorm:"default:false;index"`

	// 关联
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Branch *Branch `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
}

// TableName 表名
func (b *Batch) TableName() string {
	return "batches"
}

// 班级状态常量
const (
	BatchStatusActive    = "Active"
	BatchStatusCompleted = "Completed"
	BatchStatusSuspended = "Suspended"
	BatchStatusCancelled = "Cancelled"
	BatchStatusArchived  = "Archived"
)
