package models

import (
	"time"
)

// Student 学员模型
type Student struct {
	BaseModel
	RegNumber  string     `json:"reg_number" gorm:"unique;not null;size:30;index"`
	FullName   string     `json:"full_name" gorm:"not null;size:100"`
	Phone      string     `json:"phone" gorm:"size:20"`
	Email      string     `json:"email" gorm:"size:100"`
	BranchID   uint       `json:"branch_id" gorm:"not null;index"` // 分支归属，范围过滤的依据
	CourseID   *uint      `json:"course_id" gorm:"index"`
	BatchID    *uint      `json:"batch_id" gorm:"index"`
	Status     string     `json:"status" gorm:"default:'Active';size:20"`
	EnrolledOn *time.Time `json:"enrolled_on"`
	IsDeleted  bool       `json:"is_deleted" gorm:"default:false;index"`

	// 关联
	Branch *Branch `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Batch  *Batch  `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// TableName 表名
func (s *Student) TableName() string {
	return "students"
}

// 学员状态常量
const (
	StudentStatusActive    = "Active"
	StudentStatusCompleted = "Completed"
	StudentStatusDropped   = "Dropped"
)
