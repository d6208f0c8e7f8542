package models

import (
	"time"
)

// StaffProfile 员工档案
type StaffProfile struct {
	BaseModel
	UserID      uint       `json:"user_id" gorm:"unique;not null"`
	Designation string     `json:"designation" gorm:"size:100"`
	Department  string     `json:"department" gorm:"size:100"`
	Phone       string     `json:"phone" gorm:"size:20"`
	Email       string     `json:"email" gorm:"size:100"`
	JoinDate    *time.Time `json:"join_date"`
	Salary      float64    `json:"salary" gorm:"default:0"`
	Status      string     `json:"status" gorm:"default:'active';size:20"`
	IsDeleted   bool       `json:"is_deleted" gorm:"default:false;index"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (StaffProfile) TableName() string {
	return "staff_profiles"
}
