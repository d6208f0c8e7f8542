package models

import (
	"time"
)

// LoginLog 登录日志
type LoginLog struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Username  string    `json:"username" gorm:"size:100;index"`
	IP        string    `json:"ip" gorm:"size:50"`
	UserAgent string    `json:"user_agent" gorm:"size:255"`
	Success   bool      `json:"success"`
	Message   string    `json:"message" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName 表名
func (LoginLog) TableName() string {
	return "login_logs"
}
