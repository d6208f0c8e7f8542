package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog 审计日志
//
// 记录拒绝访问事件与敏感变更，附带决策时刻的会话上下文快照
// （角色与分支范围），供事后追溯。解析器本身不写日志，由调用方落库。
type AuditLog struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	RequestID   string         `json:"request_id" gorm:"size:40;index"`
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	Username    string         `json:"username" gorm:"size:100"`
	Role        string         `json:"role" gorm:"size:50"`
	BranchScope string         `json:"branch_scope" gorm:"size:255"` // 决策时的分支范围快照，逗号分隔；* 表示不限
	Module      string         `json:"module" gorm:"size:50;index"`
	Action      string         `json:"action" gorm:"size:50"`
	TargetType  string         `json:"target_type" gorm:"size:50"`
	TargetID    uint           `json:"target_id"`
	Decision    string         `json:"decision" gorm:"size:20;index"` // allow/deny
	Reason      string         `json:"reason" gorm:"size:255"`
	IP          string         `json:"ip" gorm:"size:50"`
	Details     datatypes.JSON `json:"details" gorm:"type:json"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index"`
}

// TableName 表名
func (AuditLog) TableName() string {
	return "audit_logs"
}

// 审计决定常量
const (
	AuditDecisionAllow = "allow"
	AuditDecisionDeny  = "deny"
)
