package models

import (
	"time"
)

// Installment 分期计划行
type Installment struct {
	BaseModel
	InvoiceID  uint       `json:"invoice_id" gorm:"not null;index"`
	SequenceNo int        `json:"sequence_no" gorm:"not null"`
	Amount     float64    `json:"amount" gorm:"not null"`
	DueDate    time.Time  `json:"due_date" gorm:"not null;index"`
	Status     string     `json:"status" gorm:"default:'pending';size:20;index"`
	PaidAt     *time.Time `json:"paid_at"`
}

// TableName 表名
func (Installment) TableName() string {
	return "installments"
}

// 分期状态常量
const (
	InstallmentStatusPending = "pending"
	InstallmentStatusPaid    = "paid"
	InstallmentStatusOverdue = "overdue"
)
