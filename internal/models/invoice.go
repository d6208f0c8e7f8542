package models

import (
	"time"
)

// Invoice 费用单模型
type Invoice struct {
	BaseModel
	InvoiceNumber string     `json:"invoice_number" gorm:"unique;not null;size:40;index"`
	StudentID     uint       `json:"student_id" gorm:"not null;index"`
	BranchID      uint       `json:"branch_id" gorm:"not null;index"` // 分支归属，范围过滤的依据
	CourseID      *uint      `json:"course_id"`
	TotalAmount   float64    `json:"total_amount" gorm:"not null"`
	PaidAmount    float64    `json:"paid_amount" gorm:"default:0"`
	BalanceAmount float64    `json:"balance_amount" gorm:"default:0"`
	Status        string     `json:"status" gorm:"default:'pending';size:20"`
	DueDate       *time.Time `json:"due_date"`
	Notes         string     `json:"notes" gorm:"size:255"`
	IsDeleted     bool       `json:"is_deleted" gorm:"default:false;index"`

	// 关联
	Student      *Student      `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Installments []Installment `gorm:"foreignKey:InvoiceID" json:"installments,omitempty"`
}

// TableName 表名
func (i *Invoice) TableName() string {
	return "invoices"
}

// 费用单状态常量
const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusPartial   = "partial"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)
